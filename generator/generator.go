// Copyright 2025 The NLP Odyssey Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package generator

import (
	"context"
	"log/slog"
	"time"

	"github.com/nlpodyssey/labscribe/agents"
	"github.com/nlpodyssey/labscribe/report"
	"github.com/nlpodyssey/labscribe/usage"
	"github.com/openai/openai-go/packages/param"
)

const (
	// DefaultWriterMaxTurns bounds each nested writer run.
	DefaultWriterMaxTurns = 8

	// DefaultTurnHeadroom is added to the experiment count to bound the
	// orchestrator run. One delegate call per experiment plus the final
	// summary fits well within it.
	DefaultTurnHeadroom = 3
)

// Params configures a Generator.
type Params struct {
	// Registry holds the live report buffers. A new one is created when nil.
	Registry *report.Registry

	// Optional archive for completed reports.
	Store report.Store

	// Model used by both the orchestrator and the writer. When unset,
	// the agents fall back to the run's ModelProvider default resolution.
	Model param.Opt[agents.AgentModel]

	// Optional model provider used to resolve model names.
	ModelProvider agents.ModelProvider

	// Optional step ceilings. Zero means the default.
	WriterMaxTurns uint64
	TurnHeadroom   uint64

	// Optional overall timeout for one generation. Zero means no limit
	// beyond the caller's context.
	Timeout time.Duration

	Logger *slog.Logger
}

// Generator runs the two-tier report generation pipeline.
type Generator struct {
	registry       *report.Registry
	store          report.Store
	model          param.Opt[agents.AgentModel]
	provider       agents.ModelProvider
	writerMaxTurns uint64
	turnHeadroom   uint64
	timeout        time.Duration
	logger         *slog.Logger
}

// Result is the outcome of a successful generation.
type Result struct {
	// ID of the generated report, resolvable through the registry and
	// the archive store.
	ID string `json:"id"`

	// The full report markdown.
	Markdown string `json:"markdown"`

	// Number of sections written (one per experiment).
	SectionCount int `json:"section_count"`

	// The orchestrator's completion summary.
	Summary string `json:"summary"`

	// Accumulated model usage across the orchestrator and all writer runs.
	Usage usage.Usage `json:"usage"`

	// Wall-clock duration of the generation.
	Duration time.Duration `json:"duration"`
}

// New returns a Generator with the given parameters.
func New(params Params) *Generator {
	registry := params.Registry
	if registry == nil {
		registry = report.NewRegistry()
	}
	logger := params.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		registry:       registry,
		store:          params.Store,
		model:          params.Model,
		provider:       params.ModelProvider,
		writerMaxTurns: cmpOr(params.WriterMaxTurns, uint64(DefaultWriterMaxTurns)),
		turnHeadroom:   cmpOr(params.TurnHeadroom, uint64(DefaultTurnHeadroom)),
		timeout:        params.Timeout,
		logger:         logger,
	}
}

// Registry returns the registry holding this generator's live buffers.
func (g *Generator) Registry() *report.Registry {
	return g.registry
}

// Generate runs the full pipeline for one request: validation, a fresh
// request-scoped buffer, the orchestrator loop delegating one writer run
// per experiment, a final report verification, and archival.
//
// The buffer is registered before the first model call, so watchers can
// follow the report as it is written. On failure the buffer status is
// set to StatusFailed and the error is returned; partial content stays
// readable.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	buf := g.registry.Create(req.Subject, len(req.Experiments))
	logger := g.logger.With(slog.String("reportID", buf.ID()))

	logger.Info("Starting report generation",
		slog.String("subject", req.Subject),
		slog.Int("experiments", len(req.Experiments)),
	)
	started := time.Now()

	u := usage.NewUsage()
	ctx = usage.NewContext(ctx, u)

	delegate := &sectionDelegate{
		request: req,
		buffer:  buf,
		writer:  newSectionWriter(g.model, buf),
		runner: agents.Runner{Config: agents.RunConfig{
			ModelProvider: g.provider,
			MaxTurns:      g.writerMaxTurns,
		}},
		logger: logger,
	}
	orchestrator := newReportOrchestrator(g.model, delegate)

	runner := agents.Runner{Config: agents.RunConfig{
		ModelProvider: g.provider,
		MaxTurns:      uint64(len(req.Experiments)) + g.turnHeadroom,
	}}

	runResult, err := runner.Run(ctx, orchestrator, orchestratorPrompt(req))
	if err != nil {
		buf.CancelSection()
		buf.SetStatus(report.StatusFailed)
		logger.Error("Report generation failed", slog.String("error", err.Error()))
		return nil, err
	}

	if err = verifyReport(buf, req); err != nil {
		buf.SetStatus(report.StatusFailed)
		logger.Error("Report verification failed", slog.String("error", err.Error()))
		return nil, err
	}

	buf.SetStatus(report.StatusCompleted)
	duration := time.Since(started)
	logger.Info("Report generation completed",
		slog.Int("sections", buf.SectionCount()),
		slog.Duration("duration", duration),
		slog.Uint64("totalTokens", u.TotalTokens),
	)

	if g.store != nil {
		// Archive failures do not fail the generation: the report is
		// still served from the in-memory buffer.
		if err = g.store.Save(ctx, report.RecordFromBuffer(buf)); err != nil {
			logger.Warn("Failed to archive report", slog.String("error", err.Error()))
		}
	}

	return &Result{
		ID:           buf.ID(),
		Markdown:     buf.Markdown(),
		SectionCount: buf.SectionCount(),
		Summary:      runResult.FinalOutput,
		Usage:        *u,
		Duration:     duration,
	}, nil
}
