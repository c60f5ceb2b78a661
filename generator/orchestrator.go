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
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/nlpodyssey/labscribe/agents"
	"github.com/nlpodyssey/labscribe/report"
	"github.com/openai/openai-go/packages/param"
)

// The orchestrator agent never writes report content itself: its only
// tool delegates one experiment at a time to the writer agent. Generated
// markdown flows straight into the buffer, never through the
// orchestrator's conversation.

const reportOrchestratorInstructions = "You coordinate the writing of a lab report, one " +
	"experiment at a time. Call the write_experiment_section tool exactly once per experiment, " +
	"strictly in the order given: experiment 1 first, then 2, and so on. Never skip, reorder or " +
	"repeat an experiment, and never invent topics that are not in the list. Each call writes " +
	"the complete section for that experiment; wait for its confirmation before delegating the " +
	"next one. Do not write any report content yourself. Once every experiment has been " +
	"delegated successfully, reply with a one-sentence completion summary."

type writeSectionArgs struct {
	Number   int      `json:"number" jsonschema_description:"1-based position of the experiment in the report."`
	Topic    string   `json:"topic" jsonschema_description:"The experiment topic, exactly as listed in the task."`
	Headings []string `json:"headings" jsonschema_description:"The ordered section headings, exactly as listed in the task."`
	Total    int      `json:"total,omitempty" jsonschema_description:"Total number of experiments, for progress reporting."`
}

// sectionDelegate carries the state shared by all delegate calls of one
// generation: the validated request, the buffer, and the writer agent.
// Delegation is strictly sequential, so completed needs no lock.
type sectionDelegate struct {
	request   Request
	buffer    *report.Buffer
	writer    *agents.Agent
	runner    agents.Runner
	logger    *slog.Logger
	completed int
}

func newWriteSectionTool(d *sectionDelegate) agents.Tool {
	return agents.NewFunctionTool(
		"write_experiment_section",
		"Write the complete report section for one experiment. Call once per experiment, in order.",
		d.invoke,
	)
}

func newReportOrchestrator(model param.Opt[agents.AgentModel], d *sectionDelegate) *agents.Agent {
	return agents.New("ReportOrchestrator").
		WithInstructions(reportOrchestratorInstructions).
		WithModelOpt(model).
		WithTools(newWriteSectionTool(d))
}

// invoke writes one experiment section end to end: validate the
// delegation against the request, open a buffer section, run the writer,
// verify the result (retrying the writer once on a rejected draft) and
// commit.
func (d *sectionDelegate) invoke(ctx context.Context, args writeSectionArgs) (string, error) {
	total := len(d.request.Experiments)

	if args.Number < 1 || args.Number > total {
		return "", fmt.Errorf("experiment number %d is out of range: the report has %d experiments", args.Number, total)
	}
	expected := d.completed + 1
	if expected > total {
		return "", fmt.Errorf("all %d experiments are already written", total)
	}
	if args.Number != expected {
		return "", fmt.Errorf("experiments must be written in order: expected experiment %d next, got %d", expected, args.Number)
	}
	topic := d.request.Experiments[args.Number-1]
	if args.Topic != topic {
		return "", fmt.Errorf("experiment %d is %q, not %q", args.Number, topic, args.Topic)
	}
	if !slices.Equal(args.Headings, d.request.Headings) {
		return "", fmt.Errorf("section headings must be exactly: %s", strings.Join(d.request.Headings, ", "))
	}

	d.logger.Info("Delegating experiment section",
		slog.Int("number", args.Number),
		slog.Int("total", total),
		slog.String("topic", topic),
	)

	if err := d.buffer.BeginSection(); err != nil {
		return "", err
	}

	prompt := writerPrompt(d.request.Subject, args.Number, topic, d.request.Headings)
	if err := d.runWriter(ctx, prompt); err != nil {
		d.buffer.CancelSection()
		return "", err
	}

	if verr := verifySection(d.buffer.OpenSection(), args.Number, topic, d.request.Headings); verr != nil {
		d.logger.Warn("Section draft rejected, retrying writer",
			slog.Int("number", args.Number),
			slog.String("cause", verr.Error()),
		)
		if err := d.buffer.ResetOpenSection(); err != nil {
			return "", err
		}
		if err := d.runWriter(ctx, writerRetryPrompt(prompt, verr)); err != nil {
			d.buffer.CancelSection()
			return "", err
		}
		if verr = verifySection(d.buffer.OpenSection(), args.Number, topic, d.request.Headings); verr != nil {
			d.buffer.CancelSection()
			return "", fmt.Errorf("section %d failed verification after retry: %w", args.Number, verr)
		}
	}

	if err := d.buffer.CommitSection(); err != nil {
		return "", err
	}
	d.completed++

	d.logger.Info("Experiment section committed",
		slog.Int("number", args.Number),
		slog.Int("total", total),
	)
	return fmt.Sprintf("section %d of %d completed", args.Number, total), nil
}

func (d *sectionDelegate) runWriter(ctx context.Context, prompt string) error {
	_, err := d.runner.Run(ctx, d.writer, prompt)
	return err
}

// orchestratorPrompt renders the report plan given to the orchestrator.
func orchestratorPrompt(req Request) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Subject: %s\n\nExperiments:\n", req.Subject)
	for i, e := range req.Experiments {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, e)
	}
	sb.WriteString("\nSection headings for every experiment, in this order:\n")
	for _, h := range req.Headings {
		fmt.Fprintf(&sb, "- %s\n", h)
	}
	fmt.Fprintf(&sb, "\nDelegate the %d experiments one at a time, in order, with the write_experiment_section tool.", len(req.Experiments))
	return sb.String()
}
