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

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/nlpodyssey/labscribe/agents"
	"github.com/nlpodyssey/labscribe/config"
	"github.com/nlpodyssey/labscribe/generator"
	"github.com/nlpodyssey/labscribe/render"
	"github.com/nlpodyssey/labscribe/report"
	"github.com/nlpodyssey/labscribe/types/optional"
	"github.com/openai/openai-go/packages/param"
)

func buildLogger(cfg config.LogConfig) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	agents.SetLogger(logger)
	return logger, nil
}

// buildProvider resolves model names through the prefix-routed provider,
// with every resolved model wrapped in the retry policy.
func buildProvider(cfg config.ModelConfig) agents.ModelProvider {
	params := agents.NewMultiProviderParams{}
	if cfg.OpenAIAPIKey != "" {
		params.OpenaiAPIKey = param.NewOpt(cfg.OpenAIAPIKey)
	}
	if cfg.OpenAIBaseURL != "" {
		params.OpenaiBaseURL = optional.Value(cfg.OpenAIBaseURL)
	}
	if cfg.AnthropicAPIKey != "" {
		params.AnthropicAPIKey = param.NewOpt(cfg.AnthropicAPIKey)
	}
	return agents.NewRetryProvider(agents.NewMultiProvider(params), agents.RetryParams{
		MaxRetries: cfg.MaxRetries,
	})
}

func buildGenerator(cfg *config.Config, store report.Store, logger *slog.Logger) *generator.Generator {
	return generator.New(generator.Params{
		Store:          store,
		Model:          param.NewOpt(agents.NewAgentModelName(cfg.Model.Name)),
		ModelProvider:  buildProvider(cfg.Model),
		WriterMaxTurns: cfg.Generation.WriterMaxTurns,
		TurnHeadroom:   cfg.Generation.TurnHeadroom,
		Timeout:        cfg.Generation.Timeout,
		Logger:         logger,
	})
}

func buildStore(ctx context.Context, cfg config.StoreConfig) (report.Store, error) {
	switch cfg.Driver {
	case config.StoreDriverOff:
		return nil, nil
	case config.StoreDriverSQLite:
		return report.NewSQLiteStore(ctx, report.SQLiteStoreParams{
			DBDataSourceName: cmpOr(cfg.DSN, "file:labscribe.db"),
			Table:            cfg.Table,
		})
	case config.StoreDriverPostgres:
		return report.NewPostgresStore(ctx, report.PostgresStoreParams{
			ConnectionString: cfg.DSN,
			Table:            cfg.Table,
		})
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func buildRenderer(cfg config.PDFConfig) *render.Renderer {
	return render.New(render.Params{
		PaperWidthInches:  cfg.PaperWidthInches,
		PaperHeightInches: cfg.PaperHeightInches,
		MarginInches:      cfg.MarginInches,
		Timeout:           cfg.Timeout,
	})
}

func closeStore(store report.Store, logger *slog.Logger) {
	if store == nil {
		return
	}
	if err := store.Close(context.Background()); err != nil {
		logger.Warn("Failed to close report archive", slog.String("error", err.Error()))
	}
}
