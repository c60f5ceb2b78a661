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
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nlpodyssey/labscribe/config"
	"github.com/nlpodyssey/labscribe/generator"
	"github.com/spf13/cobra"
)

var (
	generateSubject     string
	generateExperiments []string
	generateHeadings    []string
	generateOutput      string
	generatePDFPath     string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate one lab report and print its markdown",
	Example: `  labscribe generate --subject "Physics 101" \
    --experiment "Pendulum period measurement" \
    --experiment "Hooke's law with springs" \
    --heading Aim --heading Procedure --heading Results`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringVarP(&generateSubject, "subject", "s", "", "report subject")
	generateCmd.Flags().StringArrayVarP(&generateExperiments, "experiment", "e", nil, "experiment topic, repeatable, in report order")
	generateCmd.Flags().StringArrayVar(&generateHeadings, "heading", nil, "section heading, repeatable, applied to every experiment")
	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "", "write the markdown to this file instead of stdout")
	generateCmd.Flags().StringVar(&generatePDFPath, "pdf", "", "additionally render a PDF to this file")
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := buildLogger(cfg.Log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := buildStore(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to open report archive: %w", err)
	}
	defer closeStore(store, logger)

	gen := buildGenerator(cfg, store, logger)
	result, err := gen.Generate(ctx, generator.Request{
		Subject:     generateSubject,
		Experiments: generateExperiments,
		Headings:    generateHeadings,
	})
	if err != nil {
		return err
	}

	if generateOutput == "" || generateOutput == "-" {
		fmt.Fprintln(cmd.OutOrStdout(), result.Markdown)
	} else if err := os.WriteFile(generateOutput, []byte(result.Markdown+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write markdown: %w", err)
	}

	if generatePDFPath != "" {
		pdf, err := buildRenderer(cfg.PDF).RenderPDF(ctx, result.Markdown)
		if err != nil {
			return err
		}
		if err := os.WriteFile(generatePDFPath, pdf, 0o644); err != nil {
			return fmt.Errorf("failed to write PDF: %w", err)
		}
	}

	logger.Info("Report generated",
		slog.String("reportID", result.ID),
		slog.Int("sections", result.SectionCount),
		slog.Duration("duration", result.Duration),
		slog.Uint64("totalTokens", result.Usage.TotalTokens),
	)
	return nil
}
