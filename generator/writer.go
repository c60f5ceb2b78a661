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
	"strings"

	"github.com/nlpodyssey/labscribe/agents"
	"github.com/nlpodyssey/labscribe/report"
	"github.com/openai/openai-go/packages/param"
)

// The writer agent produces the markdown of a single experiment section.
// It never sees the rest of the report: everything it writes goes through
// the append tool into the section currently open on the buffer.

const sectionWriterInstructions = "You write one section of a lab report. You are given the " +
	"experiment number, the topic, and the exact section headings to use. Emit the section by " +
	"calling the append_report_section tool with markdown fragments. Start with the level-2 " +
	"title line exactly as given. Then reproduce each requested heading as a level-3 heading " +
	"(### Heading), in the given order, adding none and omitting none, and follow each with " +
	"one or two short paragraphs of at most four lines. When the whole section has been " +
	"appended, reply with a short confirmation and no further tool calls."

type appendSectionArgs struct {
	Markdown string `json:"markdown" jsonschema_description:"A markdown fragment to append to the section under construction."`
}

func newAppendSectionTool(buf *report.Buffer) agents.Tool {
	return agents.NewFunctionTool(
		"append_report_section",
		"Append a markdown fragment to the report section under construction.",
		func(ctx context.Context, args appendSectionArgs) (string, error) {
			if err := buf.Append(args.Markdown); err != nil {
				return "", err
			}
			return "appended", nil
		},
	)
}

func newSectionWriter(model param.Opt[agents.AgentModel], buf *report.Buffer) *agents.Agent {
	return agents.New("SectionWriter").
		WithInstructions(sectionWriterInstructions).
		WithModelOpt(model).
		WithTools(newAppendSectionTool(buf))
}

// writerPrompt renders the task description for one experiment section.
func writerPrompt(subject string, number int, topic string, headings []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Write section %d of a lab report on %s.\n\n", number, subject)
	fmt.Fprintf(&sb, "Experiment topic: %s\n", topic)
	fmt.Fprintf(&sb, "Title line: ## Experiment %d: %s\n\n", number, topic)
	sb.WriteString("Section headings, in this order:\n")
	for _, h := range headings {
		fmt.Fprintf(&sb, "### %s\n", h)
	}
	sb.WriteString("\nAppend the section with the append_report_section tool, then confirm.")
	return sb.String()
}

// writerRetryPrompt asks for a full rewrite after a draft was rejected.
func writerRetryPrompt(prompt string, cause error) string {
	return fmt.Sprintf(
		"%s\n\nYour previous draft was rejected: %v. Rewrite the whole section from scratch, following the required title and headings exactly.",
		prompt, cause,
	)
}
