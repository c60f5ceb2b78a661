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
	"fmt"
	"slices"
	"strings"

	"github.com/nlpodyssey/labscribe/report"
)

// verifySection checks the mechanical contract of one experiment
// section: it starts with the level-2 title line, contains every
// requested heading as a level-3 heading in the given order, and no
// other headings.
func verifySection(markdown string, number int, topic string, headings []string) error {
	trimmed := strings.TrimSpace(markdown)
	if trimmed == "" {
		return fmt.Errorf("section %d is empty", number)
	}

	lines := strings.Split(trimmed, "\n")
	wantTitle := fmt.Sprintf("## Experiment %d: %s", number, topic)
	if strings.TrimSpace(lines[0]) != wantTitle {
		return fmt.Errorf("section must start with %q", wantTitle)
	}

	var got []string
	for _, line := range lines[1:] {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "### "):
			got = append(got, strings.TrimSpace(strings.TrimPrefix(line, "### ")))
		case strings.HasPrefix(line, "## "):
			return fmt.Errorf("section %d must contain a single experiment title", number)
		}
	}
	if !slices.Equal(got, headings) {
		return fmt.Errorf(
			"section %d headings must be exactly [%s] in order, got [%s]",
			number, strings.Join(headings, ", "), strings.Join(got, ", "),
		)
	}
	return nil
}

// verifyReport checks a finished buffer against the request: one
// committed section per experiment. Section order and per-section
// structure are enforced at commit time, so the count is the only
// remaining property.
func verifyReport(buf *report.Buffer, req Request) error {
	if n := buf.SectionCount(); n != len(req.Experiments) {
		return fmt.Errorf("report has %d sections, want %d", n, len(req.Experiments))
	}
	return nil
}
