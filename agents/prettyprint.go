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

package agents

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

func indent(text string, indentLevel int) string {
	indentString := strings.Repeat("  ", indentLevel)

	var sb strings.Builder
	// Equivalent of iterating strings.Lines (Go 1.24+): each segment keeps
	// its trailing newline; the empty segment after a final newline is skipped.
	for _, line := range strings.SplitAfter(text, "\n") {
		if line == "" {
			continue
		}
		sb.WriteString(indentString)
		sb.WriteString(line)
	}
	return sb.String()
}

func PrettyPrintResult(result RunResult) string {
	var sb strings.Builder

	sb.WriteString("RunResult:")
	_, _ = fmt.Fprintf(&sb, "\n- Last agent: Agent(name=%q, ...)", result.LastAgent.Name)

	sb.WriteString("\n- Final output:\n")
	sb.WriteString(indent(strings.TrimSuffix(result.FinalOutput, "\n"), 2))

	_, _ = fmt.Fprintf(&sb, "\n- %d new item(s)", len(result.NewItems))
	_, _ = fmt.Fprintf(&sb, "\n- %d raw response(s)", len(result.RawResponses))
	sb.WriteString("\n(See `RunResult` for more details)")

	return sb.String()
}

func SimplePrettyJSONMarshal(v any) string {
	s, err := PrettyJSONMarshal(v)
	if err != nil {
		return fmt.Sprintf("<<%s>>", err)
	}
	return s
}

func PrettyJSONMarshal(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	err := enc.Encode(v)
	return buf.String(), err
}
