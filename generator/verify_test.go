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
	"testing"

	"github.com/nlpodyssey/labscribe/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifySection(t *testing.T) {
	headings := []string{"Aim", "Theory"}

	t.Run("valid section", func(t *testing.T) {
		md := "## Experiment 1: Pendulum\n\n### Aim\n\nMeasure g.\n\n### Theory\n\nSimple harmonic motion."
		assert.NoError(t, verifySection(md, 1, "Pendulum", headings))
	})

	t.Run("surrounding whitespace is tolerated", func(t *testing.T) {
		md := "\n  ## Experiment 1: Pendulum\n\n  ### Aim\n\ntext\n\n### Theory\n\ntext\n\n"
		assert.NoError(t, verifySection(md, 1, "Pendulum", headings))
	})

	t.Run("empty section", func(t *testing.T) {
		err := verifySection("   \n\t", 1, "Pendulum", headings)
		assert.ErrorContains(t, err, "empty")
	})

	t.Run("wrong title", func(t *testing.T) {
		md := "## Pendulum\n\n### Aim\n\ntext\n\n### Theory\n\ntext"
		err := verifySection(md, 1, "Pendulum", headings)
		assert.ErrorContains(t, err, `must start with "## Experiment 1: Pendulum"`)
	})

	t.Run("wrong number in title", func(t *testing.T) {
		md := "## Experiment 2: Pendulum\n\n### Aim\n\ntext\n\n### Theory\n\ntext"
		err := verifySection(md, 1, "Pendulum", headings)
		assert.ErrorContains(t, err, "must start with")
	})

	t.Run("missing heading", func(t *testing.T) {
		md := "## Experiment 1: Pendulum\n\n### Aim\n\ntext"
		err := verifySection(md, 1, "Pendulum", headings)
		assert.ErrorContains(t, err, "headings must be exactly")
	})

	t.Run("extra heading", func(t *testing.T) {
		md := "## Experiment 1: Pendulum\n\n### Aim\n\ntext\n\n### Theory\n\ntext\n\n### Conclusion\n\ntext"
		err := verifySection(md, 1, "Pendulum", headings)
		assert.ErrorContains(t, err, "headings must be exactly")
	})

	t.Run("wrong heading order", func(t *testing.T) {
		md := "## Experiment 1: Pendulum\n\n### Theory\n\ntext\n\n### Aim\n\ntext"
		err := verifySection(md, 1, "Pendulum", headings)
		assert.ErrorContains(t, err, "headings must be exactly")
	})

	t.Run("second experiment title", func(t *testing.T) {
		md := "## Experiment 1: Pendulum\n\n### Aim\n\ntext\n\n### Theory\n\ntext\n\n## Experiment 2: Optics"
		err := verifySection(md, 1, "Pendulum", headings)
		assert.ErrorContains(t, err, "single experiment title")
	})
}

func TestVerifyReport(t *testing.T) {
	req := Request{
		Subject:     "Physics",
		Experiments: []string{"Pendulum", "Optics"},
		Headings:    []string{"Aim"},
	}

	buf := report.NewBuffer("report-1", "Physics", 2)
	require.NoError(t, buf.BeginSection())
	require.NoError(t, buf.Append("## Experiment 1: Pendulum\n\n### Aim\n\ntext"))
	require.NoError(t, buf.CommitSection())

	err := verifyReport(buf, req)
	assert.ErrorContains(t, err, "report has 1 sections, want 2")

	require.NoError(t, buf.BeginSection())
	require.NoError(t, buf.Append("## Experiment 2: Optics\n\n### Aim\n\ntext"))
	require.NoError(t, buf.CommitSection())

	assert.NoError(t, verifyReport(buf, req))
}
