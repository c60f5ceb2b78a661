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

package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferSectionLifecycle(t *testing.T) {
	b := NewBuffer("report-1", "Physics", 2)

	assert.Equal(t, "report-1", b.ID())
	assert.Equal(t, "Physics", b.Subject())
	assert.Equal(t, StatusRunning, b.Status())
	assert.Equal(t, "", b.Markdown())

	require.NoError(t, b.BeginSection())
	require.NoError(t, b.Append("## Experiment 1: Pendulum"))
	require.NoError(t, b.Append("### Aim\n\nMeasure g."))
	assert.Equal(t, "## Experiment 1: Pendulum\n\n### Aim\n\nMeasure g.", b.OpenSection())

	require.NoError(t, b.CommitSection())
	assert.Equal(t, 1, b.SectionCount())
	assert.Equal(t, "## Experiment 1: Pendulum\n\n### Aim\n\nMeasure g.", b.Markdown())
	assert.Equal(t, "", b.OpenSection())
}

func TestBufferSectionsAreJoinedInOrder(t *testing.T) {
	b := NewBuffer("report-1", "Chemistry", 2)

	require.NoError(t, b.BeginSection())
	require.NoError(t, b.Append("first"))
	require.NoError(t, b.CommitSection())

	require.NoError(t, b.BeginSection())
	require.NoError(t, b.Append("second"))
	require.NoError(t, b.CommitSection())

	assert.Equal(t, "first\n\nsecond", b.Markdown())

	done, total := b.Progress()
	assert.Equal(t, 2, done)
	assert.Equal(t, 2, total)
}

func TestBufferMarkdownIncludesOpenSection(t *testing.T) {
	b := NewBuffer("report-1", "Biology", 2)

	require.NoError(t, b.BeginSection())
	require.NoError(t, b.Append("committed"))
	require.NoError(t, b.CommitSection())

	require.NoError(t, b.BeginSection())
	require.NoError(t, b.Append("in progress"))

	assert.Equal(t, "committed\n\nin progress", b.Markdown())
	assert.Equal(t, 1, b.SectionCount())
}

func TestBufferBeginSectionTwice(t *testing.T) {
	b := NewBuffer("report-1", "Physics", 1)

	require.NoError(t, b.BeginSection())
	err := b.BeginSection()
	assert.ErrorContains(t, err, "already open")
}

func TestBufferAppendWithoutOpenSection(t *testing.T) {
	b := NewBuffer("report-1", "Physics", 1)

	err := b.Append("orphan")
	assert.ErrorContains(t, err, "no section is open")
}

func TestBufferAppendEmptyFragment(t *testing.T) {
	b := NewBuffer("report-1", "Physics", 1)

	require.NoError(t, b.BeginSection())
	err := b.Append("   \n\t")
	assert.ErrorContains(t, err, "empty")
}

func TestBufferCommitEmptySection(t *testing.T) {
	b := NewBuffer("report-1", "Physics", 1)

	require.NoError(t, b.BeginSection())
	err := b.CommitSection()
	assert.ErrorContains(t, err, "empty")

	// The section stays open, so it can still be written and committed.
	require.NoError(t, b.Append("content"))
	require.NoError(t, b.CommitSection())
	assert.Equal(t, 1, b.SectionCount())
}

func TestBufferCommitWithoutOpenSection(t *testing.T) {
	b := NewBuffer("report-1", "Physics", 1)

	err := b.CommitSection()
	assert.ErrorContains(t, err, "no section is open")
}

func TestBufferResetOpenSection(t *testing.T) {
	b := NewBuffer("report-1", "Physics", 1)

	require.NoError(t, b.BeginSection())
	require.NoError(t, b.Append("draft that will be discarded"))
	require.NoError(t, b.ResetOpenSection())
	assert.Equal(t, "", b.OpenSection())

	require.NoError(t, b.Append("rewritten"))
	require.NoError(t, b.CommitSection())
	assert.Equal(t, "rewritten", b.Markdown())
}

func TestBufferResetWithoutOpenSection(t *testing.T) {
	b := NewBuffer("report-1", "Physics", 1)

	err := b.ResetOpenSection()
	assert.ErrorContains(t, err, "no section is open")
}

func TestBufferCancelSection(t *testing.T) {
	b := NewBuffer("report-1", "Physics", 2)

	require.NoError(t, b.BeginSection())
	require.NoError(t, b.Append("done"))
	require.NoError(t, b.CommitSection())

	require.NoError(t, b.BeginSection())
	require.NoError(t, b.Append("abandoned"))
	b.CancelSection()

	assert.Equal(t, "done", b.Markdown())
	assert.Equal(t, 1, b.SectionCount())

	// Canceling again is a no-op.
	b.CancelSection()

	// A new section can be opened after a cancel.
	require.NoError(t, b.BeginSection())
}

func TestBufferStatus(t *testing.T) {
	b := NewBuffer("report-1", "Physics", 1)

	assert.Equal(t, StatusRunning, b.Status())
	b.SetStatus(StatusCompleted)
	assert.Equal(t, StatusCompleted, b.Status())
	b.SetStatus(StatusFailed)
	assert.Equal(t, StatusFailed, b.Status())
}

func TestBufferSnapshot(t *testing.T) {
	b := NewBuffer("report-1", "Physics", 3)

	require.NoError(t, b.BeginSection())
	require.NoError(t, b.Append("alpha"))
	require.NoError(t, b.CommitSection())

	require.NoError(t, b.BeginSection())
	require.NoError(t, b.Append("beta"))

	snap := b.Snapshot()
	assert.Equal(t, "report-1", snap.ID)
	assert.Equal(t, "Physics", snap.Subject)
	assert.Equal(t, "alpha\n\nbeta", snap.Markdown)
	assert.Equal(t, StatusRunning, snap.Status)
	assert.Equal(t, 1, snap.SectionsDone)
	assert.Equal(t, 3, snap.SectionsTotal)
}

func TestBufferSubscribeReceivesChanges(t *testing.T) {
	b := NewBuffer("report-1", "Physics", 1)

	ch := b.Subscribe()
	t.Cleanup(func() { b.Unsubscribe(ch) })

	require.NoError(t, b.BeginSection())
	require.NoError(t, b.Append("content"))

	select {
	case <-ch:
	default:
		t.Fatal("expected a change signal after Append")
	}
}

func TestBufferSubscribeCoalescesSignals(t *testing.T) {
	b := NewBuffer("report-1", "Physics", 1)

	ch := b.Subscribe()
	t.Cleanup(func() { b.Unsubscribe(ch) })

	require.NoError(t, b.BeginSection())
	require.NoError(t, b.Append("one"))
	require.NoError(t, b.Append("two"))
	require.NoError(t, b.CommitSection())
	b.SetStatus(StatusCompleted)

	// A slow consumer sees at least one pending signal, never a
	// blocked producer.
	select {
	case <-ch:
	default:
		t.Fatal("expected a pending change signal")
	}

	select {
	case <-ch:
		t.Fatal("signals must be coalesced into a single pending one")
	default:
	}
}

func TestBufferUnsubscribeStopsSignals(t *testing.T) {
	b := NewBuffer("report-1", "Physics", 1)

	ch := b.Subscribe()
	b.Unsubscribe(ch)

	require.NoError(t, b.BeginSection())
	require.NoError(t, b.Append("content"))

	select {
	case <-ch:
		t.Fatal("unexpected signal after Unsubscribe")
	default:
	}
}
