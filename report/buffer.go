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

// Package report provides the in-memory report buffer that accumulates
// markdown sections as they are written, plus the registry and archive
// stores that keep finished reports around.
package report

import (
	"errors"
	"strings"
	"sync"
	"time"
)

// Status describes the lifecycle of a report generation.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Buffer accumulates the markdown of a single report. Sections are
// committed one at a time, in order, and committed content is never
// rewritten. At most one section can be open for writing at any moment.
//
// All methods are safe for concurrent use.
type Buffer struct {
	id        string
	subject   string
	createdAt time.Time

	mu          sync.Mutex
	sections    []string
	fragments   []string
	sectionOpen bool
	status      Status
	total       int
	subscribers map[chan struct{}]struct{}
}

// Snapshot is a point-in-time view of a buffer, ready to be serialized
// for stream and poll consumers.
type Snapshot struct {
	ID            string `json:"id"`
	Subject       string `json:"subject"`
	Markdown      string `json:"markdown"`
	Status        Status `json:"status"`
	SectionsDone  int    `json:"sections_done"`
	SectionsTotal int    `json:"sections_total"`
}

// NewBuffer returns an empty running buffer for a report with the given
// identifier and subject, expected to hold totalSections sections.
func NewBuffer(id, subject string, totalSections int) *Buffer {
	return &Buffer{
		id:          id,
		subject:     subject,
		createdAt:   time.Now(),
		status:      StatusRunning,
		total:       totalSections,
		subscribers: make(map[chan struct{}]struct{}),
	}
}

// ID returns the report identifier.
func (b *Buffer) ID() string { return b.id }

// Subject returns the report subject.
func (b *Buffer) Subject() string { return b.subject }

// CreatedAt returns the buffer creation time.
func (b *Buffer) CreatedAt() time.Time { return b.createdAt }

// BeginSection opens a new section for writing. It reports an error if
// a section is already open.
func (b *Buffer) BeginSection() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sectionOpen {
		return errors.New("a section is already open")
	}
	b.sectionOpen = true
	b.fragments = nil
	return nil
}

// Append adds a markdown fragment to the open section.
func (b *Buffer) Append(fragment string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.sectionOpen {
		return errors.New("no section is open")
	}
	if strings.TrimSpace(fragment) == "" {
		return errors.New("fragment is empty")
	}
	b.fragments = append(b.fragments, fragment)
	b.notifyLocked()
	return nil
}

// ResetOpenSection discards the accumulated fragments of the open
// section but keeps it open, so it can be rewritten from scratch.
func (b *Buffer) ResetOpenSection() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.sectionOpen {
		return errors.New("no section is open")
	}
	b.fragments = nil
	b.notifyLocked()
	return nil
}

// CancelSection drops the open section, if any, without committing it.
func (b *Buffer) CancelSection() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.sectionOpen {
		return
	}
	b.sectionOpen = false
	b.fragments = nil
	b.notifyLocked()
}

// CommitSection seals the open section, appending its content to the
// committed report. Committing an empty section is an error.
func (b *Buffer) CommitSection() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.sectionOpen {
		return errors.New("no section is open")
	}
	content := strings.Join(b.fragments, "\n\n")
	if strings.TrimSpace(content) == "" {
		return errors.New("section is empty")
	}
	b.sections = append(b.sections, content)
	b.sectionOpen = false
	b.fragments = nil
	b.notifyLocked()
	return nil
}

// OpenSection returns the content accumulated so far in the open
// section, or the empty string if no section is open.
func (b *Buffer) OpenSection() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.sectionOpen {
		return ""
	}
	return strings.Join(b.fragments, "\n\n")
}

// Markdown returns the full report content: all committed sections
// followed by the open section, if one is in progress.
func (b *Buffer) Markdown() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.markdownLocked()
}

func (b *Buffer) markdownLocked() string {
	parts := b.sections
	if b.sectionOpen && len(b.fragments) > 0 {
		parts = append(parts[:len(parts):len(parts)], strings.Join(b.fragments, "\n\n"))
	}
	return strings.Join(parts, "\n\n")
}

// SectionCount returns the number of committed sections.
func (b *Buffer) SectionCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sections)
}

// Progress returns the number of committed sections and the expected
// total.
func (b *Buffer) Progress() (done, total int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sections), b.total
}

// Status returns the current lifecycle status.
func (b *Buffer) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

// SetStatus updates the lifecycle status and notifies subscribers.
func (b *Buffer) SetStatus(status Status) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status = status
	b.notifyLocked()
}

// Snapshot returns a consistent view of the buffer.
func (b *Buffer) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Snapshot{
		ID:            b.id,
		Subject:       b.subject,
		Markdown:      b.markdownLocked(),
		Status:        b.status,
		SectionsDone:  len(b.sections),
		SectionsTotal: b.total,
	}
}

// Subscribe registers a change listener. The returned channel receives
// a signal whenever the buffer content or status changes. Signals are
// coalesced: a slow consumer sees at least one signal for any burst of
// changes. Call Unsubscribe when done.
func (b *Buffer) Subscribe() chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan struct{}, 1)
	b.subscribers[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a listener registered with Subscribe.
func (b *Buffer) Unsubscribe(ch chan struct{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subscribers, ch)
}

func (b *Buffer) notifyLocked() {
	for ch := range b.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
