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
	"sync"

	"github.com/google/uuid"
)

// Registry keeps the live report buffers of the process, indexed by
// report ID, and remembers the most recently created one.
type Registry struct {
	mu      sync.RWMutex
	buffers map[string]*Buffer
	order   []string
	latest  string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{buffers: make(map[string]*Buffer)}
}

// Create makes a new running buffer with a fresh ID, registers it and
// marks it as the latest report.
func (r *Registry) Create(subject string, totalSections int) *Buffer {
	b := NewBuffer(uuid.NewString(), subject, totalSections)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buffers[b.ID()] = b
	r.order = append(r.order, b.ID())
	r.latest = b.ID()
	return b
}

// Get returns the buffer with the given ID, or nil if there is none.
func (r *Registry) Get(id string) *Buffer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.buffers[id]
}

// Latest returns the most recently created buffer, or nil if no report
// has been generated yet.
func (r *Registry) Latest() *Buffer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.latest == "" {
		return nil
	}
	return r.buffers[r.latest]
}

// Resolve returns the buffer with the given ID, falling back to the
// latest buffer when the ID is empty.
func (r *Registry) Resolve(id string) *Buffer {
	if id == "" {
		return r.Latest()
	}
	return r.Get(id)
}

// List returns all registered buffers, newest first.
func (r *Registry) List() []*Buffer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Buffer, 0, len(r.order))
	for i := len(r.order) - 1; i >= 0; i-- {
		out = append(out, r.buffers[r.order[i]])
	}
	return out
}
