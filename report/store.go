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
	"context"
	"time"
)

// Record is a finished report as persisted by a Store.
type Record struct {
	ID           string    `json:"id"`
	Subject      string    `json:"subject"`
	Markdown     string    `json:"markdown"`
	SectionCount int       `json:"section_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store archives finished reports.
type Store interface {
	// Save persists a report record, replacing any existing record
	// with the same ID.
	Save(ctx context.Context, rec Record) error

	// Get returns the record with the given ID, or nil if absent.
	Get(ctx context.Context, id string) (*Record, error)

	// List returns up to limit records, newest first. A non-positive
	// limit returns all records.
	List(ctx context.Context, limit int) ([]Record, error)

	// Close releases the underlying resources.
	Close(ctx context.Context) error
}

// RecordFromBuffer builds an archive record from a finished buffer.
func RecordFromBuffer(b *Buffer) Record {
	return Record{
		ID:           b.ID(),
		Subject:      b.Subject(),
		Markdown:     b.Markdown(),
		SectionCount: b.SectionCount(),
		CreatedAt:    b.CreatedAt(),
	}
}
