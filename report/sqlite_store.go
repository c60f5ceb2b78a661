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
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore archives reports in a SQLite database.
type SQLiteStore struct {
	db    *sql.DB
	table string
	mu    sync.Mutex
}

// SQLiteStoreParams configures a SQLiteStore.
type SQLiteStoreParams struct {
	// DBDataSourceName is the SQLite connection string.
	// If empty, a shared in-memory database is used.
	DBDataSourceName string

	// Table is the name of the reports table. Default: "reports".
	Table string
}

// NewSQLiteStore opens (or creates) the reports database and ensures
// its schema exists.
func NewSQLiteStore(ctx context.Context, params SQLiteStoreParams) (_ *SQLiteStore, err error) {
	dsn := cmpOr(params.DBDataSourceName, "file::memory:?cache=shared")

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, db.Close())
		}
	}()

	store := &SQLiteStore{
		db:    db,
		table: cmpOr(params.Table, "reports"),
	}
	if err = store.init(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to set journal mode: %w", err)
	}

	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s" (
			id TEXT PRIMARY KEY,
			subject TEXT NOT NULL,
			markdown TEXT NOT NULL,
			section_count INTEGER NOT NULL,
			created_at TIMESTAMP NOT NULL
		)
	`, s.table))
	if err != nil {
		return fmt.Errorf("failed to create table %q: %w", s.table, err)
	}

	_, err = s.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS "idx_%s_created_at"
		ON "%s" (created_at)
	`, s.table, s.table))
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	return nil
}

// Save persists a report record, replacing any existing record with the
// same ID. A zero CreatedAt is set to the current time.
func (s *SQLiteStore) Save(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT OR REPLACE INTO "%s" (id, subject, markdown, section_count, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, s.table), rec.ID, rec.Subject, rec.Markdown, rec.SectionCount, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

// Get returns the record with the given ID, or nil if absent.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT id, subject, markdown, section_count, created_at
		FROM "%s" WHERE id = ?
	`, s.table), id)

	var rec Record
	err := row.Scan(&rec.ID, &rec.Subject, &rec.Markdown, &rec.SectionCount, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return &rec, nil
}

// List returns up to limit records, newest first. A non-positive limit
// returns all records.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := fmt.Sprintf(`
		SELECT id, subject, markdown, section_count, created_at
		FROM "%s" ORDER BY created_at DESC
	`, s.table)
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		err = rows.Scan(&rec.ID, &rec.Subject, &rec.Markdown, &rec.SectionCount, &rec.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read reports: %w", err)
	}
	return records, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close(context.Context) error {
	return s.db.Close()
}
