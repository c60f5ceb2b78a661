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
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := NewSQLiteStore(testContext(t), SQLiteStoreParams{
		DBDataSourceName: dbPath,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, store.Close(context.Background()))
	})
	return store
}

func TestSQLiteStore_SaveAndGet(t *testing.T) {
	ctx := testContext(t)
	store := newTestSQLiteStore(t)

	rec := Record{
		ID:           "report-1",
		Subject:      "Physics",
		Markdown:     "## Experiment 1: Pendulum",
		SectionCount: 1,
		CreatedAt:    time.Now(),
	}
	require.NoError(t, store.Save(ctx, rec))

	got, err := store.Get(ctx, "report-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "report-1", got.ID)
	assert.Equal(t, "Physics", got.Subject)
	assert.Equal(t, "## Experiment 1: Pendulum", got.Markdown)
	assert.Equal(t, 1, got.SectionCount)
	assert.WithinDuration(t, rec.CreatedAt, got.CreatedAt, time.Second)
}

func TestSQLiteStore_GetMissing(t *testing.T) {
	ctx := testContext(t)
	store := newTestSQLiteStore(t)

	got, err := store.Get(ctx, "nonexistent")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteStore_SaveReplaces(t *testing.T) {
	ctx := testContext(t)
	store := newTestSQLiteStore(t)

	rec := Record{ID: "report-1", Subject: "Physics", Markdown: "draft", SectionCount: 1}
	require.NoError(t, store.Save(ctx, rec))

	rec.Markdown = "final"
	rec.SectionCount = 2
	require.NoError(t, store.Save(ctx, rec))

	got, err := store.Get(ctx, "report-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "final", got.Markdown)
	assert.Equal(t, 2, got.SectionCount)

	all, err := store.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSQLiteStore_SaveSetsCreatedAt(t *testing.T) {
	ctx := testContext(t)
	store := newTestSQLiteStore(t)

	require.NoError(t, store.Save(ctx, Record{
		ID: "report-1", Subject: "Physics", Markdown: "content", SectionCount: 1,
	}))

	got, err := store.Get(ctx, "report-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.WithinDuration(t, time.Now(), got.CreatedAt, time.Minute)
}

func TestSQLiteStore_List(t *testing.T) {
	ctx := testContext(t)
	store := newTestSQLiteStore(t)

	base := time.Now().Add(-time.Hour)
	for i, id := range []string{"oldest", "middle", "newest"} {
		require.NoError(t, store.Save(ctx, Record{
			ID:           id,
			Subject:      "Physics",
			Markdown:     "content",
			SectionCount: 1,
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		}))
	}

	t.Run("all records newest first", func(t *testing.T) {
		all, err := store.List(ctx, 0)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "newest", all[0].ID)
		assert.Equal(t, "middle", all[1].ID)
		assert.Equal(t, "oldest", all[2].ID)
	})

	t.Run("limit returns newest", func(t *testing.T) {
		limited, err := store.List(ctx, 2)
		require.NoError(t, err)
		require.Len(t, limited, 2)
		assert.Equal(t, "newest", limited[0].ID)
		assert.Equal(t, "middle", limited[1].ID)
	})
}

func TestSQLiteStore_ListEmpty(t *testing.T) {
	ctx := testContext(t)
	store := newTestSQLiteStore(t)

	all, err := store.List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSQLiteStore_CustomTable(t *testing.T) {
	ctx := testContext(t)
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := NewSQLiteStore(ctx, SQLiteStoreParams{
		DBDataSourceName: dbPath,
		Table:            "archived_reports",
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, store.Close(context.Background()))
	})

	require.NoError(t, store.Save(ctx, Record{
		ID: "report-1", Subject: "Physics", Markdown: "content", SectionCount: 1,
	}))

	got, err := store.Get(ctx, "report-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Physics", got.Subject)
}
