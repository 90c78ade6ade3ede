package stats

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo_api/internal/database"
	"todo_api/internal/store"
)

func newTestStore(t *testing.T) (*Store, func(query string, args ...any)) {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, dialect, err := database.Open("sqlite", "file:"+filepath.Join(t.TempDir(), "stats.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.EnsureSchema(ctx, db, dialect))

	exec := func(query string, args ...any) {
		_, err := db.ExecContext(ctx, query, args...)
		require.NoError(t, err)
	}
	return NewStore(store.New(db, dialect)), exec
}

func TestSummaryEmpty(t *testing.T) {
	s, _ := newTestStore(t)
	summary, err := s.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Summary{}, summary)
}

func TestSummaryCounts(t *testing.T) {
	s, exec := newTestStore(t)
	exec(`INSERT INTO todo_lists (name) VALUES ('a'), ('b')`)
	exec(`INSERT INTO todo_items (title, is_completed, todo_list_id) VALUES (?, ?, 1)`, "one", true)
	exec(`INSERT INTO todo_items (title, is_completed, todo_list_id) VALUES (?, ?, 1)`, "two", false)
	exec(`INSERT INTO todo_items (title, is_completed, todo_list_id) VALUES (?, ?, 2)`, "three", true)

	summary, err := s.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Summary{Lists: 2, Items: 3, Completed: 2}, summary)
}

func TestHandleSummary(t *testing.T) {
	s, exec := newTestStore(t)
	exec(`INSERT INTO todo_lists (name) VALUES ('a')`)

	h := NewHandler(s, slog.New(slog.NewTextHandler(io.Discard, nil)))
	rec := httptest.NewRecorder()
	h.HandleSummary(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got Summary
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, Summary{Lists: 1}, got)
}
