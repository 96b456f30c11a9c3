package supabase

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rpggio/voicenotes/internal/domain/note"
	"github.com/rpggio/voicenotes/internal/domain/project"
	"github.com/rpggio/voicenotes/internal/repository"
	"github.com/stretchr/testify/require"
)

func fastRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 3, BackoffBase: time.Millisecond, BackoffMultiplier: 2, MaxBackoff: 5 * time.Millisecond}
}

func newTestStore(t *testing.T, handler http.HandlerFunc) *Store {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewStore(NewClient(srv.URL, "test-key", WithRetryConfig(fastRetry())))
}

func TestStore_ListNotesSendsFilters(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/rest/v1/notes", r.URL.Path)
		require.Equal(t, "test-key", r.Header.Get("apikey"))
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		q := r.URL.Query()
		require.Equal(t, "is.null", q.Get("project_id"))
		require.Equal(t, "eq.completed", q.Get("transcription_status"))
		require.Equal(t, "created_at.desc,id.desc", q.Get("order"))
		require.Equal(t, "10", q.Get("limit"))
		require.Equal(t, "20", q.Get("offset"))

		_, _ = io.WriteString(w, `[{"id":"n1","transcript":"hello","created_at":"2025-01-02T03:04:05.123456+00:00","is_processed":null,"project_id":null,"word_count":null,"projects":null}]`)
	})

	notes, err := store.ListNotes(context.Background(),
		repository.NoteFilter{Unassigned: true, TranscriptionStatus: note.TranscriptionCompleted},
		repository.NewestFirst, note.Page{Limit: 10, Offset: 20})
	require.NoError(t, err)
	require.Len(t, notes, 1)
	require.Equal(t, "hello", notes[0].Transcript)
	require.True(t, notes[0].InInbox())
	require.False(t, notes[0].IsProcessed)
	require.Equal(t, notes[0].CreatedAt, notes[0].ModifiedAt)
}

func TestStore_GetNoteEmbedsProjectName(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") == "eq.missing" {
			_, _ = io.WriteString(w, `[]`)
			return
		}
		_, _ = io.WriteString(w, `[{"id":"n1","created_at":"2025-01-02T03:04:05Z","project_id":"p1","is_processed":true,"projects":{"name":"Garden"}}]`)
	})

	n, err := store.GetNote(context.Background(), "n1")
	require.NoError(t, err)
	require.Equal(t, "Garden", n.ProjectName)
	require.True(t, n.BelongsTo("p1"))

	_, err = store.GetNote(context.Background(), "missing")
	require.Equal(t, repository.ErrNotFound, err)
}

func TestStore_ReadsRetryTransientFailures(t *testing.T) {
	var calls atomic.Int32
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `[]`)
	})

	projects, err := store.ListProjects(context.Background(), repository.ProjectFilter{}, repository.RecentlyUpdated)
	require.NoError(t, err)
	require.Empty(t, projects)
	require.Equal(t, int32(3), calls.Load())
}

func TestStore_ReadsGiveUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := store.GetProject(context.Background(), "p1")
	require.ErrorIs(t, err, repository.ErrTransport)
	require.Equal(t, int32(3), calls.Load())
}

func TestStore_WritesAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	processed := true
	_, err := store.PatchNote(context.Background(), "n1", note.Patch{IsProcessed: &processed, ModifiedAt: time.Now()})
	require.ErrorIs(t, err, repository.ErrTransport)
	require.Equal(t, int32(1), calls.Load())
}

func TestStore_StatusClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"rate limited", http.StatusTooManyRequests, repository.ErrTransport},
		{"server error", http.StatusInternalServerError, repository.ErrTransport},
		{"not found", http.StatusNotFound, repository.ErrNotFound},
		{"conflict", http.StatusConflict, repository.ErrRejected},
		{"bad request", http.StatusBadRequest, repository.ErrRejected},
		{"forbidden", http.StatusForbidden, repository.ErrRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, `{"message":"nope"}`)
			})
			err := store.DeleteNote(context.Background(), "n1")
			require.ErrorIs(t, err, tt.want)

			var statusErr *StatusError
			require.ErrorAs(t, err, &statusErr)
			require.Equal(t, tt.status, statusErr.StatusCode)
		})
	}
}

func TestStore_UnreachableIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	store := NewStore(NewClient(srv.URL, "k", WithRetryConfig(fastRetry())))

	_, err := store.ListNotes(context.Background(), repository.NoteFilter{}, repository.NewestFirst, note.Page{})
	require.ErrorIs(t, err, repository.ErrTransport)
}

func TestStore_PatchNoteBody(t *testing.T) {
	var body map[string]any
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "eq.n1", r.URL.Query().Get("id"))
		require.Equal(t, "return=representation", r.Header.Get("Prefer"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = io.WriteString(w, `[{"id":"n1","created_at":"2025-01-02T03:04:05Z","project_id":null,"is_processed":false}]`)
	})

	processed := false
	n, err := store.PatchNote(context.Background(), "n1", note.Patch{ClearProject: true, IsProcessed: &processed, ModifiedAt: time.Now()})
	require.NoError(t, err)
	require.True(t, n.InInbox())

	require.Contains(t, body, "project_id")
	require.Nil(t, body["project_id"])
	require.Equal(t, false, body["is_processed"])
	require.Contains(t, body, "modified_at")
}

func TestStore_PatchMissingNote(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	})

	_, err := store.PatchNote(context.Background(), "missing", note.Patch{ModifiedAt: time.Now()})
	require.Equal(t, repository.ErrNotFound, err)
	_, err = store.PatchProject(context.Background(), "missing", project.Patch{UpdatedAt: time.Now()})
	require.Equal(t, repository.ErrNotFound, err)
}

func TestStore_PatchNotesQuotesIDs(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, `in.("a","b,c")`, r.URL.Query().Get("id"))
		_, _ = io.WriteString(w, `[{"id":"a","created_at":"2025-01-02T03:04:05Z"}]`)
	})

	processed := true
	notes, err := store.PatchNotes(context.Background(), []string{"a", "b,c"}, note.Patch{IsProcessed: &processed, ModifiedAt: time.Now()})
	require.NoError(t, err)
	require.Len(t, notes, 1)
}

func TestStore_CountNotes(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "count=exact", r.Header.Get("Prefer"))
		require.Equal(t, "eq.false", r.URL.Query().Get("is_processed"))
		w.Header().Set("Content-Range", "0-0/42")
		_, _ = io.WriteString(w, `[{"id":"n1"}]`)
	})

	processed := false
	count, err := store.CountNotes(context.Background(), repository.NoteFilter{IsProcessed: &processed})
	require.NoError(t, err)
	require.Equal(t, 42, count)
}

func TestParseContentRangeTotal(t *testing.T) {
	n, err := parseContentRangeTotal("*/0")
	require.NoError(t, err)
	require.Zero(t, n)

	_, err = parseContentRangeTotal("0-9/*")
	require.ErrorIs(t, err, repository.ErrTransport)
	_, err = parseContentRangeTotal("")
	require.ErrorIs(t, err, repository.ErrTransport)
}

func TestStore_ProjectNoteCount(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var body projectInsert
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "Garden", body.Name)
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `[{"id":"p1","name":"Garden","is_archived":false,"created_at":"2025-01-02T03:04:05Z","updated_at":"2025-01-02T03:04:05Z","note_count":0}]`)
	})

	p, err := store.InsertProject(context.Background(), &project.Project{ID: "p1", Name: "Garden", CreatedAt: time.Now(), UpdatedAt: time.Now()})
	require.NoError(t, err)
	require.Equal(t, "p1", p.ID)
	require.Zero(t, p.NoteCount)
}

func TestStore_SearchPattern(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		require.Equal(t, "ilike.*tomato seeds*", q.Get("transcript"))
		require.Equal(t, "eq.false", q.Get("is_processed"))
		require.Equal(t, "20", q.Get("limit"))
		_, _ = io.WriteString(w, `[]`)
	})

	notes, err := store.SearchNotes(context.Background(), " tomato seeds ", note.SearchOptions{Limit: 20})
	require.NoError(t, err)
	require.Empty(t, notes)
}
