package sqlite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rpggio/voicenotes/internal/domain/note"
	"github.com/rpggio/voicenotes/internal/repository"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store *Store
	base  time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := NewTestDB(t)
	f := &fixture{store: NewStore(db), base: time.Now().UTC().Add(-time.Hour)}

	_, err := f.store.InsertProject(context.Background(), newProject("p1", "Garden", f.base))
	require.NoError(t, err)
	return f
}

func (f *fixture) addNote(t *testing.T, id, transcript string, minutes int, projectID *string) {
	t.Helper()
	err := f.store.AddNote(context.Background(), &note.Note{
		ID:         id,
		Transcript: transcript,
		CreatedAt:  f.base.Add(time.Duration(minutes) * time.Minute),
		ProjectID:  projectID,
	})
	require.NoError(t, err)
}

func ptr[T any](v T) *T { return &v }

func TestNoteRepository_ListInbox(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addNote(t, "n1", "oldest", 1, nil)
	f.addNote(t, "n2", "newest", 3, nil)
	f.addNote(t, "n3", "assigned", 2, ptr("p1"))
	require.NoError(t, f.store.AddNote(ctx, &note.Note{
		ID: "n4", Transcript: "still transcribing", CreatedAt: f.base, TranscriptionStatus: "pending",
	}))

	inbox, err := f.store.ListNotes(ctx,
		repository.NoteFilter{Unassigned: true, TranscriptionStatus: note.TranscriptionCompleted},
		repository.NewestFirst, note.Page{})
	require.NoError(t, err)
	require.Len(t, inbox, 2)
	require.Equal(t, "n2", inbox[0].ID)
	require.Equal(t, "n1", inbox[1].ID)

	paged, err := f.store.ListNotes(ctx,
		repository.NoteFilter{Unassigned: true, TranscriptionStatus: note.TranscriptionCompleted},
		repository.NewestFirst, note.Page{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	require.Equal(t, "n1", paged[0].ID)

	empty, err := f.store.ListNotes(ctx, repository.NoteFilter{ProjectID: ptr("nope")}, repository.NewestFirst, note.Page{})
	require.NoError(t, err)
	require.NotNil(t, empty)
	require.Empty(t, empty)
}

func TestNoteRepository_GetIncludesProjectName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addNote(t, "n1", "assigned", 1, ptr("p1"))

	n, err := f.store.GetNote(ctx, "n1")
	require.NoError(t, err)
	require.Equal(t, "Garden", n.ProjectName)
	require.True(t, n.BelongsTo("p1"))
	require.Equal(t, note.TranscriptionCompleted, n.TranscriptionStatus)

	_, err = f.store.GetNote(ctx, "missing")
	require.Equal(t, repository.ErrNotFound, err)
}

func TestNoteRepository_PatchAssignAndClear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addNote(t, "n1", "inbox note", 1, nil)

	processed := true
	now := time.Now()
	n, err := f.store.PatchNote(ctx, "n1", note.Patch{ProjectID: ptr("p1"), IsProcessed: &processed, ModifiedAt: now})
	require.NoError(t, err)
	require.True(t, n.BelongsTo("p1"))
	require.True(t, n.IsProcessed)
	require.True(t, n.ModifiedAt.Equal(now.UTC()))

	proj, err := f.store.GetProject(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, 1, proj.NoteCount)

	processed = false
	n, err = f.store.PatchNote(ctx, "n1", note.Patch{ClearProject: true, ProjectID: ptr("p1"), IsProcessed: &processed, ModifiedAt: now})
	require.NoError(t, err)
	require.True(t, n.InInbox())
	require.False(t, n.IsProcessed)

	proj, err = f.store.GetProject(ctx, "p1")
	require.NoError(t, err)
	require.Zero(t, proj.NoteCount)
}

func TestNoteRepository_PatchErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addNote(t, "n1", "inbox note", 1, nil)

	_, err := f.store.PatchNote(ctx, "missing", note.Patch{ProjectID: ptr("p1"), ModifiedAt: time.Now()})
	require.Equal(t, repository.ErrNotFound, err)

	_, err = f.store.PatchNote(ctx, "n1", note.Patch{ProjectID: ptr("no-such-project"), ModifiedAt: time.Now()})
	require.ErrorIs(t, err, repository.ErrRejected)

	n, err := f.store.GetNote(ctx, "n1")
	require.NoError(t, err)
	require.True(t, n.InInbox(), "rejected write must not apply")
}

func TestNoteRepository_PatchNotesSkipsMissing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addNote(t, "n1", "one", 1, nil)
	f.addNote(t, "n2", "two", 2, ptr("p1"))

	processed := true
	notes, err := f.store.PatchNotes(ctx, []string{"n1", "n2", "missing"}, note.Patch{IsProcessed: &processed, ModifiedAt: time.Now()})
	require.NoError(t, err)
	require.Len(t, notes, 2)
	for _, n := range notes {
		require.True(t, n.IsProcessed)
	}

	notes, err = f.store.PatchNotes(ctx, nil, note.Patch{IsProcessed: &processed})
	require.NoError(t, err)
	require.Empty(t, notes)
}

func TestNoteRepository_Delete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addNote(t, "n1", "assigned", 1, ptr("p1"))

	require.NoError(t, f.store.DeleteNote(ctx, "n1"))
	_, err := f.store.GetNote(ctx, "n1")
	require.Equal(t, repository.ErrNotFound, err)

	proj, err := f.store.GetProject(ctx, "p1")
	require.NoError(t, err)
	require.Zero(t, proj.NoteCount)

	require.Equal(t, repository.ErrNotFound, f.store.DeleteNote(ctx, "n1"))
}

func TestNoteRepository_Count(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addNote(t, "n1", "one", 1, nil)
	f.addNote(t, "n2", "two", 2, ptr("p1"))
	require.NoError(t, f.store.AddNote(ctx, &note.Note{
		ID: "old", Transcript: "old", CreatedAt: f.base.Add(-30 * 24 * time.Hour), IsProcessed: true,
	}))

	total, err := f.store.CountNotes(ctx, repository.NoteFilter{})
	require.NoError(t, err)
	require.Equal(t, 3, total)

	unprocessed, err := f.store.CountNotes(ctx, repository.NoteFilter{IsProcessed: ptr(false)})
	require.NoError(t, err)
	require.Equal(t, 2, unprocessed)

	since := f.base.Add(-24 * time.Hour)
	recent, err := f.store.CountNotes(ctx, repository.NoteFilter{CreatedSince: &since})
	require.NoError(t, err)
	require.Equal(t, 2, recent)

	inbox, err := f.store.CountNotes(ctx, repository.NoteFilter{Unassigned: true})
	require.NoError(t, err)
	require.Equal(t, 2, inbox)
}

func TestNoteRepository_Search(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addNote(t, "n1", "Buy tomato seeds for the garden", 1, nil)
	f.addNote(t, "n2", "Tomato plants need staking", 2, ptr("p1"))
	f.addNote(t, "n3", "Call the plumber", 3, nil)
	processed := true
	_, err := f.store.PatchNote(ctx, "n2", note.Patch{IsProcessed: &processed, ModifiedAt: time.Now()})
	require.NoError(t, err)

	results, err := f.store.SearchNotes(ctx, "tomato", note.SearchOptions{Limit: 10})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "n1", results[0].ID)

	results, err = f.store.SearchNotes(ctx, "tomato", note.SearchOptions{IncludeProcessed: true, Limit: 10})
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, "n2", results[0].ID)
	require.Equal(t, "Garden", results[0].ProjectName)

	// Query syntax characters are treated as text.
	results, err = f.store.SearchNotes(ctx, `plumber" OR "tomato`, note.SearchOptions{Limit: 10})
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestNoteRepository_ListOrderIsStable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		f.addNote(t, fmt.Sprintf("n%d", i), "same time", 0, nil)
	}

	first, err := f.store.ListNotes(ctx, repository.NoteFilter{Unassigned: true}, repository.NewestFirst, note.Page{Limit: 3})
	require.NoError(t, err)
	second, err := f.store.ListNotes(ctx, repository.NoteFilter{Unassigned: true}, repository.NewestFirst, note.Page{Limit: 3, Offset: 3})
	require.NoError(t, err)
	require.Len(t, first, 3)
	require.Len(t, second, 2)

	seen := map[string]bool{}
	for _, n := range append(first, second...) {
		require.False(t, seen[n.ID])
		seen[n.ID] = true
	}
}
