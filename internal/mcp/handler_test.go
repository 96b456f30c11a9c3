package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rpggio/voicenotes/internal/domain/note"
	"github.com/rpggio/voicenotes/internal/domain/project"
	"github.com/rpggio/voicenotes/internal/repository"
	"github.com/rpggio/voicenotes/internal/triage"
	"github.com/stretchr/testify/require"
)

type commandStub struct {
	createFn     func(context.Context, project.CreateRequest) (*project.Project, error)
	updateFn     func(context.Context, project.UpdateRequest) (*project.Project, error)
	archiveFn    func(context.Context, string) (*project.Project, error)
	assignFn     func(context.Context, triage.AssignRequest) error
	unassignFn   func(context.Context, string) error
	markFn       func(context.Context, string) error
	bulkMarkFn   func(context.Context, []string) (int, error)
	deleteNoteFn func(context.Context, string) error
}

func (c commandStub) CreateProject(ctx context.Context, req project.CreateRequest) (*project.Project, error) {
	return c.createFn(ctx, req)
}
func (c commandStub) UpdateProject(ctx context.Context, req project.UpdateRequest) (*project.Project, error) {
	return c.updateFn(ctx, req)
}
func (c commandStub) ArchiveProject(ctx context.Context, id string) (*project.Project, error) {
	return c.archiveFn(ctx, id)
}
func (c commandStub) AssignNote(ctx context.Context, req triage.AssignRequest) error {
	return c.assignFn(ctx, req)
}
func (c commandStub) UnassignNote(ctx context.Context, noteID string) error {
	return c.unassignFn(ctx, noteID)
}
func (c commandStub) MarkProcessed(ctx context.Context, noteID string) error {
	return c.markFn(ctx, noteID)
}
func (c commandStub) BulkMarkProcessed(ctx context.Context, noteIDs []string) (int, error) {
	return c.bulkMarkFn(ctx, noteIDs)
}
func (c commandStub) DeleteNote(ctx context.Context, noteID string) error {
	return c.deleteNoteFn(ctx, noteID)
}

type queryStub struct {
	inboxFn        func(context.Context, note.Page) ([]note.Note, error)
	listProjectsFn func(context.Context, bool) ([]project.Project, error)
	projectNotesFn func(context.Context, string, note.Page) ([]note.Note, error)
	getProjectFn   func(context.Context, string) (*project.Project, error)
	getNoteFn      func(context.Context, string) (*note.Note, error)
	searchFn       func(context.Context, string, note.SearchOptions) ([]note.Note, error)
	statsFn        func(context.Context) (note.InboxStats, error)
}

func (q queryStub) InboxNotes(ctx context.Context, page note.Page) ([]note.Note, error) {
	return q.inboxFn(ctx, page)
}
func (q queryStub) ListProjects(ctx context.Context, includeArchived bool) ([]project.Project, error) {
	return q.listProjectsFn(ctx, includeArchived)
}
func (q queryStub) ProjectNotes(ctx context.Context, projectID string, page note.Page) ([]note.Note, error) {
	return q.projectNotesFn(ctx, projectID, page)
}
func (q queryStub) GetProject(ctx context.Context, id string) (*project.Project, error) {
	return q.getProjectFn(ctx, id)
}
func (q queryStub) GetNote(ctx context.Context, id string) (*note.Note, error) {
	return q.getNoteFn(ctx, id)
}
func (q queryStub) Search(ctx context.Context, query string, opts note.SearchOptions) ([]note.Note, error) {
	return q.searchFn(ctx, query, opts)
}
func (q queryStub) InboxStats(ctx context.Context) (note.InboxStats, error) {
	return q.statsFn(ctx)
}

func notesN(n int) []note.Note {
	notes := make([]note.Note, n)
	for i := range notes {
		notes[i] = note.Note{ID: fmt.Sprintf("n%d", i), Transcript: "hello", CreatedAt: time.Unix(int64(i), 0).UTC()}
	}
	return notes
}

func TestHandler_InboxAndProjectReads(t *testing.T) {
	ctx := context.Background()
	var gotPage note.Page
	var gotProjectID string

	handler := NewHandler(commandStub{}, queryStub{
		inboxFn: func(_ context.Context, page note.Page) ([]note.Note, error) {
			gotPage = page
			return notesN(2), nil
		},
		listProjectsFn: func(_ context.Context, includeArchived bool) ([]project.Project, error) {
			if includeArchived {
				return []project.Project{{ID: "p1"}, {ID: "p2", IsArchived: true}}, nil
			}
			return []project.Project{{ID: "p1"}}, nil
		},
		getProjectFn: func(_ context.Context, id string) (*project.Project, error) {
			return &project.Project{ID: id, Name: "Garden"}, nil
		},
		projectNotesFn: func(_ context.Context, projectID string, page note.Page) ([]note.Note, error) {
			gotProjectID = projectID
			return notesN(page.Limit), nil
		},
	})

	res, err := handler.Handle(ctx, "list_unprocessed_notes", mustJSON(t, ListUnprocessedNotesParams{Limit: 10, Offset: 5}))
	require.NoError(t, err)
	inbox := res.(NoteListResponse)
	require.Equal(t, note.Page{Limit: 10, Offset: 5}, gotPage)
	require.Equal(t, 2, inbox.Count)
	require.False(t, inbox.HasMore)

	res, err = handler.Handle(ctx, "list_unprocessed_notes", nil)
	require.NoError(t, err)
	require.Equal(t, note.DefaultPageLimit, res.(NoteListResponse).Limit)

	res, err = handler.Handle(ctx, "list_projects", mustJSON(t, ListProjectsParams{IncludeArchived: true}))
	require.NoError(t, err)
	require.Equal(t, 2, res.(ProjectListResponse).Count)

	res, err = handler.Handle(ctx, "get_notes_by_project", mustJSON(t, GetNotesByProjectParams{ProjectID: "p1", Limit: 3}))
	require.NoError(t, err)
	byProject := res.(ProjectNotesResponse)
	require.Equal(t, "p1", gotProjectID)
	require.Equal(t, "Garden", byProject.Project.Name)
	require.Equal(t, 3, byProject.Count)
	require.True(t, byProject.HasMore)
}

func TestHandler_EmptyListingsEncodeAsArrays(t *testing.T) {
	handler := NewHandler(commandStub{}, queryStub{
		inboxFn: func(context.Context, note.Page) ([]note.Note, error) { return nil, nil },
		searchFn: func(context.Context, string, note.SearchOptions) ([]note.Note, error) {
			return nil, nil
		},
	})

	res, err := handler.Handle(context.Background(), "list_unprocessed_notes", nil)
	require.NoError(t, err)
	require.JSONEq(t, `{"notes":[],"count":0,"limit":50,"offset":0,"has_more":false}`, string(mustJSON(t, res)))

	res, err = handler.Handle(context.Background(), "search_notes", mustJSON(t, SearchNotesParams{Query: "x"}))
	require.NoError(t, err)
	require.JSONEq(t, `{"query":"x","notes":[],"count":0}`, string(mustJSON(t, res)))
}

func TestHandler_TriageCommands(t *testing.T) {
	ctx := context.Background()
	var assigned triage.AssignRequest
	var unassigned, marked, deleted string
	var bulk []string
	var updated project.UpdateRequest

	handler := NewHandler(commandStub{
		createFn: func(_ context.Context, req project.CreateRequest) (*project.Project, error) {
			return &project.Project{ID: "p-new", Name: req.Name, Purpose: req.Purpose}, nil
		},
		updateFn: func(_ context.Context, req project.UpdateRequest) (*project.Project, error) {
			updated = req
			return &project.Project{ID: req.ID, Name: *req.Name}, nil
		},
		archiveFn: func(_ context.Context, id string) (*project.Project, error) {
			return &project.Project{ID: id, IsArchived: true}, nil
		},
		assignFn: func(_ context.Context, req triage.AssignRequest) error {
			assigned = req
			return nil
		},
		unassignFn:   func(_ context.Context, id string) error { unassigned = id; return nil },
		markFn:       func(_ context.Context, id string) error { marked = id; return nil },
		deleteNoteFn: func(_ context.Context, id string) error { deleted = id; return nil },
		bulkMarkFn: func(_ context.Context, ids []string) (int, error) {
			bulk = ids
			return len(ids) - 1, nil
		},
	}, queryStub{})

	purpose := "grow food"
	res, err := handler.Handle(ctx, "create_project", mustJSON(t, CreateProjectParams{Name: "Garden", Purpose: &purpose}))
	require.NoError(t, err)
	created := res.(*project.Project)
	require.Equal(t, "Garden", created.Name)
	require.Equal(t, &purpose, created.Purpose)

	name := "Allotment"
	_, err = handler.Handle(ctx, "update_project", mustJSON(t, UpdateProjectParams{ProjectID: "p1", Name: &name}))
	require.NoError(t, err)
	require.Equal(t, "p1", updated.ID)
	require.Nil(t, updated.IsArchived)

	res, err = handler.Handle(ctx, "archive_project", mustJSON(t, ProjectIDParams{ProjectID: "p1"}))
	require.NoError(t, err)
	require.True(t, res.(*project.Project).IsArchived)

	res, err = handler.Handle(ctx, "assign_note_to_project", mustJSON(t, AssignNoteParams{NoteID: "n1", ProjectID: "p1"}))
	require.NoError(t, err)
	require.Equal(t, triage.AssignRequest{NoteID: "n1", ProjectID: "p1"}, assigned)
	require.True(t, res.(WriteResponse).Success)

	_, err = handler.Handle(ctx, "unassign_note", mustJSON(t, NoteIDParams{NoteID: "n2"}))
	require.NoError(t, err)
	_, err = handler.Handle(ctx, "mark_as_processed", mustJSON(t, NoteIDParams{NoteID: "n3"}))
	require.NoError(t, err)
	_, err = handler.Handle(ctx, "delete_note", mustJSON(t, NoteIDParams{NoteID: "n4"}))
	require.NoError(t, err)
	require.Equal(t, "n2", unassigned)
	require.Equal(t, "n3", marked)
	require.Equal(t, "n4", deleted)

	res, err = handler.Handle(ctx, "bulk_mark_processed", mustJSON(t, BulkMarkProcessedParams{NoteIDs: []string{"a", "b", "c"}}))
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, bulk)
	require.Equal(t, BulkMarkProcessedResponse{Requested: 3, Updated: 2}, res)
}

func TestHandler_MapsErrors(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name string
		err  error
		code string
	}{
		{"project missing", project.ErrProjectNotFound, "PROJECT_NOT_FOUND"},
		{"note missing", fmt.Errorf("reading: %w", note.ErrNoteNotFound), "NOTE_NOT_FOUND"},
		{"archived", fmt.Errorf("%w: Old", project.ErrProjectArchived), "INVALID_STATE"},
		{"validation", fmt.Errorf("%w: id required", note.ErrInvalidInput), "VALIDATION_ERROR"},
		{"transport", fmt.Errorf("patch note: %w", repository.ErrTransport), "TRANSPORT_ERROR"},
		{"rejected", fmt.Errorf("patch note: %w", repository.ErrRejected), "REMOTE_REJECTED"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewHandler(commandStub{
				assignFn: func(context.Context, triage.AssignRequest) error { return tc.err },
			}, queryStub{})

			_, err := handler.Handle(ctx, "assign_note_to_project", mustJSON(t, AssignNoteParams{NoteID: "n1", ProjectID: "p1"}))
			require.Error(t, err)
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			require.Equal(t, tc.code, apiErr.Code)
			require.NotEmpty(t, apiErr.RecoveryHint)
		})
	}
}

func TestMapError_TransportOutcomeUnknown(t *testing.T) {
	apiErr := MapError(fmt.Errorf("patch note: %w", repository.ErrTransport))
	require.NotNil(t, apiErr)
	require.Equal(t, "TRANSPORT_ERROR", apiErr.Code)
	require.Contains(t, apiErr.RecoveryHint, "Re-read")
	require.NotContains(t, apiErr.RecoveryHint, "nothing was changed")
}

func TestHandler_BadParamsAndUnknownTool(t *testing.T) {
	handler := NewHandler(commandStub{}, queryStub{})

	_, err := handler.Handle(context.Background(), "read_note", json.RawMessage(`{"note_id": 7}`))
	require.Error(t, err)
	require.Equal(t, "VALIDATION_ERROR", MapError(err).Code)

	_, err = handler.Handle(context.Background(), "get_record_diff", nil)
	require.Error(t, err)
	require.Equal(t, "UNKNOWN_TOOL", MapError(err).Code)
}

func TestHandler_CatalogCoversEveryTool(t *testing.T) {
	handler := NewHandler(commandStub{}, queryStub{})
	for _, tool := range handler.Tools() {
		require.Equal(t, "object", tool.InputSchema["type"], tool.Name)
		_, err := handler.Handle(context.Background(), tool.Name, json.RawMessage(`{"bogus": [`))
		require.Error(t, err, tool.Name)
		apiErr := MapError(err)
		require.NotNil(t, apiErr, tool.Name)
		require.NotEqual(t, "UNKNOWN_TOOL", apiErr.Code, tool.Name)
	}
}

func TestHandler_InboxToolMentionsProcessedNotes(t *testing.T) {
	handler := NewHandler(commandStub{}, queryStub{})
	for _, tool := range handler.Tools() {
		if tool.Name == "list_unprocessed_notes" {
			require.Contains(t, tool.Description, "Includes processed notes without a project")
			return
		}
	}
	t.Fatal("list_unprocessed_notes not in catalog")
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}
