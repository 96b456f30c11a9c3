package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rpggio/voicenotes/internal/domain/note"
	"github.com/rpggio/voicenotes/internal/domain/project"
	"github.com/rpggio/voicenotes/internal/triage"
)

// Commands defines the classification-changing writes needed by MCP.
type Commands interface {
	CreateProject(ctx context.Context, req project.CreateRequest) (*project.Project, error)
	UpdateProject(ctx context.Context, req project.UpdateRequest) (*project.Project, error)
	ArchiveProject(ctx context.Context, id string) (*project.Project, error)
	AssignNote(ctx context.Context, req triage.AssignRequest) error
	UnassignNote(ctx context.Context, noteID string) error
	MarkProcessed(ctx context.Context, noteID string) error
	BulkMarkProcessed(ctx context.Context, noteIDs []string) (int, error)
	DeleteNote(ctx context.Context, noteID string) error
}

// Queries defines the read views needed by MCP.
type Queries interface {
	InboxNotes(ctx context.Context, page note.Page) ([]note.Note, error)
	ListProjects(ctx context.Context, includeArchived bool) ([]project.Project, error)
	ProjectNotes(ctx context.Context, projectID string, page note.Page) ([]note.Note, error)
	GetProject(ctx context.Context, id string) (*project.Project, error)
	GetNote(ctx context.Context, id string) (*note.Note, error)
	Search(ctx context.Context, query string, opts note.SearchOptions) ([]note.Note, error)
	InboxStats(ctx context.Context) (note.InboxStats, error)
}

// Handler dispatches MCP tool calls.
type Handler struct {
	commands Commands
	queries  Queries
}

// NewHandler creates a new MCP handler.
func NewHandler(commands Commands, queries Queries) *Handler {
	return &Handler{
		commands: commands,
		queries:  queries,
	}
}

// Tools returns the catalog of tools Handle serves.
func (h *Handler) Tools() []ToolDefinition {
	return buildToolCatalog()
}

// Handle dispatches a tool call to the triage layer.
func (h *Handler) Handle(ctx context.Context, method string, params json.RawMessage) (any, error) {
	switch method {
	case "list_unprocessed_notes":
		var req ListUnprocessedNotesParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		page := note.Page{Limit: req.Limit, Offset: req.Offset}.Normalize()
		notes, err := h.queries.InboxNotes(ctx, page)
		if err != nil {
			return nil, mapError(err)
		}
		return noteList(notes, page), nil
	case "read_note":
		var req NoteIDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		n, err := h.queries.GetNote(ctx, req.NoteID)
		if err != nil {
			return nil, mapError(err)
		}
		return n, nil
	case "mark_as_processed":
		var req NoteIDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if err := h.commands.MarkProcessed(ctx, req.NoteID); err != nil {
			return nil, mapError(err)
		}
		return WriteResponse{Success: true, Message: fmt.Sprintf("note %s marked as processed", req.NoteID)}, nil
	case "bulk_mark_processed":
		var req BulkMarkProcessedParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		updated, err := h.commands.BulkMarkProcessed(ctx, req.NoteIDs)
		if err != nil {
			return nil, mapError(err)
		}
		return BulkMarkProcessedResponse{Requested: len(req.NoteIDs), Updated: updated}, nil
	case "search_notes":
		var req SearchNotesParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		notes, err := h.queries.Search(ctx, req.Query, note.SearchOptions{
			IncludeProcessed: req.IncludeProcessed,
			Limit:            req.Limit,
		})
		if err != nil {
			return nil, mapError(err)
		}
		return SearchNotesResponse{Query: req.Query, Notes: nonNil(notes), Count: len(notes)}, nil
	case "get_inbox_stats":
		if err := decodeParams(params, &struct{}{}); err != nil {
			return nil, err
		}
		stats, err := h.queries.InboxStats(ctx)
		if err != nil {
			return nil, mapError(err)
		}
		return stats, nil
	case "list_projects":
		var req ListProjectsParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		projects, err := h.queries.ListProjects(ctx, req.IncludeArchived)
		if err != nil {
			return nil, mapError(err)
		}
		if projects == nil {
			projects = []project.Project{}
		}
		return ProjectListResponse{Projects: projects, Count: len(projects)}, nil
	case "get_project":
		var req ProjectIDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		p, err := h.queries.GetProject(ctx, req.ProjectID)
		if err != nil {
			return nil, mapError(err)
		}
		return p, nil
	case "create_project":
		var req CreateProjectParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		p, err := h.commands.CreateProject(ctx, project.CreateRequest{
			Name:    req.Name,
			Purpose: req.Purpose,
			Goal:    req.Goal,
		})
		if err != nil {
			return nil, mapError(err)
		}
		return p, nil
	case "update_project":
		var req UpdateProjectParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		p, err := h.commands.UpdateProject(ctx, project.UpdateRequest{
			ID:         req.ProjectID,
			Name:       req.Name,
			Purpose:    req.Purpose,
			Goal:       req.Goal,
			IsArchived: req.IsArchived,
		})
		if err != nil {
			return nil, mapError(err)
		}
		return p, nil
	case "archive_project":
		var req ProjectIDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		p, err := h.commands.ArchiveProject(ctx, req.ProjectID)
		if err != nil {
			return nil, mapError(err)
		}
		return p, nil
	case "get_notes_by_project":
		var req GetNotesByProjectParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		p, err := h.queries.GetProject(ctx, req.ProjectID)
		if err != nil {
			return nil, mapError(err)
		}
		page := note.Page{Limit: req.Limit, Offset: req.Offset}.Normalize()
		notes, err := h.queries.ProjectNotes(ctx, req.ProjectID, page)
		if err != nil {
			return nil, mapError(err)
		}
		return ProjectNotesResponse{Project: *p, NoteListResponse: noteList(notes, page)}, nil
	case "assign_note_to_project":
		var req AssignNoteParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if err := h.commands.AssignNote(ctx, triage.AssignRequest{
			NoteID:        req.NoteID,
			ProjectID:     req.ProjectID,
			AllowArchived: req.AllowArchived,
		}); err != nil {
			return nil, mapError(err)
		}
		return WriteResponse{Success: true, Message: fmt.Sprintf("note %s assigned to project %s", req.NoteID, req.ProjectID)}, nil
	case "unassign_note":
		var req NoteIDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if err := h.commands.UnassignNote(ctx, req.NoteID); err != nil {
			return nil, mapError(err)
		}
		return WriteResponse{Success: true, Message: fmt.Sprintf("note %s returned to inbox", req.NoteID)}, nil
	case "delete_note":
		var req NoteIDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if err := h.commands.DeleteNote(ctx, req.NoteID); err != nil {
			return nil, mapError(err)
		}
		return WriteResponse{Success: true, Message: fmt.Sprintf("note %s deleted", req.NoteID)}, nil
	default:
		return nil, mapError(fmt.Errorf("%w: %s", ErrUnknownTool, method))
	}
}

func decodeParams(params json.RawMessage, out any) error {
	if len(params) == 0 || string(params) == "null" {
		return nil
	}
	if err := json.Unmarshal(params, out); err != nil {
		return mapError(fmt.Errorf("%w: %v", ErrInvalidParams, err))
	}
	return nil
}

// noteList reports has_more when the page came back full; the store does not
// return a total.
func noteList(notes []note.Note, page note.Page) NoteListResponse {
	return NoteListResponse{
		Notes:   nonNil(notes),
		Count:   len(notes),
		Limit:   page.Limit,
		Offset:  page.Offset,
		HasMore: len(notes) == page.Limit,
	}
}

func nonNil(notes []note.Note) []note.Note {
	if notes == nil {
		return []note.Note{}
	}
	return notes
}
