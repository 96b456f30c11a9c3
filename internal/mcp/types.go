package mcp

import (
	"github.com/rpggio/voicenotes/internal/domain/note"
	"github.com/rpggio/voicenotes/internal/domain/project"
)

type ListUnprocessedNotesParams struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

type NoteIDParams struct {
	NoteID string `json:"note_id"`
}

type BulkMarkProcessedParams struct {
	NoteIDs []string `json:"note_ids"`
}

type SearchNotesParams struct {
	Query            string `json:"query"`
	IncludeProcessed bool   `json:"include_processed,omitempty"`
	Limit            int    `json:"limit,omitempty"`
}

type ListProjectsParams struct {
	IncludeArchived bool `json:"include_archived,omitempty"`
}

type ProjectIDParams struct {
	ProjectID string `json:"project_id"`
}

type CreateProjectParams struct {
	Name    string  `json:"name"`
	Purpose *string `json:"purpose,omitempty"`
	Goal    *string `json:"goal,omitempty"`
}

type UpdateProjectParams struct {
	ProjectID  string  `json:"project_id"`
	Name       *string `json:"name,omitempty"`
	Purpose    *string `json:"purpose,omitempty"`
	Goal       *string `json:"goal,omitempty"`
	IsArchived *bool   `json:"is_archived,omitempty"`
}

type GetNotesByProjectParams struct {
	ProjectID string `json:"project_id"`
	Limit     int    `json:"limit,omitempty"`
	Offset    int    `json:"offset,omitempty"`
}

type AssignNoteParams struct {
	NoteID        string `json:"note_id"`
	ProjectID     string `json:"project_id"`
	AllowArchived bool   `json:"allow_archived,omitempty"`
}

// NoteListResponse is one page of a note listing.
type NoteListResponse struct {
	Notes   []note.Note `json:"notes"`
	Count   int         `json:"count"`
	Limit   int         `json:"limit"`
	Offset  int         `json:"offset"`
	HasMore bool        `json:"has_more"`
}

// ProjectNotesResponse is one page of a project's notes.
type ProjectNotesResponse struct {
	Project project.Project `json:"project"`
	NoteListResponse
}

type ProjectListResponse struct {
	Projects []project.Project `json:"projects"`
	Count    int               `json:"count"`
}

type SearchNotesResponse struct {
	Query string      `json:"query"`
	Notes []note.Note `json:"notes"`
	Count int         `json:"count"`
}

// WriteResponse acknowledges a write that returns no entity.
type WriteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type BulkMarkProcessedResponse struct {
	Requested int `json:"requested"`
	Updated   int `json:"updated"`
}
