package repository

import (
	"context"
	"time"

	"github.com/rpggio/voicenotes/internal/domain/note"
	"github.com/rpggio/voicenotes/internal/domain/project"
)

// Store is the remote collection-query API holding notes and projects.
// Each call is atomic on its own; there is no transaction spanning calls.
// Implementations report failures as ErrNotFound, ErrTransport or ErrRejected.
type Store interface {
	NoteStore
	ProjectStore
}

// NoteStore manages note persistence.
type NoteStore interface {
	ListNotes(ctx context.Context, filter NoteFilter, order Order, page note.Page) ([]note.Note, error)
	CountNotes(ctx context.Context, filter NoteFilter) (int, error)
	GetNote(ctx context.Context, id string) (*note.Note, error)
	PatchNote(ctx context.Context, id string, patch note.Patch) (*note.Note, error)
	PatchNotes(ctx context.Context, ids []string, patch note.Patch) ([]note.Note, error)
	DeleteNote(ctx context.Context, id string) error
	SearchNotes(ctx context.Context, query string, opts note.SearchOptions) ([]note.Note, error)
}

// ProjectStore manages project persistence.
type ProjectStore interface {
	ListProjects(ctx context.Context, filter ProjectFilter, order Order) ([]project.Project, error)
	GetProject(ctx context.Context, id string) (*project.Project, error)
	InsertProject(ctx context.Context, proj *project.Project) (*project.Project, error)
	PatchProject(ctx context.Context, id string, patch project.Patch) (*project.Project, error)
}

// NoteFilter narrows a note listing. Zero values match everything.
type NoteFilter struct {
	// Unassigned selects inbox notes only.
	Unassigned bool
	// ProjectID selects notes of one project.
	ProjectID *string
	// IsProcessed selects on the processed flag.
	IsProcessed *bool
	// TranscriptionStatus selects on transcription status.
	TranscriptionStatus string
	// CreatedSince selects notes created at or after the given time.
	CreatedSince *time.Time
}

// ProjectFilter narrows a project listing.
type ProjectFilter struct {
	IncludeArchived bool
}

// Order is a single-column sort.
type Order struct {
	Column     string
	Descending bool
}

var (
	// NewestFirst orders notes by creation time, newest first.
	NewestFirst = Order{Column: "created_at", Descending: true}
	// RecentlyUpdated orders projects by last update, newest first.
	RecentlyUpdated = Order{Column: "updated_at", Descending: true}
)
