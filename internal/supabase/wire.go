package supabase

import (
	"time"

	"github.com/rpggio/voicenotes/internal/domain/note"
	"github.com/rpggio/voicenotes/internal/domain/project"
)

const (
	notesTable    = "notes"
	projectsTable = "projects"

	noteSelect    = "id,transcript,created_at,modified_at,is_processed,project_id,transcription_status,word_count,audio_duration_seconds,projects(name)"
	projectSelect = "id,name,purpose,goal,is_archived,created_at,updated_at,note_count"
)

// noteRow is a notes row as returned by PostgREST, with the owning project embedded.
type noteRow struct {
	ID                   string     `json:"id"`
	Transcript           *string    `json:"transcript"`
	CreatedAt            time.Time  `json:"created_at"`
	ModifiedAt           *time.Time `json:"modified_at"`
	IsProcessed          *bool      `json:"is_processed"`
	ProjectID            *string    `json:"project_id"`
	TranscriptionStatus  *string    `json:"transcription_status"`
	WordCount            *int       `json:"word_count"`
	AudioDurationSeconds *float64   `json:"audio_duration_seconds"`
	Project              *struct {
		Name string `json:"name"`
	} `json:"projects"`
}

func (r noteRow) toNote() note.Note {
	n := note.Note{
		ID:         r.ID,
		CreatedAt:  r.CreatedAt,
		ModifiedAt: r.CreatedAt,
		ProjectID:  r.ProjectID,
	}
	if r.Transcript != nil {
		n.Transcript = *r.Transcript
	}
	if r.ModifiedAt != nil {
		n.ModifiedAt = *r.ModifiedAt
	}
	if r.IsProcessed != nil {
		n.IsProcessed = *r.IsProcessed
	}
	if r.TranscriptionStatus != nil {
		n.TranscriptionStatus = *r.TranscriptionStatus
	}
	if r.WordCount != nil {
		n.WordCount = *r.WordCount
	}
	if r.AudioDurationSeconds != nil {
		n.AudioDurationSeconds = *r.AudioDurationSeconds
	}
	if r.Project != nil {
		n.ProjectName = r.Project.Name
	}
	return n
}

func toNotes(rows []noteRow) []note.Note {
	notes := make([]note.Note, 0, len(rows))
	for _, r := range rows {
		notes = append(notes, r.toNote())
	}
	return notes
}

// projectRow is a projects row. note_count is maintained by a database trigger.
type projectRow struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Purpose    *string   `json:"purpose"`
	Goal       *string   `json:"goal"`
	IsArchived *bool     `json:"is_archived"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	NoteCount  *int      `json:"note_count"`
}

func (r projectRow) toProject() project.Project {
	p := project.Project{
		ID:        r.ID,
		Name:      r.Name,
		Purpose:   r.Purpose,
		Goal:      r.Goal,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.IsArchived != nil {
		p.IsArchived = *r.IsArchived
	}
	if r.NoteCount != nil {
		p.NoteCount = *r.NoteCount
	}
	return p
}

// projectInsert is the body of a project insert.
type projectInsert struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Purpose    *string `json:"purpose,omitempty"`
	Goal       *string `json:"goal,omitempty"`
	IsArchived bool    `json:"is_archived"`
	CreatedAt  string  `json:"created_at"`
	UpdatedAt  string  `json:"updated_at"`
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
