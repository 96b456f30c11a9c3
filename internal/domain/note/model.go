package note

import "time"

// TranscriptionCompleted is the transcription status of notes visible to triage views.
const TranscriptionCompleted = "completed"

// Note is a transcribed voice memo. A note with a nil ProjectID is in the inbox;
// otherwise it belongs to exactly that project.
type Note struct {
	ID                   string    `json:"id"`
	Transcript           string    `json:"transcript"`
	CreatedAt            time.Time `json:"created_at"`
	ModifiedAt           time.Time `json:"modified_at"`
	IsProcessed          bool      `json:"is_processed"`
	ProjectID            *string   `json:"project_id"`
	ProjectName          string    `json:"project_name,omitempty"`
	TranscriptionStatus  string    `json:"transcription_status,omitempty"`
	WordCount            int       `json:"word_count"`
	AudioDurationSeconds float64   `json:"audio_duration_seconds"`
}

// Clone returns a copy of n that shares no pointers with it.
func (n Note) Clone() Note {
	if n.ProjectID != nil {
		id := *n.ProjectID
		n.ProjectID = &id
	}
	return n
}

// CloneAll deep-copies a list of notes.
func CloneAll(notes []Note) []Note {
	if notes == nil {
		return nil
	}
	out := make([]Note, len(notes))
	for i, n := range notes {
		out[i] = n.Clone()
	}
	return out
}

// InInbox reports whether the note has no project.
func (n Note) InInbox() bool {
	return n.ProjectID == nil
}

// BelongsTo reports whether the note is assigned to projectID.
func (n Note) BelongsTo(projectID string) bool {
	return n.ProjectID != nil && *n.ProjectID == projectID
}

// Patch lists the note fields a triage write may change. Nil fields are left untouched.
// ClearProject moves the note back to the inbox and takes precedence over ProjectID.
type Patch struct {
	ProjectID    *string
	ClearProject bool
	IsProcessed  *bool
	ModifiedAt   time.Time
}

// InboxStats summarizes the note population.
type InboxStats struct {
	UnprocessedCount int       `json:"unprocessed_count"`
	TotalCount       int       `json:"total_count"`
	ProcessedCount   int       `json:"processed_count"`
	RecentCount      int       `json:"recent_count"`
	InboxCount       int       `json:"inbox_count"`
	LastUpdated      time.Time `json:"last_updated"`
}
