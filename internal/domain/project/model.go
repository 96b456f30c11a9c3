package project

import "time"

// Project groups triaged notes. NoteCount is maintained by the store, never by callers.
type Project struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Purpose    *string   `json:"purpose,omitempty"`
	Goal       *string   `json:"goal,omitempty"`
	IsArchived bool      `json:"is_archived"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	NoteCount  int       `json:"note_count"`
}

// Clone returns a copy of p that shares no pointers with it.
func (p Project) Clone() Project {
	p.Purpose = cloneString(p.Purpose)
	p.Goal = cloneString(p.Goal)
	return p
}

// CloneAll deep-copies a list of projects.
func CloneAll(projects []Project) []Project {
	if projects == nil {
		return nil
	}
	out := make([]Project, len(projects))
	for i, p := range projects {
		out[i] = p.Clone()
	}
	return out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// CreateRequest defines project creation inputs.
type CreateRequest struct {
	Name    string
	Purpose *string
	Goal    *string
}

// UpdateRequest defines a partial project update. Nil fields are left untouched.
type UpdateRequest struct {
	ID         string
	Name       *string
	Purpose    *string
	Goal       *string
	IsArchived *bool
}

// Empty reports whether the request changes nothing.
func (r UpdateRequest) Empty() bool {
	return r.Name == nil && r.Purpose == nil && r.Goal == nil && r.IsArchived == nil
}

// Patch is the set of project columns written by an update.
type Patch struct {
	Name       *string
	Purpose    *string
	Goal       *string
	IsArchived *bool
	UpdatedAt  time.Time
}
