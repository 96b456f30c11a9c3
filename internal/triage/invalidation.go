package triage

import (
	"github.com/rpggio/voicenotes/internal/domain/note"
	"github.com/rpggio/voicenotes/internal/viewcache"
)

// noteChange describes one confirmed note write. Before is the note as read
// before the write; After is the written project assignment. Deleted means the
// note no longer exists.
type noteChange struct {
	NoteID  string
	Before  *note.Note
	After   *string
	Deleted bool
}

// selectors returns every view whose contents the change could have altered.
//
// Inbox, stats, search and the note itself are always dropped: each can show the
// note or its flags. Each project on either side of the change loses its note
// listing, its single-project entry and the project listings, since its note
// count may have moved.
func (c noteChange) selectors() []viewcache.Selector {
	sels := []viewcache.Selector{
		viewcache.Exact(NoteKey(c.NoteID)),
		viewcache.All(KindInbox),
		viewcache.All(KindInboxStats),
		viewcache.All(KindSearch),
	}

	projects := c.projects()
	for _, projectID := range projects {
		sels = append(sels,
			viewcache.Scoped(KindProjectNotes, projectID),
			viewcache.Exact(ProjectKey(projectID)),
		)
	}
	if len(projects) > 0 {
		sels = append(sels, viewcache.All(KindProjectList))
	}
	return sels
}

// projects lists the distinct projects the note belonged to before or after the write.
func (c noteChange) projects() []string {
	var out []string
	if c.Before != nil && c.Before.ProjectID != nil {
		out = append(out, *c.Before.ProjectID)
	}
	if !c.Deleted && c.After != nil && (len(out) == 0 || out[0] != *c.After) {
		out = append(out, *c.After)
	}
	return out
}

// projectChange describes one confirmed project write.
type projectChange struct {
	ProjectID   string
	Created     bool
	NameChanged bool
}

func (c projectChange) selectors() []viewcache.Selector {
	sels := []viewcache.Selector{viewcache.All(KindProjectList)}
	if c.Created {
		return sels
	}
	sels = append(sels, viewcache.Exact(ProjectKey(c.ProjectID)))
	if c.NameChanged {
		// Note rows embed the project name.
		sels = append(sels,
			viewcache.All(KindNoteByID),
			viewcache.Scoped(KindProjectNotes, c.ProjectID),
			viewcache.All(KindSearch),
		)
	}
	return sels
}
