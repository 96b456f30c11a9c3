// Package triage classifies notes into the inbox or a project and serves the derived
// views of that classification through a view cache.
//
// Coordinator runs the classification-changing writes. Queries serves the reads.
// Both share one injected *viewcache.Cache; a write invalidates every view whose
// contents it could have changed before returning, so the writer's next read
// refetches from the store.
package triage

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rpggio/voicenotes/internal/domain/note"
	"github.com/rpggio/voicenotes/internal/viewcache"
)

// View kinds held in the cache.
const (
	KindInbox        viewcache.Kind = "inbox"
	KindProjectList  viewcache.Kind = "project_list"
	KindProjectNotes viewcache.Kind = "project_notes"
	KindProjectByID  viewcache.Kind = "project"
	KindNoteByID     viewcache.Kind = "note"
	KindInboxStats   viewcache.Kind = "inbox_stats"
	KindSearch       viewcache.Kind = "search"
)

// InboxKey identifies one page of the inbox listing.
func InboxKey(page note.Page) viewcache.Key {
	return viewcache.Key{Kind: KindInbox, Variant: pageVariant(page)}
}

// ProjectListKey identifies the project listing.
func ProjectListKey(includeArchived bool) viewcache.Key {
	return viewcache.Key{Kind: KindProjectList, Variant: strconv.FormatBool(includeArchived)}
}

// ProjectNotesKey identifies one page of a project's notes.
func ProjectNotesKey(projectID string, page note.Page) viewcache.Key {
	return viewcache.Key{Kind: KindProjectNotes, Scope: projectID, Variant: pageVariant(page)}
}

// ProjectKey identifies a single project.
func ProjectKey(id string) viewcache.Key {
	return viewcache.Key{Kind: KindProjectByID, Scope: id}
}

// NoteKey identifies a single note.
func NoteKey(id string) viewcache.Key {
	return viewcache.Key{Kind: KindNoteByID, Scope: id}
}

// InboxStatsKey identifies the inbox statistics.
func InboxStatsKey() viewcache.Key {
	return viewcache.Key{Kind: KindInboxStats}
}

// SearchKey identifies one transcript search.
func SearchKey(query string, opts note.SearchOptions) viewcache.Key {
	return viewcache.Key{
		Kind:    KindSearch,
		Scope:   strings.ToLower(strings.TrimSpace(query)),
		Variant: fmt.Sprintf("%t:%d", opts.IncludeProcessed, opts.Limit),
	}
}

func pageVariant(page note.Page) string {
	page = page.Normalize()
	return fmt.Sprintf("%d:%d", page.Limit, page.Offset)
}
