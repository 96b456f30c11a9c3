package triage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rpggio/voicenotes/internal/domain/note"
	"github.com/rpggio/voicenotes/internal/domain/project"
	"github.com/rpggio/voicenotes/internal/repository"
	"github.com/rpggio/voicenotes/internal/viewcache"
)

const (
	// DefaultSearchLimit caps search results when the caller does not.
	DefaultSearchLimit = 20
	// RecentWindow is the age below which a note counts as recent in InboxStats.
	RecentWindow = 7 * 24 * time.Hour
)

// Queries serves the read views, consulting the cache first and the store on a
// miss. Values returned are deep copies of the cached views; callers may modify
// them freely.
type Queries struct {
	store  repository.Store
	cache  *viewcache.Cache
	now    func() time.Time
	logger *slog.Logger
}

// NewQueries creates the read façade over store and cache.
func NewQueries(store repository.Store, cache *viewcache.Cache, logger *slog.Logger) *Queries {
	return &Queries{
		store:  store,
		cache:  cache,
		now:    time.Now,
		logger: orDiscard(logger),
	}
}

// InboxNotes lists completed notes without a project, newest first.
func (q *Queries) InboxNotes(ctx context.Context, page note.Page) ([]note.Note, error) {
	page = page.Normalize()
	notes, err := viewcache.Load(ctx, q.cache, InboxKey(page), func(ctx context.Context) ([]note.Note, error) {
		filter := repository.NoteFilter{Unassigned: true, TranscriptionStatus: note.TranscriptionCompleted}
		return q.store.ListNotes(ctx, filter, repository.NewestFirst, page)
	})
	if err != nil {
		return nil, q.readFailed("inbox notes", err)
	}
	return note.CloneAll(notes), nil
}

// ListProjects lists projects, most recently updated first. Archived projects are
// included only when asked for.
func (q *Queries) ListProjects(ctx context.Context, includeArchived bool) ([]project.Project, error) {
	projects, err := viewcache.Load(ctx, q.cache, ProjectListKey(includeArchived), func(ctx context.Context) ([]project.Project, error) {
		return q.store.ListProjects(ctx, repository.ProjectFilter{IncludeArchived: includeArchived}, repository.RecentlyUpdated)
	})
	if err != nil {
		return nil, q.readFailed("list projects", err)
	}
	return project.CloneAll(projects), nil
}

// ProjectNotes lists the notes assigned to a project, newest first. An unknown
// project yields an empty list.
func (q *Queries) ProjectNotes(ctx context.Context, projectID string, page note.Page) ([]note.Note, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, fmt.Errorf("%w: project id is required", project.ErrInvalidInput)
	}
	page = page.Normalize()
	notes, err := viewcache.Load(ctx, q.cache, ProjectNotesKey(projectID, page), func(ctx context.Context) ([]note.Note, error) {
		filter := repository.NoteFilter{ProjectID: &projectID, TranscriptionStatus: note.TranscriptionCompleted}
		return q.store.ListNotes(ctx, filter, repository.NewestFirst, page)
	})
	if err != nil {
		return nil, q.readFailed("project notes", err)
	}
	return note.CloneAll(notes), nil
}

// GetProject returns one project with its note count.
func (q *Queries) GetProject(ctx context.Context, id string) (*project.Project, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: project id is required", project.ErrInvalidInput)
	}
	proj, err := viewcache.Load(ctx, q.cache, ProjectKey(id), func(ctx context.Context) (project.Project, error) {
		p, err := q.store.GetProject(ctx, id)
		if err != nil {
			return project.Project{}, err
		}
		return *p, nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, project.ErrProjectNotFound
		}
		return nil, q.readFailed("get project", err)
	}
	out := proj.Clone()
	return &out, nil
}

// GetNote returns one note with the name of its project, if any.
func (q *Queries) GetNote(ctx context.Context, id string) (*note.Note, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: note id is required", note.ErrInvalidInput)
	}
	n, err := viewcache.Load(ctx, q.cache, NoteKey(id), func(ctx context.Context) (note.Note, error) {
		n, err := q.store.GetNote(ctx, id)
		if err != nil {
			return note.Note{}, err
		}
		return *n, nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, note.ErrNoteNotFound
		}
		return nil, q.readFailed("get note", err)
	}
	out := n.Clone()
	return &out, nil
}

// Search finds completed notes whose transcript matches query. Processed notes
// are skipped unless opts asks for them.
func (q *Queries) Search(ctx context.Context, query string, opts note.SearchOptions) ([]note.Note, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", note.ErrInvalidInput)
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultSearchLimit
	}
	notes, err := viewcache.Load(ctx, q.cache, SearchKey(query, opts), func(ctx context.Context) ([]note.Note, error) {
		return q.store.SearchNotes(ctx, query, opts)
	})
	if err != nil {
		return nil, q.readFailed("search notes", err)
	}
	return note.CloneAll(notes), nil
}

// InboxStats counts completed notes by processed state, age and assignment.
func (q *Queries) InboxStats(ctx context.Context) (note.InboxStats, error) {
	stats, err := viewcache.Load(ctx, q.cache, InboxStatsKey(), q.fetchStats)
	if err != nil {
		return note.InboxStats{}, q.readFailed("inbox stats", err)
	}
	return stats, nil
}

func (q *Queries) fetchStats(ctx context.Context) (note.InboxStats, error) {
	completed := repository.NoteFilter{TranscriptionStatus: note.TranscriptionCompleted}

	total, err := q.store.CountNotes(ctx, completed)
	if err != nil {
		return note.InboxStats{}, err
	}

	unprocessedFilter := completed
	unprocessedFilter.IsProcessed = new(bool)
	unprocessed, err := q.store.CountNotes(ctx, unprocessedFilter)
	if err != nil {
		return note.InboxStats{}, err
	}

	now := q.now().UTC()
	since := now.Add(-RecentWindow)
	recentFilter := completed
	recentFilter.CreatedSince = &since
	recent, err := q.store.CountNotes(ctx, recentFilter)
	if err != nil {
		return note.InboxStats{}, err
	}

	inboxFilter := completed
	inboxFilter.Unassigned = true
	inbox, err := q.store.CountNotes(ctx, inboxFilter)
	if err != nil {
		return note.InboxStats{}, err
	}

	return note.InboxStats{
		UnprocessedCount: unprocessed,
		TotalCount:       total,
		ProcessedCount:   total - unprocessed,
		RecentCount:      recent,
		InboxCount:       inbox,
		LastUpdated:      now,
	}, nil
}

func (q *Queries) readFailed(op string, err error) error {
	q.logger.Warn(op+" failed", "error", err)
	return fmt.Errorf("%s: %w", op, err)
}
