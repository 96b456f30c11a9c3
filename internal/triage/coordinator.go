package triage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/voicenotes/internal/domain/note"
	"github.com/rpggio/voicenotes/internal/domain/project"
	"github.com/rpggio/voicenotes/internal/repository"
	"github.com/rpggio/voicenotes/internal/viewcache"
)

// Coordinator executes classification-changing writes against the store and
// invalidates the affected views.
//
// Every write follows the same order: capture the state the invalidation depends
// on, issue the single store write, and only after the store confirms it, drop
// the affected views. A failed write drops nothing, so the cache stays consistent
// with the unchanged store. Invalidation completes before the method returns.
type Coordinator struct {
	store      repository.Store
	cache      *viewcache.Cache
	assignable func(project.Project) bool
	now        func() time.Time
	logger     *slog.Logger
}

// CoordinatorOption customizes a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithAssignablePredicate replaces the rule deciding which projects accept notes
// from the inbox. The default is project.Assignable.
func WithAssignablePredicate(fn func(project.Project) bool) CoordinatorOption {
	return func(c *Coordinator) {
		c.assignable = fn
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) CoordinatorOption {
	return func(c *Coordinator) {
		c.now = now
	}
}

// NewCoordinator creates a coordinator writing to store and invalidating cache.
func NewCoordinator(store repository.Store, cache *viewcache.Cache, logger *slog.Logger, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		store:      store,
		cache:      cache,
		assignable: project.Assignable,
		now:        time.Now,
		logger:     orDiscard(logger),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateProject creates a new, empty project.
func (c *Coordinator) CreateProject(ctx context.Context, req project.CreateRequest) (*project.Project, error) {
	if err := project.ValidateCreate(req); err != nil {
		return nil, err
	}

	now := c.now().UTC()
	proj := &project.Project{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(req.Name),
		Purpose:   req.Purpose,
		Goal:      req.Goal,
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := c.store.InsertProject(ctx, proj)
	if err != nil {
		c.logger.Warn("create project failed", "name", proj.Name, "error", err)
		return nil, fmt.Errorf("creating project: %w", err)
	}

	c.invalidate(projectChange{ProjectID: created.ID, Created: true}.selectors())
	c.logger.Info("created project", "project_id", created.ID)
	return created, nil
}

// UpdateProject applies a partial update, including archiving.
func (c *Coordinator) UpdateProject(ctx context.Context, req project.UpdateRequest) (*project.Project, error) {
	if err := project.ValidateUpdate(req); err != nil {
		return nil, err
	}

	patch := project.Patch{
		Name:       trimmed(req.Name),
		Purpose:    req.Purpose,
		Goal:       req.Goal,
		IsArchived: req.IsArchived,
		UpdatedAt:  c.now().UTC(),
	}

	updated, err := c.store.PatchProject(ctx, req.ID, patch)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, project.ErrProjectNotFound
		}
		c.logger.Warn("update project failed", "project_id", req.ID, "error", err)
		return nil, fmt.Errorf("updating project: %w", err)
	}

	c.invalidate(projectChange{ProjectID: req.ID, NameChanged: req.Name != nil}.selectors())
	c.logger.Info("updated project", "project_id", req.ID)
	return updated, nil
}

// ArchiveProject archives a project. Its notes stay assigned to it.
func (c *Coordinator) ArchiveProject(ctx context.Context, id string) (*project.Project, error) {
	archived := true
	return c.UpdateProject(ctx, project.UpdateRequest{ID: id, IsArchived: &archived})
}

// AssignRequest moves a note into a project.
type AssignRequest struct {
	NoteID    string
	ProjectID string
	// AllowArchived permits programmatic reassignment into a project that is not
	// offered as an inbox target. Inbox triage leaves it false.
	AllowArchived bool
}

// AssignNote assigns a note to a project and marks it processed. The note may
// come from the inbox or from another project.
func (c *Coordinator) AssignNote(ctx context.Context, req AssignRequest) error {
	if strings.TrimSpace(req.NoteID) == "" || strings.TrimSpace(req.ProjectID) == "" {
		return fmt.Errorf("%w: note id and project id are required", note.ErrInvalidInput)
	}

	target, err := c.store.GetProject(ctx, req.ProjectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return project.ErrProjectNotFound
		}
		return fmt.Errorf("getting project: %w", err)
	}
	if !req.AllowArchived && !c.assignable(*target) {
		return fmt.Errorf("%w: %s", project.ErrProjectArchived, target.Name)
	}

	before, err := c.getNote(ctx, req.NoteID)
	if err != nil {
		return err
	}

	processed := true
	projectID := req.ProjectID
	if _, err := c.store.PatchNote(ctx, req.NoteID, note.Patch{
		ProjectID:   &projectID,
		IsProcessed: &processed,
		ModifiedAt:  c.now().UTC(),
	}); err != nil {
		return c.noteWriteFailed("assign note", req.NoteID, err)
	}

	c.invalidate(noteChange{NoteID: req.NoteID, Before: before, After: &projectID}.selectors())
	c.logger.Info("assigned note", "note_id", req.NoteID, "project_id", projectID, "previous_project_id", derefOr(before.ProjectID, ""))
	return nil
}

// UnassignNote returns a note to the inbox and clears its processed flag.
func (c *Coordinator) UnassignNote(ctx context.Context, noteID string) error {
	before, err := c.getNote(ctx, noteID)
	if err != nil {
		return err
	}

	processed := false
	if _, err := c.store.PatchNote(ctx, noteID, note.Patch{
		ClearProject: true,
		IsProcessed:  &processed,
		ModifiedAt:   c.now().UTC(),
	}); err != nil {
		return c.noteWriteFailed("unassign note", noteID, err)
	}

	c.invalidate(noteChange{NoteID: noteID, Before: before}.selectors())
	c.logger.Info("unassigned note", "note_id", noteID)
	return nil
}

// MarkProcessed flags a note as reviewed without changing its project.
func (c *Coordinator) MarkProcessed(ctx context.Context, noteID string) error {
	if strings.TrimSpace(noteID) == "" {
		return fmt.Errorf("%w: note id is required", note.ErrInvalidInput)
	}

	processed := true
	updated, err := c.store.PatchNote(ctx, noteID, note.Patch{
		IsProcessed: &processed,
		ModifiedAt:  c.now().UTC(),
	})
	if err != nil {
		return c.noteWriteFailed("mark processed", noteID, err)
	}

	// The project is untouched, so the written row doubles as the before-state.
	c.invalidate(noteChange{NoteID: noteID, Before: updated, After: updated.ProjectID}.selectors())
	return nil
}

// BulkMarkProcessed flags several notes as reviewed and returns how many the store updated.
func (c *Coordinator) BulkMarkProcessed(ctx context.Context, noteIDs []string) (int, error) {
	if len(noteIDs) == 0 {
		return 0, fmt.Errorf("%w: at least one note id is required", note.ErrInvalidInput)
	}

	processed := true
	updated, err := c.store.PatchNotes(ctx, noteIDs, note.Patch{
		IsProcessed: &processed,
		ModifiedAt:  c.now().UTC(),
	})
	if err != nil {
		c.logger.Warn("bulk mark processed failed", "count", len(noteIDs), "error", err)
		return 0, fmt.Errorf("bulk mark processed: %w", err)
	}

	var sels []viewcache.Selector
	for i := range updated {
		n := &updated[i]
		sels = append(sels, noteChange{NoteID: n.ID, Before: n, After: n.ProjectID}.selectors()...)
	}
	c.invalidate(sels)
	c.logger.Info("bulk marked notes processed", "requested", len(noteIDs), "updated", len(updated))
	return len(updated), nil
}

// DeleteNote deletes a note.
func (c *Coordinator) DeleteNote(ctx context.Context, noteID string) error {
	before, err := c.getNote(ctx, noteID)
	if err != nil {
		return err
	}

	if err := c.store.DeleteNote(ctx, noteID); err != nil {
		return c.noteWriteFailed("delete note", noteID, err)
	}

	c.invalidate(noteChange{NoteID: noteID, Before: before, Deleted: true}.selectors())
	c.logger.Info("deleted note", "note_id", noteID)
	return nil
}

func (c *Coordinator) getNote(ctx context.Context, noteID string) (*note.Note, error) {
	if strings.TrimSpace(noteID) == "" {
		return nil, fmt.Errorf("%w: note id is required", note.ErrInvalidInput)
	}
	n, err := c.store.GetNote(ctx, noteID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, note.ErrNoteNotFound
		}
		return nil, fmt.Errorf("getting note: %w", err)
	}
	return n, nil
}

func (c *Coordinator) noteWriteFailed(op, noteID string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return note.ErrNoteNotFound
	}
	c.logger.Warn(op+" failed", "note_id", noteID, "error", err)
	return fmt.Errorf("%s: %w", op, err)
}

func (c *Coordinator) invalidate(sels []viewcache.Selector) {
	removed := c.cache.Drop(sels...)
	if c.logger.Enabled(context.Background(), slog.LevelDebug) {
		names := make([]string, 0, len(sels))
		for _, sel := range sels {
			names = append(names, sel.String())
		}
		c.logger.Debug("invalidated views", "selectors", names, "removed", removed)
	}
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}
