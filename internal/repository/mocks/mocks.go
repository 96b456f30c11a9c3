package mocks

import (
	"context"

	"github.com/rpggio/voicenotes/internal/domain/note"
	"github.com/rpggio/voicenotes/internal/domain/project"
	"github.com/rpggio/voicenotes/internal/repository"
	"github.com/stretchr/testify/mock"
)

// Store is a mock for repository.Store.
type Store struct {
	mock.Mock
}

var _ repository.Store = (*Store)(nil)

func (m *Store) ListNotes(ctx context.Context, filter repository.NoteFilter, order repository.Order, page note.Page) ([]note.Note, error) {
	args := m.Called(ctx, filter, order, page)
	if list, ok := args.Get(0).([]note.Note); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Store) CountNotes(ctx context.Context, filter repository.NoteFilter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

func (m *Store) GetNote(ctx context.Context, id string) (*note.Note, error) {
	args := m.Called(ctx, id)
	if n, ok := args.Get(0).(*note.Note); ok {
		return n, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Store) PatchNote(ctx context.Context, id string, patch note.Patch) (*note.Note, error) {
	args := m.Called(ctx, id, patch)
	if n, ok := args.Get(0).(*note.Note); ok {
		return n, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Store) PatchNotes(ctx context.Context, ids []string, patch note.Patch) ([]note.Note, error) {
	args := m.Called(ctx, ids, patch)
	if list, ok := args.Get(0).([]note.Note); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Store) DeleteNote(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *Store) SearchNotes(ctx context.Context, query string, opts note.SearchOptions) ([]note.Note, error) {
	args := m.Called(ctx, query, opts)
	if list, ok := args.Get(0).([]note.Note); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Store) ListProjects(ctx context.Context, filter repository.ProjectFilter, order repository.Order) ([]project.Project, error) {
	args := m.Called(ctx, filter, order)
	if list, ok := args.Get(0).([]project.Project); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Store) GetProject(ctx context.Context, id string) (*project.Project, error) {
	args := m.Called(ctx, id)
	if proj, ok := args.Get(0).(*project.Project); ok {
		return proj, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Store) InsertProject(ctx context.Context, proj *project.Project) (*project.Project, error) {
	args := m.Called(ctx, proj)
	if out, ok := args.Get(0).(*project.Project); ok {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Store) PatchProject(ctx context.Context, id string, patch project.Patch) (*project.Project, error) {
	args := m.Called(ctx, id, patch)
	if proj, ok := args.Get(0).(*project.Project); ok {
		return proj, args.Error(1)
	}
	return nil, args.Error(1)
}
