package sqlite

import "github.com/rpggio/voicenotes/internal/repository"

// Store serves notes and projects from one SQLite database.
type Store struct {
	*NoteRepository
	*ProjectRepository
}

var _ repository.Store = (*Store)(nil)

// NewStore creates a Store over db. Run db.RunMigrations first.
func NewStore(db *DB) *Store {
	return &Store{
		NoteRepository:    NewNoteRepository(db),
		ProjectRepository: NewProjectRepository(db),
	}
}
