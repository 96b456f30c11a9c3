package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// DB wraps a SQLite database connection
type DB struct {
	*sql.DB
}

// New creates a new SQLite database connection
func New(dataSourceName string) (*DB, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// PRAGMAs are per connection, and an in-memory database lives only as
	// long as its connection. One connection also serializes writers.
	db.SetMaxOpenConns(1)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &DB{db}, nil
}

// RunMigrations creates the schema. It is safe to run against an already
// migrated database.
func (db *DB) RunMigrations() error {
	migration := `
-- Projects table. note_count is maintained by the notes triggers below.
CREATE TABLE IF NOT EXISTS projects (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    purpose TEXT,
    goal TEXT,
    is_archived INTEGER NOT NULL DEFAULT 0,
    note_count INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_projects_updated ON projects(updated_at);

-- Notes table
CREATE TABLE IF NOT EXISTS notes (
    id TEXT PRIMARY KEY,
    transcript TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL,
    modified_at TEXT NOT NULL,
    is_processed INTEGER NOT NULL DEFAULT 0,
    project_id TEXT,
    transcription_status TEXT NOT NULL DEFAULT 'completed',
    word_count INTEGER NOT NULL DEFAULT 0,
    audio_duration_seconds REAL NOT NULL DEFAULT 0,
    FOREIGN KEY (project_id) REFERENCES projects(id)
);
CREATE INDEX IF NOT EXISTS idx_notes_project ON notes(project_id);
CREATE INDEX IF NOT EXISTS idx_notes_created ON notes(created_at);
CREATE INDEX IF NOT EXISTS idx_notes_status ON notes(transcription_status, is_processed);

-- Triggers to keep project note counts in step with assignments
CREATE TRIGGER IF NOT EXISTS notes_count_ai AFTER INSERT ON notes
WHEN new.project_id IS NOT NULL BEGIN
    UPDATE projects SET note_count = note_count + 1 WHERE id = new.project_id;
END;

CREATE TRIGGER IF NOT EXISTS notes_count_ad AFTER DELETE ON notes
WHEN old.project_id IS NOT NULL BEGIN
    UPDATE projects SET note_count = note_count - 1 WHERE id = old.project_id;
END;

CREATE TRIGGER IF NOT EXISTS notes_count_au AFTER UPDATE OF project_id ON notes
WHEN old.project_id IS NOT new.project_id BEGIN
    UPDATE projects SET note_count = note_count - 1 WHERE id = old.project_id;
    UPDATE projects SET note_count = note_count + 1 WHERE id = new.project_id;
END;

-- Full-text search (SQLite FTS5)
CREATE VIRTUAL TABLE IF NOT EXISTS notes_fts USING fts5(
    transcript,
    content='notes',
    content_rowid='rowid'
);

-- Triggers to keep FTS index synchronized
CREATE TRIGGER IF NOT EXISTS notes_fts_ai AFTER INSERT ON notes BEGIN
    INSERT INTO notes_fts(rowid, transcript) VALUES (new.rowid, new.transcript);
END;

CREATE TRIGGER IF NOT EXISTS notes_fts_ad AFTER DELETE ON notes BEGIN
    INSERT INTO notes_fts(notes_fts, rowid, transcript) VALUES('delete', old.rowid, old.transcript);
END;

CREATE TRIGGER IF NOT EXISTS notes_fts_au AFTER UPDATE OF transcript ON notes BEGIN
    INSERT INTO notes_fts(notes_fts, rowid, transcript) VALUES('delete', old.rowid, old.transcript);
    INSERT INTO notes_fts(rowid, transcript) VALUES (new.rowid, new.transcript);
END;
`

	_, err := db.Exec(migration)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Parse(time.RFC3339Nano, s)
	}
	return t, nil
}
