package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rpggio/voicenotes/internal/domain/note"
	"github.com/rpggio/voicenotes/internal/repository"
)

const noteColumns = `
	n.id, n.transcript, n.created_at, n.modified_at, n.is_processed, n.project_id,
	COALESCE(p.name, ''), n.transcription_status, n.word_count, n.audio_duration_seconds`

const noteFrom = `
	FROM notes n
	LEFT JOIN projects p ON p.id = n.project_id`

// NoteRepository implements repository.NoteStore for SQLite
type NoteRepository struct {
	db *DB
}

// NewNoteRepository creates a new NoteRepository
func NewNoteRepository(db *DB) *NoteRepository {
	return &NoteRepository{db: db}
}

// AddNote inserts a note. Notes normally arrive from the recording pipeline;
// this is used for imports and seeding.
func (r *NoteRepository) AddNote(ctx context.Context, n *note.Note) error {
	status := n.TranscriptionStatus
	if status == "" {
		status = note.TranscriptionCompleted
	}
	modified := n.ModifiedAt
	if modified.IsZero() {
		modified = n.CreatedAt
	}

	query := `
		INSERT INTO notes (
			id, transcript, created_at, modified_at, is_processed, project_id,
			transcription_status, word_count, audio_duration_seconds
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		n.ID,
		n.Transcript,
		formatTime(n.CreatedAt),
		formatTime(modified),
		n.IsProcessed,
		n.ProjectID,
		status,
		n.WordCount,
		n.AudioDurationSeconds,
	)
	if err != nil {
		return classify("add note", err)
	}
	return nil
}

// ListNotes returns notes matching filter in the given order.
func (r *NoteRepository) ListNotes(ctx context.Context, filter repository.NoteFilter, order repository.Order, page note.Page) ([]note.Note, error) {
	where, args := noteWhere(filter)
	orderBy, err := orderClause("n", order)
	if err != nil {
		return nil, err
	}

	page = page.Normalize()
	query := "SELECT" + noteColumns + noteFrom + where + orderBy + " LIMIT ? OFFSET ?"
	args = append(args, page.Limit, page.Offset)

	return r.queryNotes(ctx, "list notes", query, args...)
}

// CountNotes returns how many notes match filter.
func (r *NoteRepository) CountNotes(ctx context.Context, filter repository.NoteFilter) (int, error) {
	where, args := noteWhere(filter)

	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM notes n"+where, args...).Scan(&count); err != nil {
		return 0, classify("count notes", err)
	}
	return count, nil
}

// GetNote retrieves a note by ID
func (r *NoteRepository) GetNote(ctx context.Context, id string) (*note.Note, error) {
	return getNote(ctx, r.db, id)
}

// PatchNote updates a note's assignment and processed state and returns the result.
func (r *NoteRepository) PatchNote(ctx context.Context, id string, patch note.Patch) (*note.Note, error) {
	notes, err := r.patch(ctx, []string{id}, patch)
	if err != nil {
		return nil, err
	}
	if len(notes) == 0 {
		return nil, repository.ErrNotFound
	}
	return &notes[0], nil
}

// PatchNotes applies one patch to several notes. IDs that do not exist are skipped.
func (r *NoteRepository) PatchNotes(ctx context.Context, ids []string, patch note.Patch) ([]note.Note, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.patch(ctx, ids, patch)
}

func (r *NoteRepository) patch(ctx context.Context, ids []string, patch note.Patch) ([]note.Note, error) {
	sets := []string{"modified_at = ?"}
	args := []interface{}{formatTime(patch.ModifiedAt)}

	switch {
	case patch.ClearProject:
		sets = append(sets, "project_id = NULL")
	case patch.ProjectID != nil:
		sets = append(sets, "project_id = ?")
		args = append(args, *patch.ProjectID)
	}
	if patch.IsProcessed != nil {
		sets = append(sets, "is_processed = ?")
		args = append(args, *patch.IsProcessed)
	}

	in, inArgs := placeholders(ids)
	args = append(args, inArgs...)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, classify("begin transaction", err)
	}
	defer tx.Rollback()

	update := fmt.Sprintf("UPDATE notes SET %s WHERE id IN (%s)", strings.Join(sets, ", "), in)
	if _, err := tx.ExecContext(ctx, update, args...); err != nil {
		return nil, classify("update notes", err)
	}

	rows, err := tx.QueryContext(ctx, "SELECT"+noteColumns+noteFrom+" WHERE n.id IN ("+in+")", inArgs...)
	if err != nil {
		return nil, classify("reload notes", err)
	}
	notes, err := scanNotes(rows)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, classify("commit transaction", err)
	}
	return notes, nil
}

// DeleteNote deletes a note
func (r *NoteRepository) DeleteNote(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM notes WHERE id = ?", id)
	if err != nil {
		return classify("delete note", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return classify("get rows affected", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// SearchNotes performs a full-text search over completed transcripts, newest first.
func (r *NoteRepository) SearchNotes(ctx context.Context, query string, opts note.SearchOptions) ([]note.Note, error) {
	baseQuery := "SELECT" + noteColumns + `
		FROM notes_fts
		JOIN notes n ON n.rowid = notes_fts.rowid
		LEFT JOIN projects p ON p.id = n.project_id
		WHERE notes_fts MATCH ? AND n.transcription_status = ?`
	args := []interface{}{phraseQuery(query), note.TranscriptionCompleted}

	if !opts.IncludeProcessed {
		baseQuery += " AND n.is_processed = 0"
	}
	baseQuery += " ORDER BY n.created_at DESC"
	if opts.Limit > 0 {
		baseQuery += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	return r.queryNotes(ctx, "search notes", baseQuery, args...)
}

func (r *NoteRepository) queryNotes(ctx context.Context, op, query string, args ...interface{}) ([]note.Note, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(op, err)
	}
	return scanNotes(rows)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func getNote(ctx context.Context, q queryRower, id string) (*note.Note, error) {
	row := q.QueryRowContext(ctx, "SELECT"+noteColumns+noteFrom+" WHERE n.id = ?", id)
	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, classify("get note", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanNote(s scanner) (*note.Note, error) {
	var n note.Note
	var createdAt, modifiedAt string
	err := s.Scan(
		&n.ID,
		&n.Transcript,
		&createdAt,
		&modifiedAt,
		&n.IsProcessed,
		&n.ProjectID,
		&n.ProjectName,
		&n.TranscriptionStatus,
		&n.WordCount,
		&n.AudioDurationSeconds,
	)
	if err != nil {
		return nil, err
	}
	if n.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if n.ModifiedAt, err = parseTime(modifiedAt); err != nil {
		return nil, fmt.Errorf("failed to parse modified_at: %w", err)
	}
	return &n, nil
}

func scanNotes(rows *sql.Rows) ([]note.Note, error) {
	defer rows.Close()

	notes := []note.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, classify("scan note", err)
		}
		notes = append(notes, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("iterate note rows", err)
	}
	return notes, nil
}

func noteWhere(filter repository.NoteFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if filter.Unassigned {
		conditions = append(conditions, "n.project_id IS NULL")
	}
	if filter.ProjectID != nil {
		conditions = append(conditions, "n.project_id = ?")
		args = append(args, *filter.ProjectID)
	}
	if filter.IsProcessed != nil {
		conditions = append(conditions, "n.is_processed = ?")
		args = append(args, *filter.IsProcessed)
	}
	if filter.TranscriptionStatus != "" {
		conditions = append(conditions, "n.transcription_status = ?")
		args = append(args, filter.TranscriptionStatus)
	}
	if filter.CreatedSince != nil {
		conditions = append(conditions, "n.created_at >= ?")
		args = append(args, formatTime(*filter.CreatedSince))
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

var orderColumns = map[string]bool{
	"created_at":  true,
	"modified_at": true,
	"updated_at":  true,
	"name":        true,
}

func orderClause(alias string, order repository.Order) (string, error) {
	if order.Column == "" {
		return "", nil
	}
	if !orderColumns[order.Column] {
		return "", fmt.Errorf("%w: cannot order by %q", repository.ErrRejected, order.Column)
	}
	dir := "ASC"
	if order.Descending {
		dir = "DESC"
	}
	// Ties fall back to id so pages are stable.
	return fmt.Sprintf(" ORDER BY %s.%s %s, %s.id %s", alias, order.Column, dir, alias, dir), nil
}

func placeholders(ids []string) (string, []interface{}) {
	marks := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		marks[i] = "?"
		args[i] = id
	}
	return strings.Join(marks, ","), args
}

// phraseQuery quotes free text as a single FTS5 phrase so user input cannot
// inject query syntax.
func phraseQuery(text string) string {
	return `"` + strings.ReplaceAll(strings.TrimSpace(text), `"`, `""`) + `"`
}
