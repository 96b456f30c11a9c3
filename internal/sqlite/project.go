package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rpggio/voicenotes/internal/domain/project"
	"github.com/rpggio/voicenotes/internal/repository"
)

const projectColumns = `id, name, purpose, goal, is_archived, note_count, created_at, updated_at`

// ProjectRepository implements repository.ProjectStore for SQLite
type ProjectRepository struct {
	db *DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// InsertProject creates a new project and returns it as stored
func (r *ProjectRepository) InsertProject(ctx context.Context, proj *project.Project) (*project.Project, error) {
	query := `
		INSERT INTO projects (id, name, purpose, goal, is_archived, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		proj.ID,
		proj.Name,
		proj.Purpose,
		proj.Goal,
		proj.IsArchived,
		formatTime(proj.CreatedAt),
		formatTime(proj.UpdatedAt),
	)
	if err != nil {
		return nil, classify("create project", err)
	}

	return getProject(ctx, r.db, proj.ID)
}

// GetProject retrieves a project by ID
func (r *ProjectRepository) GetProject(ctx context.Context, id string) (*project.Project, error) {
	return getProject(ctx, r.db, id)
}

// ListProjects returns projects in the given order
func (r *ProjectRepository) ListProjects(ctx context.Context, filter repository.ProjectFilter, order repository.Order) ([]project.Project, error) {
	query := "SELECT " + projectColumns + " FROM projects p"
	if !filter.IncludeArchived {
		query += " WHERE p.is_archived = 0"
	}
	orderBy, err := orderClause("p", order)
	if err != nil {
		return nil, err
	}
	query += orderBy

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, classify("list projects", err)
	}
	defer rows.Close()

	projects := []project.Project{}
	for rows.Next() {
		proj, err := scanProject(rows)
		if err != nil {
			return nil, classify("scan project", err)
		}
		projects = append(projects, *proj)
	}

	if err = rows.Err(); err != nil {
		return nil, classify("iterate project rows", err)
	}

	return projects, nil
}

// PatchProject updates the given project fields and returns the result
func (r *ProjectRepository) PatchProject(ctx context.Context, id string, patch project.Patch) (*project.Project, error) {
	sets := []string{"updated_at = ?"}
	args := []interface{}{formatTime(patch.UpdatedAt)}

	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Purpose != nil {
		sets = append(sets, "purpose = ?")
		args = append(args, *patch.Purpose)
	}
	if patch.Goal != nil {
		sets = append(sets, "goal = ?")
		args = append(args, *patch.Goal)
	}
	if patch.IsArchived != nil {
		sets = append(sets, "is_archived = ?")
		args = append(args, *patch.IsArchived)
	}
	args = append(args, id)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, classify("begin transaction", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, fmt.Sprintf("UPDATE projects SET %s WHERE id = ?", strings.Join(sets, ", ")), args...)
	if err != nil {
		return nil, classify("update project", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, classify("get rows affected", err)
	}
	if rowsAffected == 0 {
		return nil, repository.ErrNotFound
	}

	proj, err := getProject(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, classify("commit transaction", err)
	}

	return proj, nil
}

func getProject(ctx context.Context, q queryRower, id string) (*project.Project, error) {
	row := q.QueryRowContext(ctx, "SELECT "+projectColumns+" FROM projects WHERE id = ?", id)
	proj, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, classify("get project", err)
	}
	return proj, nil
}

func scanProject(s scanner) (*project.Project, error) {
	var proj project.Project
	var createdAt, updatedAt string
	err := s.Scan(
		&proj.ID,
		&proj.Name,
		&proj.Purpose,
		&proj.Goal,
		&proj.IsArchived,
		&proj.NoteCount,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}
	if proj.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if proj.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return &proj, nil
}
