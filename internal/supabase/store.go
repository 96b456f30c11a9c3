package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rpggio/voicenotes/internal/domain/note"
	"github.com/rpggio/voicenotes/internal/domain/project"
	"github.com/rpggio/voicenotes/internal/repository"
)

const preferRepresentation = "return=representation"

// Store implements repository.Store over PostgREST.
type Store struct {
	client *Client
}

var _ repository.Store = (*Store)(nil)

// NewStore creates a Store using client.
func NewStore(client *Client) *Store {
	return &Store{client: client}
}

// ListNotes returns notes matching filter in the given order.
func (s *Store) ListNotes(ctx context.Context, filter repository.NoteFilter, order repository.Order, page note.Page) ([]note.Note, error) {
	page = page.Normalize()
	query := noteQuery(filter)
	query.Set("select", noteSelect)
	if order.Column != "" {
		query.Set("order", orderParam(order))
	}
	query.Set("limit", strconv.Itoa(page.Limit))
	query.Set("offset", strconv.Itoa(page.Offset))

	var rows []noteRow
	if err := s.get(ctx, notesTable, query, &rows); err != nil {
		return nil, err
	}
	return toNotes(rows), nil
}

// CountNotes returns how many notes match filter using an exact count.
func (s *Store) CountNotes(ctx context.Context, filter repository.NoteFilter) (int, error) {
	query := noteQuery(filter)
	query.Set("select", "id")
	query.Set("limit", "1")

	resp, err := s.client.read(ctx, request{
		method: http.MethodGet,
		table:  notesTable,
		query:  query,
		prefer: []string{"count=exact"},
	})
	if err != nil {
		return 0, err
	}
	return parseContentRangeTotal(resp.header.Get("Content-Range"))
}

// GetNote retrieves a note with its project's name.
func (s *Store) GetNote(ctx context.Context, id string) (*note.Note, error) {
	query := url.Values{"select": {noteSelect}, "id": {"eq." + id}}

	var rows []noteRow
	if err := s.get(ctx, notesTable, query, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, repository.ErrNotFound
	}
	n := rows[0].toNote()
	return &n, nil
}

// PatchNote updates one note and returns it.
func (s *Store) PatchNote(ctx context.Context, id string, patch note.Patch) (*note.Note, error) {
	notes, err := s.patchNotes(ctx, url.Values{"id": {"eq." + id}}, patch)
	if err != nil {
		return nil, err
	}
	if len(notes) == 0 {
		return nil, repository.ErrNotFound
	}
	return &notes[0], nil
}

// PatchNotes applies one patch to several notes in a single request. IDs that
// do not exist are skipped.
func (s *Store) PatchNotes(ctx context.Context, ids []string, patch note.Patch) ([]note.Note, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.patchNotes(ctx, url.Values{"id": {inList(ids)}}, patch)
}

func (s *Store) patchNotes(ctx context.Context, query url.Values, patch note.Patch) ([]note.Note, error) {
	body := map[string]any{"modified_at": timestamp(patch.ModifiedAt)}
	switch {
	case patch.ClearProject:
		body["project_id"] = nil
	case patch.ProjectID != nil:
		body["project_id"] = *patch.ProjectID
	}
	if patch.IsProcessed != nil {
		body["is_processed"] = *patch.IsProcessed
	}
	query.Set("select", noteSelect)

	var rows []noteRow
	if err := s.mutate(ctx, http.MethodPatch, notesTable, query, body, &rows); err != nil {
		return nil, err
	}
	return toNotes(rows), nil
}

// DeleteNote deletes a note.
func (s *Store) DeleteNote(ctx context.Context, id string) error {
	var rows []struct {
		ID string `json:"id"`
	}
	query := url.Values{"id": {"eq." + id}, "select": {"id"}}
	if err := s.mutate(ctx, http.MethodDelete, notesTable, query, nil, &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// SearchNotes matches transcripts case-insensitively, newest first.
func (s *Store) SearchNotes(ctx context.Context, text string, opts note.SearchOptions) ([]note.Note, error) {
	query := url.Values{
		"select":               {noteSelect},
		"transcript":           {"ilike." + likePattern(text)},
		"transcription_status": {"eq." + note.TranscriptionCompleted},
		"order":                {orderParam(repository.NewestFirst)},
	}
	if !opts.IncludeProcessed {
		query.Set("is_processed", "eq.false")
	}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}

	var rows []noteRow
	if err := s.get(ctx, notesTable, query, &rows); err != nil {
		return nil, err
	}
	return toNotes(rows), nil
}

// ListProjects returns projects with their note counts.
func (s *Store) ListProjects(ctx context.Context, filter repository.ProjectFilter, order repository.Order) ([]project.Project, error) {
	query := url.Values{"select": {projectSelect}}
	if !filter.IncludeArchived {
		query.Set("is_archived", "eq.false")
	}
	if order.Column != "" {
		query.Set("order", orderParam(order))
	}

	var rows []projectRow
	if err := s.get(ctx, projectsTable, query, &rows); err != nil {
		return nil, err
	}
	projects := make([]project.Project, 0, len(rows))
	for _, r := range rows {
		projects = append(projects, r.toProject())
	}
	return projects, nil
}

// GetProject retrieves a project with its note count.
func (s *Store) GetProject(ctx context.Context, id string) (*project.Project, error) {
	query := url.Values{"select": {projectSelect}, "id": {"eq." + id}}

	var rows []projectRow
	if err := s.get(ctx, projectsTable, query, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, repository.ErrNotFound
	}
	p := rows[0].toProject()
	return &p, nil
}

// InsertProject creates a project and returns it as stored.
func (s *Store) InsertProject(ctx context.Context, proj *project.Project) (*project.Project, error) {
	body := projectInsert{
		ID:         proj.ID,
		Name:       proj.Name,
		Purpose:    proj.Purpose,
		Goal:       proj.Goal,
		IsArchived: proj.IsArchived,
		CreatedAt:  timestamp(proj.CreatedAt),
		UpdatedAt:  timestamp(proj.UpdatedAt),
	}
	query := url.Values{"select": {projectSelect}}

	var rows []projectRow
	if err := s.mutate(ctx, http.MethodPost, projectsTable, query, body, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("supabase: insert returned no row: %w", repository.ErrRejected)
	}
	p := rows[0].toProject()
	return &p, nil
}

// PatchProject updates the given project fields and returns the result.
func (s *Store) PatchProject(ctx context.Context, id string, patch project.Patch) (*project.Project, error) {
	body := map[string]any{"updated_at": timestamp(patch.UpdatedAt)}
	if patch.Name != nil {
		body["name"] = *patch.Name
	}
	if patch.Purpose != nil {
		body["purpose"] = *patch.Purpose
	}
	if patch.Goal != nil {
		body["goal"] = *patch.Goal
	}
	if patch.IsArchived != nil {
		body["is_archived"] = *patch.IsArchived
	}
	query := url.Values{"id": {"eq." + id}, "select": {projectSelect}}

	var rows []projectRow
	if err := s.mutate(ctx, http.MethodPatch, projectsTable, query, body, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, repository.ErrNotFound
	}
	p := rows[0].toProject()
	return &p, nil
}

func (s *Store) get(ctx context.Context, table string, query url.Values, out any) error {
	resp, err := s.client.read(ctx, request{method: http.MethodGet, table: table, query: query})
	if err != nil {
		return err
	}
	return decode(table, resp.body, out)
}

func (s *Store) mutate(ctx context.Context, method, table string, query url.Values, body, out any) error {
	resp, err := s.client.write(ctx, request{
		method: method,
		table:  table,
		query:  query,
		body:   body,
		prefer: []string{preferRepresentation},
	})
	if err != nil {
		return err
	}
	return decode(table, resp.body, out)
}

func decode(table string, body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("supabase: decode %s: %w: %w", table, repository.ErrTransport, err)
	}
	return nil
}

func noteQuery(filter repository.NoteFilter) url.Values {
	query := url.Values{}
	switch {
	case filter.Unassigned:
		query.Set("project_id", "is.null")
	case filter.ProjectID != nil:
		query.Set("project_id", "eq."+*filter.ProjectID)
	}
	if filter.IsProcessed != nil {
		query.Set("is_processed", "eq."+strconv.FormatBool(*filter.IsProcessed))
	}
	if filter.TranscriptionStatus != "" {
		query.Set("transcription_status", "eq."+filter.TranscriptionStatus)
	}
	if filter.CreatedSince != nil {
		query.Set("created_at", "gte."+timestamp(*filter.CreatedSince))
	}
	return query
}

func orderParam(order repository.Order) string {
	dir := "asc"
	if order.Descending {
		dir = "desc"
	}
	return fmt.Sprintf("%s.%s,id.%s", order.Column, dir, dir)
}

// inList renders ids as a PostgREST in() filter with each value quoted.
func inList(ids []string) string {
	quoted := make([]string, len(ids))
	for i, id := range ids {
		quoted[i] = `"` + strings.ReplaceAll(id, `"`, `\"`) + `"`
	}
	return "in.(" + strings.Join(quoted, ",") + ")"
}

// likePattern turns free text into an ilike pattern matching it anywhere.
func likePattern(text string) string {
	text = strings.TrimSpace(text)
	text = strings.ReplaceAll(text, "*", "")
	return "*" + text + "*"
}

// parseContentRangeTotal reads the total from a Content-Range header such as
// "0-24/3573" or "*/0".
func parseContentRangeTotal(header string) (int, error) {
	_, total, ok := strings.Cut(header, "/")
	if !ok || total == "*" {
		return 0, fmt.Errorf("supabase: missing count in Content-Range %q: %w", header, repository.ErrTransport)
	}
	n, err := strconv.Atoi(total)
	if err != nil {
		return 0, fmt.Errorf("supabase: bad count in Content-Range %q: %w", header, repository.ErrTransport)
	}
	return n, nil
}
