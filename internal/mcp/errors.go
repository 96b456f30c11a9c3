package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/voicenotes/internal/domain/note"
	"github.com/rpggio/voicenotes/internal/domain/project"
	"github.com/rpggio/voicenotes/internal/repository"
)

var (
	// ErrInvalidParams is returned when tool arguments cannot be decoded.
	ErrInvalidParams = errors.New("invalid params")

	// ErrUnknownTool is returned for a method the handler does not serve.
	ErrUnknownTool = errors.New("unknown tool")
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to MCP error codes. It returns nil for errors it
// does not recognize.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	switch {
	case errors.Is(err, ErrInvalidParams),
		errors.Is(err, note.ErrInvalidInput),
		errors.Is(err, project.ErrInvalidInput):
		return &APIError{Code: "VALIDATION_ERROR", Message: err.Error(), RecoveryHint: "Fix the arguments and retry"}
	case errors.Is(err, ErrUnknownTool):
		return &APIError{Code: "UNKNOWN_TOOL", Message: err.Error(), RecoveryHint: "List tools to see what is available"}
	case errors.Is(err, project.ErrProjectNotFound):
		return &APIError{Code: "PROJECT_NOT_FOUND", Message: "project not found", RecoveryHint: "Call list_projects for valid IDs"}
	case errors.Is(err, note.ErrNoteNotFound):
		return &APIError{Code: "NOTE_NOT_FOUND", Message: "note not found", RecoveryHint: "Call list_unprocessed_notes or search_notes for valid IDs"}
	case errors.Is(err, project.ErrProjectArchived):
		return &APIError{Code: "INVALID_STATE", Message: err.Error(), RecoveryHint: "Unarchive the project or pick an active one"}
	case errors.Is(err, repository.ErrTransport):
		return &APIError{Code: "TRANSPORT_ERROR", Message: "note store unavailable", Details: err.Error(), RecoveryHint: "Re-read before retrying a write; the outcome is unknown"}
	case errors.Is(err, repository.ErrRejected):
		return &APIError{Code: "REMOTE_REJECTED", Message: "note store rejected the request", Details: err.Error(), RecoveryHint: "Check the arguments against current data"}
	case errors.Is(err, repository.ErrNotFound):
		return &APIError{Code: "NOT_FOUND", Message: "not found"}
	default:
		return nil
	}
}

func mapError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}
