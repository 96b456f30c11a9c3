package project

import (
	"fmt"
	"strings"
)

// ValidateCreate validates fields required to create a project.
func ValidateCreate(req CreateRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	return nil
}

// ValidateUpdate validates a partial project update.
func ValidateUpdate(req UpdateRequest) error {
	if strings.TrimSpace(req.ID) == "" {
		return fmt.Errorf("%w: project id is required", ErrInvalidInput)
	}
	if req.Empty() {
		return fmt.Errorf("%w: no fields to update", ErrInvalidInput)
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return fmt.Errorf("%w: name cannot be blank", ErrInvalidInput)
	}
	return nil
}

// Assignable reports whether notes may be triaged into p from the inbox.
func Assignable(p Project) bool {
	return !p.IsArchived
}
