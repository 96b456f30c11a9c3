package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rpggio/voicenotes/internal/repository"
)

func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// classify wraps a driver error with the repository sentinel callers branch on.
func classify(op string, err error) error {
	switch {
	case isForeignKeyViolation(err), isUniqueViolation(err):
		return fmt.Errorf("%s: %w: %v", op, repository.ErrRejected, err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fmt.Errorf("%s: %w: %w", op, repository.ErrTransport, err)
	default:
		// Anything else, busy or I/O failures included, means the store could not serve the call.
		return fmt.Errorf("failed to %s: %w: %v", op, repository.ErrTransport, err)
	}
}
