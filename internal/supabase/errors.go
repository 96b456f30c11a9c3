package supabase

import (
	"fmt"
	"net/http"

	"github.com/rpggio/voicenotes/internal/repository"
)

// StatusError is a non-2xx response from the REST endpoint.
type StatusError struct {
	StatusCode int
	Body       string
	kind       error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("supabase: status %d: %s", e.StatusCode, e.Body)
}

// Unwrap returns the repository sentinel for the status: ErrTransport,
// ErrNotFound or ErrRejected.
func (e *StatusError) Unwrap() error {
	return e.kind
}

func classifyStatus(statusCode int, body []byte) error {
	bodyStr := string(body)
	if len(bodyStr) > 200 {
		bodyStr = bodyStr[:200] + "..."
	}

	var kind error
	switch {
	case statusCode == http.StatusTooManyRequests,
		statusCode == http.StatusRequestTimeout,
		statusCode >= 500:
		kind = repository.ErrTransport
	case statusCode == http.StatusNotFound:
		kind = repository.ErrNotFound
	default:
		kind = repository.ErrRejected
	}
	return &StatusError{StatusCode: statusCode, Body: bodyStr, kind: kind}
}

// transportError wraps a failure to reach the endpoint or read its response.
func transportError(op string, err error) error {
	return fmt.Errorf("supabase: %s: %w: %w", op, repository.ErrTransport, err)
}
