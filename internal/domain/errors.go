package domain

import "errors"

// Domain errors
var (
	ErrDocumentNotFound  = errors.New("document not found")
	ErrTokensNotFound    = errors.New("no tokens for document")
	ErrTaskNotFound      = errors.New("task not found")
	ErrDatasetNotFound   = errors.New("dataset not found")
	ErrNoActiveTask      = errors.New("no active task")
	ErrNotJunk           = errors.New("document is not marked as junk")
	ErrInvalidPosition   = errors.New("invalid reading order position")
	ErrRenderCancelled   = errors.New("rendering cancelled")
	ErrNoPagePlacement   = errors.New("page placement unknown")
	ErrAnnotationMissing = errors.New("annotation not found")
)

// ValidationError represents a validation error with field and message information.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}
