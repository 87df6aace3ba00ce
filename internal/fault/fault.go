// Package fault holds the error taxonomy shared by the progression engine.
package fault

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound marks a missing objective, sprint, quiz or other entity.
	ErrNotFound = errors.New("not found")

	// ErrInvalidRequest marks input rejected before any mutation happened.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrGeneration marks a planner failure while producing a sprint.
	ErrGeneration = errors.New("sprint generation failed")
)

// NotFound wraps ErrNotFound with the entity kind and id.
func NotFound(entity, id string) error {
	return fmt.Errorf("%s %q: %w", entity, id, ErrNotFound)
}

// Invalid wraps ErrInvalidRequest with a formatted reason.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidRequest)
}

// GenerationError reports which day of which objective could not be generated.
type GenerationError struct {
	ObjectiveID string
	Day         int
	Err         error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate day %d of objective %s: %v", e.Day, e.ObjectiveID, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrGeneration) match any GenerationError.
func (e *GenerationError) Is(target error) bool {
	return target == ErrGeneration
}

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalid reports whether err is or wraps ErrInvalidRequest.
func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalidRequest)
}
