package fault

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFound_Wraps(t *testing.T) {
	err := NotFound("objective", "obj-1")
	assert.True(t, IsNotFound(err))
	assert.False(t, IsInvalid(err))
	assert.Contains(t, err.Error(), `objective "obj-1"`)
}

func TestInvalid_Wraps(t *testing.T) {
	err := fmt.Errorf("batch: %w", Invalid("count %d outside [1,10]", 11))
	assert.True(t, IsInvalid(err))
	assert.Contains(t, err.Error(), "count 11 outside [1,10]")
}

func TestGenerationError_IsAndUnwrap(t *testing.T) {
	cause := errors.New("planner down")
	err := fmt.Errorf("batch: %w", &GenerationError{ObjectiveID: "o", Day: 4, Err: cause})

	assert.True(t, errors.Is(err, ErrGeneration))
	assert.True(t, errors.Is(err, cause))

	var ge *GenerationError
	if assert.True(t, errors.As(err, &ge)) {
		assert.Equal(t, 4, ge.Day)
	}
}
