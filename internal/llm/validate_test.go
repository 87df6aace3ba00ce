package llm

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func taskListSchema() *Schema {
	return &Schema{
		Name: "task-list",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"title": map[string]any{"type": "string"},
				"tasks": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"title":             map[string]any{"type": "string"},
							"estimated_minutes": map[string]any{"type": "integer", "minimum": 1},
						},
						"required":             []any{"title", "estimated_minutes"},
						"additionalProperties": false,
					},
				},
				"difficulty_label": map[string]any{"type": "string", "enum": []any{"beginner", "intermediate", "advanced"}},
			},
			"required": []any{"title", "tasks"},
		},
	}
}

func TestValidateResponse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		ok   bool
	}{
		{"valid", `{"title":"Day 2","tasks":[{"title":"read","estimated_minutes":20}],"difficulty_label":"beginner"}`, true},
		{"empty task list", `{"title":"Day 2","tasks":[]}`, true},
		{"not json", `{"title":`, false},
		{"missing tasks", `{"title":"Day 2"}`, false},
		{"zero minutes", `{"title":"Day 2","tasks":[{"title":"read","estimated_minutes":0}]}`, false},
		{"fractional minutes", `{"title":"Day 2","tasks":[{"title":"read","estimated_minutes":1.5}]}`, false},
		{"extra task field", `{"title":"Day 2","tasks":[{"title":"read","estimated_minutes":5,"done":true}]}`, false},
		{"unknown label", `{"title":"Day 2","tasks":[],"difficulty_label":"expert"}`, false},
		{"wrong type", `{"title":2,"tasks":[]}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateResponse(taskListSchema(), json.RawMessage(tt.raw))
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			var inv *ErrInvalidResponse
			require.True(t, errors.As(err, &inv), "got %v", err)
			assert.Equal(t, tt.raw, string(inv.Content))
		})
	}
}

func TestValidateResponse_NilSchemaAcceptsText(t *testing.T) {
	assert.NoError(t, validateResponse(nil, json.RawMessage(`plain text`)))
}

func TestValidateResponse_SameNameDifferentDefinition(t *testing.T) {
	strict := &Schema{Name: "shared", Definition: map[string]any{
		"type": "object", "required": []any{"a"},
	}}
	loose := &Schema{Name: "shared", Definition: map[string]any{"type": "object"}}

	raw := json.RawMessage(`{}`)
	assert.Error(t, validateResponse(strict, raw))
	assert.NoError(t, validateResponse(loose, raw))
}

func TestCheckSchema(t *testing.T) {
	assert.NoError(t, CheckSchema(taskListSchema()))

	bad := &Schema{Name: "bad", Definition: map[string]any{"type": 12}}
	assert.Error(t, CheckSchema(bad))
}
