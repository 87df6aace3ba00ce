package llm

import (
	"context"
	"encoding/json"
)

// Provider generates one structured completion. Implementations validate
// Content against Request.Schema before returning it.
type Provider interface {
	Generate(ctx context.Context, req Request) (*Response, error)
	ModelID() string
}

// Request is a single-turn or multi-turn prompt.
type Request struct {
	System   string
	Messages []Message

	// Schema selects the provider's native structured output. With no
	// schema, Content is the raw text.
	Schema *Schema

	MaxTokens int

	// Temperature in [0, 1]. Zero leaves the provider deterministic.
	Temperature float64
}

type Message struct {
	Role    Role
	Content string
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema is a named JSON Schema. Name doubles as the Anthropic tool name
// and the OpenAI response-format name, so keep it kebab-case.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

// Normalized stop reasons.
const (
	StopEnd       = "end"
	StopMaxTokens = "max_tokens"
)

type Response struct {
	Content    json.RawMessage
	Usage      Usage
	Model      string
	StopReason string
}

type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Prompt returns the concatenated user messages, used when a request is
// summarized for logs.
func (r Request) Prompt() string {
	var n int
	for _, m := range r.Messages {
		if m.Role == RoleUser {
			n += len(m.Content) + 1
		}
	}
	b := make([]byte, 0, n)
	for _, m := range r.Messages {
		if m.Role != RoleUser {
			continue
		}
		if len(b) > 0 {
			b = append(b, '\n')
		}
		b = append(b, m.Content...)
	}
	return string(b)
}
