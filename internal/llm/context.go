package llm

import "context"

type callKey struct{}

// Call labels one LLM request for audit logging.
type Call struct {
	Purpose     string
	ObjectiveID string
	Day         int
}

// WithCall attaches call labels to ctx.
func WithCall(ctx context.Context, c Call) context.Context {
	return context.WithValue(ctx, callKey{}, c)
}

// CallFrom returns the labels attached by WithCall. Purpose defaults to
// "unknown".
func CallFrom(ctx context.Context) Call {
	c, _ := ctx.Value(callKey{}).(Call)
	if c.Purpose == "" {
		c.Purpose = "unknown"
	}
	return c
}

// WithPurpose sets only the purpose label, keeping any objective labels.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	c, _ := ctx.Value(callKey{}).(Call)
	c.Purpose = purpose
	return WithCall(ctx, c)
}

func PurposeFrom(ctx context.Context) string {
	return CallFrom(ctx).Purpose
}
