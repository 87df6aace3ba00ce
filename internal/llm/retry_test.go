package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func retryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		InitialWait: time.Millisecond,
		MaxWait:     10 * time.Millisecond,
		Multiplier:  2.0,
	}
}

var okPlan = MockResponse{Content: json.RawMessage(`{"title":"Day 1"}`)}

func down() MockResponse {
	return MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("503")}}
}

func malformed() MockResponse {
	return MockResponse{Err: &ErrInvalidResponse{Content: json.RawMessage(`{"tit`), Err: errors.New("truncated")}}
}

func TestRetry(t *testing.T) {
	tests := []struct {
		name      string
		responses []MockResponse
		wantCalls int
		wantErr   bool
	}{
		{"first attempt", []MockResponse{okPlan}, 1, false},
		{"transient then success", []MockResponse{down(), okPlan}, 2, false},
		{"all attempts fail", []MockResponse{down(), down(), down(), okPlan}, 3, true},
		{"max tokens is final", []MockResponse{{Err: &ErrMaxTokensExceeded{Content: json.RawMessage(`{}`)}}, okPlan}, 1, true},
		{"not configured is final", []MockResponse{{Err: ErrNotConfigured}, okPlan}, 1, true},
		{"malformed output retried once", []MockResponse{malformed(), okPlan}, 2, false},
		{"malformed output twice", []MockResponse{malformed(), malformed(), okPlan}, 2, true},
		{"malformed then outage still uses attempts", []MockResponse{malformed(), down(), okPlan}, 3, false},
		{"rate limit honors retry-after", []MockResponse{{Err: &ErrRateLimit{RetryAfter: time.Millisecond, Err: errors.New("429")}}, okPlan}, 2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := NewMockProvider(tt.responses...)
			resp, err := WithRetry(mock, retryConfig(), nil).Generate(context.Background(), Request{})
			assert.Equal(t, tt.wantCalls, mock.CallCount())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, `{"title":"Day 1"}`, string(resp.Content))
		})
	}
}

func TestRetry_CancelledDuringBackoff(t *testing.T) {
	mock := NewMockProvider(down(), okPlan)
	cfg := retryConfig()
	cfg.InitialWait = time.Hour
	cfg.MaxWait = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := WithRetry(mock, cfg, nil).Generate(ctx, Request{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, mock.CallCount())
}

func TestRetry_LogsAttempts(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	mock := NewMockProvider(down(), down(), okPlan)
	ctx := WithPurpose(context.Background(), "sprint-plan")

	_, err := WithRetry(mock, retryConfig(), zap.New(core)).Generate(ctx, Request{})
	require.NoError(t, err)

	entries := logs.FilterMessage("retrying llm request").All()
	require.Len(t, entries, 2)
	assert.Equal(t, int64(1), entries[0].ContextMap()["attempt"])
	assert.Equal(t, "sprint-plan", entries[1].ContextMap()["purpose"])
}

func TestRetry_Backoff(t *testing.T) {
	r := &RetryProvider{config: retryConfig()}
	for attempt := 1; attempt <= 6; attempt++ {
		wait := r.backoff(attempt, errors.New("x"))
		assert.LessOrEqual(t, wait, 12*time.Millisecond, "attempt %d", attempt)
		assert.Greater(t, wait, time.Duration(0))
	}
	rl := &ErrRateLimit{RetryAfter: 3 * time.Second}
	assert.Equal(t, 3*time.Second, r.backoff(1, rl))
}

func TestRetry_ModelIDDelegates(t *testing.T) {
	assert.Equal(t, "mock", WithRetry(NewMockProvider(), retryConfig(), nil).ModelID())
}
