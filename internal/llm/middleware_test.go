package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/abhisek/pathwise/internal/store"
)

type fakeEventRepo struct {
	mu     sync.Mutex
	events []store.LLMRequestEventData
	err    error
}

func (f *fakeEventRepo) AppendLLMRequest(_ context.Context, data store.LLMRequestEventData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, data)
	return f.err
}

func (f *fakeEventRepo) QueryLLMEvents(context.Context, store.QueryOpts) ([]store.LLMRequestEvent, error) {
	return nil, nil
}

func (f *fakeEventRepo) GetLLMEvent(context.Context, int64) (*store.LLMRequestEvent, error) {
	return nil, nil
}

func TestLogging_RecordsSuccess(t *testing.T) {
	repo := &fakeEventRepo{}
	mock := NewMockProvider(MockResponse{
		Content: json.RawMessage(`{"title":"x"}`),
		Usage:   Usage{InputTokens: 10, OutputTokens: 4, TotalTokens: 14},
	})
	p := WithLogging(mock, "anthropic", repo, nil)

	ctx := WithCall(context.Background(), Call{Purpose: "sprint-plan", ObjectiveID: "obj-1", Day: 3})
	if _, err := p.Generate(ctx, Request{System: "sys", Messages: []Message{{Role: RoleUser, Content: "day 3"}}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repo.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(repo.events))
	}
	ev := repo.events[0]
	if ev.Provider != "anthropic" || ev.Purpose != "sprint-plan" || !ev.Success {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.InputTokens != 10 || ev.OutputTokens != 4 {
		t.Fatalf("unexpected usage: %+v", ev)
	}
	if !strings.Contains(ev.RequestBody, "[system]\nsys") || !strings.Contains(ev.RequestBody, "day 3") {
		t.Fatalf("request body not serialized: %q", ev.RequestBody)
	}
	if ev.ResponseBody != `{"title":"x"}` {
		t.Fatalf("unexpected response body: %q", ev.ResponseBody)
	}
}

func TestLogging_RecordsFailureAndSurvivesRepoError(t *testing.T) {
	repo := &fakeEventRepo{err: errors.New("disk full")}
	core, logs := observer.New(zap.WarnLevel)
	mock := NewMockProvider(MockResponse{Err: &ErrRateLimit{Err: errors.New("slow down")}})
	p := WithLogging(mock, "openai", repo, zap.New(core))

	_, err := p.Generate(context.Background(), Request{})
	var rl *ErrRateLimit
	if !errors.As(err, &rl) {
		t.Fatalf("expected provider error to pass through, got %v", err)
	}
	if len(repo.events) != 1 || repo.events[0].Success || repo.events[0].ErrorMessage == "" {
		t.Fatalf("unexpected events: %+v", repo.events)
	}
	if logs.FilterMessage("failed to record llm request event").Len() != 1 {
		t.Fatal("expected repo failure to be logged")
	}
	if logs.FilterMessage("llm request failed").Len() != 1 {
		t.Fatal("expected request failure to be logged")
	}
}

func TestRateLimit_Disabled(t *testing.T) {
	mock := NewMockProvider()
	if got := WithRateLimit(mock, 0, 1); got != Provider(mock) {
		t.Fatal("expected zero rps to return the inner provider")
	}
}

func TestRateLimit_WaitHonorsContext(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{}`)},
		MockResponse{Content: json.RawMessage(`{}`)},
	)
	p := WithRateLimit(mock, 0.001, 1)

	if _, err := p.Generate(context.Background(), Request{}); err != nil {
		t.Fatalf("first call should use the burst: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := p.Generate(ctx, Request{})
	var rl *ErrRateLimit
	if !errors.As(err, &rl) {
		t.Fatalf("expected ErrRateLimit, got %v", err)
	}
	if mock.CallCount() != 1 {
		t.Fatalf("second call must not reach the provider, calls = %d", mock.CallCount())
	}
}

func TestRetry_NotConfiguredNotRetried(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: ErrNotConfigured},
		MockResponse{Content: json.RawMessage(`{}`)},
	)
	p := WithRetry(mock, retryConfig(), nil)

	if _, err := p.Generate(context.Background(), Request{}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if mock.CallCount() != 1 {
		t.Fatalf("expected 1 call, got %d", mock.CallCount())
	}
}

func TestNewProvider(t *testing.T) {
	if _, err := NewProvider(context.Background(), Config{Provider: ProviderNone}, nil, nil); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("none: err = %v, want ErrNotConfigured", err)
	}
	if _, err := NewProvider(context.Background(), Config{Provider: ProviderAnthropic}, nil, nil); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("missing key: err = %v, want ErrNotConfigured", err)
	}

	p, err := NewProvider(context.Background(), Config{Provider: ProviderMock}, nil, nil)
	if err != nil {
		t.Fatalf("mock: %v", err)
	}
	if p.ModelID() != "mock" {
		t.Fatalf("expected mock provider, got %q", p.ModelID())
	}

	cfg := DefaultConfig()
	cfg.Provider = ProviderOpenAI
	cfg.OpenAI.APIKey = "sk-test"
	p, err = NewProvider(context.Background(), cfg, &fakeEventRepo{}, zap.NewNop())
	if err != nil {
		t.Fatalf("openai: %v", err)
	}
	if _, ok := p.(*RateLimitedProvider); !ok {
		t.Fatalf("expected rate limited outer provider, got %T", p)
	}
	if p.ModelID() != "gpt-4o-mini" {
		t.Fatalf("unexpected model %q", p.ModelID())
	}
}
