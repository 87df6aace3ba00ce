// Package notify carries learner-facing events out of the engine. Events are
// structured and unlocalized; delivery belongs to whatever sits downstream.
package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// EventType identifies what happened.
type EventType string

const (
	SkillMastered       EventType = "skill_mastered"
	ReviewNeeded        EventType = "review_needed"
	DifficultyIncreased EventType = "difficulty_increased"
	DifficultyDecreased EventType = "difficulty_decreased"
	SprintGenerated     EventType = "sprint_generated"
	GenerationFailed    EventType = "generation_failed"
)

type Event struct {
	Type        EventType         `json:"type"`
	Title       string            `json:"title"`
	Message     string            `json:"message"`
	UserID      string            `json:"user_id,omitempty"`
	ObjectiveID string            `json:"objective_id,omitempty"`
	Data        map[string]string `json:"data,omitempty"`
	At          time.Time         `json:"at"`
}

// Notifier delivers events. Implementations must be safe for concurrent use.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Notify(context.Context, Event) error { return nil }

// LogNotifier writes events to a zap logger.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, ev Event) error {
	fields := []zap.Field{
		zap.String("type", string(ev.Type)),
		zap.String("title", ev.Title),
		zap.String("user_id", ev.UserID),
		zap.String("objective_id", ev.ObjectiveID),
	}
	if len(ev.Data) > 0 {
		fields = append(fields, zap.Any("data", ev.Data))
	}
	n.logger.Info(ev.Message, fields...)
	return nil
}

// Multi fans an event out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, ev Event) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder keeps every event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Notify(_ context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

// Events returns a copy of what has been recorded.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// OfType filters recorded events by type.
func (r *Recorder) OfType(t EventType) []Event {
	var out []Event
	for _, ev := range r.Events() {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

// Emit stamps ev and sends it, logging rather than returning a delivery
// failure. Engine code calls this so a broken sink never fails a learner
// operation.
func Emit(ctx context.Context, n Notifier, logger *zap.Logger, ev Event) {
	if n == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	if err := n.Notify(ctx, ev); err != nil && logger != nil {
		logger.Warn("notify", zap.String("type", string(ev.Type)), zap.Error(err))
	}
}
