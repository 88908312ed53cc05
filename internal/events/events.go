// Package events defines the engine's outbound event surface. Emitters are
// constructed explicitly and injected so cascades stay traceable; there is
// no ambient process-wide bus.
package events

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/supplier-risk/internal/model"
	"github.com/sells-group/supplier-risk/internal/risk"
)

// Type names an engine event.
type Type string

const (
	TypeRiskRecomputed        Type = "entity.risk_recomputed"
	TypeAlertCreated          Type = "alert.created"
	TypeTaskCreated           Type = "task.created"
	TypeVerificationCompleted Type = "task.verification_completed"
)

// Event is one outbound notification.
type Event struct {
	Type       Type      `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// RiskRecomputedPayload carries the before/after risk state.
type RiskRecomputedPayload struct {
	Delta    risk.Delta     `json:"delta"`
	Supplier model.Supplier `json:"supplier"`
}

// VerificationCompletedPayload carries the checked task and its verdict.
type VerificationCompletedPayload struct {
	Task   model.Task `json:"task"`
	Passed bool       `json:"passed"`
}

// Emitter delivers events to out-of-process consumers. Emit must not fail
// the calling operation; implementations log and move on.
type Emitter interface {
	Emit(ctx context.Context, ev Event)
}

// Nop discards all events.
type Nop struct{}

func (Nop) Emit(context.Context, Event) {}

// Log writes events to the structured log. The default when no webhook is
// configured.
type Log struct{}

func (Log) Emit(_ context.Context, ev Event) {
	zap.L().Info("event emitted",
		zap.String("component", "events"),
		zap.String("event_type", string(ev.Type)),
		zap.Time("occurred_at", ev.OccurredAt),
	)
}

// Multi fans one event out to several emitters in order.
type Multi []Emitter

func (m Multi) Emit(ctx context.Context, ev Event) {
	for _, e := range m {
		e.Emit(ctx, ev)
	}
}

// New builds an event with the current timestamp.
func New(typ Type, payload any) Event {
	return Event{Type: typ, OccurredAt: time.Now().UTC(), Payload: payload}
}
