// Package service holds the accounting core: session lifecycle, the member
// ledger and happy-hour administration. Every multi-entity mutation runs in
// one database transaction; events are published only after commit.
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/gamecafe-session-engine/internal/pricing"
	"github.com/iliyamo/gamecafe-session-engine/internal/queue"
	"github.com/iliyamo/gamecafe-session-engine/internal/repository"
)

// EventPublisher accepts domain events for delivery. Implementations must
// not block the caller for long; failures are logged, never returned to
// the client.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.Event) error
}

// NopPublisher discards every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, queue.Event) error { return nil }

// Deps are the collaborators shared by the services.
type Deps struct {
	Store   *repository.Store
	Pricing *pricing.Calculator
	Events  EventPublisher
	Logger  *zap.Logger
	Clock   pricing.Clock
}

func (d Deps) withDefaults() Deps {
	if d.Events == nil {
		d.Events = NopPublisher{}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Clock == nil {
		d.Clock = pricing.SystemClock
	}
	return d
}

// stamp is the storage timestamp for "now": UTC, whole seconds.
func (d Deps) stamp() time.Time {
	return d.Clock().UTC().Truncate(time.Second)
}

// publish wraps data in an event and hands it to the publisher. Errors are
// logged only.
func (d Deps) publish(ctx context.Context, typ string, at time.Time, data any) {
	ev, err := queue.NewEvent(typ, at, data)
	if err == nil {
		err = d.Events.Publish(ctx, ev)
	}
	if err != nil {
		d.Logger.Warn("publish event failed", zap.String("type", typ), zap.Error(err))
	}
}
