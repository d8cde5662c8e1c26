// Package events is a small in-process publish/subscribe bus used to fan
// domain events out to other modules without import cycles.
package events

import (
	"context"
	"time"
)

// Event is anything published on a Bus.
type Event interface {
	EventName() string
	OccurredAt() time.Time
}

// Scoped is implemented by events that belong to a single tenant. The bus
// attaches the tenant to handler logs.
type Scoped interface {
	Tenant() string
}

// BaseEvent is embedded by concrete events to carry the timestamp.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }

// NewBaseEvent stamps an event with the current UTC time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now().UTC()}
}

type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc lets a plain function subscribe.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus delivers events by EventName. Publish is fire and forget; PublishSync
// returns once every handler ran.
type Bus interface {
	Publish(ctx context.Context, event Event)
	PublishSync(ctx context.Context, event Event) error
	Subscribe(eventName string, handler Handler)
}
