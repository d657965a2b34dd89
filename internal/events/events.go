// Package events publishes order change notifications to downstream consumers.
package events

import (
	"context"

	"wishyoulucky/internal/domain"
)

// Publisher delivers order events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, event domain.OrderEvent) error
	Close()
}

// NopPublisher discards every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, domain.OrderEvent) error { return nil }

func (NopPublisher) Close() {}
