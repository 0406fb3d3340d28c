package port

import (
	"context"

	"github.com/FONAR-bit/fonar-project/pkg/events"
)

// EventPublisher delivers domain events to the outside world after the
// owning transaction commits.
type EventPublisher interface {
	Publish(ctx context.Context, evts ...events.DomainEvent) error
	Close() error
}
