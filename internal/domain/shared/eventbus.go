package shared

import "context"

// EventPublisher is the port services publish committed changes through.
// Bills and anomalies publish after their row is durable; a failed publish
// never rolls the change back.
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventHandler consumes events of the listed types. An empty list subscribes
// to every event, which is how the Kafka forwarder attaches.
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	EventTypes() []string
}

// EventBus fans published events out to subscribed handlers.
type EventBus interface {
	EventPublisher
	Subscribe(handler EventHandler, eventTypes ...string)
	Unsubscribe(handler EventHandler)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
