// Package eventbus provides publish/consume primitives for domain events,
// with a RabbitMQ implementation for deployments and an in-process bus for
// local development and tests.
package eventbus

import "context"

// Publisher defines the interface for publishing events to a message broker.
type Publisher interface {
	// Publish sends a message to the event bus.
	Publish(ctx context.Context, routingKey string, payload []byte) error

	// Close closes the publisher connection.
	Close() error
}
