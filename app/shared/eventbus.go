// Package shared holds the small interfaces that cross module boundaries.
package shared

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
)

// EventBus is the messaging boundary used by producers and the ingestion
// router. Implementations provide durable at-least-once delivery; messages
// are acknowledged by the subscriber only after successful processing.
type EventBus interface {
	// Publish sends a message to the given topic. The message must already
	// carry its payload and metadata.
	Publish(topic string, messages ...*message.Message) error
	// Subscribe returns a channel of messages for the topic. Callers ack or
	// nack each message; nacked messages are redelivered by the broker.
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)
	// EnsureStream provisions the durable stream backing the given subjects.
	EnsureStream(ctx context.Context, streamName string, subjects ...string) error
	Close() error
}
