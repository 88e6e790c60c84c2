package ingestionhandlers

import "github.com/ThreeDotsLabs/watermill/message"

// Handlers is the set of watermill handlers the ingestion router registers.
type Handlers interface {
	HandleMatchSubmitted(msg *message.Message) ([]*message.Message, error)
}
