package messaging

import (
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Publish sends a typed event. A nil Publish is valid and means events are disabled.
type Publish[T any] func(event *T) error

// NewPublishFunc returns a Publish that encodes events as JSON on topic.
func NewPublishFunc[T any](publisher message.Publisher, topic string) Publish[T] {
	return func(event *T) error {
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("encode %s event: %w", topic, err)
		}

		msg := message.NewMessage(watermill.NewUUID(), payload)
		msg.Metadata.Set(MetadataContentType, "application/json")

		if err := publisher.Publish(topic, msg); err != nil {
			return fmt.Errorf("publish %s event: %w", topic, err)
		}

		return nil
	}
}

// MetadataContentType is the message metadata key carrying the payload encoding.
const MetadataContentType = "content-type"

// PublisherGroup owns the publisher shared by every Publish function.
type PublisherGroup struct {
	publisher message.Publisher
}

func NewPublisherGroup(publisher message.Publisher) *PublisherGroup {
	return &PublisherGroup{publisher: publisher}
}

func (g *PublisherGroup) Publisher() message.Publisher {
	return g.publisher
}

// Shutdown closes the publisher. It satisfies do.Shutdownable.
func (g *PublisherGroup) Shutdown() error {
	return g.publisher.Close()
}
