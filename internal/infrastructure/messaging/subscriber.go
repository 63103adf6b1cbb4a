package messaging

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v3/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// NewSubscriber creates a Watermill Subscriber based on configuration. When
// brokers is empty (local development/tests), it returns a GoChannel
// subscriber using the provided GoChannel instance; otherwise a Kafka
// consumer-group subscriber.
func NewSubscriber(brokers []string, consumerGroup string, wmLogger watermill.LoggerAdapter, goChannel *gochannel.GoChannel) (message.Subscriber, error) {
	if len(brokers) == 0 {
		if goChannel == nil {
			return nil, fmt.Errorf("GoChannel is required when KAFKA_BROKERS is not set")
		}
		return goChannel, nil
	}

	saramaConfig := kafka.DefaultSaramaSubscriberConfig()
	saramaConfig.Consumer.Offsets.Initial = -2 // sarama.OffsetOldest

	sub, err := kafka.NewSubscriber(kafka.SubscriberConfig{
		Brokers:               brokers,
		Unmarshaler:           kafka.DefaultMarshaler{},
		ConsumerGroup:         consumerGroup,
		OverwriteSaramaConfig: saramaConfig,
	}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("create kafka subscriber: %w", err)
	}

	return sub, nil
}
