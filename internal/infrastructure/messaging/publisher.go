// Package messaging provides Watermill-based event bus infrastructure: a
// Kafka-backed Publisher/Subscriber pair for production, a GoChannel pair
// for local development and tests, routers wired with dead-letter and retry
// middleware, and flat-JSON envelope helpers for the pipeline's wire schemas.
package messaging

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v3/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/IBM/sarama"
)

// NewPublisher creates a Watermill Publisher based on configuration. When
// brokers is empty (local development/tests), it returns a GoChannel
// publisher using the provided GoChannel instance; otherwise a Kafka
// publisher.
func NewPublisher(brokers []string, wmLogger watermill.LoggerAdapter, goChannel *gochannel.GoChannel) (message.Publisher, error) {
	if len(brokers) == 0 {
		if goChannel == nil {
			return nil, fmt.Errorf("GoChannel is required when KAFKA_BROKERS is not set")
		}
		return goChannel, nil
	}

	saramaConfig := kafka.DefaultSaramaSyncPublisherConfig()
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Idempotent = true
	saramaConfig.Net.MaxOpenRequests = 1

	pub, err := kafka.NewPublisher(kafka.PublisherConfig{
		Brokers:               brokers,
		Marshaler:             kafka.DefaultMarshaler{},
		OverwriteSaramaConfig: saramaConfig,
	}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("create kafka publisher: %w", err)
	}

	return pub, nil
}
