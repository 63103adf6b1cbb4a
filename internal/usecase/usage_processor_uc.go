package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/pannpers/go-logging/logging"

	"github.com/liverty-music/usage-matching/internal/entity"
	"github.com/liverty-music/usage-matching/internal/infrastructure/embedding"
	"github.com/liverty-music/usage-matching/internal/infrastructure/messaging"
	"github.com/liverty-music/usage-matching/internal/normalize"
)

// UsageProcessorUseCase turns one raw DSP payload into a persisted,
// embedding-enriched normalized event and publishes it for the matcher.
type UsageProcessorUseCase interface {
	// Process runs the full per-message state machine: normalize, embed
	// best-effort, persist pending, publish usage.normalized. A normalizer
	// failure is routed to dlq.usage.processing and reported as a nil error
	// so the caller commits the offset; any other returned error indicates
	// an infrastructure problem the caller should NOT commit for.
	Process(ctx context.Context, sourceTopic string, raw entity.RawUsageEvent) error
}

// usageProcessorUseCase implements UsageProcessorUseCase.
type usageProcessorUseCase struct {
	registry  *normalize.Registry
	embedder  entity.EmbeddingProvider
	eventRepo entity.UsageEventRepository
	publisher message.Publisher
	logger    *logging.Logger
}

// Compile-time interface compliance check.
var _ UsageProcessorUseCase = (*usageProcessorUseCase)(nil)

// NewUsageProcessorUseCase constructs the Usage Processor's per-message pipeline.
func NewUsageProcessorUseCase(
	registry *normalize.Registry,
	embedder entity.EmbeddingProvider,
	eventRepo entity.UsageEventRepository,
	publisher message.Publisher,
	logger *logging.Logger,
) UsageProcessorUseCase {
	return &usageProcessorUseCase{
		registry:  registry,
		embedder:  embedder,
		eventRepo: eventRepo,
		publisher: publisher,
		logger:    logger,
	}
}

func (uc *usageProcessorUseCase) Process(ctx context.Context, sourceTopic string, raw entity.RawUsageEvent) error {
	event, err := uc.registry.Normalize(raw)
	if err != nil {
		return uc.sendToDLQ(ctx, sourceTopic, raw, err)
	}

	text := embedding.ContentText(event.ReportedTitle, event.ReportedArtist, event.ReportedAlbum)
	if text != "" {
		vectors, err := uc.embedder.Embed(ctx, []string{text})
		if err != nil {
			uc.logger.Warn(ctx, "embedding provider failed, proceeding with null embedding",
				slog.String("event_id", event.EventID),
				slog.Any("error", err),
			)
		} else if len(vectors) == 1 {
			event.ContentEmbedding = vectors[0]
		}
	}

	if err := uc.eventRepo.Insert(ctx, event); err != nil {
		return fmt.Errorf("insert usage event %s: %w", event.EventID, err)
	}

	msg, err := messaging.NewNormalizedMessage(event)
	if err != nil {
		return fmt.Errorf("build usage.normalized message for %s: %w", event.EventID, err)
	}
	if err := uc.publisher.Publish(messaging.TopicNormalized, msg); err != nil {
		return fmt.Errorf("publish usage.normalized for %s: %w", event.EventID, err)
	}

	uc.logger.Info(ctx, "usage event normalized",
		slog.String("event_id", event.EventID),
		slog.String("source", event.Source),
	)
	return nil
}

// sendToDLQ routes a payload a normalizer rejected to dlq.usage.processing.
// It always returns nil so the caller commits the offset — a malformed raw
// payload is a permanent failure, not a transient one to retry.
func (uc *usageProcessorUseCase) sendToDLQ(ctx context.Context, sourceTopic string, raw entity.RawUsageEvent, cause error) error {
	uc.logger.Warn(ctx, "normalizer rejected raw event, routing to dlq.usage.processing",
		slog.String("source_topic", sourceTopic),
		slog.Any("error", cause),
	)

	msg, err := messaging.NewDLQProcessingMessage(sourceTopic, raw.Payload, cause, time.Now().UTC())
	if err != nil {
		uc.logger.Error(ctx, "failed to build dlq.usage.processing message", err, slog.String("source_topic", sourceTopic))
		return nil
	}
	if err := uc.publisher.Publish(messaging.TopicDLQProcessing, msg); err != nil {
		uc.logger.Error(ctx, "failed to publish dlq.usage.processing message", err, slog.String("source_topic", sourceTopic))
	}
	return nil
}
