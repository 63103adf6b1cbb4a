// Package event provides Watermill event handlers that bridge the message
// bus to the pipeline's use cases.
package event

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/pannpers/go-logging/logging"

	"github.com/liverty-music/usage-matching/internal/entity"
	"github.com/liverty-music/usage-matching/internal/normalize"
	"github.com/liverty-music/usage-matching/internal/usecase"
)

// UsageProcessorHandler adapts raw usage.raw.* messages to UsageProcessorUseCase.Process.
// One instance is registered per raw topic so the router can resolve the
// source dialect from the topic it subscribed to, rather than from payload content.
type UsageProcessorHandler struct {
	uc     usecase.UsageProcessorUseCase
	topic  string
	logger *logging.Logger
}

// NewUsageProcessorHandler creates a handler bound to a single raw topic.
func NewUsageProcessorHandler(uc usecase.UsageProcessorUseCase, topic string, logger *logging.Logger) *UsageProcessorHandler {
	return &UsageProcessorHandler{uc: uc, topic: topic, logger: logger}
}

// Handle decodes the message payload into a RawUsageEvent and runs it through
// the normalization pipeline. It always returns nil on a handled outcome
// (normalized, or routed to dlq.usage.processing) so the router commits the
// offset; a non-nil return here means the bus delivery itself is broken and
// the router's retry/poison-queue middleware should take over.
func (h *UsageProcessorHandler) Handle(msg *message.Message) error {
	ctx := context.Background()

	var payload map[string]any
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		h.logger.Warn(ctx, "skipping malformed raw usage payload", slog.String("topic", h.topic), slog.String("error", err.Error()))
		return nil
	}

	raw := entity.RawUsageEvent{
		Source:        normalize.SourceFromTopic(h.topic),
		Payload:       payload,
		SourceEventID: msg.UUID,
	}

	if err := h.uc.Process(ctx, h.topic, raw); err != nil {
		h.logger.Error(ctx, "usage processor use case returned an unhandled error", err, slog.String("topic", h.topic))
		return err
	}

	return nil
}
