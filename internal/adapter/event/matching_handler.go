package event

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/pannpers/go-logging/logging"

	"github.com/liverty-music/usage-matching/internal/infrastructure/messaging"
	"github.com/liverty-music/usage-matching/internal/usecase"
)

// MatchingHandler adapts usage.normalized messages to MatchingUseCase.Resolve.
type MatchingHandler struct {
	uc     usecase.MatchingUseCase
	logger *logging.Logger
}

// NewMatchingHandler creates a MatchingHandler.
func NewMatchingHandler(uc usecase.MatchingUseCase, logger *logging.Logger) *MatchingHandler {
	return &MatchingHandler{uc: uc, logger: logger}
}

// Handle decodes a usage.normalized message and runs the matching cascade.
// Resolve handles its own failures (routing permanent ones to dlq.matching)
// and returns nil,
// so a non-nil return here means the envelope itself could not be parsed.
func (h *MatchingHandler) Handle(msg *message.Message) error {
	ctx := context.Background()

	event, err := messaging.ParseNormalizedMessage(msg)
	if err != nil {
		return fmt.Errorf("parse usage.normalized message: %w", err)
	}

	return h.uc.Resolve(ctx, event)
}
