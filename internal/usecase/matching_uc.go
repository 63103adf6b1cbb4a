package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/cenkalti/backoff/v4"
	"github.com/pannpers/go-logging/logging"

	"github.com/liverty-music/usage-matching/internal/entity"
	"github.com/liverty-music/usage-matching/internal/infrastructure/messaging"
)

// MatchingThresholds carries the cascade's tunable acceptance/recall
// thresholds, sourced from configuration.
type MatchingThresholds struct {
	FuzzyMatchThreshold     float64
	EmbeddingMatchThreshold float64
	ManualReviewThreshold   float64
	MaxAlternativeMatches   int
	MaxRetries              int
}

// MatchingUseCase resolves a normalized usage event to a canonical work
// through the cascade and persists/publishes the outcome.
type MatchingUseCase interface {
	// Resolve runs the cascade against a single normalized usage event,
	// persists the outcome, and publishes the corresponding downstream event.
	Resolve(ctx context.Context, event *entity.NormalizedUsageEvent) error
}

// matchingUseCase implements MatchingUseCase.
type matchingUseCase struct {
	strategies []MatchStrategy
	matchRepo  entity.MatchRepository
	eventRepo  entity.UsageEventRepository
	publisher  message.Publisher
	thresholds MatchingThresholds
	logger     *logging.Logger
}

// Compile-time interface compliance check.
var _ MatchingUseCase = (*matchingUseCase)(nil)

// NewMatchingUseCase wires the fixed cascade — ISRC exact, ISWC exact, fuzzy
// trigram, vector semantic, in that order — against the given repositories.
func NewMatchingUseCase(
	recordings entity.RecordingRepository,
	works entity.WorkRepository,
	matchRepo entity.MatchRepository,
	eventRepo entity.UsageEventRepository,
	publisher message.Publisher,
	thresholds MatchingThresholds,
	logger *logging.Logger,
) MatchingUseCase {
	strategies := []MatchStrategy{
		&isrcExactStrategy{recordings: recordings},
		&iswcExactStrategy{works: works},
		&fuzzyTrigramStrategy{
			recordings:      recordings,
			works:           works,
			acceptThreshold: thresholds.FuzzyMatchThreshold,
			recallMargin:    0.1,
			maxSuggestions:  thresholds.MaxAlternativeMatches,
		},
		&vectorSemanticStrategy{
			works:                 works,
			acceptThreshold:       thresholds.EmbeddingMatchThreshold,
			manualReviewThreshold: thresholds.ManualReviewThreshold,
			maxSuggestions:        thresholds.MaxAlternativeMatches,
		},
	}
	return &matchingUseCase{
		strategies: strategies,
		matchRepo:  matchRepo,
		eventRepo:  eventRepo,
		publisher:  publisher,
		thresholds: thresholds,
		logger:     logger,
	}
}

// Resolve runs the cascade, then persists and publishes the outcome. A
// strategy that fails with an unexpected error is logged and counts as
// yielding no result; the cascade moves on to the next strategy. On a
// persistence failure that exhausts its retry budget, or a failure to build
// the outbound message, it marks the event errored and routes a failure
// record to dlq.matching itself, returning nil so the caller commits the
// offset — matching this pipeline's DLQ-then-commit handling of permanent
// failures.
func (uc *matchingUseCase) Resolve(ctx context.Context, event *entity.NormalizedUsageEvent) error {
	var allSuggestions []entity.Suggestion
	var accepted *entity.Match

	for _, strat := range uc.strategies {
		result, err := strat.Evaluate(ctx, event)
		if err != nil {
			if !errors.Is(err, errSkipStrategy) {
				uc.logger.Warn(ctx, "cascade strategy failed, continuing with the next strategy",
					slog.String("event_id", event.EventID),
					slog.Any("error", err),
				)
			}
			continue
		}
		if result.Accepted != nil {
			accepted = result.Accepted
			break
		}
		allSuggestions = append(allSuggestions, result.Suggestions...)
	}

	now := time.Now().UTC()

	if accepted != nil {
		accepted.UsageEventID = event.EventID
		accepted.MatchedBy = entity.MatchedBySystem
		accepted.IsConfirmed = false
		accepted.MatchedAt = now

		if err := uc.persistWithRetry(ctx, func() error { return uc.matchRepo.Upsert(ctx, accepted) }); err != nil {
			return uc.sendToDLQ(ctx, event, fmt.Errorf("upsert match: %w", err))
		}
		if err := uc.persistWithRetry(ctx, func() error { return uc.eventRepo.MarkMatched(ctx, event.EventID, now) }); err != nil {
			return uc.sendToDLQ(ctx, event, fmt.Errorf("mark event matched: %w", err))
		}

		msg, err := messaging.NewMatchedMessage(event, accepted)
		if err != nil {
			return uc.sendToDLQ(ctx, event, fmt.Errorf("build usage.matched message: %w", err))
		}
		uc.publishIndefinitely(ctx, messaging.TopicMatched, msg)

		uc.logger.Info(ctx, "usage event matched",
			slog.String("event_id", event.EventID),
			slog.String("work_id", accepted.WorkID),
			slog.String("method", string(accepted.Method)),
		)
		return nil
	}

	suggestions := mergeSuggestions(allSuggestions, uc.thresholds.MaxAlternativeMatches)

	if err := uc.persistWithRetry(ctx, func() error { return uc.eventRepo.MarkUnmatched(ctx, event.EventID, now) }); err != nil {
		return uc.sendToDLQ(ctx, event, fmt.Errorf("mark event unmatched: %w", err))
	}

	msg, err := messaging.NewUnmatchedMessage(event, suggestions, "no_confident_match", now)
	if err != nil {
		return uc.sendToDLQ(ctx, event, fmt.Errorf("build usage.unmatched message: %w", err))
	}
	uc.publishIndefinitely(ctx, messaging.TopicUnmatched, msg)

	uc.logger.Info(ctx, "usage event unmatched",
		slog.String("event_id", event.EventID),
		slog.Int("suggestion_count", len(suggestions)),
	)
	return nil
}

// sendToDLQ marks the event errored and best-effort publishes a failure
// record to dlq.matching. It swallows its own persistence/publish errors —
// there is nowhere further to escalate — and always returns nil so the
// caller commits the consumer offset.
func (uc *matchingUseCase) sendToDLQ(ctx context.Context, event *entity.NormalizedUsageEvent, cause error) error {
	now := time.Now().UTC()
	uc.logger.Error(ctx, "matching cascade failed, routing to dlq.matching", cause,
		slog.String("event_id", event.EventID),
	)

	if err := uc.eventRepo.MarkError(ctx, event.EventID, now); err != nil {
		uc.logger.Error(ctx, "failed to mark event errored", err, slog.String("event_id", event.EventID))
	}

	msg, err := messaging.NewDLQMatchingMessage(messaging.TopicNormalized, event.EventID, cause, now)
	if err != nil {
		uc.logger.Error(ctx, "failed to build dlq.matching message", err, slog.String("event_id", event.EventID))
		return nil
	}
	if err := uc.publisher.Publish(messaging.TopicDLQMatching, msg); err != nil {
		uc.logger.Error(ctx, "failed to publish dlq.matching message", err, slog.String("event_id", event.EventID))
	}
	return nil
}

// mergeSuggestions dedups by WorkID keeping the higher confidence, sorts
// descending with a WorkID-ascending tie-break, and truncates to limit.
func mergeSuggestions(suggestions []entity.Suggestion, limit int) []entity.Suggestion {
	cands := make([]scoredCandidate, len(suggestions))
	methodByWork := make(map[string]entity.MatchMethod, len(suggestions))
	bestByWork := make(map[string]float64, len(suggestions))
	for i, s := range suggestions {
		cands[i] = scoredCandidate{WorkID: s.WorkID, RecordingID: s.RecordingID, Confidence: s.Confidence}
		if best, seen := bestByWork[s.WorkID]; !seen || s.Confidence > best {
			bestByWork[s.WorkID] = s.Confidence
			methodByWork[s.WorkID] = s.Method
		}
	}
	deduped := dedupCandidates(cands)
	deduped = truncateCandidates(deduped, limit)

	out := make([]entity.Suggestion, len(deduped))
	for i, c := range deduped {
		out[i] = entity.Suggestion{
			WorkID:      c.WorkID,
			RecordingID: c.RecordingID,
			Confidence:  c.Confidence,
			Method:      methodByWork[c.WorkID],
		}
	}
	return out
}

// persistWithRetry wraps a single persistence operation with bounded
// exponential backoff, per the spec's max_retries on DB transient errors.
func (uc *matchingUseCase) persistWithRetry(ctx context.Context, op func() error) error {
	b := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)
	return backoff.Retry(op, backoff.WithMaxRetries(b, uint64(uc.thresholds.MaxRetries)))
}

// publishIndefinitely retries a publish failure with unbounded exponential
// backoff, bounded only by ctx cancellation at worker shutdown, since the DB
// write has already succeeded and downstream consumers are idempotent.
func (uc *matchingUseCase) publishIndefinitely(ctx context.Context, topic string, msg *message.Message) {
	op := func() error { return uc.publisher.Publish(topic, msg) }
	if err := backoff.Retry(op, backoff.WithContext(backoff.NewExponentialBackOff(), ctx)); err != nil {
		uc.logger.Error(ctx, "giving up publishing event, worker is shutting down", err,
			slog.String("topic", topic),
		)
	}
}
