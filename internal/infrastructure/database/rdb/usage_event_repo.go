package rdb

import (
	"context"
	"log/slog"
	"time"

	"github.com/liverty-music/usage-matching/internal/entity"
)

// UsageEventRepository implements entity.UsageEventRepository for PostgreSQL.
type UsageEventRepository struct {
	db *Database
}

// NewUsageEventRepository creates a new usage event repository instance.
func NewUsageEventRepository(db *Database) *UsageEventRepository {
	return &UsageEventRepository{db: db}
}

// Insert stores a newly normalized event with status pending.
func (r *UsageEventRepository) Insert(ctx context.Context, event *entity.NormalizedUsageEvent) error {
	model := FromEntity(event)
	if _, err := r.db.DB.NewInsert().Model(model).Exec(ctx); err != nil {
		return toAppErr(err, "failed to insert usage event", slog.String("event_id", event.EventID))
	}
	return nil
}

// MarkMatched stamps processing_status=matched and processed_at=now.
func (r *UsageEventRepository) MarkMatched(ctx context.Context, eventID string, processedAt time.Time) error {
	return r.setStatus(ctx, eventID, entity.ProcessingStatusMatched, processedAt)
}

// MarkUnmatched stamps processing_status=unmatched and processed_at=now.
func (r *UsageEventRepository) MarkUnmatched(ctx context.Context, eventID string, processedAt time.Time) error {
	return r.setStatus(ctx, eventID, entity.ProcessingStatusUnmatched, processedAt)
}

// MarkError stamps processing_status=error and processed_at=now.
func (r *UsageEventRepository) MarkError(ctx context.Context, eventID string, processedAt time.Time) error {
	return r.setStatus(ctx, eventID, entity.ProcessingStatusError, processedAt)
}

func (r *UsageEventRepository) setStatus(ctx context.Context, eventID string, status entity.ProcessingStatus, processedAt time.Time) error {
	_, err := r.db.DB.NewUpdate().
		Model((*UsageEventModel)(nil)).
		Set("processing_status = ?", string(status)).
		Set("processed_at = ?", processedAt).
		Where("event_id = ?", eventID).
		Exec(ctx)
	if err != nil {
		return toAppErr(err, "failed to update usage event status", slog.String("event_id", eventID), slog.String("status", string(status)))
	}
	return nil
}

var _ entity.UsageEventRepository = (*UsageEventRepository)(nil)
