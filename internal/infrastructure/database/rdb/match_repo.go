package rdb

import (
	"context"
	"log/slog"

	"github.com/liverty-music/usage-matching/internal/entity"
)

// MatchRepository implements entity.MatchRepository for PostgreSQL.
type MatchRepository struct {
	db *Database
}

// NewMatchRepository creates a new match repository instance.
func NewMatchRepository(db *Database) *MatchRepository {
	return &MatchRepository{db: db}
}

// Upsert inserts or updates the row for (usage_event_id, work_id), overwriting
// confidence, method, matched_by, and matched_at on conflict.
func (r *MatchRepository) Upsert(ctx context.Context, m *entity.Match) error {
	model := FromMatch(m)
	_, err := r.db.DB.NewInsert().
		Model(model).
		On("CONFLICT (usage_event_id, work_id) DO UPDATE").
		Set("recording_id = EXCLUDED.recording_id").
		Set("confidence = EXCLUDED.confidence").
		Set("method = EXCLUDED.method").
		Set("matched_by = EXCLUDED.matched_by").
		Set("matched_at = EXCLUDED.matched_at").
		Exec(ctx)
	if err != nil {
		return toAppErr(err, "failed to upsert match", slog.String("usage_event_id", m.UsageEventID), slog.String("work_id", m.WorkID))
	}
	return nil
}

var _ entity.MatchRepository = (*MatchRepository)(nil)
