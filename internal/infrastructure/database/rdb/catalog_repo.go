package rdb

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/pgvector/pgvector-go"

	"github.com/liverty-music/usage-matching/internal/entity"
)

// WorkRepository implements entity.WorkRepository against the read-only
// works catalog table. The pipeline never writes to it.
type WorkRepository struct {
	db *Database
}

// NewWorkRepository creates a new work repository instance.
func NewWorkRepository(db *Database) *WorkRepository {
	return &WorkRepository{db: db}
}

// FindByISWC looks up a work by its cleaned ISWC.
func (r *WorkRepository) FindByISWC(ctx context.Context, iswc string) (*entity.Work, error) {
	model := new(WorkModel)
	err := r.db.DB.NewSelect().Model(model).Where("iswc = ?", iswc).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, toAppErr(err, "work not found by iswc", slog.String("iswc", iswc))
		}
		return nil, toAppErr(err, "failed to find work by iswc", slog.String("iswc", iswc))
	}
	return model.ToEntity(), nil
}

// SearchByTitleTrigram runs a pg_trgm similarity search over works.title.
func (r *WorkRepository) SearchByTitleTrigram(ctx context.Context, title string, minSimilarity float64, limit int) ([]entity.WorkCandidate, error) {
	var rows []workCandidateRow
	err := r.db.DB.NewRaw(`
		SELECT id AS work_id, similarity(title, ?) AS confidence
		FROM works
		WHERE similarity(title, ?) >= ?
		ORDER BY confidence DESC, work_id ASC
		LIMIT ?
	`, title, title, minSimilarity, limit).Scan(ctx, &rows)
	if err != nil {
		return nil, toAppErr(err, "failed to search works by title trigram", slog.String("title", title))
	}
	return toWorkCandidates(rows), nil
}

// SearchByEmbedding runs a pgvector cosine-distance search over
// works.title_embedding among active works.
func (r *WorkRepository) SearchByEmbedding(ctx context.Context, embedding []float32, minSimilarity float64, limit int) ([]entity.WorkCandidate, error) {
	vec := pgvector.NewVector(embedding)
	var rows []workCandidateRow
	err := r.db.DB.NewRaw(`
		SELECT id AS work_id, 1 - (title_embedding <=> ?) AS confidence
		FROM works
		WHERE status = 'active'
			AND title_embedding IS NOT NULL
			AND 1 - (title_embedding <=> ?) >= ?
		ORDER BY confidence DESC, work_id ASC
		LIMIT ?
	`, vec, vec, minSimilarity, limit).Scan(ctx, &rows)
	if err != nil {
		return nil, toAppErr(err, "failed to search works by embedding")
	}
	return toWorkCandidates(rows), nil
}

func toWorkCandidates(rows []workCandidateRow) []entity.WorkCandidate {
	candidates := make([]entity.WorkCandidate, len(rows))
	for i, row := range rows {
		candidates[i] = entity.WorkCandidate{WorkID: row.WorkID, Confidence: row.Confidence}
	}
	return candidates
}

// RecordingRepository implements entity.RecordingRepository against the
// read-only recordings catalog table.
type RecordingRepository struct {
	db *Database
}

// NewRecordingRepository creates a new recording repository instance.
func NewRecordingRepository(db *Database) *RecordingRepository {
	return &RecordingRepository{db: db}
}

// FindByISRC looks up a recording by its cleaned ISRC.
func (r *RecordingRepository) FindByISRC(ctx context.Context, isrc string) (*entity.Recording, error) {
	model := new(RecordingModel)
	err := r.db.DB.NewSelect().Model(model).Where("isrc = ?", isrc).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, toAppErr(err, "recording not found by isrc", slog.String("isrc", isrc))
		}
		return nil, toAppErr(err, "failed to find recording by isrc", slog.String("isrc", isrc))
	}
	return model.ToEntity(), nil
}

// SearchByTitleArtistTrigram runs a pg_trgm similarity search over the
// concatenation of recordings.title and recordings.artist_name.
func (r *RecordingRepository) SearchByTitleArtistTrigram(ctx context.Context, queryText string, minSimilarity float64, limit int) ([]entity.RecordingCandidate, error) {
	var rows []recordingCandidateRow
	err := r.db.DB.NewRaw(`
		SELECT id AS recording_id, work_id,
			similarity(title || ' ' || coalesce(artist_name, ''), ?) AS confidence
		FROM recordings
		WHERE similarity(title || ' ' || coalesce(artist_name, ''), ?) >= ?
		ORDER BY confidence DESC, work_id ASC
		LIMIT ?
	`, queryText, queryText, minSimilarity, limit).Scan(ctx, &rows)
	if err != nil {
		return nil, toAppErr(err, "failed to search recordings by title/artist trigram")
	}
	candidates := make([]entity.RecordingCandidate, len(rows))
	for i, row := range rows {
		candidates[i] = entity.RecordingCandidate{RecordingID: row.RecordingID, WorkID: row.WorkID, Confidence: row.Confidence}
	}
	return candidates, nil
}

var (
	_ entity.WorkRepository      = (*WorkRepository)(nil)
	_ entity.RecordingRepository = (*RecordingRepository)(nil)
)
