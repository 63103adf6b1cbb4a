package entity

import "context"

// WorkStatus tracks whether a catalog work is eligible for semantic matching.
type WorkStatus string

const (
	WorkStatusActive   WorkStatus = "active"
	WorkStatusInactive WorkStatus = "inactive"
)

// Work is a musical composition, read-only from the pipeline's perspective.
// It is owned and mutated by the external catalog services.
type Work struct {
	ID               string
	Title            string
	AlternateTitles  []string
	ISWC             *string
	Status           WorkStatus
	TitleEmbedding   []float32
}

// WorkCandidate is a scored candidate returned by a catalog search strategy.
type WorkCandidate struct {
	WorkID     string
	Confidence float64
}

// WorkRepository is the read-only catalog surface the Matching Engine consults.
type WorkRepository interface {
	// FindByISWC looks up a work by its cleaned ISWC.
	//
	// # Possible errors
	//
	//  - NotFound: no work carries this ISWC.
	FindByISWC(ctx context.Context, iswc string) (*Work, error)

	// SearchByTitleTrigram runs a pg_trgm similarity search over works.title,
	// returning candidates at or above minSimilarity, ordered by similarity
	// descending then work_id ascending, truncated to limit.
	SearchByTitleTrigram(ctx context.Context, title string, minSimilarity float64, limit int) ([]WorkCandidate, error)

	// SearchByEmbedding runs a pgvector cosine-distance search over
	// works.title_embedding among status=active rows, returning candidates at
	// or above minSimilarity, ordered by similarity descending then work_id
	// ascending, truncated to limit.
	SearchByEmbedding(ctx context.Context, embedding []float32, minSimilarity float64, limit int) ([]WorkCandidate, error)
}
