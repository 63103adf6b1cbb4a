package entity

import "context"

// Recording is a specific captured performance of a Work, read-only from the
// pipeline's perspective.
type Recording struct {
	ID         string
	WorkID     string
	ISRC       *string
	Title      string
	ArtistName *string
}

// RecordingCandidate is a scored candidate returned by a catalog search strategy.
type RecordingCandidate struct {
	RecordingID string
	WorkID      string
	Confidence  float64
}

// RecordingRepository is the read-only catalog surface the Matching Engine consults.
type RecordingRepository interface {
	// FindByISRC looks up a recording by its cleaned ISRC.
	//
	// # Possible errors
	//
	//  - NotFound: no recording carries this ISRC.
	FindByISRC(ctx context.Context, isrc string) (*Recording, error)

	// SearchByTitleArtistTrigram runs a pg_trgm similarity search over
	// recordings(title, artist_name) against queryText, returning candidates
	// at or above minSimilarity, ordered by similarity descending then
	// work_id ascending, truncated to limit.
	SearchByTitleArtistTrigram(ctx context.Context, queryText string, minSimilarity float64, limit int) ([]RecordingCandidate, error)
}
