package entity

import "context"

// EmbeddingProvider produces fixed-dimension dense vectors for a batch of
// texts. Implementations must preserve input order in the returned slice;
// a nil entry at position i means that text could not be embedded.
type EmbeddingProvider interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
