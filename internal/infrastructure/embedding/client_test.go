package embedding

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

type fakeEmbeddingsAPI struct {
	calls int
	fn    func(req openai.EmbeddingRequest) (openai.EmbeddingResponse, error)
}

func (f *fakeEmbeddingsAPI) CreateEmbeddings(_ context.Context, req openai.EmbeddingRequest) (openai.EmbeddingResponse, error) {
	f.calls++
	return f.fn(req)
}

func vectorFor(text string) []float32 {
	return []float32{float32(len(text)), 0, 0}
}

func respondWithVectors(req openai.EmbeddingRequest) (openai.EmbeddingResponse, error) {
	inputs, _ := req.Input.([]string)
	data := make([]openai.Embedding, len(inputs))
	for i, in := range inputs {
		data[i] = openai.Embedding{Embedding: vectorFor(in)}
	}
	return openai.EmbeddingResponse{Data: data}, nil
}

func newTestClient(api embeddingsAPI, batchSize int) *Client {
	return newClient(api, "text-embedding-3-small", batchSize, time.Minute, time.Millisecond, slog.Default())
}

func TestClient_Embed_OrderPreservedAndEmptyStringsSkipped(t *testing.T) {
	t.Parallel()
	fake := &fakeEmbeddingsAPI{fn: respondWithVectors}
	c := newTestClient(fake, DefaultBatchSize)
	defer c.Close()

	results, err := c.Embed(context.Background(), []string{"Title: A", "", "Title: BB"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
	if results[1] != nil {
		t.Errorf("results[1] = %v, want nil for empty input", results[1])
	}
	if results[0] == nil || results[2] == nil {
		t.Fatal("expected non-nil vectors for non-empty inputs")
	}
}

func TestClient_Embed_CacheHitAvoidsSecondAPICall(t *testing.T) {
	t.Parallel()
	fake := &fakeEmbeddingsAPI{fn: respondWithVectors}
	c := newTestClient(fake, DefaultBatchSize)
	defer c.Close()

	ctx := context.Background()
	if _, err := c.Embed(ctx, []string{"Title: Same"}); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Embed(ctx, []string{"Title: Same"}); err != nil {
		t.Fatal(err)
	}

	if fake.calls != 1 {
		t.Errorf("calls = %d, want 1 (second lookup should hit the memoization cache)", fake.calls)
	}
}

func TestClient_Embed_BatchFailureLeavesThatBatchNull(t *testing.T) {
	t.Parallel()
	attempt := 0
	fake := &fakeEmbeddingsAPI{fn: func(req openai.EmbeddingRequest) (openai.EmbeddingResponse, error) {
		attempt++
		if attempt == 1 {
			return openai.EmbeddingResponse{}, errors.New("provider 500")
		}
		return respondWithVectors(req)
	}}
	c := newTestClient(fake, 1) // force one text per batch
	defer c.Close()

	results, err := c.Embed(context.Background(), []string{"Title: Fails", "Title: Succeeds"})
	if err != nil {
		t.Fatal(err)
	}
	if results[0] != nil {
		t.Errorf("results[0] = %v, want nil (its batch failed)", results[0])
	}
	if results[1] == nil {
		t.Error("results[1] = nil, want a vector (its batch succeeded independently)")
	}
}
