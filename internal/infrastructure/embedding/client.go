// Package embedding adapts a text-embeddings HTTP API into the
// entity.EmbeddingProvider contract, with batching, memoization, and
// rate-pacing layered in front of the network call.
package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/liverty-music/usage-matching/internal/entity"
	"github.com/liverty-music/usage-matching/pkg/api"
	"github.com/liverty-music/usage-matching/pkg/cache"
	"github.com/liverty-music/usage-matching/pkg/throttle"
)

// DefaultBatchSize matches the spec's default of 100 texts per API request.
const DefaultBatchSize = 100

// DefaultCacheTTL bounds how long an identical content string's embedding is
// memoized before a repeat lookup re-hits the provider.
const DefaultCacheTTL = 10 * time.Minute

// embeddingsAPI is the subset of *openai.Client this package depends on,
// narrowed so tests can substitute a fake.
type embeddingsAPI interface {
	CreateEmbeddings(ctx context.Context, req openai.EmbeddingRequest) (openai.EmbeddingResponse, error)
}

// Client implements entity.EmbeddingProvider against an OpenAI-compatible
// embeddings endpoint, batching requests and memoizing identical inputs.
type Client struct {
	api       embeddingsAPI
	model     openai.EmbeddingModel
	batchSize int
	cache     *cache.MemoryCache
	throttler *throttle.Throttler
	logger    *slog.Logger
}

// NewClient builds an embedding client. cacheTTL controls how long a given
// content string's vector is memoized; pacing controls the minimum interval
// between outbound API calls.
func NewClient(apiKey, model string, batchSize int, cacheTTL, pacing time.Duration, logger *slog.Logger) *Client {
	return newClient(openai.NewClient(apiKey), model, batchSize, cacheTTL, pacing, logger)
}

func newClient(api embeddingsAPI, model string, batchSize int, cacheTTL, pacing time.Duration, logger *slog.Logger) *Client {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Client{
		api:       api,
		model:     openai.EmbeddingModel(model),
		batchSize: batchSize,
		cache:     cache.NewMemoryCache(cacheTTL),
		throttler: throttle.New(pacing, 256),
		logger:    logger,
	}
}

// Close stops the memoization cache's cleanup goroutine and the pacing
// throttler's worker. Registered against the External shutdown phase.
func (c *Client) Close() error {
	c.throttler.Close()
	return c.cache.Close()
}

// Embed returns one vector per input text, preserving order. An empty string
// maps to a nil vector without consuming a batch slot or touching the cache.
// A batch that fails against the provider yields nil for every text in that
// batch; other batches still proceed.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))

	// indices of texts that still need an API round trip, grouped into
	// batches of at most c.batchSize.
	var pending []int
	for i, text := range texts {
		if text == "" {
			continue
		}
		if cached := c.cache.Get(text); cached != nil {
			results[i] = cached.([]float32)
			continue
		}
		pending = append(pending, i)
	}

	for start := 0; start < len(pending); start += c.batchSize {
		end := start + c.batchSize
		if end > len(pending) {
			end = len(pending)
		}
		batchIdx := pending[start:end]
		batchTexts := make([]string, len(batchIdx))
		for j, idx := range batchIdx {
			batchTexts[j] = texts[idx]
		}

		vectors, err := c.embedBatch(ctx, batchTexts)
		if err != nil {
			c.logger.Warn("embedding batch failed, leaving batch null", slog.String("error", err.Error()), slog.Int("batch_size", len(batchTexts)))
			continue
		}

		for j, idx := range batchIdx {
			results[idx] = vectors[j]
			if vectors[j] != nil {
				c.cache.Set(texts[idx], vectors[j])
			}
		}
	}

	return results, nil
}

func (c *Client) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var resp openai.EmbeddingResponse
	err := c.throttler.Do(ctx, func() error {
		var apiErr error
		resp, apiErr = c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: texts,
			Model: c.model,
		})
		return apiErr
	})
	if err != nil {
		var httpResp *http.Response
		return nil, api.FromHTTP(err, httpResp, "embedding provider request failed", slog.Int("count", len(texts)))
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding provider returned %d vectors for %d inputs", len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for i, d := range resp.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}

var _ entity.EmbeddingProvider = (*Client)(nil)
