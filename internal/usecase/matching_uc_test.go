package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/pannpers/go-logging/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liverty-music/usage-matching/internal/entity"
)

type fakeMatchRepo struct {
	upserted []*entity.Match
	err      error
}

func (r *fakeMatchRepo) Upsert(_ context.Context, m *entity.Match) error {
	if r.err != nil {
		return r.err
	}
	r.upserted = append(r.upserted, m)
	return nil
}

type fakeUsageEventRepo struct {
	mu       sync.Mutex
	inserted []*entity.NormalizedUsageEvent
	matched  []string
	unmatched []string
	errored  []string
	insertErr error
}

func (r *fakeUsageEventRepo) Insert(_ context.Context, event *entity.NormalizedUsageEvent) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inserted = append(r.inserted, event)
	return nil
}

func (r *fakeUsageEventRepo) MarkMatched(_ context.Context, eventID string, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.matched = append(r.matched, eventID)
	return nil
}

func (r *fakeUsageEventRepo) MarkUnmatched(_ context.Context, eventID string, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unmatched = append(r.unmatched, eventID)
	return nil
}

func (r *fakeUsageEventRepo) MarkError(_ context.Context, eventID string, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errored = append(r.errored, eventID)
	return nil
}

type fakePublisher struct {
	mu        sync.Mutex
	published map[string][]*message.Message
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{published: make(map[string][]*message.Message)}
}

func (p *fakePublisher) Publish(topic string, messages ...*message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published[topic] = append(p.published[topic], messages...)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) countFor(topic string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published[topic])
}

func newTestMatchingLogger(t *testing.T) *logging.Logger {
	t.Helper()
	logger, err := logging.New()
	require.NoError(t, err)
	return logger
}

func TestMatchingUseCase_Resolve_AcceptsOnISRCExact(t *testing.T) {
	recRepo := &fakeRecordingRepo{byISRC: map[string]*entity.Recording{"USRC17607839": {ID: "rec-1", WorkID: "work-1"}}}
	workRepo := &fakeWorkRepo{}
	matchRepo := &fakeMatchRepo{}
	eventRepo := &fakeUsageEventRepo{}
	pub := newFakePublisher()

	uc := NewMatchingUseCase(recRepo, workRepo, matchRepo, eventRepo, pub, MatchingThresholds{
		FuzzyMatchThreshold: 0.85, EmbeddingMatchThreshold: 0.80, ManualReviewThreshold: 0.60,
		MaxAlternativeMatches: 5, MaxRetries: 3,
	}, newTestMatchingLogger(t))

	event := &entity.NormalizedUsageEvent{EventID: "event-1", ISRC: strPtr("USRC17607839")}
	err := uc.Resolve(context.Background(), event)
	require.NoError(t, err)

	require.Len(t, matchRepo.upserted, 1)
	assert.Equal(t, "work-1", matchRepo.upserted[0].WorkID)
	assert.Equal(t, entity.MatchedBySystem, matchRepo.upserted[0].MatchedBy)
	assert.False(t, matchRepo.upserted[0].IsConfirmed)
	assert.Equal(t, []string{"event-1"}, eventRepo.matched)
	assert.Equal(t, 1, pub.countFor("usage.matched"))
}

func TestMatchingUseCase_Resolve_FallsThroughToUnmatchedWithSuggestions(t *testing.T) {
	recRepo := &fakeRecordingRepo{
		trigramFn: func(string, float64, int) ([]entity.RecordingCandidate, error) {
			return []entity.RecordingCandidate{{RecordingID: "rec-1", WorkID: "work-1", Confidence: 0.78}}, nil
		},
	}
	workRepo := &fakeWorkRepo{
		trigramFn: func(string, float64, int) ([]entity.WorkCandidate, error) { return nil, nil },
	}
	matchRepo := &fakeMatchRepo{}
	eventRepo := &fakeUsageEventRepo{}
	pub := newFakePublisher()

	uc := NewMatchingUseCase(recRepo, workRepo, matchRepo, eventRepo, pub, MatchingThresholds{
		FuzzyMatchThreshold: 0.85, EmbeddingMatchThreshold: 0.80, ManualReviewThreshold: 0.60,
		MaxAlternativeMatches: 5, MaxRetries: 3,
	}, newTestMatchingLogger(t))

	event := &entity.NormalizedUsageEvent{EventID: "event-2", ReportedTitle: strPtr("Ode to Joy")}
	err := uc.Resolve(context.Background(), event)
	require.NoError(t, err)

	assert.Empty(t, matchRepo.upserted)
	assert.Equal(t, []string{"event-2"}, eventRepo.unmatched)
	assert.Equal(t, 1, pub.countFor("usage.unmatched"))
}

func TestMatchingUseCase_Resolve_UnexpectedStrategyErrorContinuesCascade(t *testing.T) {
	recRepo := &fakeRecordingRepo{byISRC: map[string]*entity.Recording{}}
	boom := errors.New("connection refused")
	workRepo := &fakeWorkRepo{
		trigramFn: func(string, float64, int) ([]entity.WorkCandidate, error) { return nil, boom },
	}
	matchRepo := &fakeMatchRepo{}
	eventRepo := &fakeUsageEventRepo{}
	pub := newFakePublisher()

	uc := NewMatchingUseCase(recRepo, workRepo, matchRepo, eventRepo, pub, MatchingThresholds{
		FuzzyMatchThreshold: 0.85, EmbeddingMatchThreshold: 0.80, ManualReviewThreshold: 0.60,
		MaxAlternativeMatches: 5, MaxRetries: 0,
	}, newTestMatchingLogger(t))

	event := &entity.NormalizedUsageEvent{EventID: "event-3", ReportedTitle: strPtr("Ode to Joy")}
	err := uc.Resolve(context.Background(), event)
	require.NoError(t, err)

	assert.Empty(t, eventRepo.errored)
	assert.Equal(t, []string{"event-3"}, eventRepo.unmatched)
	assert.Equal(t, 0, pub.countFor("dlq.matching"))
	assert.Equal(t, 1, pub.countFor("usage.unmatched"))
}

func TestMergeSuggestions_DedupsSortsAndTruncates(t *testing.T) {
	suggestions := []entity.Suggestion{
		{WorkID: "work-a", Confidence: 0.70, Method: entity.MatchMethodFuzzyTitle},
		{WorkID: "work-b", Confidence: 0.90, Method: entity.MatchMethodFuzzyTitle},
		{WorkID: "work-a", Confidence: 0.95, Method: entity.MatchMethodAIEmbedding},
	}
	merged := mergeSuggestions(suggestions, 1)
	require.Len(t, merged, 1)
	assert.Equal(t, "work-a", merged[0].WorkID)
	assert.Equal(t, 0.95, merged[0].Confidence)
	assert.Equal(t, entity.MatchMethodAIEmbedding, merged[0].Method)
}
