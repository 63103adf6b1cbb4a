package usecase

import (
	"context"
	"errors"
	"sort"

	"github.com/pannpers/go-apperr/apperr"

	"github.com/liverty-music/usage-matching/internal/entity"
)

// StrategyResult is what a single cascade strategy produces for one event:
// at most one accepted match, plus whatever candidates cleared the
// strategy's recall floor but not necessarily its acceptance threshold.
// Accepted and Suggestions are mutually exclusive in practice — a strategy
// that accepts does not also populate Suggestions, since the cascade
// short-circuits on acceptance.
type StrategyResult struct {
	Accepted    *entity.Match
	Suggestions []entity.Suggestion
}

// MatchStrategy is one node of the matching cascade. Evaluate folds the
// source's "try" and "gather_suggestions" calls into a single round trip,
// since every strategy here computes both from the same candidate query.
type MatchStrategy interface {
	Evaluate(ctx context.Context, event *entity.NormalizedUsageEvent) (StrategyResult, error)
}

// errSkipStrategy signals that a strategy found nothing for this event (no
// identifier present, no candidate cleared the recall floor). It is the
// cascade's "try the next strategy" sentinel, exactly as the ordered-searcher
// use case treats apperr.ErrNotFound.
var errSkipStrategy = apperr.ErrNotFound

// isrcExactStrategy resolves a usage event by exact recording ISRC.
type isrcExactStrategy struct {
	recordings entity.RecordingRepository
}

func (s *isrcExactStrategy) Evaluate(ctx context.Context, event *entity.NormalizedUsageEvent) (StrategyResult, error) {
	if event.ISRC == nil {
		return StrategyResult{}, errSkipStrategy
	}
	rec, err := s.recordings.FindByISRC(ctx, *event.ISRC)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return StrategyResult{}, errSkipStrategy
		}
		return StrategyResult{}, err
	}
	recordingID := rec.ID
	return StrategyResult{Accepted: &entity.Match{
		WorkID:      rec.WorkID,
		RecordingID: &recordingID,
		Confidence:  1.0,
		Method:      entity.MatchMethodISRCExact,
	}}, nil
}

// iswcExactStrategy resolves a usage event by exact work ISWC.
type iswcExactStrategy struct {
	works entity.WorkRepository
}

func (s *iswcExactStrategy) Evaluate(ctx context.Context, event *entity.NormalizedUsageEvent) (StrategyResult, error) {
	if event.ISWC == nil {
		return StrategyResult{}, errSkipStrategy
	}
	work, err := s.works.FindByISWC(ctx, *event.ISWC)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return StrategyResult{}, errSkipStrategy
		}
		return StrategyResult{}, err
	}
	return StrategyResult{Accepted: &entity.Match{
		WorkID:     work.ID,
		Confidence: 1.0,
		Method:     entity.MatchMethodISWCExact,
	}}, nil
}

// scoredCandidate is the common shape merged across the recordings and
// works trigram queries before dedup/sort/truncate.
type scoredCandidate struct {
	WorkID      string
	RecordingID *string
	Confidence  float64
}

// dedupCandidates keeps, per WorkID, the candidate with the higher
// confidence; on a tie it prefers the one carrying a RecordingID so a
// fuzzy match can still stamp matched_usage.recording_id.
func dedupCandidates(cands []scoredCandidate) []scoredCandidate {
	byWork := make(map[string]scoredCandidate, len(cands))
	for _, c := range cands {
		existing, ok := byWork[c.WorkID]
		if !ok {
			byWork[c.WorkID] = c
			continue
		}
		switch {
		case c.Confidence > existing.Confidence:
			byWork[c.WorkID] = c
		case c.Confidence == existing.Confidence && existing.RecordingID == nil && c.RecordingID != nil:
			byWork[c.WorkID] = c
		}
	}
	out := make([]scoredCandidate, 0, len(byWork))
	for _, c := range byWork {
		out = append(out, c)
	}
	sortCandidates(out)
	return out
}

// sortCandidates orders by confidence descending, breaking ties by WorkID
// ascending as the cascade's tie-break rule requires.
func sortCandidates(cands []scoredCandidate) {
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].Confidence != cands[j].Confidence {
			return cands[i].Confidence > cands[j].Confidence
		}
		return cands[i].WorkID < cands[j].WorkID
	})
}

func truncateCandidates(cands []scoredCandidate, limit int) []scoredCandidate {
	if limit > 0 && len(cands) > limit {
		return cands[:limit]
	}
	return cands
}

func candidatesToSuggestions(cands []scoredCandidate, method entity.MatchMethod) []entity.Suggestion {
	out := make([]entity.Suggestion, len(cands))
	for i, c := range cands {
		out[i] = entity.Suggestion{
			WorkID:      c.WorkID,
			RecordingID: c.RecordingID,
			Confidence:  c.Confidence,
			Method:      method,
		}
	}
	return out
}

// fuzzyTrigramStrategy runs parallel pg_trgm searches over recordings and
// works, merges the candidates, and accepts the top one if it clears
// acceptThreshold.
type fuzzyTrigramStrategy struct {
	recordings      entity.RecordingRepository
	works           entity.WorkRepository
	acceptThreshold float64
	recallMargin    float64
	maxSuggestions  int
}

func (s *fuzzyTrigramStrategy) Evaluate(ctx context.Context, event *entity.NormalizedUsageEvent) (StrategyResult, error) {
	if event.ReportedTitle == nil || *event.ReportedTitle == "" {
		return StrategyResult{}, errSkipStrategy
	}
	title := *event.ReportedTitle
	recallFloor := s.acceptThreshold - s.recallMargin

	queryText := title
	if event.ReportedArtist != nil && *event.ReportedArtist != "" {
		queryText = title + " " + *event.ReportedArtist
	}

	type recResult struct {
		cands []entity.RecordingCandidate
		err   error
	}
	type workResult struct {
		cands []entity.WorkCandidate
		err   error
	}
	recCh := make(chan recResult, 1)
	workCh := make(chan workResult, 1)

	go func() {
		cands, err := s.recordings.SearchByTitleArtistTrigram(ctx, queryText, recallFloor, s.maxSuggestions)
		recCh <- recResult{cands, err}
	}()
	go func() {
		cands, err := s.works.SearchByTitleTrigram(ctx, title, recallFloor, s.maxSuggestions)
		workCh <- workResult{cands, err}
	}()

	rr, wr := <-recCh, <-workCh
	if rr.err != nil {
		return StrategyResult{}, rr.err
	}
	if wr.err != nil {
		return StrategyResult{}, wr.err
	}

	var merged []scoredCandidate
	for _, c := range rr.cands {
		recordingID := c.RecordingID
		merged = append(merged, scoredCandidate{WorkID: c.WorkID, RecordingID: &recordingID, Confidence: c.Confidence})
	}
	for _, c := range wr.cands {
		merged = append(merged, scoredCandidate{WorkID: c.WorkID, Confidence: c.Confidence})
	}
	merged = dedupCandidates(merged)

	if len(merged) == 0 {
		return StrategyResult{}, errSkipStrategy
	}

	top := merged[0]
	if top.Confidence >= s.acceptThreshold {
		return StrategyResult{Accepted: &entity.Match{
			WorkID:      top.WorkID,
			RecordingID: top.RecordingID,
			Confidence:  top.Confidence,
			Method:      entity.MatchMethodFuzzyTitle,
		}}, nil
	}

	return StrategyResult{Suggestions: candidatesToSuggestions(truncateCandidates(merged, s.maxSuggestions), entity.MatchMethodFuzzyTitle)}, nil
}

// vectorSemanticStrategy runs a pgvector cosine-distance search over
// works.title_embedding restricted to active works.
type vectorSemanticStrategy struct {
	works                 entity.WorkRepository
	acceptThreshold       float64
	manualReviewThreshold float64
	maxSuggestions        int
}

func (s *vectorSemanticStrategy) Evaluate(ctx context.Context, event *entity.NormalizedUsageEvent) (StrategyResult, error) {
	if len(event.ContentEmbedding) == 0 {
		return StrategyResult{}, errSkipStrategy
	}

	cands, err := s.works.SearchByEmbedding(ctx, event.ContentEmbedding, s.manualReviewThreshold, s.maxSuggestions)
	if err != nil {
		return StrategyResult{}, err
	}
	if len(cands) == 0 {
		return StrategyResult{}, errSkipStrategy
	}

	merged := make([]scoredCandidate, len(cands))
	for i, c := range cands {
		merged[i] = scoredCandidate{WorkID: c.WorkID, Confidence: c.Confidence}
	}
	sortCandidates(merged)

	top := merged[0]
	if top.Confidence >= s.acceptThreshold {
		return StrategyResult{Accepted: &entity.Match{
			WorkID:     top.WorkID,
			Confidence: top.Confidence,
			Method:     entity.MatchMethodAIEmbedding,
		}}, nil
	}

	return StrategyResult{Suggestions: candidatesToSuggestions(truncateCandidates(merged, s.maxSuggestions), entity.MatchMethodAIEmbedding)}, nil
}
