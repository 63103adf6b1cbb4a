package entity

import (
	"context"
	"time"
)

// MatchMethod records which cascade strategy produced a match.
type MatchMethod string

const (
	MatchMethodISRCExact       MatchMethod = "isrc_exact"
	MatchMethodISWCExact       MatchMethod = "iswc_exact"
	MatchMethodTitleArtist     MatchMethod = "title_artist_exact"
	MatchMethodFuzzyTitle      MatchMethod = "fuzzy_title"
	MatchMethodAIEmbedding     MatchMethod = "ai_embedding"
	MatchMethodManual          MatchMethod = "manual"
)

// MatchedBySystem is the matched_by tag stamped on every automated match this
// pipeline produces. Manual review flows (matched_by="api" or a user tag) are
// the review UI's responsibility, out of scope here; see DESIGN.md.
const MatchedBySystem = "system"

// Match is one confirmed or system-proposed resolution of a usage event to a work.
type Match struct {
	ID            string
	UsageEventID  string
	WorkID        string
	RecordingID   *string
	Confidence    float64
	Method        MatchMethod
	MatchedBy     string
	IsConfirmed   bool
	ConfirmedAt   *time.Time
	MatchedAt     time.Time
}

// Suggestion is a ranked candidate carried alongside an unmatched outcome.
type Suggestion struct {
	WorkID      string
	RecordingID *string
	Confidence  float64
	Method      MatchMethod
}

// MatchRepository persists match outcomes. The pipeline owns this table outright.
type MatchRepository interface {
	// Upsert inserts or updates the row for (usage_event_id, work_id). On
	// conflict it overwrites confidence, method, matched_by, and matched_at.
	Upsert(ctx context.Context, m *Match) error
}
