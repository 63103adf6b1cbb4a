package entity

import (
	"context"
	"time"
)

// UsageType enumerates the kinds of consumption a DSP can report.
type UsageType string

const (
	UsageTypeStream            UsageType = "stream"
	UsageTypeDownload          UsageType = "download"
	UsageTypeRadioPlay         UsageType = "radio_play"
	UsageTypeTVBroadcast       UsageType = "tv_broadcast"
	UsageTypePublicPerformance UsageType = "public_performance"
	UsageTypeSync              UsageType = "sync"
	UsageTypeMechanical        UsageType = "mechanical"
)

// ProcessingStatus tracks a usage event's lifecycle. Status is monotone:
// pending → processing → {matched, unmatched, error}.
type ProcessingStatus string

const (
	ProcessingStatusPending    ProcessingStatus = "pending"
	ProcessingStatusProcessing ProcessingStatus = "processing"
	ProcessingStatusMatched    ProcessingStatus = "matched"
	ProcessingStatusUnmatched  ProcessingStatus = "unmatched"
	ProcessingStatusError      ProcessingStatus = "error"
)

// DefaultCurrency is substituted whenever a source omits a currency code.
const DefaultCurrency = "USD"

// EmbeddingDim is the fixed dimensionality of content embeddings.
const EmbeddingDim = 1536

// RawUsageEvent is the opaque, vendor-shaped payload read off a usage.raw.* topic.
type RawUsageEvent struct {
	// Source is the DSP dialect this payload was read under (spotify, apple_music, radio, generic, unknown).
	Source string
	// Payload is the raw vendor JSON, already decoded into a generic map.
	Payload map[string]any
	// SourceEventID is the UUID of the bus message that carried this payload.
	// Normalizers read the vendor's own event identifier from Payload instead.
	SourceEventID string
}

// NormalizedUsageEvent is the canonical record produced by a Normalizer and
// consumed by the Matching Engine.
type NormalizedUsageEvent struct {
	EventID          string
	Source           string
	SourceEventID    *string
	ISRC             *string
	ISWC             *string
	ReportedTitle    *string
	ReportedArtist   *string
	ReportedAlbum    *string
	UsageType        UsageType
	PlayCount        int
	Revenue          *float64
	Currency         string
	Territory        *string
	UsageDate        time.Time
	ReportingPeriod  *string
	IngestedAt       time.Time
	ProcessingStatus ProcessingStatus
	ContentEmbedding []float32
	ProcessedAt      *time.Time
}

// UsageEventRepository persists normalized usage events and advances their
// processing status. The pipeline owns this table outright.
type UsageEventRepository interface {
	// Insert stores a newly normalized event with status pending under the
	// EventID its normalizer generated.
	//
	// # Possible errors
	//
	//  - AlreadyExists: if EventID collides (practically unreachable with UUIDv4).
	Insert(ctx context.Context, event *NormalizedUsageEvent) error

	// MarkMatched stamps processing_status=matched and processed_at=now.
	MarkMatched(ctx context.Context, eventID string, processedAt time.Time) error

	// MarkUnmatched stamps processing_status=unmatched and processed_at=now.
	MarkUnmatched(ctx context.Context, eventID string, processedAt time.Time) error

	// MarkError stamps processing_status=error and processed_at=now.
	MarkError(ctx context.Context, eventID string, processedAt time.Time) error
}
