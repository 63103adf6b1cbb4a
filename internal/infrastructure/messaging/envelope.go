package messaging

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/liverty-music/usage-matching/internal/entity"
)

// NormalizedEventPayload is the literal wire schema for usage.normalized.
type NormalizedEventPayload struct {
	EventID          string     `json:"event_id"`
	Source           string     `json:"source"`
	SourceEventID    *string    `json:"source_event_id,omitempty"`
	ISRC             *string    `json:"isrc,omitempty"`
	ISWC             *string    `json:"iswc,omitempty"`
	ReportedTitle    *string    `json:"reported_title,omitempty"`
	ReportedArtist   *string    `json:"reported_artist,omitempty"`
	ReportedAlbum    *string    `json:"reported_album,omitempty"`
	UsageType        string     `json:"usage_type"`
	PlayCount        int        `json:"play_count"`
	RevenueAmount    *float64   `json:"revenue_amount,omitempty"`
	Currency         string     `json:"currency"`
	Territory        *string    `json:"territory,omitempty"`
	UsageDate        string     `json:"usage_date"`
	ReportingPeriod  *string    `json:"reporting_period,omitempty"`
	IngestedAt       string     `json:"ingested_at"`
	ContentEmbedding []float32  `json:"content_embedding,omitempty"`
}

// MatchedEventPayload is the literal wire schema for usage.matched.
type MatchedEventPayload struct {
	UsageEventID    string   `json:"usage_event_id"`
	Source          string   `json:"source"`
	UsageDate       string   `json:"usage_date"`
	Territory       *string  `json:"territory,omitempty"`
	WorkID          string   `json:"work_id"`
	RecordingID     *string  `json:"recording_id,omitempty"`
	MatchConfidence float64  `json:"match_confidence"`
	MatchMethod     string   `json:"match_method"`
	UsageType       string   `json:"usage_type"`
	PlayCount       int      `json:"play_count"`
	RevenueAmount   *float64 `json:"revenue_amount,omitempty"`
	Currency        string   `json:"currency"`
	MatchedAt       string   `json:"matched_at"`
}

// SuggestedMatch is one ranked candidate carried on an unmatched payload.
type SuggestedMatch struct {
	WorkID      string  `json:"work_id"`
	RecordingID *string `json:"recording_id,omitempty"`
	Confidence  float64 `json:"confidence"`
	Method      string  `json:"method"`
}

// UnmatchedEventPayload is the literal wire schema for usage.unmatched.
type UnmatchedEventPayload struct {
	UsageEventID     string           `json:"usage_event_id"`
	Source           string           `json:"source"`
	SourceEventID    *string          `json:"source_event_id,omitempty"`
	ISRC             *string          `json:"isrc,omitempty"`
	ReportedTitle    *string          `json:"reported_title,omitempty"`
	ReportedArtist   *string          `json:"reported_artist,omitempty"`
	ReportedAlbum    *string          `json:"reported_album,omitempty"`
	UsageType        string           `json:"usage_type"`
	PlayCount        int              `json:"play_count"`
	RevenueAmount    *float64         `json:"revenue_amount,omitempty"`
	Currency         string           `json:"currency"`
	Territory        *string          `json:"territory,omitempty"`
	UsageDate        string           `json:"usage_date"`
	SuggestedMatches []SuggestedMatch `json:"suggested_matches"`
	Reason           string           `json:"reason"`
	QueuedAt         string           `json:"queued_at"`
}

const dateLayout = "2006-01-02"

// NewNormalizedMessage builds the flat-JSON usage.normalized message, keyed
// by event_id as the spec requires.
func NewNormalizedMessage(event *entity.NormalizedUsageEvent) (*message.Message, error) {
	payload := NormalizedEventPayload{
		EventID:          event.EventID,
		Source:           event.Source,
		SourceEventID:    event.SourceEventID,
		ISRC:             event.ISRC,
		ISWC:             event.ISWC,
		ReportedTitle:    event.ReportedTitle,
		ReportedArtist:   event.ReportedArtist,
		ReportedAlbum:    event.ReportedAlbum,
		UsageType:        string(event.UsageType),
		PlayCount:        event.PlayCount,
		RevenueAmount:    event.Revenue,
		Currency:         event.Currency,
		Territory:        event.Territory,
		UsageDate:        event.UsageDate.Format(dateLayout),
		ReportingPeriod:  event.ReportingPeriod,
		IngestedAt:       event.IngestedAt.Format(time.RFC3339),
		ContentEmbedding: event.ContentEmbedding,
	}
	return newJSONMessage(event.EventID, payload)
}

// ParseNormalizedMessage decodes a usage.normalized payload back into the
// canonical entity, reversing NewNormalizedMessage.
func ParseNormalizedMessage(msg *message.Message) (*entity.NormalizedUsageEvent, error) {
	var payload NormalizedEventPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return nil, fmt.Errorf("unmarshal usage.normalized payload: %w", err)
	}

	usageDate, err := time.Parse(dateLayout, payload.UsageDate)
	if err != nil {
		return nil, fmt.Errorf("parse usage_date: %w", err)
	}
	ingestedAt, err := time.Parse(time.RFC3339, payload.IngestedAt)
	if err != nil {
		return nil, fmt.Errorf("parse ingested_at: %w", err)
	}

	return &entity.NormalizedUsageEvent{
		EventID:          payload.EventID,
		Source:           payload.Source,
		SourceEventID:    payload.SourceEventID,
		ISRC:             payload.ISRC,
		ISWC:             payload.ISWC,
		ReportedTitle:    payload.ReportedTitle,
		ReportedArtist:   payload.ReportedArtist,
		ReportedAlbum:    payload.ReportedAlbum,
		UsageType:        entity.UsageType(payload.UsageType),
		PlayCount:        payload.PlayCount,
		Revenue:          payload.RevenueAmount,
		Currency:         payload.Currency,
		Territory:        payload.Territory,
		UsageDate:        usageDate,
		ReportingPeriod:  payload.ReportingPeriod,
		IngestedAt:       ingestedAt,
		ProcessingStatus: entity.ProcessingStatusPending,
		ContentEmbedding: payload.ContentEmbedding,
	}, nil
}

// NewMatchedMessage builds the flat-JSON usage.matched message.
func NewMatchedMessage(event *entity.NormalizedUsageEvent, match *entity.Match) (*message.Message, error) {
	payload := MatchedEventPayload{
		UsageEventID:    event.EventID,
		Source:          event.Source,
		UsageDate:       event.UsageDate.Format(dateLayout),
		Territory:       event.Territory,
		WorkID:          match.WorkID,
		RecordingID:     match.RecordingID,
		MatchConfidence: match.Confidence,
		MatchMethod:     string(match.Method),
		UsageType:       string(event.UsageType),
		PlayCount:       event.PlayCount,
		RevenueAmount:   event.Revenue,
		Currency:        event.Currency,
		MatchedAt:       match.MatchedAt.Format(time.RFC3339),
	}
	return newJSONMessage(event.EventID, payload)
}

// NewUnmatchedMessage builds the flat-JSON usage.unmatched message.
func NewUnmatchedMessage(event *entity.NormalizedUsageEvent, suggestions []entity.Suggestion, reason string, queuedAt time.Time) (*message.Message, error) {
	suggested := make([]SuggestedMatch, len(suggestions))
	for i, s := range suggestions {
		suggested[i] = SuggestedMatch{
			WorkID:      s.WorkID,
			RecordingID: s.RecordingID,
			Confidence:  s.Confidence,
			Method:      string(s.Method),
		}
	}

	payload := UnmatchedEventPayload{
		UsageEventID:     event.EventID,
		Source:           event.Source,
		SourceEventID:    event.SourceEventID,
		ISRC:             event.ISRC,
		ReportedTitle:    event.ReportedTitle,
		ReportedArtist:   event.ReportedArtist,
		ReportedAlbum:    event.ReportedAlbum,
		UsageType:        string(event.UsageType),
		PlayCount:        event.PlayCount,
		RevenueAmount:    event.Revenue,
		Currency:         event.Currency,
		Territory:        event.Territory,
		UsageDate:        event.UsageDate.Format(dateLayout),
		SuggestedMatches: suggested,
		Reason:           reason,
		QueuedAt:         queuedAt.Format(time.RFC3339),
	}
	return newJSONMessage(event.EventID, payload)
}

// newJSONMessage sets the Watermill message UUID to key so that
// kafka.DefaultMarshaler (which partitions on the message UUID) satisfies
// the spec's "message key = event_id" requirement without a custom marshaler.
func newJSONMessage(key string, payload any) (*message.Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal message payload: %w", err)
	}
	msg := message.NewMessage(key, data)
	msg.Metadata.Set("content_type", "application/json")
	return msg, nil
}
