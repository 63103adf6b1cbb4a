package messaging

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// DLQProcessingRecord is what lands on dlq.usage.processing: the raw vendor
// payload that a normalizer could not translate, the topic it arrived on,
// and why it failed.
type DLQProcessingRecord struct {
	SourceTopic string         `json:"source_topic"`
	RawPayload  map[string]any `json:"raw_payload"`
	Error       string         `json:"error"`
	FailedAt    string         `json:"failed_at"`
}

// DLQMatchingRecord is what lands on dlq.matching: which normalized event
// failed, the topic it was read from, and why.
type DLQMatchingRecord struct {
	SourceTopic string `json:"source_topic"`
	EventID     string `json:"event_id"`
	Error       string `json:"error"`
	FailedAt    string `json:"failed_at"`
}

// NewDLQProcessingMessage builds a dead-letter record for a raw payload the
// Usage Processor could not normalize.
func NewDLQProcessingMessage(sourceTopic string, rawPayload map[string]any, cause error, failedAt time.Time) (*message.Message, error) {
	record := DLQProcessingRecord{
		SourceTopic: sourceTopic,
		RawPayload:  rawPayload,
		Error:       cause.Error(),
		FailedAt:    failedAt.Format(time.RFC3339),
	}
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("marshal dlq.usage.processing record: %w", err)
	}
	return message.NewMessage(uuid.NewString(), data), nil
}

// NewDLQMatchingMessage builds a dead-letter record for a normalized event
// the Matching Engine could not resolve due to an unexpected error.
func NewDLQMatchingMessage(sourceTopic, eventID string, cause error, failedAt time.Time) (*message.Message, error) {
	record := DLQMatchingRecord{
		SourceTopic: sourceTopic,
		EventID:     eventID,
		Error:       cause.Error(),
		FailedAt:    failedAt.Format(time.RFC3339),
	}
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("marshal dlq.matching record: %w", err)
	}
	return message.NewMessage(uuid.NewString(), data), nil
}
