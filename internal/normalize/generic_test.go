package normalize

import (
	"testing"

	"github.com/liverty-music/usage-matching/internal/entity"
)

func TestGenericNormalizer_Normalize(t *testing.T) {
	t.Parallel()

	n := &GenericNormalizer{}
	event, err := n.Normalize(entity.RawUsageEvent{
		Source: "generic",
		Payload: map[string]any{
			"isrc":       "us-rc1-76-07839",
			"title":      " My Song ",
			"artist":     "An Artist",
			"play_count": float64(7),
			"usage_type": "broadcast",
			"revenue":    float64(1.23),
			"country":    "United States",
			"date":       "2024-03-15",
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	if event.ISRC == nil || *event.ISRC != "USRC17607839" {
		t.Errorf("ISRC = %v, want USRC17607839", event.ISRC)
	}
	if event.ReportedTitle == nil || *event.ReportedTitle != "My Song" {
		t.Errorf("ReportedTitle = %v, want 'My Song'", event.ReportedTitle)
	}
	if event.PlayCount != 7 {
		t.Errorf("PlayCount = %d, want 7", event.PlayCount)
	}
	if event.UsageType != entity.UsageTypeTVBroadcast {
		t.Errorf("UsageType = %q, want tv_broadcast", event.UsageType)
	}
	if event.Currency != entity.DefaultCurrency {
		t.Errorf("Currency = %q, want USD default", event.Currency)
	}
	if event.Territory == nil || *event.Territory != "Unite" {
		t.Errorf("Territory = %v, want Unite (truncated)", event.Territory)
	}
	if event.ReportingPeriod == nil || *event.ReportingPeriod != "2024_03" {
		t.Errorf("ReportingPeriod = %v, want 2024_03", event.ReportingPeriod)
	}
}

func TestGenericNormalizer_MissingPlayCountDefaultsToOne(t *testing.T) {
	t.Parallel()
	n := &GenericNormalizer{}
	event, err := n.Normalize(entity.RawUsageEvent{Source: "generic", Payload: map[string]any{"title": "X"}})
	if err != nil {
		t.Fatal(err)
	}
	if event.PlayCount != 1 {
		t.Errorf("PlayCount = %d, want 1", event.PlayCount)
	}
}

func TestRadioNormalizer_ForcesRadioSourceTag(t *testing.T) {
	t.Parallel()
	n := &radioNormalizer{generic: &GenericNormalizer{}}
	event, err := n.Normalize(entity.RawUsageEvent{Source: "some_station_feed", Payload: map[string]any{"title": "On Air"}})
	if err != nil {
		t.Fatal(err)
	}
	if event.Source != "radio" {
		t.Errorf("Source = %q, want radio regardless of raw topic", event.Source)
	}
}
