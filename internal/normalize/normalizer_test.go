package normalize

import (
	"testing"

	"github.com/liverty-music/usage-matching/internal/entity"
)

func TestSourceFromTopic(t *testing.T) {
	t.Parallel()

	tests := []struct {
		topic string
		want  string
	}{
		{"usage.raw.spotify", "spotify"},
		{"usage.raw.apple_music", "apple_music"},
		{"usage.raw.radio", "radio"},
		{"usage.raw.generic", "generic"},
		{"usage.raw.something_else", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			t.Parallel()
			if got := SourceFromTopic(tt.topic); got != tt.want {
				t.Errorf("SourceFromTopic(%q) = %q, want %q", tt.topic, got, tt.want)
			}
		})
	}
}

func TestRegistry_Normalize_Dispatch(t *testing.T) {
	t.Parallel()
	reg := NewRegistry()

	spotifyEvent, err := reg.Normalize(entity.RawUsageEvent{
		Source:  "spotify",
		Payload: map[string]any{"isrc": "USRC17607839", "track_name": "Song", "streams": float64(10)},
	})
	if err != nil {
		t.Fatalf("spotify dispatch: %v", err)
	}
	if spotifyEvent.Source != "spotify" {
		t.Errorf("Source = %q, want spotify", spotifyEvent.Source)
	}
	if spotifyEvent.UsageType != entity.UsageTypeStream {
		t.Errorf("UsageType = %q, want stream", spotifyEvent.UsageType)
	}

	radioEvent, err := reg.Normalize(entity.RawUsageEvent{
		Source:  "radio",
		Payload: map[string]any{"title": "Song"},
	})
	if err != nil {
		t.Fatalf("radio dispatch: %v", err)
	}
	if radioEvent.Source != "radio" {
		t.Errorf("Source = %q, want radio", radioEvent.Source)
	}

	unknownEvent, err := reg.Normalize(entity.RawUsageEvent{
		Source:  "unknown",
		Payload: map[string]any{"title": "Song"},
	})
	if err != nil {
		t.Fatalf("unknown dispatch: %v", err)
	}
	if unknownEvent.Source != "unknown" {
		t.Errorf("Source = %q, want unknown (generic alias table applied under the raw source tag)", unknownEvent.Source)
	}
}

func TestRegistry_Normalize_EventIDsAreUnique(t *testing.T) {
	t.Parallel()
	reg := NewRegistry()

	raw := entity.RawUsageEvent{Source: "generic", Payload: map[string]any{"title": "Song"}}
	first, err := reg.Normalize(raw)
	if err != nil {
		t.Fatal(err)
	}
	second, err := reg.Normalize(raw)
	if err != nil {
		t.Fatal(err)
	}
	if first.EventID == second.EventID {
		t.Error("expected distinct EventID per normalize call")
	}
}
