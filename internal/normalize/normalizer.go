package normalize

import (
	"github.com/google/uuid"
	"github.com/liverty-music/usage-matching/internal/entity"
)

// Normalizer translates one vendor's raw payload into the canonical schema.
type Normalizer interface {
	Normalize(raw entity.RawUsageEvent) (*entity.NormalizedUsageEvent, error)
}

// topicSource maps a raw topic's fixed name to the dispatch key used to pick
// a normalizer. Unknown topics route to "unknown", which the registry below
// resolves to the generic normalizer.
var topicSource = map[string]string{
	"usage.raw.spotify":     "spotify",
	"usage.raw.apple_music": "apple_music",
	"usage.raw.radio":       "radio",
	"usage.raw.generic":     "generic",
}

// SourceFromTopic derives the source tag for a raw topic name.
func SourceFromTopic(topic string) string {
	if src, ok := topicSource[topic]; ok {
		return src
	}
	return "unknown"
}

// Registry dispatches a source tag to the normalizer responsible for it.
// It is constructed once at worker startup and shared by reference; none of
// its normalizers hold mutable state.
type Registry struct {
	bySource map[string]Normalizer
	fallback Normalizer
}

// NewRegistry builds the fixed source→normalizer dispatch table.
func NewRegistry() *Registry {
	generic := &GenericNormalizer{}
	return &Registry{
		bySource: map[string]Normalizer{
			"spotify":     &SpotifyNormalizer{},
			"apple_music": &AppleMusicNormalizer{},
			// Radio has no dedicated alias table upstream; it rides the
			// generic normalizer but keeps its own source tag.
			"radio": &radioNormalizer{generic: generic},
		},
		fallback: generic,
	}
}

// Normalize dispatches by source tag, falling back to the generic normalizer
// for any tag it does not recognize (including "unknown").
func (r *Registry) Normalize(raw entity.RawUsageEvent) (*entity.NormalizedUsageEvent, error) {
	n, ok := r.bySource[raw.Source]
	if !ok {
		n = r.fallback
	}
	return n.Normalize(raw)
}

// newEventID generates the UUIDv4 that becomes a normalized event's primary key.
func newEventID() string {
	return uuid.NewString()
}
