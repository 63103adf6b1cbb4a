package messaging

// Fixed topic names used across both pipeline workers.
const (
	TopicRawSpotify     = "usage.raw.spotify"
	TopicRawAppleMusic  = "usage.raw.apple_music"
	TopicRawRadio       = "usage.raw.radio"
	TopicRawGeneric     = "usage.raw.generic"
	TopicNormalized     = "usage.normalized"
	TopicMatched        = "usage.matched"
	TopicUnmatched      = "usage.unmatched"
	TopicDLQProcessing  = "dlq.usage.processing"
	TopicDLQMatching    = "dlq.matching"
)

// RawTopics lists every raw topic the Usage Processor subscribes to.
var RawTopics = []string{TopicRawSpotify, TopicRawAppleMusic, TopicRawRadio, TopicRawGeneric}
