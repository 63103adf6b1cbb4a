// Package normalize translates heterogeneous per-DSP raw payloads into the
// canonical entity.NormalizedUsageEvent shape.
package normalize

import (
	"strconv"
	"strings"
	"time"
)

// dateLayouts are tried in order; the first one that parses wins.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02-01-2006",
	"02/01/2006",
	"20060102",
	"01/02/2006",
}

// usageTypeLexicon maps case-insensitive raw strings to the canonical enum.
// Unrecognized strings default to stream.
var usageTypeLexicon = map[string]string{
	"stream":             "stream",
	"streaming":          "stream",
	"play":               "stream",
	"download":           "download",
	"purchase":           "download",
	"radio":              "radio_play",
	"radio_play":         "radio_play",
	"broadcast":          "tv_broadcast",
	"tv":                 "tv_broadcast",
	"tv_broadcast":       "tv_broadcast",
	"performance":        "public_performance",
	"public_performance": "public_performance",
	"sync":               "sync",
	"synchronization":    "sync",
	"mechanical":         "mechanical",
}

// cleanISRC strips spaces and hyphens, uppercases, and accepts only a
// 12-character result; anything else is discarded as null.
func cleanISRC(raw string) *string {
	cleaned := strings.ToUpper(strings.NewReplacer(" ", "", "-", "").Replace(raw))
	if len(cleaned) != 12 {
		return nil
	}
	return &cleaned
}

// cleanISWC strips whitespace and uppercases; no length check, format varies.
func cleanISWC(raw string) *string {
	cleaned := strings.ToUpper(strings.Join(strings.Fields(raw), ""))
	if cleaned == "" {
		return nil
	}
	return &cleaned
}

// cleanString trims and maps an empty result to null.
func cleanString(raw string) *string {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}

// parseUsageDate tries every layout in dateLayouts in order, falling back to
// the current UTC date on total failure.
func parseUsageDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw != "" {
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return t
			}
		}
	}
	return time.Now().UTC().Truncate(24 * time.Hour)
}

// parseUsageType maps a case-insensitive raw string through the lexicon,
// defaulting to stream.
func parseUsageType(raw string) string {
	if raw == "" {
		return "stream"
	}
	if mapped, ok := usageTypeLexicon[strings.ToLower(raw)]; ok {
		return mapped
	}
	return "stream"
}

// deriveReportingPeriod formats a usage date as YYYY_MM.
func deriveReportingPeriod(usageDate time.Time) string {
	return usageDate.Format("2006_01")
}

// truncateTerritory keeps only the first 5 characters.
func truncateTerritory(raw string) *string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if len(raw) > 5 {
		raw = raw[:5]
	}
	return &raw
}

// floorPlayCount enforces play_count >= 1 regardless of what the source reported.
func floorPlayCount(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// firstString returns the first non-empty string value found under any of the
// given keys, coercing whatever JSON scalar is present into a string.
func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if s := toString(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// firstInt returns the first key whose value parses as an integer, defaulting to 0.
func firstInt(m map[string]any, keys ...string) (int, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if n, ok := toInt(v); ok {
				return n, true
			}
		}
	}
	return 0, false
}

// firstFloat returns the first key whose value parses as a float.
func firstFloat(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if f, ok := toFloat(v); ok {
				return f, true
			}
		}
	}
	return 0, false
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	default:
		return ""
	}
}

func toInt(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		return int(t), true
	case int:
		return t, true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
