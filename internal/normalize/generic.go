package normalize

import (
	"time"

	"github.com/liverty-music/usage-matching/internal/entity"
)

// GenericNormalizer is the catch-all normalizer: it tries the widest set of
// common field-name aliases and is used directly for unrecognized sources
// and, with a different source tag, for radio.
type GenericNormalizer struct{}

func (n *GenericNormalizer) Normalize(raw entity.RawUsageEvent) (*entity.NormalizedUsageEvent, error) {
	return normalizeGeneric(raw, raw.Source)
}

// normalizeGeneric implements the Generic alias table from the field-mapping
// spec, reused verbatim by the radio normalizer with an overridden source tag.
func normalizeGeneric(raw entity.RawUsageEvent, source string) (*entity.NormalizedUsageEvent, error) {
	m := raw.Payload

	isrc := cleanISRC(firstString(m, "isrc", "ISRC", "recording_code"))
	iswc := cleanISWC(firstString(m, "iswc", "ISWC"))
	title := cleanString(firstString(m, "title", "track_name", "song_name", "name", "track_title", "reported_title"))
	artist := cleanString(firstString(m, "artist", "artist_name", "performer", "main_artist", "reported_artist"))
	album := cleanString(firstString(m, "album", "album_name", "release_name", "album_title", "reported_album"))

	playCount, _ := firstInt(m, "plays", "play_count", "streams", "quantity", "units", "count", "total_plays", "stream_count")
	playCount = floorPlayCount(playCount)

	rawType := firstString(m, "usage_type", "type", "transaction_type")
	usageType := entity.UsageType(parseUsageType(rawType))

	var revenue *float64
	if v, ok := firstFloat(m, "revenue", "revenue_amount", "amount", "earnings", "royalty", "royalty_amount", "net_revenue", "gross_revenue", "payment"); ok {
		revenue = &v
	}

	currency := firstString(m, "currency", "currency_code", "royalty_currency")
	if currency == "" {
		currency = entity.DefaultCurrency
	}

	territory := truncateTerritory(firstString(m, "country", "territory", "region", "country_code"))

	usageDate := parseUsageDate(firstString(m, "date", "usage_date", "period_date", "transaction_date"))

	reportingPeriod := cleanString(firstString(m, "reporting_period", "period", "period_code"))
	if reportingPeriod == nil {
		p := deriveReportingPeriod(usageDate)
		reportingPeriod = &p
	}

	sourceEventID := cleanString(firstString(m, "source_event_id", "event_id", "transaction_id", "id"))

	return &entity.NormalizedUsageEvent{
		EventID:          newEventID(),
		Source:           source,
		SourceEventID:    sourceEventID,
		ISRC:             isrc,
		ISWC:             iswc,
		ReportedTitle:    title,
		ReportedArtist:   artist,
		ReportedAlbum:    album,
		UsageType:        usageType,
		PlayCount:        playCount,
		Revenue:          revenue,
		Currency:         currency,
		Territory:        territory,
		UsageDate:        usageDate,
		ReportingPeriod:  reportingPeriod,
		IngestedAt:       time.Now().UTC(),
		ProcessingStatus: entity.ProcessingStatusPending,
	}, nil
}

// radioNormalizer routes radio raw events through the generic alias table
// while forcing the source tag to "radio" rather than "generic".
type radioNormalizer struct {
	generic *GenericNormalizer
}

func (n *radioNormalizer) Normalize(raw entity.RawUsageEvent) (*entity.NormalizedUsageEvent, error) {
	return normalizeGeneric(raw, "radio")
}
