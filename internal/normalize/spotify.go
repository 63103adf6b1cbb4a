package normalize

import (
	"time"

	"github.com/liverty-music/usage-matching/internal/entity"
)

// SpotifyNormalizer handles Spotify streaming report payloads: track_name,
// artist_name, album_name, isrc, streams, date, country, earnings.
type SpotifyNormalizer struct{}

func (n *SpotifyNormalizer) Normalize(raw entity.RawUsageEvent) (*entity.NormalizedUsageEvent, error) {
	m := raw.Payload

	isrc := cleanISRC(firstString(m, "isrc"))
	iswc := cleanISWC(firstString(m, "iswc"))
	title := cleanString(firstString(m, "track_name", "title"))
	artist := cleanString(firstString(m, "artist_name", "artist"))
	album := cleanString(firstString(m, "album_name", "album"))

	playCount, _ := firstInt(m, "streams", "play_count")
	playCount = floorPlayCount(playCount)

	var revenue *float64
	if v, ok := firstFloat(m, "earnings", "revenue_amount"); ok {
		revenue = &v
	}

	currency := firstString(m, "currency")
	if currency == "" {
		currency = entity.DefaultCurrency
	}

	territory := truncateTerritory(firstString(m, "country", "territory"))
	usageDate := parseUsageDate(firstString(m, "date", "usage_date"))

	reportingPeriod := cleanString(firstString(m, "reporting_period"))
	if reportingPeriod == nil {
		p := deriveReportingPeriod(usageDate)
		reportingPeriod = &p
	}

	sourceEventID := cleanString(firstString(m, "spotify_id", "source_event_id"))

	return &entity.NormalizedUsageEvent{
		EventID:          newEventID(),
		Source:           "spotify",
		SourceEventID:    sourceEventID,
		ISRC:             isrc,
		ISWC:             iswc,
		ReportedTitle:    title,
		ReportedArtist:   artist,
		ReportedAlbum:    album,
		UsageType:        entity.UsageTypeStream,
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
