package normalize

import (
	"strings"
	"time"

	"github.com/liverty-music/usage-matching/internal/entity"
)

// AppleMusicNormalizer handles Apple Music/iTunes royalty statement payloads:
// song_name, container_name, apple_identifier, product_type_identifier,
// vendor_identifier, storefront, begin_date/end_date reporting windows.
type AppleMusicNormalizer struct{}

func (n *AppleMusicNormalizer) Normalize(raw entity.RawUsageEvent) (*entity.NormalizedUsageEvent, error) {
	m := raw.Payload

	isrc := cleanISRC(firstString(m, "isrc", "apple_identifier"))
	iswc := cleanISWC(firstString(m, "iswc"))
	title := cleanString(firstString(m, "song_name", "content_name", "title"))
	artist := cleanString(firstString(m, "artist_name", "artist"))
	album := cleanString(firstString(m, "container_name", "album_name", "album"))

	playCount, _ := firstInt(m, "play_count", "quantity")
	playCount = floorPlayCount(playCount)

	usageType := entity.UsageTypeStream
	if productType := strings.ToLower(firstString(m, "product_type_identifier")); productType != "" {
		if strings.Contains(productType, "download") || strings.Contains(productType, "purchase") {
			usageType = entity.UsageTypeDownload
		}
	}

	var revenue *float64
	if v, ok := firstFloat(m, "royalty_amount", "revenue_amount"); ok {
		revenue = &v
	}

	currency := firstString(m, "royalty_currency", "currency")
	if currency == "" {
		currency = entity.DefaultCurrency
	}

	territory := truncateTerritory(firstString(m, "storefront", "territory"))

	usageDate := parseUsageDate(firstString(m, "begin_date", "usage_date", "date"))

	var reportingPeriod *string
	beginDate := cleanString(firstString(m, "begin_date"))
	endDate := cleanString(firstString(m, "end_date"))
	switch {
	case beginDate != nil && endDate != nil:
		p := deriveReportingPeriod(parseUsageDate(*beginDate))
		reportingPeriod = &p
	case cleanString(firstString(m, "usage_date")) != nil:
		p := deriveReportingPeriod(parseUsageDate(firstString(m, "usage_date")))
		reportingPeriod = &p
	default:
		p := deriveReportingPeriod(usageDate)
		reportingPeriod = &p
	}

	sourceEventID := cleanString(firstString(m, "vendor_identifier", "source_event_id"))

	return &entity.NormalizedUsageEvent{
		EventID:          newEventID(),
		Source:           "apple_music",
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
