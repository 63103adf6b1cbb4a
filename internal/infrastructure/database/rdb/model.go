package rdb

import (
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/uptrace/bun"

	"github.com/liverty-music/usage-matching/internal/entity"
)

// UsageEventModel is the database model for usage_events, the pipeline's own
// event store table.
type UsageEventModel struct {
	bun.BaseModel `bun:"table:usage_events,alias:ue"`

	EventID          string            `bun:",pk,type:uuid"`
	Source           string            `bun:",notnull,type:varchar(50)"`
	SourceEventID    *string           `bun:"source_event_id,type:varchar(255)"`
	ISRC             *string           `bun:"isrc,type:varchar(12)"`
	ISWC             *string           `bun:"iswc,type:varchar(32)"`
	ReportedTitle    *string           `bun:"reported_title,type:text"`
	ReportedArtist   *string           `bun:"reported_artist,type:text"`
	ReportedAlbum    *string           `bun:"reported_album,type:text"`
	UsageType        string            `bun:",notnull,type:varchar(30)"`
	PlayCount        int               `bun:",notnull"`
	Revenue          *float64          `bun:"revenue,type:numeric"`
	Currency         string            `bun:",notnull,type:varchar(3)"`
	Territory        *string           `bun:"territory,type:varchar(5)"`
	UsageDate        time.Time         `bun:",notnull,type:date"`
	ReportingPeriod  *string           `bun:"reporting_period,type:varchar(20)"`
	IngestedAt       time.Time         `bun:",nullzero,notnull,default:current_timestamp"`
	ProcessingStatus string            `bun:",notnull,type:varchar(20),default:'pending'"`
	ContentEmbedding *pgvector.Vector  `bun:"content_embedding,type:vector(1536)"`
	ProcessedAt      *time.Time        `bun:"processed_at"`
}

// ToEntity converts the database model to the domain entity.
func (m *UsageEventModel) ToEntity() *entity.NormalizedUsageEvent {
	e := &entity.NormalizedUsageEvent{
		EventID:          m.EventID,
		Source:           m.Source,
		SourceEventID:    m.SourceEventID,
		ISRC:             m.ISRC,
		ISWC:             m.ISWC,
		ReportedTitle:    m.ReportedTitle,
		ReportedArtist:   m.ReportedArtist,
		ReportedAlbum:    m.ReportedAlbum,
		UsageType:        entity.UsageType(m.UsageType),
		PlayCount:        m.PlayCount,
		Revenue:          m.Revenue,
		Currency:         m.Currency,
		Territory:        m.Territory,
		UsageDate:        m.UsageDate,
		ReportingPeriod:  m.ReportingPeriod,
		IngestedAt:       m.IngestedAt,
		ProcessingStatus: entity.ProcessingStatus(m.ProcessingStatus),
		ProcessedAt:      m.ProcessedAt,
	}
	if m.ContentEmbedding != nil {
		e.ContentEmbedding = m.ContentEmbedding.Slice()
	}
	return e
}

// FromEntity builds the database model for a newly normalized event.
func FromEntity(e *entity.NormalizedUsageEvent) *UsageEventModel {
	m := &UsageEventModel{
		EventID:          e.EventID,
		Source:           e.Source,
		SourceEventID:    e.SourceEventID,
		ISRC:             e.ISRC,
		ISWC:             e.ISWC,
		ReportedTitle:    e.ReportedTitle,
		ReportedArtist:   e.ReportedArtist,
		ReportedAlbum:    e.ReportedAlbum,
		UsageType:        string(e.UsageType),
		PlayCount:        e.PlayCount,
		Revenue:          e.Revenue,
		Currency:         e.Currency,
		Territory:        e.Territory,
		UsageDate:        e.UsageDate,
		ReportingPeriod:  e.ReportingPeriod,
		ProcessingStatus: string(e.ProcessingStatus),
		ProcessedAt:      e.ProcessedAt,
	}
	if e.ContentEmbedding != nil {
		v := pgvector.NewVector(e.ContentEmbedding)
		m.ContentEmbedding = &v
	}
	return m
}

// MatchModel is the database model for matched_usage, the pipeline's own
// match-outcome table.
type MatchModel struct {
	bun.BaseModel `bun:"table:matched_usage,alias:mu"`

	ID           string     `bun:",pk,type:uuid,nullzero,default:gen_random_uuid()"`
	UsageEventID string     `bun:"usage_event_id,notnull,type:uuid"`
	WorkID       string     `bun:"work_id,notnull,type:uuid"`
	RecordingID  *string    `bun:"recording_id,type:uuid"`
	Confidence   float64    `bun:",notnull,type:numeric"`
	Method       string     `bun:",notnull,type:varchar(30)"`
	MatchedBy    string     `bun:"matched_by,notnull,type:varchar(100)"`
	IsConfirmed  bool       `bun:"is_confirmed,notnull,default:false"`
	ConfirmedAt  *time.Time `bun:"confirmed_at"`
	MatchedAt    time.Time  `bun:"matched_at,nullzero,notnull,default:current_timestamp"`
}

// ToEntity converts the database model to the domain entity.
func (m *MatchModel) ToEntity() *entity.Match {
	return &entity.Match{
		ID:           m.ID,
		UsageEventID: m.UsageEventID,
		WorkID:       m.WorkID,
		RecordingID:  m.RecordingID,
		Confidence:   m.Confidence,
		Method:       entity.MatchMethod(m.Method),
		MatchedBy:    m.MatchedBy,
		IsConfirmed:  m.IsConfirmed,
		ConfirmedAt:  m.ConfirmedAt,
		MatchedAt:    m.MatchedAt,
	}
}

// FromMatch builds the database model for an insert/upsert.
func FromMatch(match *entity.Match) *MatchModel {
	return &MatchModel{
		ID:           match.ID,
		UsageEventID: match.UsageEventID,
		WorkID:       match.WorkID,
		RecordingID:  match.RecordingID,
		Confidence:   match.Confidence,
		Method:       string(match.Method),
		MatchedBy:    match.MatchedBy,
		IsConfirmed:  match.IsConfirmed,
		ConfirmedAt:  match.ConfirmedAt,
		MatchedAt:    match.MatchedAt,
	}
}

// WorkModel mirrors the read-only catalog table works. The pipeline never
// writes to it; external catalog services own its lifecycle.
type WorkModel struct {
	bun.BaseModel `bun:"table:works,alias:w"`

	ID              string           `bun:",pk,type:uuid"`
	Title           string           `bun:",notnull,type:text"`
	AlternateTitles []string         `bun:"alternate_titles,array,type:text[]"`
	ISWC            *string          `bun:"iswc,type:varchar(32)"`
	Status          string           `bun:",notnull,type:varchar(20)"`
	TitleEmbedding  *pgvector.Vector `bun:"title_embedding,type:vector(1536)"`
}

func (m *WorkModel) ToEntity() *entity.Work {
	w := &entity.Work{
		ID:              m.ID,
		Title:           m.Title,
		AlternateTitles: m.AlternateTitles,
		ISWC:            m.ISWC,
		Status:          entity.WorkStatus(m.Status),
	}
	if m.TitleEmbedding != nil {
		w.TitleEmbedding = m.TitleEmbedding.Slice()
	}
	return w
}

// RecordingModel mirrors the read-only catalog table recordings.
type RecordingModel struct {
	bun.BaseModel `bun:"table:recordings,alias:r"`

	ID         string  `bun:",pk,type:uuid"`
	WorkID     string  `bun:"work_id,notnull,type:uuid"`
	ISRC       *string `bun:"isrc,type:varchar(12)"`
	Title      string  `bun:",notnull,type:text"`
	ArtistName *string `bun:"artist_name,type:text"`
}

func (m *RecordingModel) ToEntity() *entity.Recording {
	return &entity.Recording{
		ID:         m.ID,
		WorkID:     m.WorkID,
		ISRC:       m.ISRC,
		Title:      m.Title,
		ArtistName: m.ArtistName,
	}
}

// workCandidateRow and recordingCandidateRow back the raw-SQL trigram/vector
// queries, which project only the columns a scored candidate needs.
type workCandidateRow struct {
	WorkID     string  `bun:"work_id"`
	Confidence float64 `bun:"confidence"`
}

type recordingCandidateRow struct {
	RecordingID string  `bun:"recording_id"`
	WorkID      string  `bun:"work_id"`
	Confidence  float64 `bun:"confidence"`
}
