package models

import "time"

// SourceKind identifies a social data source.
type SourceKind string

const (
	SourceTelegram SourceKind = "telegram"
	SourceYouTube  SourceKind = "youtube"
	SourceTwitter  SourceKind = "twitter"
	SourceReddit   SourceKind = "reddit"
)

// AllSources lists sources in ingestion order.
var AllSources = []SourceKind{SourceTelegram, SourceYouTube, SourceTwitter, SourceReddit}

// DataMode tags rows as produced by the simulation or the live pipeline.
type DataMode string

const (
	ModeTest DataMode = "test"
	ModeLive DataMode = "live"
)

// RawPostCandidate is what a collector returns before dedup and persistence.
type RawPostCandidate struct {
	Source   SourceKind
	SourceID string
	Text     string
	Author   string
	PostedAt time.Time
}

// SocialPost is a stored social media post. Immutable after insert except
// for the Symbol and CleanedText backfill done during scoring.
type SocialPost struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	Source      SourceKind `json:"source" gorm:"index;size:16"`
	SourceID    string     `json:"source_id" gorm:"uniqueIndex;size:255"`
	Symbol      string     `json:"symbol" gorm:"index;size:32"`
	RawText     string     `json:"raw_text"`
	CleanedText string     `json:"cleaned_text"`
	Author      string     `json:"author" gorm:"size:128"`
	PostedAt    time.Time  `json:"posted_at" gorm:"index"`
	IngestedAt  time.Time  `json:"ingested_at"`
	DataSource  DataMode   `json:"data_source" gorm:"index;size:8"`
}

// SentimentLabel is one of positive, negative, neutral.
type SentimentLabel string

const (
	LabelPositive SentimentLabel = "positive"
	LabelNegative SentimentLabel = "negative"
	LabelNeutral  SentimentLabel = "neutral"
)

// SentimentRecord holds the scored sentiment for one post. At most one record
// exists per post; records are never updated.
type SentimentRecord struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	PostID     uint           `json:"post_id" gorm:"uniqueIndex"`
	Symbol     string         `json:"symbol" gorm:"index;size:32"`
	Label      SentimentLabel `json:"label" gorm:"size:16"`
	Score      float64        `json:"score"`
	Scorer     string         `json:"scorer" gorm:"size:32"`
	ObservedAt time.Time      `json:"observed_at" gorm:"index"` // when the post was published
	ScoredAt   time.Time      `json:"scored_at"`
	DataSource DataMode       `json:"data_source" gorm:"index;size:8"`
}

// ScoreResult is the scorer output for one text.
type ScoreResult struct {
	Label      SentimentLabel `json:"label"`
	Confidence float64        `json:"confidence"`
	Scorer     string         `json:"scorer"`
}

// SkipReason explains why an external call was not made.
type SkipReason string

const (
	SkipNone           SkipReason = ""
	SkipNotConfigured  SkipReason = "not_configured"
	SkipQuotaExceeded  SkipReason = "quota_exceeded"
	SkipTransportError SkipReason = "transport_error"
)

// IngestResult summarizes one source's ingestion. A collector failure is
// reported here, not raised: one source must never block another.
type IngestResult struct {
	Source  SourceKind `json:"source"`
	Stored  int        `json:"stored"`
	Skipped int        `json:"skipped"`
	Reason  SkipReason `json:"reason,omitempty"`
	Err     string     `json:"error,omitempty"`
}
