package models

import "time"

// DivergenceDirection classifies the divergence z-score.
type DivergenceDirection string

const (
	DirectionHype    DivergenceDirection = "hype"
	DirectionPanic   DivergenceDirection = "panic"
	DirectionNeutral DivergenceDirection = "neutral"
)

// DivergenceSignal is one computed signal for a symbol. Rows are append-only:
// each computation cycle inserts a new row, forming a time series per symbol.
type DivergenceSignal struct {
	ID                uint                `json:"id" gorm:"primaryKey"`
	Symbol            string              `json:"symbol" gorm:"index;size:32"`
	Timestamp         time.Time           `json:"timestamp" gorm:"index"`
	SentimentAvg      float64             `json:"sentiment_avg"`
	DiscussionVolume  int                 `json:"discussion_volume"`
	SentimentVelocity float64             `json:"sentiment_velocity"`
	VelocityWindowMin int                 `json:"velocity_window_minutes"`
	DivergenceScore   float64             `json:"divergence_score"`
	Direction         DivergenceDirection `json:"divergence_direction" gorm:"column:divergence_direction;size:8"`
	Confidence        float64             `json:"confidence"`
	ModelCertainty    float64             `json:"model_certainty"`
	DataSufficiency   float64             `json:"data_sufficiency"`
	SignalConsistency float64             `json:"signal_consistency"`
	DataSource        DataMode            `json:"data_source" gorm:"index;size:8"`
}

// UsageLogEntry records one recorded or blocked external call for audit.
type UsageLogEntry struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	Service    string    `json:"service" gorm:"index;size:32"`
	Status     string    `json:"status" gorm:"size:16"` // recorded or blocked
	ScopeKey   string    `json:"scope_key" gorm:"size:64"`
	DailyCount int       `json:"daily_count"`
	DailyLimit int       `json:"daily_limit"`
	CallerID   string    `json:"caller_id" gorm:"size:64"`
	CreatedAt  time.Time `json:"created_at"`
}
