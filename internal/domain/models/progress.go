package models

import "time"

// Stage names used by the pipeline orchestrator.
const (
	StageStart     = "start"
	StageIngestion = "ingestion"
	StageMarket    = "market"
	StageScoring   = "scoring"
	StageSignals   = "signals"
	StageDone      = "done"
	StageError     = "error"
)

// ProgressEvent is one update on the pipeline run stream. Progress is
// monotonically non-decreasing within a run; the final event of every run
// has Done=true.
type ProgressEvent struct {
	Stage     string    `json:"stage"`
	Progress  int       `json:"progress"`
	Message   string    `json:"message"`
	Done      bool      `json:"done"`
	Timestamp time.Time `json:"timestamp"`
}
