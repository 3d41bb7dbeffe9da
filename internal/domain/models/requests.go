package models

// RunRequest parameterizes a pipeline run.
type RunRequest struct {
	From     string `query:"from"`
	To       string `query:"to"`
	Mode     string `query:"mode" validate:"omitempty,oneof=test live"`
	CallerID string `query:"caller_id"`
}

// SignalsRequest queries the latest signal per symbol or a symbol's history.
type SignalsRequest struct {
	Symbol string `query:"symbol"`
	Limit  int    `query:"limit" default:"50" validate:"gte=1,lte=500"`
}

// UsageRequest scopes a usage summary to a caller.
type UsageRequest struct {
	CallerID string `query:"caller_id"`
}

// ResetUsageRequest resets counters. Only honored in test mode.
type ResetUsageRequest struct {
	Service  string `query:"service"`
	CallerID string `query:"caller_id"`
}
