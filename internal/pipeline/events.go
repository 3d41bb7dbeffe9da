// Package pipeline orchestrates one end-to-end run: collect posts, refresh
// market bars, score sentiment, compute signals. Progress is streamed to the
// caller as events; stage failures are reported in the summary but never
// abort the remaining stages.
package pipeline

import (
	"time"

	"CrowdPulse/internal/domain/models"
)

// ProgressSink receives run events. Implementations must be fast or buffer;
// the orchestrator calls them inline.
type ProgressSink func(models.ProgressEvent)

// emitter enforces monotone progress and a single terminal event.
type emitter struct {
	sink     ProgressSink
	progress int
	done     bool
	now      func() time.Time
}

func newEmitter(sink ProgressSink, now func() time.Time) *emitter {
	if sink == nil {
		sink = func(models.ProgressEvent) {}
	}
	return &emitter{sink: sink, now: now}
}

func (e *emitter) emit(stage string, progress int, message string) {
	if e.done {
		return
	}
	if progress < e.progress {
		progress = e.progress
	}
	e.progress = progress
	e.sink(models.ProgressEvent{
		Stage:     stage,
		Progress:  progress,
		Message:   message,
		Timestamp: e.now().UTC(),
	})
}

func (e *emitter) finish(message string) {
	if e.done {
		return
	}
	e.done = true
	e.sink(models.ProgressEvent{
		Stage:     models.StageDone,
		Progress:  100,
		Message:   message,
		Done:      true,
		Timestamp: e.now().UTC(),
	})
}
