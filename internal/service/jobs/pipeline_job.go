// Package jobs adapts pipeline work to the scheduler.
package jobs

import (
	"context"
	"errors"

	"CrowdPulse/internal/pipeline"
	"CrowdPulse/pkg/logger"
)

// PipelineJob runs one pipeline cycle per scheduler tick.
type PipelineJob struct {
	orch *pipeline.Orchestrator
	log  *logger.Logger
}

// NewPipelineJob creates the scheduled pipeline job.
func NewPipelineJob(orch *pipeline.Orchestrator, log *logger.Logger) *PipelineJob {
	return &PipelineJob{orch: orch, log: log}
}

func (j *PipelineJob) Name() string { return "pipeline_run" }

func (j *PipelineJob) Handle(ctx context.Context) error {
	summary, err := j.orch.Run(ctx, nil)
	if errors.Is(err, pipeline.ErrRunInProgress) {
		// a manual run is active, the tick just skips
		j.log.Info("scheduled run skipped, another run active")
		return nil
	}
	if err != nil {
		return err
	}
	j.log.Info("scheduled run finished",
		logger.Int("posts_scored", summary.PostsScored),
		logger.Int("signals", len(summary.Signals)),
		logger.Int("errors", len(summary.Errors)))
	return nil
}
