package queue

import "context"

// Job defines a scheduled job.
type Job interface {
	// Name returns the unique identifier of the job. It is also used as the
	// redis lock key, so two processes sharing a redis never run the same
	// job concurrently.
	Name() string

	// Handle executes one run of the job.
	Handle(ctx context.Context) error
}
