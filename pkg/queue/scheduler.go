package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// SchedulerConfig holds scheduler settings.
type SchedulerConfig struct {
	Addr     string
	Password string
	DB       int
	Interval time.Duration
	LockTTL  time.Duration
}

// Scheduler runs registered jobs on a fixed interval, using a redis lock so
// that only one process in a deployment executes a given job per tick.
type Scheduler struct {
	rdb      *redis.Client
	interval time.Duration
	lockTTL  time.Duration

	mu      sync.Mutex
	jobs    []Job
	stopCh  chan struct{}
	started bool
	onError func(job string, err error)
}

// NewScheduler creates a scheduler and verifies the redis connection.
func NewScheduler(cfg *SchedulerConfig) (*Scheduler, error) {
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("interval must be positive")
	}
	lockTTL := cfg.LockTTL
	if lockTTL <= 0 {
		lockTTL = cfg.Interval
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Scheduler{
		rdb:      rdb,
		interval: cfg.Interval,
		lockTTL:  lockTTL,
		stopCh:   make(chan struct{}),
	}, nil
}

// Register adds a job. Must be called before Start.
func (s *Scheduler) Register(j Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, j)
}

// OnError sets an error callback for failed job runs.
func (s *Scheduler) OnError(fn func(job string, err error)) {
	s.onError = fn
}

// Start launches the scheduling loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopCh:
				return
			case <-ticker.C:
				s.runOnce(ctx)
			}
		}
	}()
}

// Stop terminates the scheduling loop and closes the redis connection.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if s.started {
		close(s.stopCh)
		s.started = false
	}
	s.mu.Unlock()
	return s.rdb.Close()
}

func (s *Scheduler) runOnce(ctx context.Context) {
	s.mu.Lock()
	jobs := make([]Job, len(s.jobs))
	copy(jobs, s.jobs)
	s.mu.Unlock()

	for _, j := range jobs {
		lockKey := "sched:lock:" + j.Name()
		ok, err := s.rdb.SetNX(ctx, lockKey, time.Now().UTC().Format(time.RFC3339), s.lockTTL).Result()
		if err != nil {
			s.fail(j.Name(), fmt.Errorf("acquire lock: %w", err))
			continue
		}
		if !ok {
			// another process holds the tick
			continue
		}

		if err := j.Handle(ctx); err != nil {
			s.fail(j.Name(), err)
		}
		s.rdb.Del(ctx, lockKey)
	}
}

func (s *Scheduler) fail(job string, err error) {
	if s.onError != nil {
		s.onError(job, err)
	}
}
