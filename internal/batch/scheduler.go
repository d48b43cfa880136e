// Package batch runs background jobs on cron schedules and on demand.
package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/jdon/coffeechat/internal/pkg/apperrors"
)

// ExecutionStatus is the outcome of one job run
type ExecutionStatus string

const (
	StatusStarted   ExecutionStatus = "STARTED"
	StatusCompleted ExecutionStatus = "COMPLETED"
	StatusFailed    ExecutionStatus = "FAILED"
)

// Params identify one run of a job
type Params struct {
	ExecutionID uuid.UUID
	Timestamp   time.Time
}

// Job is a unit of batch work
type Job interface {
	Name() string
	Run(ctx context.Context, params Params) error
}

// Execution records one run of a job
type Execution struct {
	ID         uuid.UUID       `json:"id"`
	Job        string          `json:"job"`
	StartedAt  time.Time       `json:"startedAt"`
	FinishedAt time.Time       `json:"finishedAt"`
	Status     ExecutionStatus `json:"status"`
	Err        error           `json:"-"`
}

// Duration returns how long the run took
func (e *Execution) Duration() time.Duration {
	return e.FinishedAt.Sub(e.StartedAt)
}

// Scheduler wraps a cron runner and guarantees at most one concurrent run per job.
type Scheduler struct {
	cron    *cron.Cron
	timeout time.Duration
	logger  zerolog.Logger
	now     func() time.Time

	mu      sync.Mutex
	jobs    map[string]Job
	running map[string]bool
}

// NewScheduler creates a scheduler whose cron specs include a seconds field.
// A zero timeout leaves runs unbounded.
func NewScheduler(timeout time.Duration, logger zerolog.Logger) *Scheduler {
	cronLog := cronLogger{logger: logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog)),
		),
		timeout: timeout,
		logger:  logger,
		now:     time.Now,
		jobs:    make(map[string]Job),
		running: make(map[string]bool),
	}
}

// Register adds a job. An empty spec registers it for manual triggering only.
func (s *Scheduler) Register(spec string, job Job) error {
	s.mu.Lock()
	if _, exists := s.jobs[job.Name()]; exists {
		s.mu.Unlock()
		return fmt.Errorf("batch job %q already registered", job.Name())
	}
	s.jobs[job.Name()] = job
	s.mu.Unlock()

	if spec == "" {
		return nil
	}

	name := job.Name()
	if _, err := s.cron.AddFunc(spec, func() {
		if _, err := s.Trigger(context.Background(), name); err != nil {
			s.logger.Warn().Err(err).Str("job", name).Msg("Scheduled run skipped")
		}
	}); err != nil {
		s.mu.Lock()
		delete(s.jobs, name)
		s.mu.Unlock()
		return fmt.Errorf("invalid cron spec %q for job %s: %w", spec, name, err)
	}

	s.logger.Info().Str("job", name).Str("cron", spec).Msg("Batch job scheduled")
	return nil
}

// Start begins running scheduled jobs in the background
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info().Int("entries", len(s.cron.Entries())).Msg("Batch scheduler started")
}

// Stop halts the schedule and waits for running jobs until ctx is done
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info().Msg("Batch scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Trigger runs a job now and returns its execution once it has finished. A job failure is
// reported on the execution; the returned error is only for runs that never started.
func (s *Scheduler) Trigger(ctx context.Context, name string) (*Execution, error) {
	s.mu.Lock()
	job, ok := s.jobs[name]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", apperrors.ErrJobNotFound, name)
	}
	if s.running[name] {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", apperrors.ErrJobAlreadyRunning, name)
	}
	s.running[name] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.running, name)
		s.mu.Unlock()
	}()

	exec := &Execution{
		ID:        uuid.New(),
		Job:       name,
		StartedAt: s.now().UTC(),
		Status:    StatusStarted,
	}
	log := s.logger.With().Str("job", name).Str("executionID", exec.ID.String()).Logger()
	log.Info().Msg("Batch job started")

	runCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	err := s.run(runCtx, job, Params{ExecutionID: exec.ID, Timestamp: exec.StartedAt})
	exec.FinishedAt = s.now().UTC()
	if err != nil {
		exec.Status = StatusFailed
		exec.Err = err
		log.Error().Err(err).Dur("duration", exec.Duration()).Msg("Batch job failed")
	} else {
		exec.Status = StatusCompleted
		log.Info().Dur("duration", exec.Duration()).Msg("Batch job completed")
	}
	return exec, nil
}

func (s *Scheduler) run(ctx context.Context, job Job, params Params) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("batch job %s panicked: %v", job.Name(), r)
		}
	}()
	return job.Run(ctx, params)
}

// cronLogger adapts zerolog to the cron.Logger interface
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
