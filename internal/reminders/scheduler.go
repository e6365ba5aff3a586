package reminders

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const defaultJobTimeout = 5 * time.Minute

// Job is one reminder pass evaluated for the given instant.
type Job interface {
	RunAt(ctx context.Context, now time.Time) (int, error)
}

type Scheduler struct {
	cron       *cron.Cron
	job        Job
	logger     *zap.Logger
	jobTimeout time.Duration
	now        func() time.Time

	mu      sync.Mutex
	baseCtx context.Context
}

func NewScheduler(spec string, location *time.Location, job Job, logger *zap.Logger) (*Scheduler, error) {
	if job == nil {
		return nil, errors.New("reminder job is required")
	}
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("scheduler")

	scheduler := &Scheduler{
		job:        job,
		logger:     logger,
		jobTimeout: defaultJobTimeout,
		now:        time.Now,
		baseCtx:    context.Background(),
	}
	scheduler.cron = cron.New(
		cron.WithLocation(location),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{logger: logger.Sugar()})),
	)
	if _, err := scheduler.cron.AddFunc(spec, scheduler.runOnce); err != nil {
		return nil, fmt.Errorf("schedule reminders %q: %w", spec, err)
	}
	return scheduler, nil
}

// Run starts the cron engine and blocks until ctx is done, then waits for a running pass.
func (scheduler *Scheduler) Run(ctx context.Context) error {
	scheduler.mu.Lock()
	scheduler.baseCtx = ctx
	scheduler.mu.Unlock()

	scheduler.cron.Start()
	scheduler.logger.Info("reminder scheduler started", zap.Time("next_run", scheduler.NextRun()))

	<-ctx.Done()
	stopped := scheduler.cron.Stop()
	<-stopped.Done()
	scheduler.logger.Info("reminder scheduler stopped")
	return nil
}

func (scheduler *Scheduler) NextRun() time.Time {
	entries := scheduler.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (scheduler *Scheduler) runOnce() {
	scheduler.mu.Lock()
	base := scheduler.baseCtx
	scheduler.mu.Unlock()

	// The pass may still finish after shutdown starts; it gets its own deadline.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(base), scheduler.jobTimeout)
	defer cancel()

	started := scheduler.now()
	delivered, err := scheduler.job.RunAt(ctx, started)
	if err != nil {
		scheduler.logger.Error("reminder pass failed", zap.Error(err))
		return
	}
	scheduler.logger.Info("reminder pass finished",
		zap.Int("delivered", delivered),
		zap.Duration("elapsed", time.Since(started)),
	)
}

// cronLogger adapts zap to cron's logger interface.
type cronLogger struct {
	logger *zap.SugaredLogger
}

func (adapter cronLogger) Info(msg string, keysAndValues ...interface{}) {
	adapter.logger.Debugw(msg, keysAndValues...)
}

func (adapter cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	adapter.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}
