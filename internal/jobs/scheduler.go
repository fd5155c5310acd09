package jobs

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"anoa.com/localswap/pkg/apperror"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is a unit of periodic work. Schedule is a standard five-field cron
// expression; an empty schedule registers the job for on-demand runs only.
type Job struct {
	Name     string
	Schedule string
	Timeout  time.Duration
	Run      func(ctx context.Context) (any, error)
}

type entry struct {
	job  Job
	lock sync.Mutex
}

type Scheduler struct {
	cron    *cron.Cron
	entries map[string]*entry
	logger  *zap.Logger
}

func NewScheduler(logger *zap.Logger) *Scheduler {
	cl := cronLogger{logger.Sugar()}
	return &Scheduler{
		cron:    cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		entries: make(map[string]*entry),
		logger:  logger,
	}
}

func (s *Scheduler) Register(job Job) error {
	if _, exists := s.entries[job.Name]; exists {
		return fmt.Errorf("job %q already registered: %w", job.Name, apperror.ErrConflict)
	}
	e := &entry{job: job}

	if job.Schedule != "" {
		_, err := s.cron.AddFunc(job.Schedule, func() {
			if _, err := s.run(context.Background(), e); err != nil {
				s.logger.Error("scheduled job failed", zap.String("job", job.Name), zap.Error(err))
			}
		})
		if err != nil {
			return fmt.Errorf("failed to schedule %s: %w", job.Name, err)
		}
		s.logger.Info("job scheduled", zap.String("job", job.Name), zap.String("schedule", job.Schedule))
	}

	s.entries[job.Name] = e
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("job scheduler started", zap.Int("jobs", len(s.entries)))
}

// Stop halts scheduling and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
		s.logger.Info("job scheduler stopped")
	case <-ctx.Done():
		s.logger.Warn("job scheduler stop timed out")
	}
}

// RunByName runs a registered job now. A job that is already running, on
// schedule or by request, is rejected with ErrConflict.
func (s *Scheduler) RunByName(ctx context.Context, name string) (any, error) {
	e, ok := s.entries[name]
	if !ok {
		return nil, fmt.Errorf("job %q: %w", name, apperror.ErrNotFound)
	}
	return s.run(ctx, e)
}

func (s *Scheduler) Jobs() []string {
	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Scheduler) run(ctx context.Context, e *entry) (any, error) {
	if !e.lock.TryLock() {
		return nil, fmt.Errorf("job %q is already running: %w", e.job.Name, apperror.ErrConflict)
	}
	defer e.lock.Unlock()

	if e.job.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.job.Timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := e.job.Run(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("job completed",
		zap.String("job", e.job.Name),
		zap.Duration("took", time.Since(start)),
		zap.Any("result", result),
	)
	return result, nil
}

type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
