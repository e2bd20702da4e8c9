package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"realty-listings/internal/cleanup"
	"realty-listings/internal/config"
	"realty-listings/internal/models"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Job names, also accepted by RunNow
const (
	JobSessionSweep  = "session_sweep"
	JobSystemMetrics = "system_metrics"
	JobRetention     = "retention"
)

// ErrUnknownJob is returned by RunNow for a name it does not know
var ErrUnknownJob = errors.New("unknown job")

// SessionSweeper deactivates expired sessions
type SessionSweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// SystemStore persists a runtime snapshot
type SystemStore interface {
	Store(ctx context.Context) (*models.SystemMetric, error)
}

// RequestFlusher persists buffered request metrics
type RequestFlusher interface {
	Flush(ctx context.Context) (int, error)
}

// RetentionPurger removes old operational rows
type RetentionPurger interface {
	PurgeRetention(ctx context.Context, cfg cleanup.RetentionConfig, now time.Time) (*cleanup.RetentionResult, error)
}

// Pruner drops expired in-memory state (rate-limit windows, caches)
type Pruner interface {
	Prune() int
}

// Jobs are the collaborators the scheduled jobs call; nil members are skipped
type Jobs struct {
	Sessions  SessionSweeper
	System    SystemStore
	Requests  RequestFlusher
	Retention RetentionPurger
	Pruners   []Pruner
}

// Scheduler handles periodic maintenance tasks
type Scheduler struct {
	cron      *cron.Cron
	config    config.SchedulerConfig
	jobs      Jobs
	timeout   time.Duration
	mu        sync.Mutex
	isRunning bool
}

// NewScheduler creates a new scheduler
func NewScheduler(cfg config.SchedulerConfig, jobs Jobs) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		config:  cfg,
		jobs:    jobs,
		timeout: 2 * time.Minute,
	}
}

// Start registers the jobs and starts the cron loop
func (s *Scheduler) Start() error {
	if !s.config.Enabled {
		log.Info().Msg("scheduler disabled in configuration")
		return nil
	}

	entries := []struct {
		name string
		spec string
	}{
		{JobSessionSweep, s.config.SessionSweepSpec},
		{JobSystemMetrics, s.config.SystemMetricsSpec},
		{JobRetention, s.config.RetentionSpec},
	}
	for _, e := range entries {
		if e.spec == "" {
			continue
		}
		name := e.name
		spec := cronSpec(e.spec)
		if _, err := s.cron.AddFunc(spec, func() { s.run(name) }); err != nil {
			return fmt.Errorf("schedule %s (%q): %w", name, spec, err)
		}
		log.Info().Str("job", name).Str("cron", spec).Msg("job scheduled")
	}

	s.mu.Lock()
	s.cron.Start()
	s.isRunning = true
	s.mu.Unlock()
	log.Info().Msg("scheduler started")
	return nil
}

// Stop stops the scheduler and waits for running jobs up to ctx's deadline
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	s.mu.Unlock()

	select {
	case <-s.cron.Stop().Done():
		log.Info().Msg("scheduler stopped")
	case <-ctx.Done():
		log.Warn().Msg("scheduler stop timed out with jobs still running")
	}
}

// RunNow executes one job immediately
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	switch name {
	case JobSessionSweep:
		return s.sweepSessions(ctx)
	case JobSystemMetrics:
		return s.storeMetrics(ctx)
	case JobRetention:
		return s.purge(ctx)
	}
	return fmt.Errorf("%w %q", ErrUnknownJob, name)
}

func (s *Scheduler) run(name string) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("job", name).Interface("panic", r).Msg("scheduled job panicked")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	if err := s.RunNow(ctx, name); err != nil {
		log.Error().Err(err).Str("job", name).Msg("scheduled job failed")
		return
	}
	log.Debug().Str("job", name).Dur("took", time.Since(start)).Msg("scheduled job completed")
}

func (s *Scheduler) sweepSessions(ctx context.Context) error {
	if s.jobs.Sessions == nil {
		return nil
	}
	n, err := s.jobs.Sessions.SweepExpired(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		log.Info().Int64("sessions", n).Msg("expired sessions deactivated")
	}
	return nil
}

func (s *Scheduler) storeMetrics(ctx context.Context) error {
	if s.jobs.Requests != nil {
		if n, err := s.jobs.Requests.Flush(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to flush request metrics")
		} else if n > 0 {
			log.Debug().Int("rows", n).Msg("request metrics flushed")
		}
	}
	if s.jobs.System == nil {
		return nil
	}
	_, err := s.jobs.System.Store(ctx)
	return err
}

func (s *Scheduler) purge(ctx context.Context) error {
	for _, p := range s.jobs.Pruners {
		p.Prune()
	}
	if s.jobs.Retention == nil {
		return nil
	}
	_, err := s.jobs.Retention.PurgeRetention(ctx, cleanup.RetentionConfig{
		LogDays:    s.config.LogRetentionDays,
		MetricDays: s.config.MetricRetentionDays,
	}, time.Now().UTC())
	return err
}

// cronSpec accepts either a cron expression or a daily "HH:MM" time
// Example: "03:30" -> "30 3 * * *"
func cronSpec(spec string) string {
	var hour, minute int
	var rest string
	n, _ := fmt.Sscanf(spec, "%d:%d%s", &hour, &minute, &rest)
	if n == 2 && hour >= 0 && hour < 24 && minute >= 0 && minute < 60 {
		return fmt.Sprintf("%d %d * * *", minute, hour)
	}
	return spec
}
