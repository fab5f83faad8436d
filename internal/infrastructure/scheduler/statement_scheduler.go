// Package scheduler triggers statement generation runs on a daily cadence.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vaultwrx/billing/internal/application/statement"
	infraconfig "github.com/vaultwrx/billing/internal/infrastructure/config"
	"go.uber.org/zap"
)

// cronTickerInterval is the interval at which the scheduler checks the clock
const cronTickerInterval = 1 * time.Minute

// ErrSchedulerNotRunning is returned when a trigger arrives before Start
var ErrSchedulerNotRunning = errors.New("scheduler is not running")

// BulkGenerator runs a full statement generation pass for every active
// retailer and customer.
type BulkGenerator interface {
	GenerateAll(ctx context.Context, date time.Time) (*statement.BulkResult, error)
}

// StatementScheduler fires GenerateAll at the configured wall-clock times.
// It checks once a minute against the configured timezone, so both runs
// track daylight saving transitions without restarts.
type StatementScheduler struct {
	generator BulkGenerator
	runTimes  []infraconfig.WallClock
	location  *time.Location
	logger    *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	lastRunAt *time.Time
	nextRunAt *time.Time
}

// NewStatementScheduler creates a scheduler from the scheduler configuration
func NewStatementScheduler(cfg *infraconfig.SchedulerConfig, generator BulkGenerator, logger *zap.Logger) *StatementScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatementScheduler{
		generator: generator,
		runTimes:  cfg.RunTimes(),
		location:  cfg.Location(),
		logger:    logger,
	}
}

// Start starts the scheduler loop
func (s *StatementScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.calculateNextRunTime(time.Now())

	s.wg.Add(1)
	go s.cronLoop(ctx)

	s.logger.Info("Statement scheduler started",
		zap.String("timezone", s.location.String()),
		zap.Timep("next_run_at", s.nextRunAt),
	)

	return nil
}

// Stop stops the scheduler and waits for an in-flight run to finish
func (s *StatementScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Statement scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Statement scheduler stop timed out")
		return ctx.Err()
	}
}

// cronLoop runs the main scheduler loop
func (s *StatementScheduler) cronLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(cronTickerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			local := now.In(s.location)
			if s.shouldRun(local) {
				s.runGeneration(ctx, local)
				s.calculateNextRunTime(now)
			}
		}
	}
}

// shouldRun checks whether the local time matches one of the run times
func (s *StatementScheduler) shouldRun(local time.Time) bool {
	for _, rt := range s.runTimes {
		if local.Hour() == rt.Hour && local.Minute() == rt.Minute {
			return true
		}
	}
	return false
}

// calculateNextRunTime records the earliest upcoming run time
func (s *StatementScheduler) calculateNextRunTime(now time.Time) {
	local := now.In(s.location)

	var next time.Time
	for _, rt := range s.runTimes {
		candidate := time.Date(local.Year(), local.Month(), local.Day(), rt.Hour, rt.Minute, 0, 0, s.location)
		if !candidate.After(local) {
			candidate = candidate.AddDate(0, 0, 1)
		}
		if next.IsZero() || candidate.Before(next) {
			next = candidate
		}
	}

	s.mu.Lock()
	s.nextRunAt = &next
	s.mu.Unlock()
}

// runGeneration runs a full generation pass for the current date
func (s *StatementScheduler) runGeneration(ctx context.Context, local time.Time) {
	s.logger.Info("Starting scheduled statement generation", zap.Time("date", local))

	now := time.Now()
	s.mu.Lock()
	s.lastRunAt = &now
	s.mu.Unlock()

	result, err := s.generator.GenerateAll(ctx, local)
	if err != nil {
		s.logger.Error("Scheduled statement generation failed", zap.Error(err))
		return
	}

	s.logger.Info("Scheduled statement generation finished",
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed),
	)
}

// TriggerManualRun kicks off a generation pass outside the schedule.
// Uses a background context so the run survives the triggering request.
func (s *StatementScheduler) TriggerManualRun(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.mu.Unlock()

	go s.runGeneration(context.Background(), time.Now().In(s.location))
	return nil
}

// GetNextRunAt returns when the next scheduled run will occur
func (s *StatementScheduler) GetNextRunAt() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextRunAt
}

// GetLastRunAt returns when the last run occurred
func (s *StatementScheduler) GetLastRunAt() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRunAt
}
