package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Refresher re-derives cached request statuses from the engine
type Refresher interface {
	RefreshOpen(ctx context.Context, limit int) (int, error)
}

// TaskSyncerConfig holds configuration for the task syncer
type TaskSyncerConfig struct {
	Interval     time.Duration
	BatchSize    int
	RoundTimeout time.Duration
}

// DefaultTaskSyncerConfig returns default configuration
func DefaultTaskSyncerConfig() TaskSyncerConfig {
	return TaskSyncerConfig{
		Interval:     30 * time.Second,
		BatchSize:    50,
		RoundTimeout: 60 * time.Second,
	}
}

// TaskSyncer periodically reconciles open requests with the engine
type TaskSyncer struct {
	config    TaskSyncerConfig
	refresher Refresher
	logger    *zap.Logger

	mu           sync.RWMutex
	ctx          context.Context
	cancel       context.CancelFunc
	done         chan struct{}
	isRunning    bool
	rounds       int
	changedCount int
	lastRun      time.Time
	lastError    error
}

// NewTaskSyncer creates a new task syncer
func NewTaskSyncer(config TaskSyncerConfig, refresher Refresher, logger *zap.Logger) *TaskSyncer {
	defaults := DefaultTaskSyncerConfig()
	if config.Interval <= 0 {
		config.Interval = defaults.Interval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = defaults.BatchSize
	}
	if config.RoundTimeout <= 0 {
		config.RoundTimeout = defaults.RoundTimeout
	}
	return &TaskSyncer{
		config:    config,
		refresher: refresher,
		logger:    logger,
	}
}

// Start begins the sync loop
func (s *TaskSyncer) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("task syncer already running")
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.isRunning = true
	s.mu.Unlock()

	s.logger.Info("TaskSyncer started",
		zap.Duration("interval", s.config.Interval),
		zap.Int("batch_size", s.config.BatchSize))

	go s.loop(s.ctx, s.done)
	return nil
}

// Stop cancels the loop and waits for the current round to finish
func (s *TaskSyncer) Stop() error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()
	<-done

	s.mu.RLock()
	defer s.mu.RUnlock()
	s.logger.Info("TaskSyncer stopped",
		zap.Int("rounds", s.rounds),
		zap.Int("changed_count", s.changedCount))
	return nil
}

// Name returns the worker name for identification
func (s *TaskSyncer) Name() string {
	return "TaskSyncer"
}

// Stats returns the number of completed rounds and status changes applied
func (s *TaskSyncer) Stats() (rounds, changed int, lastErr error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rounds, s.changedCount, s.lastError
}

func (s *TaskSyncer) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

// runOnce performs one reconciliation round
func (s *TaskSyncer) runOnce(ctx context.Context) {
	roundCtx, cancel := context.WithTimeout(ctx, s.config.RoundTimeout)
	defer cancel()

	changed, err := s.refresher.RefreshOpen(roundCtx, s.config.BatchSize)
	if err != nil && ctx.Err() == nil {
		s.logger.Error("Task sync round failed", zap.Error(err))
	}
	if changed > 0 {
		s.logger.Info("Task sync round applied changes", zap.Int("changed", changed))
	}

	s.mu.Lock()
	s.rounds++
	s.changedCount += changed
	s.lastRun = time.Now()
	s.lastError = err
	s.mu.Unlock()
}
