package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Worker is a background loop owned by the portal process
type Worker interface {
	Start(ctx context.Context) error
	Stop() error
	Name() string
}

// statsReporter is implemented by workers that count reconciliation rounds
type statsReporter interface {
	Stats() (rounds, changed int, lastErr error)
}

// WorkerStatus is a point-in-time view of one worker, used by health checks
type WorkerStatus struct {
	Name      string `json:"name"`
	Rounds    int    `json:"rounds"`
	Changed   int    `json:"changed"`
	LastError string `json:"lastError,omitempty"`
}

// WorkerManager owns the cache reconciliation workers. Workers start in
// registration order and stop in reverse; a failed start unwinds the ones
// already running.
type WorkerManager struct {
	logger *zap.Logger

	mu      sync.RWMutex
	workers []Worker
	started []Worker
	running bool
	cancel  context.CancelFunc
}

// NewWorkerManager creates an empty manager
func NewWorkerManager(logger *zap.Logger) *WorkerManager {
	return &WorkerManager{logger: logger}
}

// Register adds w. Workers registered after StartAll are not started.
func (m *WorkerManager) Register(w Worker) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.workers = append(m.workers, w)
	m.logger.Debug("Worker registered", zap.String("worker", w.Name()))
}

// StartAll starts every registered worker under a context derived from ctx
func (m *WorkerManager) StartAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return fmt.Errorf("workers already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.started = m.started[:0]
	for _, w := range m.workers {
		if err := w.Start(runCtx); err != nil {
			m.logger.Error("Worker failed to start", zap.String("worker", w.Name()), zap.Error(err))
			cancel()
			stopErr := stopReverse(m.started, m.logger)
			m.started = nil
			return errors.Join(fmt.Errorf("start %s: %w", w.Name(), err), stopErr)
		}
		m.started = append(m.started, w)
	}

	m.cancel = cancel
	m.running = true
	m.logger.Info("Reconciliation workers running", zap.Int("count", len(m.started)))
	return nil
}

// StopAll cancels the workers' context and waits for each to stop. Stopping
// an idle manager is a no-op.
func (m *WorkerManager) StopAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return nil
	}
	m.running = false
	m.cancel()

	err := stopReverse(m.started, m.logger)
	m.started = nil
	if err != nil {
		return err
	}
	m.logger.Info("Reconciliation workers stopped")
	return nil
}

func stopReverse(workers []Worker, logger *zap.Logger) error {
	var errs []error
	for i := len(workers) - 1; i >= 0; i-- {
		w := workers[i]
		if err := w.Stop(); err != nil {
			logger.Error("Worker failed to stop", zap.String("worker", w.Name()), zap.Error(err))
			errs = append(errs, fmt.Errorf("stop %s: %w", w.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Snapshot reports the round counters of every registered worker
func (m *WorkerManager) Snapshot() []WorkerStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]WorkerStatus, 0, len(m.workers))
	for _, w := range m.workers {
		status := WorkerStatus{Name: w.Name()}
		if r, ok := w.(statsReporter); ok {
			var lastErr error
			status.Rounds, status.Changed, lastErr = r.Stats()
			if lastErr != nil {
				status.LastError = lastErr.Error()
			}
		}
		out = append(out, status)
	}
	return out
}

// GetWorkerCount returns the number of registered workers
func (m *WorkerManager) GetWorkerCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.workers)
}

// IsRunning reports whether StartAll succeeded and StopAll has not run since
func (m *WorkerManager) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}
