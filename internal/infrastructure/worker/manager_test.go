package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockWorker struct {
	name      string
	startFunc func(ctx context.Context) error
	stopFunc  func() error
	log       *[]string
}

func (m *mockWorker) Start(ctx context.Context) error {
	*m.log = append(*m.log, "start "+m.name)
	if m.startFunc != nil {
		return m.startFunc(ctx)
	}
	return nil
}

func (m *mockWorker) Stop() error {
	*m.log = append(*m.log, "stop "+m.name)
	if m.stopFunc != nil {
		return m.stopFunc()
	}
	return nil
}

func (m *mockWorker) Name() string { return m.name }

func TestWorkerManager_StartStopOrder(t *testing.T) {
	var log []string
	var runCtx context.Context
	m := NewWorkerManager(zap.NewNop())
	m.Register(&mockWorker{name: "a", log: &log, startFunc: func(ctx context.Context) error {
		runCtx = ctx
		return nil
	}})
	m.Register(&mockWorker{name: "b", log: &log})

	require.NoError(t, m.StartAll(context.Background()))
	assert.True(t, m.IsRunning())
	assert.Error(t, m.StartAll(context.Background()), "second start is rejected")

	require.NoError(t, m.StopAll())
	assert.False(t, m.IsRunning())
	assert.ErrorIs(t, runCtx.Err(), context.Canceled)
	assert.Equal(t, []string{"start a", "start b", "stop b", "stop a"}, log)

	assert.NoError(t, m.StopAll(), "stopping an idle manager is a no-op")
	assert.Len(t, log, 4)
}

func TestWorkerManager_FailedStartUnwinds(t *testing.T) {
	tests := []struct {
		name    string
		stopErr error
		wantLog []string
	}{
		{"clean unwind", nil, []string{"start a", "start b", "stop a"}},
		{"unwind reports stop failure", errors.New("stuck"), []string{"start a", "start b", "stop a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var log []string
			boom := errors.New("no engine")
			m := NewWorkerManager(zap.NewNop())
			m.Register(&mockWorker{name: "a", log: &log, stopFunc: func() error { return tt.stopErr }})
			m.Register(&mockWorker{name: "b", log: &log, startFunc: func(ctx context.Context) error { return boom }})

			err := m.StartAll(context.Background())
			require.ErrorIs(t, err, boom)
			if tt.stopErr != nil {
				assert.ErrorIs(t, err, tt.stopErr)
			}
			assert.False(t, m.IsRunning())
			assert.Equal(t, tt.wantLog, log)

			assert.NoError(t, m.StopAll())
			assert.Equal(t, tt.wantLog, log, "nothing left to stop")
		})
	}
}

func TestWorkerManager_StopAllJoinsErrors(t *testing.T) {
	var log []string
	stuck := errors.New("stuck")
	m := NewWorkerManager(zap.NewNop())
	m.Register(&mockWorker{name: "a", log: &log, stopFunc: func() error { return stuck }})
	m.Register(&mockWorker{name: "b", log: &log})

	require.NoError(t, m.StartAll(context.Background()))
	err := m.StopAll()
	assert.ErrorIs(t, err, stuck)
	assert.Contains(t, err.Error(), "stop a")
	assert.False(t, m.IsRunning())
}

func TestWorkerManager_Snapshot(t *testing.T) {
	var log []string
	boom := errors.New("engine unreachable")
	syncer := NewTaskSyncer(TaskSyncerConfig{}, &mockRefresher{
		refreshFunc: func(ctx context.Context, limit int) (int, error) { return 2, boom },
	}, zap.NewNop())
	syncer.runOnce(context.Background())

	m := NewWorkerManager(zap.NewNop())
	m.Register(syncer)
	m.Register(&mockWorker{name: "plain", log: &log})

	assert.Equal(t, []WorkerStatus{
		{Name: "TaskSyncer", Rounds: 1, Changed: 2, LastError: "engine unreachable"},
		{Name: "plain"},
	}, m.Snapshot())
	assert.Equal(t, 2, m.GetWorkerCount())
}
