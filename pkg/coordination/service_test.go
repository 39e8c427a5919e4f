package coordination

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/flowmesh/jetcoord/pkg/clock"
	"github.com/flowmesh/jetcoord/pkg/model"
)

func TestLocalServiceDedupsRestarts(t *testing.T) {
	clk := clock.NewMock()

	var mu sync.Mutex
	var restarted []model.JobID
	restartCh := make(chan struct{}, 10)

	svc := NewLocalService(clk, func(jobID model.JobID) {
		mu.Lock()
		restarted = append(restarted, jobID)
		mu.Unlock()
		restartCh <- struct{}{}
	}, func(model.JobID, int64, error) error { return nil })
	defer svc.Close()

	svc.ScheduleRestart(1)
	svc.ScheduleRestart(1)
	svc.ScheduleRestart(1)

	clk.Add(200 * time.Millisecond)

	select {
	case <-restartCh:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for restart")
	}

	mu.Lock()
	require.Equal(t, []model.JobID{1}, restarted)
	mu.Unlock()
}

func TestLocalServiceRestartJobImmediate(t *testing.T) {
	clk := clock.NewMock()
	done := make(chan model.JobID, 1)

	svc := NewLocalService(clk, func(jobID model.JobID) {
		done <- jobID
	}, func(model.JobID, int64, error) error { return nil })
	defer svc.Close()

	svc.RestartJob(42)

	select {
	case jobID := <-done:
		require.Equal(t, model.JobID(42), jobID)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for restart")
	}
}

func TestLocalServiceCompleteJob(t *testing.T) {
	clk := clock.NewMock()
	var gotErr error
	var gotJobID model.JobID

	svc := NewLocalService(clk, func(model.JobID) {}, func(jobID model.JobID, _ int64, failure error) error {
		gotJobID = jobID
		gotErr = failure
		return nil
	})
	defer svc.Close()

	future := svc.CompleteJob(7, 1234, nil)
	require.NoError(t, future.Wait(context.Background()))
	require.Equal(t, model.JobID(7), gotJobID)
	require.NoError(t, gotErr)
}

func TestLocalExecutionServiceSchedule(t *testing.T) {
	clk := clock.NewMock()
	svc := NewLocalExecutionService(clk)

	fired := make(chan struct{})
	svc.Schedule(100*time.Millisecond, func() { close(fired) })

	clk.Add(100 * time.Millisecond)

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled task did not fire")
	}
}

func TestLocalExecutionServiceAsync(t *testing.T) {
	clk := clock.NewMock()
	svc := NewLocalExecutionService(clk)

	done := make(chan struct{})
	svc.Async(func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("async task did not run")
	}
}
