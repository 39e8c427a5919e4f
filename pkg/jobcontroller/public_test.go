package jobcontroller

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/flowmesh/jetcoord/pkg/cluster"
	"github.com/flowmesh/jetcoord/pkg/model"
)

func TestMaybeScaleUpNoOpWhenAutoScalingDisabled(t *testing.T) {
	h := newHarness(t, model.JobConfig{AutoScaling: false})

	// Block StartExecution's reply so the job stays Running for the
	// duration of the test instead of racing straight to Completed, as
	// TestForcefulCancelWhileRunning does.
	gate := make(chan struct{})
	defer close(gate)
	h.invoker.startResponse = func(model.MemberInfo) cluster.Response {
		<-gate
		return cluster.Success(model.RawJobMetrics{})
	}

	h.controller.TryStartJob(nil)
	waitStatus(t, h.controller, model.Running, 2*time.Second)

	require.True(t, h.controller.MaybeScaleUp(5))
	require.Equal(t, model.Running, h.controller.Status())
	require.Equal(t, 0, h.invoker.TerminateCount())
}

func TestMaybeScaleUpNoOpWhenJobNotRunning(t *testing.T) {
	h := newHarness(t, model.JobConfig{AutoScaling: true})

	require.Equal(t, model.NotRunning, h.controller.Status())
	require.True(t, h.controller.MaybeScaleUp(5))
	require.Equal(t, 0, h.invoker.TerminateCount())
}

func TestMaybeScaleUpNoOpWhenMemberCountUnchanged(t *testing.T) {
	h := newHarness(t, model.JobConfig{AutoScaling: true})

	gate := make(chan struct{})
	defer close(gate)
	h.invoker.startResponse = func(model.MemberInfo) cluster.Response {
		<-gate
		return cluster.Success(model.RawJobMetrics{})
	}

	h.controller.TryStartJob(nil)
	waitStatus(t, h.controller, model.Running, 2*time.Second)

	// threeMembers() pins 3 participants for this execution; asking to
	// scale to the same count must be a no-op, not a restart.
	require.True(t, h.controller.MaybeScaleUp(3))
	require.Equal(t, model.Running, h.controller.Status())
	require.Equal(t, 0, h.invoker.TerminateCount())
}

func TestMaybeScaleUpRestartsWhenMemberCountGrows(t *testing.T) {
	h := newHarness(t, model.JobConfig{AutoScaling: true})

	// StartExecution blocks until the test releases it, modeling
	// participants that only report TerminatedWithSnapshot once they
	// observe the broadcast TerminateExecution MaybeScaleUp triggers.
	gate := make(chan struct{})
	h.invoker.startResponse = func(model.MemberInfo) cluster.Response {
		<-gate
		return cluster.Failure(model.TerminatedWithSnapshotError{})
	}

	h.controller.TryStartJob(nil)
	waitStatus(t, h.controller, model.Running, 2*time.Second)

	require.True(t, h.controller.MaybeScaleUp(5))

	close(gate)

	waitStatus(t, h.controller, model.NotRunning, 2*time.Second)
	require.Equal(t, 1, h.invoker.TerminateCount())
}
