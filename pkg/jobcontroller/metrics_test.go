package jobcontroller

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/flowmesh/jetcoord/pkg/cluster"
	"github.com/flowmesh/jetcoord/pkg/model"
)

func TestMergeMetricsPrefixesEachMemberAndConcatenates(t *testing.T) {
	memberA := model.MemberInfo{UUID: "a", Address: "10.0.0.1:9000"}
	memberB := model.MemberInfo{UUID: "b", Address: "10.0.0.2:9000"}

	responses := map[model.MemberInfo]cluster.Response{
		memberA: cluster.Success(model.RawJobMetrics{Values: []model.MetricValue{{Name: "rows", Value: 10}}}),
		memberB: cluster.Success(model.RawJobMetrics{Values: []model.MetricValue{{Name: "rows", Value: 20}}}),
	}

	merged, ok := mergeMetrics(responses, nil)
	require.True(t, ok)
	require.Len(t, merged.Values(), 2)

	seen := make(map[string]int64)
	for _, v := range merged.Values() {
		seen[v.Name] = v.Value
	}
	require.Equal(t, int64(10), seen[model.MemberPrefix(memberA)+"rows"])
	require.Equal(t, int64(20), seen[model.MemberPrefix(memberB)+"rows"])
}

func TestMergeMetricsUsesCachedPartialForExecutionCompletedSentinel(t *testing.T) {
	member := model.MemberInfo{UUID: "a", Address: "10.0.0.1:9000"}
	cached := model.RawJobMetrics{Values: []model.MetricValue{{Name: "rows", Value: 42}}}

	responses := map[model.MemberInfo]cluster.Response{member: cluster.Completed()}
	partial := map[model.MemberInfo]model.RawJobMetrics{member: cached}

	merged, ok := mergeMetrics(responses, partial)
	require.True(t, ok)
	require.Equal(t, []model.MetricValue{{Name: model.MemberPrefix(member) + "rows", Value: 42}}, merged.Values())
}

func TestMergeMetricsRequestsRetryWhenSentinelHasNoCachedPartial(t *testing.T) {
	member := model.MemberInfo{UUID: "a", Address: "10.0.0.1:9000"}

	responses := map[model.MemberInfo]cluster.Response{member: cluster.Completed()}

	_, ok := mergeMetrics(responses, nil)
	require.False(t, ok, "a sentinel response with no cached partial must force a retry, not a partial merge")
}

func TestCollectMetricsReturnsLastValueWithoutInvokingWhenNotRunning(t *testing.T) {
	h := newHarness(t, model.JobConfig{})

	// Any participant reply would carry a metric, so a non-empty result
	// would show that GetLocalJobMetrics was invoked.
	h.invoker.metricsResponse = func(model.MemberInfo) cluster.Response {
		return cluster.Success(model.RawJobMetrics{Values: []model.MetricValue{{Name: "rows", Value: 1}}})
	}

	future := NewMetricsFuture()
	h.controller.CollectMetrics(future)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	metrics, err := future.Wait(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, metrics.Len())
}

func TestCollectMetricsRetriesOnExecutionNotFoundThenSucceeds(t *testing.T) {
	h := newHarness(t, model.JobConfig{})

	// Block StartExecution's reply so the job stays Running while metrics
	// are collected, instead of racing straight to Completed.
	gate := make(chan struct{})
	defer close(gate)
	h.invoker.startResponse = func(model.MemberInfo) cluster.Response {
		<-gate
		return cluster.Success(model.RawJobMetrics{})
	}

	h.controller.TryStartJob(nil)
	waitStatus(t, h.controller, model.Running, 2*time.Second)

	// onMetricsCollected retries the whole round if any participant's
	// response errors, so every member needs to fail its first call and
	// succeed from the second call onward; collection is never in flight
	// on more than one round at a time, so no locking is needed here.
	failedOnce := make(map[string]bool)
	h.invoker.metricsResponse = func(m model.MemberInfo) cluster.Response {
		if !failedOnce[m.UUID] {
			failedOnce[m.UUID] = true
			return cluster.Failure(cluster.ExecutionNotFoundError{})
		}
		return cluster.Success(model.RawJobMetrics{Values: []model.MetricValue{{Name: "rows", Value: 1}}})
	}

	future := NewMetricsFuture()
	h.controller.CollectMetrics(future)

	// Give the first (failing) round-trip a moment to land and schedule
	// its retry before advancing the mock clock past metricsRetryDelay.
	time.Sleep(50 * time.Millisecond)
	h.clock.Add(2 * metricsRetryDelay)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	metrics, err := future.Wait(ctx)
	require.NoError(t, err)
	// One "rows" record from each of the three participants.
	require.Equal(t, 3, metrics.Len())
}
