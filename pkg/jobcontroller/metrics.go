package jobcontroller

import (
	"context"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/flowmesh/jetcoord/pkg/cluster"
	"github.com/flowmesh/jetcoord/pkg/log"
	"github.com/flowmesh/jetcoord/pkg/model"
)

const metricsRetryDelay = 100 * time.Millisecond

// MetricsFuture is the client-facing future CollectMetrics completes
// with the job's merged metrics, or an error if any participant
// returned one that isn't the ExecutionNotFound race C7 retries around.
type MetricsFuture struct {
	done   chan struct{}
	once   sync.Once
	closed atomic.Bool
	value  model.JobMetrics
	err    atomic.Error
}

// NewMetricsFuture returns a fresh, incomplete MetricsFuture.
func NewMetricsFuture() *MetricsFuture {
	return &MetricsFuture{done: make(chan struct{})}
}

func (f *MetricsFuture) complete(value model.JobMetrics, err error) {
	if f.closed.CAS(false, true) {
		f.value = value
		if err != nil {
			f.err.Store(err)
		}
		f.once.Do(func() { close(f.done) })
	}
}

// Wait blocks until f completes or ctx is done.
func (f *MetricsFuture) Wait(ctx context.Context) (model.JobMetrics, error) {
	select {
	case <-f.done:
		return f.value, f.err.Load()
	case <-ctx.Done():
		return model.JobMetrics{}, ctx.Err()
	}
}

// CollectMetrics is C7: on demand, collect per-member raw metrics,
// retry on the ExecutionNotFound/EXECUTION_COMPLETED race, and merge
// with member-name prefixing.
func (c *Controller) CollectMetrics(future *MetricsFuture) {
	c.mu.Lock()
	status := c.status
	last := c.jobMetrics
	jobID, executionID := c.jobID, c.executionID
	c.mu.Unlock()

	if status != model.Running {
		future.complete(last, nil)
		return
	}

	c.deps.Invoker.InvokeOnParticipants(
		context.Background(),
		c.pinnedParticipants(),
		func(m model.MemberInfo) cluster.Operation {
			return cluster.GetLocalJobMetricsOp{JobID: jobID, ExecutionID: executionID}
		},
		nil,
		func(responses map[model.MemberInfo]cluster.Response) {
			c.onMetricsCollected(future, responses)
		},
		false,
	)
}

func (c *Controller) onMetricsCollected(future *MetricsFuture, responses map[model.MemberInfo]cluster.Response) {
	for _, resp := range responses {
		if resp.IsErr() {
			if _, ok := resp.Err.(cluster.ExecutionNotFoundError); ok {
				c.scheduleMetricsRetry(future)
				return
			}
			future.complete(model.JobMetrics{}, resp.Err)
			return
		}
	}

	merged, ok := mergeMetrics(responses, c.partialMetricsSnapshot())
	if !ok {
		c.scheduleMetricsRetry(future)
		return
	}

	c.mu.Lock()
	c.jobMetrics = merged
	c.mu.Unlock()

	future.complete(merged, nil)
}

func (c *Controller) scheduleMetricsRetry(future *MetricsFuture) {
	log.L().Debug("scheduling metrics retry",
		log.Int64("job-id", int64(c.jobID)), log.Int64("execution-id", int64(c.executionID)))
	c.deps.ExecutionService.Schedule(metricsRetryDelay, func() {
		c.CollectMetrics(future)
	})
}

// mergeMetrics implements C7's merge: responses keyed by member, each
// either a success RawJobMetrics or the EXECUTION_COMPLETED sentinel.
// Returns ok=false when a sentinel response has no corresponding entry
// in partial yet (P8): the caller must retry rather than complete with
// an incomplete view.
func mergeMetrics(responses map[model.MemberInfo]cluster.Response, partial map[model.MemberInfo]model.RawJobMetrics) (model.JobMetrics, bool) {
	merged := model.EmptyJobMetrics()
	for member, resp := range responses {
		var raw model.RawJobMetrics
		if resp.IsExecutionCompleted() {
			cached, ok := partial[member]
			if !ok {
				return model.JobMetrics{}, false
			}
			raw = cached
		} else if metrics, ok := resp.Value.(model.RawJobMetrics); ok {
			raw = metrics
		} else {
			continue
		}
		merged = merged.Merge(model.JobMetricsOf(raw.PrefixNames(model.MemberPrefix(member)).Values))
	}
	return merged, true
}
