package jobcontroller

import (
	"context"
	"sync"

	"go.uber.org/atomic"

	"github.com/flowmesh/jetcoord/pkg/cluster"
	"github.com/flowmesh/jetcoord/pkg/log"
	"github.com/flowmesh/jetcoord/pkg/model"
)

// executionCompletionCallback is C8, the Participant Set Tracker bound
// to one execution attempt. It is attached to phase-B's per-response
// events and guarantees at-most-once dispatch of TerminateExecution
// across races between a per-response failure and an external
// termination request (P5).
type executionCompletionCallback struct {
	c           *Controller
	jobID       model.JobID
	executionID model.ExecutionID
	mode        model.TerminationMode

	mu                   sync.Mutex
	membersCompleted     map[model.MemberInfo]bool
	cancelInvocationsCAS atomic.Bool
}

func newExecutionCompletionCallback(c *Controller, jobID model.JobID, executionID model.ExecutionID) *executionCompletionCallback {
	return &executionCompletionCallback{
		c:                c,
		jobID:            jobID,
		executionID:      executionID,
		membersCompleted: make(map[model.MemberInfo]bool),
	}
}

// onResponse implements the per-response half of C8: record that member
// reported completion, and if its response is a failure other than
// TerminatedWithSnapshot, trigger cancelInvocations eagerly.
func (cb *executionCompletionCallback) onResponse(member model.MemberInfo, resp cluster.Response) {
	cb.mu.Lock()
	cb.membersCompleted[member] = true
	cb.mu.Unlock()

	if resp.IsErr() {
		peeled := model.Peel(resp.Err)
		if _, ok := peeled.(model.TerminatedWithSnapshotError); !ok {
			cb.cancelInvocations(model.TerminationMode{})
		}
		return
	}

	if metrics, ok := resp.Value.(model.RawJobMetrics); ok {
		cb.c.mu.Lock()
		cb.c.partialMetrics[member] = metrics
		cb.c.mu.Unlock()
	}
}

// cancelInvocations broadcasts TerminateExecution to every participant
// at most once, guarded by a compare-and-set flag (spec's Design Notes,
// "Idempotence flag"). mode is the termination mode to report to
// participants. onResponse passes the zero value, which equals
// CancelForceful, so participants cannot tell a participant-triggered
// cancel from a user-requested forceful one.
func (cb *executionCompletionCallback) cancelInvocations(mode model.TerminationMode) {
	if !cb.cancelInvocationsCAS.CAS(false, true) {
		return
	}
	cb.mu.Lock()
	cb.mode = mode
	cb.mu.Unlock()

	participants := cb.c.pinnedParticipants()
	jobID, executionID := cb.jobID, cb.executionID

	log.L().Info("broadcasting TerminateExecution",
		log.Int64("job-id", int64(jobID)), log.Int64("execution-id", int64(executionID)))

	cb.c.deps.Invoker.InvokeOnParticipants(
		context.Background(),
		participants,
		func(m model.MemberInfo) cluster.Operation {
			return cluster.TerminateExecutionOp{JobID: jobID, ExecutionID: executionID, Mode: mode}
		},
		nil,
		func(responses map[model.MemberInfo]cluster.Response) {
			for member, resp := range responses {
				if resp.IsErr() {
					log.L().Warn("TerminateExecution failed on participant; not retried",
						log.Int64("job-id", int64(jobID)),
						log.String("member", member.UUID),
						log.Error(resp.Err))
				}
			}
		},
		false,
	)
}

// partialMetricsSnapshot returns the metrics the tracker has cached from
// members that have already reported completion, keyed by member.
func (c *Controller) partialMetricsSnapshot() map[model.MemberInfo]model.RawJobMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[model.MemberInfo]model.RawJobMetrics, len(c.partialMetrics))
	for k, v := range c.partialMetrics {
		out[k] = v
	}
	return out
}

// pinnedParticipants returns the member set pinned for the current
// execution attempt.
func (c *Controller) pinnedParticipants() []model.MemberInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.MemberInfo, len(c.membersView.Members))
	copy(out, c.membersView.Members)
	return out
}
