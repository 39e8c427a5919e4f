package jobcontroller

import (
	"context"
	"fmt"

	"github.com/flowmesh/jetcoord/pkg/cluster"
	"github.com/flowmesh/jetcoord/pkg/log"
	"github.com/flowmesh/jetcoord/pkg/model"
)

// onInitStepCompleted is C4's phase-A completion handler.
func (c *Controller) onInitStepCompleted(responses map[model.MemberInfo]cluster.Response, planSize int) {
	mode, forceful := c.currentTerminationMode()
	err := classify("Init", responses, planSize, forceful, mode)

	c.mu.Lock()
	stillStarting := c.status == model.Starting
	c.mu.Unlock()

	if err == nil && stillStarting {
		c.invokeStartExecution()
		return
	}

	c.broadcastTerminateExecution(mode)

	if err == nil {
		err = model.IllegalStateError{Message: fmt.Sprintf("Cannot execute: status is %s", c.Status())}
	}
	c.finalizeJob(err)
}

// invokeStartExecution is C4's phase B.
func (c *Controller) invokeStartExecution() {
	ctx := context.Background()

	c.mu.Lock()
	jobID, executionID := c.jobID, c.executionID
	cb := newExecutionCompletionCallback(c, jobID, executionID)
	c.executionCompletionCB = cb
	pendingMode := c.requestedTerminationMode
	planSize := len(c.membersView.Members)
	c.mu.Unlock()

	if pendingMode != nil {
		c.handleTermination(*pendingMode)
	}

	log.L().Info("dispatching StartExecution",
		log.Int64("job-id", int64(jobID)), log.Int64("execution-id", int64(executionID)))

	c.deps.Invoker.InvokeOnParticipants(
		ctx,
		c.pinnedParticipants(),
		func(m model.MemberInfo) cluster.Operation {
			return cluster.StartExecutionOp{JobID: jobID, ExecutionID: executionID}
		},
		cb.onResponse,
		func(responses map[model.MemberInfo]cluster.Response) {
			c.onStartExecutionCompleted(responses, planSize)
		},
		false,
	)

	c.mu.Lock()
	c.setStatus(model.Running)
	c.mu.Unlock()

	if c.cfg.ProcessingGuarantee != model.GuaranteeNone && c.deps.ExecutionService != nil {
		// Periodic snapshot scheduling lives in the snapshot scheduler,
		// an external collaborator this component only notifies through
		// SnapshotContext; nothing further is dispatched from here.
		_ = c.deps.ExecutionService
	}
}

// onStartExecutionCompleted is the completion callback phase B
// dispatches, step 3 of invokeStartExecution in spec.md §4.4.
func (c *Controller) onStartExecutionCompleted(responses map[model.MemberInfo]cluster.Response, planSize int) {
	anyThrowable := false
	for _, resp := range responses {
		if resp.IsErr() {
			anyThrowable = true
			break
		}
	}

	if !anyThrowable {
		merged := model.EmptyJobMetrics()
		for member, resp := range responses {
			metrics, ok := resp.Value.(model.RawJobMetrics)
			if !ok {
				continue
			}
			merged = merged.Merge(model.JobMetricsOf(metrics.PrefixNames(model.MemberPrefix(member)).Values))
		}
		c.mu.Lock()
		c.jobMetrics = merged
		c.mu.Unlock()
	}

	mode, forceful := c.currentTerminationMode()
	err := classify("Execution", responses, planSize, forceful, mode)
	c.onCompleteExecution(err)
}

// onCompleteExecution implements the tail of C4: it decides whether to
// wait for a terminal snapshot before handing off to the Finalizer.
func (c *Controller) onCompleteExecution(err error) {
	c.mu.Lock()
	status := c.status
	c.mu.Unlock()

	if status != model.Starting && status != model.Running {
		log.L().Info("ignoring execution completion for job not starting/running",
			log.Int64("job-id", int64(c.jobID)), log.String("status", status.String()))
		err = model.IllegalStateError{Message: fmt.Sprintf("onCompleteExecution observed status %s", status)}
	}

	if tr, ok := err.(model.TerminateRequestedError); ok && tr.Mode.WithTerminalSnapshot && c.deps.SnapshotContext != nil {
		go func() {
			_ = c.deps.SnapshotContext.TerminalSnapshotFuture().Wait(context.Background())
			c.finalizeJob(err)
		}()
		return
	}

	c.finalizeJob(err)
}

// currentTerminationMode returns the currently requested termination
// mode (zero value if none) and whether a forceful cancel is in effect.
func (c *Controller) currentTerminationMode() (model.TerminationMode, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.requestedTerminationMode == nil {
		return model.TerminationMode{}, false
	}
	return *c.requestedTerminationMode, *c.requestedTerminationMode == model.CancelForceful
}

// broadcastTerminateExecution is used when phase A itself must abort:
// there is no executionCompletionCallback yet, so the broadcast happens
// directly rather than through C8's CAS-guarded path.
func (c *Controller) broadcastTerminateExecution(mode model.TerminationMode) {
	jobID, executionID := c.jobID, c.executionID
	c.deps.Invoker.InvokeOnParticipants(
		context.Background(),
		c.pinnedParticipants(),
		func(m model.MemberInfo) cluster.Operation {
			return cluster.TerminateExecutionOp{JobID: jobID, ExecutionID: executionID, Mode: mode}
		},
		nil,
		nil,
		false,
	)
}
