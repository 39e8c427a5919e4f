package jobcontroller

import (
	"context"
	"fmt"

	derror "github.com/flowmesh/jetcoord/pkg/errors"
	"github.com/flowmesh/jetcoord/pkg/model"
)

// RequestTermination is C2's public entry point. It returns the future
// that resolves when the current execution attempt ends, or a non-nil
// error carrying the rejection reason when the request cannot be
// honoured right now. This is executionCompletionFuture, not
// jobCompletionFuture: a graceful restart or suspend still ends the
// current execution even though the job itself lives on, and a caller
// awaiting the job's entire lifetime would otherwise hang forever on
// those outcomes.
func (c *Controller) RequestTermination(mode model.TerminationMode, allowWhileExportingSnapshot bool) (*model.VoidFuture, error) {
	c.mu.Lock()

	if c.cfg.ProcessingGuarantee == model.GuaranteeNone && mode != model.CancelGraceful {
		mode = mode.WithoutTerminalSnapshot()
	}

	if c.status == model.SuspendedExportingSnapshot && !allowWhileExportingSnapshot {
		future := c.executionCompletionFuture
		c.mu.Unlock()
		return future, derror.ErrTerminationRejected.GenWithStackByArgs(
			"Cannot cancel when job status is SUSPENDED_EXPORTING_SNAPSHOT")
	}

	if c.status == model.Suspended && mode != model.CancelForceful {
		future := c.executionCompletionFuture
		c.mu.Unlock()
		return future, derror.ErrTerminationRejected.GenWithStackByArgs("Job is SUSPENDED")
	}

	if c.requestedTerminationMode != nil {
		current := *c.requestedTerminationMode
		future := c.executionCompletionFuture
		if current == model.CancelForceful && mode == model.CancelForceful {
			c.mu.Unlock()
			return future, nil
		}
		c.mu.Unlock()
		return future, derror.ErrTerminationRejected.GenWithStackByArgs(
			fmt.Sprintf("Job is already terminating in mode: %s", current.Name()))
	}

	c.requestedTerminationMode = &mode

	wasSuspended := c.status == model.Suspended || c.status == model.SuspendedExportingSnapshot
	wasActive := c.status == model.Running || c.status == model.Starting

	if wasSuspended {
		c.setStatus(model.Failed)
		c.jobCompletionFuture.CompleteError(model.ErrCancelled)
	}

	if mode.WithTerminalSnapshot && c.deps.SnapshotContext != nil {
		c.deps.SnapshotContext.EnqueueSnapshot(terminalSnapshotName(c.jobID), true)
	}

	executionCompletionFuture := c.executionCompletionFuture
	c.mu.Unlock()

	if wasSuspended {
		completeFuture := c.deps.Coordination.CompleteJob(c.jobID, nowMillis(c), model.ErrCancelled)
		_ = completeFuture.Wait(context.Background())
	} else if wasActive {
		c.handleTermination(mode)
	}

	return executionCompletionFuture, nil
}

// handleTermination drives the stop protocol for a requested mode. It
// is idempotent (P5): calling it N times produces exactly one
// TerminateExecution broadcast. When the mode carries a terminal
// snapshot, every call forwards to SnapshotContext.TryBeginSnapshot,
// which the snapshotctx.Context contract makes idempotent.
func (c *Controller) handleTermination(mode model.TerminationMode) {
	if mode.WithTerminalSnapshot {
		if c.deps.SnapshotContext != nil {
			c.deps.SnapshotContext.TryBeginSnapshot()
		}
		return
	}

	cb := c.currentExecutionCompletionCallback()
	if cb == nil {
		return
	}
	cb.cancelInvocations(mode)
}

func (c *Controller) currentExecutionCompletionCallback() *executionCompletionCallback {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.executionCompletionCB
}

func terminalSnapshotName(jobID model.JobID) string {
	return fmt.Sprintf("terminal-%d", jobID)
}
