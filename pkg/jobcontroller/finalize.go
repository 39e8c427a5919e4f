package jobcontroller

import (
	"context"

	"github.com/gavv/monotime"
	"github.com/pingcap/failpoint"

	"github.com/flowmesh/jetcoord/pkg/log"
	"github.com/flowmesh/jetcoord/pkg/model"
)

// finalizeJob is C6: it decides and applies the post-termination action
// atomically under the lock, then performs whatever follow-up cannot
// safely run while the lock is held.
func (c *Controller) finalizeJob(failure error) {
	failpoint.Inject("finalizeJobPanic", func() {
		panic("finalizeJobPanic failpoint")
	})

	c.mu.Lock()

	if c.status.IsTerminal() {
		log.L().Info("finalizeJob called on a terminal job; ignoring",
			log.Int64("job-id", int64(c.jobID)), log.String("status", c.status.String()))
		c.mu.Unlock()
		return
	}

	c.completeVertices(failure)

	c.partialMetrics = make(map[model.MemberInfo]model.RawJobMetrics)
	wasCancelled := failure == model.ErrCancelled
	c.requestedTerminationMode = nil
	c.executionCompletionCB = nil

	action := model.ActionNone
	if tr, ok := failure.(model.TerminateRequestedError); ok {
		action = tr.Mode.ActionAfterTerminate
	}

	if c.deps.SnapshotContext != nil {
		c.deps.SnapshotContext.OnExecutionTerminated()
	}

	var nonSyncAction func()

	switch {
	case action == model.ActionRestart:
		c.setStatus(model.NotRunning)
		jobID := c.jobID
		nonSyncAction = func() { c.deps.Coordination.RestartJob(jobID) }

	case model.IsRestartableException(failure) && c.cfg.AutoScaling && !wasCancelled:
		c.scheduleRestartLocked()

	case action == model.ActionSuspend ||
		(model.IsRestartableException(failure) && !wasCancelled && !c.cfg.AutoScaling && c.cfg.ProcessingGuarantee != model.GuaranteeNone):
		c.setStatus(model.Suspended)
		c.record.Suspended = true
		record := *c.record
		nonSyncAction = func() {
			if err := c.deps.Store.WriteExecutionRecord(context.Background(), &record); err != nil {
				log.L().Warn("failed to persist suspended job record",
					log.Int64("job-id", int64(c.jobID)), log.Error(err))
			}
		}

	case isLocalMemberReset(failure):
		c.setStatus(model.Failed)
		nonSyncAction = func() {
			c.jobCompletionFuture.CompleteError(model.ErrCancelled)
		}

	default:
		if isSuccess(failure) {
			c.setStatus(model.Completed)
		} else {
			c.setStatus(model.Failed)
		}
		jobID := c.jobID
		elapsed := monotime.Since(c.monotonicStart)
		nonSyncAction = func() {
			log.L().Info("job execution finished",
				log.Int64("job-id", int64(jobID)), log.String("elapsed", elapsed.String()))
			completeFuture := c.deps.Coordination.CompleteJob(jobID, nowMillis(c), failure)
			_ = completeFuture.Wait(context.Background())
			if failure == nil {
				c.jobCompletionFuture.Complete()
			} else {
				c.jobCompletionFuture.CompleteError(failure)
			}
		}
	}

	executionCompletionFuture := c.executionCompletionFuture
	c.mu.Unlock()

	executionCompletionFuture.Complete()

	if nonSyncAction != nil {
		nonSyncAction()
	}
}

// completeVertices calls Close(failure) on every vertex in the snapshot
// taken at start time, swallowing individual errors: finalization must
// never fail (spec.md §7). Must be called with mu held.
func (c *Controller) completeVertices(failure error) {
	for _, v := range c.vertices {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.L().Warn("vertex Close panicked during finalize",
						log.Int64("job-id", int64(c.jobID)), log.String("vertex", v.Name), log.Any("panic", r))
				}
			}()
			v.Supplier.Close(failure)
		}()
	}
}

// isSuccess mirrors spec.md §4.6: nil means the job ran to completion;
// Cancelled and TerminateRequestedError are normal stops, not failures,
// but still not "success" in the sense finalize's status table cares
// about. A TerminateRequestedError with a restart or suspend action is
// handled by an earlier branch; Cancelled reaches finalizeJob's default
// branch and ends the job as Failed.
func isSuccess(failure error) bool {
	return failure == nil
}

func isLocalMemberReset(failure error) bool {
	_, ok := failure.(model.LocalMemberResetError)
	return ok
}
