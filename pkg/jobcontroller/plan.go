package jobcontroller

import (
	"context"
	"fmt"

	"github.com/gavv/monotime"

	"github.com/flowmesh/jetcoord/pkg/cluster"
	derror "github.com/flowmesh/jetcoord/pkg/errors"
	"github.com/flowmesh/jetcoord/pkg/log"
	"github.com/flowmesh/jetcoord/pkg/model"
)

// restoreSource names where TryStartJob should restore state from, if
// anywhere.
type restoreSource struct {
	snapshotID   int64
	mapName      string
	snapshotName string
}

// TryStartJob is C3, the Plan Resolver: it drives a job from NotRunning
// through the two-phase start protocol's phase A dispatch. idGen
// allocates this attempt's ExecutionID when non-nil, letting callers
// override deps.ExecutionIDSupplier per call; when idGen is nil,
// deps.ExecutionIDSupplier is used.
func (c *Controller) TryStartJob(idGen model.ExecutionIDSupplier) {
	ctx := context.Background()

	c.mu.Lock()

	c.executionStartTime = nowMillis(c)
	c.monotonicStart = monotime.Now()
	c.record.MarkExecuted()
	c.partialMetrics = make(map[model.MemberInfo]model.RawJobMetrics)

	if c.requestedTerminationMode != nil && *c.requestedTerminationMode == model.CancelForceful {
		c.mu.Unlock()
		c.finalizeJob(model.ErrCancelled)
		return
	}

	if c.status != model.NotRunning {
		c.mu.Unlock()
		return
	}

	if c.record.Suspended {
		c.record.Suspended = false
	}

	membersView := c.deps.Membership.MembersView()
	if !c.deps.Membership.IsQuorumPresent(c.record.QuorumSize) || !c.deps.Membership.ShouldStartJobs() {
		c.scheduleRestartLocked()
		c.mu.Unlock()
		return
	}

	c.setStatus(model.Starting)
	c.membersView = membersView
	record := *c.record
	c.mu.Unlock()

	if err := c.deps.Store.WriteExecutionRecord(ctx, &record); err != nil {
		c.finalizeJob(model.UserError{Cause: err, Restartable: false})
		return
	}

	c.mu.Lock()
	if c.requestedTerminationMode != nil {
		mode := *c.requestedTerminationMode
		if mode.ActionAfterTerminate == model.ActionRestart {
			c.requestedTerminationMode = nil
		} else {
			c.mu.Unlock()
			c.finalizeJob(model.TerminateRequestedError{Mode: mode})
			return
		}
	}
	c.mu.Unlock()

	serializedDAG, err := c.deps.Store.ReadDAG(ctx, c.jobID)
	if err != nil {
		c.finalizeJob(model.UserError{Cause: derror.ErrDagDeserializeFailed.Wrap(err).GenWithStackByArgs(c.jobIDString()), Restartable: false})
		return
	}
	d, err := c.deps.DAGLoader(serializedDAG)
	if err != nil {
		c.finalizeJob(model.UserError{Cause: derror.ErrDagDeserializeFailed.Wrap(err).GenWithStackByArgs(c.jobIDString()), Restartable: false})
		return
	}

	c.mu.Lock()
	var executionID model.ExecutionID
	if idGen != nil {
		executionID = idGen()
	} else {
		executionID = c.deps.ExecutionIDSupplier()
	}
	c.dag = d
	c.vertices = d.Vertices()
	c.executionID = executionID
	c.executionCompletionFuture = model.NewVoidFuture()
	c.mu.Unlock()

	if c.deps.SnapshotContext != nil {
		c.deps.SnapshotContext.OnExecutionStarted()
	}

	src := c.resolveRestoreSource()
	if src != nil {
		resolvedID, err := c.deps.SnapshotValidator.Validate(ctx, src.snapshotID, src.mapName, c.jobIDString(), src.snapshotName)
		if err != nil {
			c.finalizeJob(model.UserError{Cause: err, Restartable: false})
			return
		}
		if err := weaveSnapshotRestore(d, resolvedID, src.mapName, src.snapshotName); err != nil {
			c.finalizeJob(model.UserError{Cause: err, Restartable: false})
			return
		}
	}

	plans, err := c.deps.PlanBuilder(d, membersView, c.jobID, executionID, c.cfg, c.record.OngoingSnapshotID)
	if err != nil {
		c.finalizeJob(model.UserError{Cause: derror.ErrPlanBuildFailed.Wrap(err).GenWithStackByArgs(c.jobIDString()), Restartable: false})
		return
	}

	participantUUIDs := make([]string, 0, len(membersView.Members))
	for _, m := range membersView.Members {
		participantUUIDs = append(participantUUIDs, m.UUID)
	}

	log.L().Info("dispatching InitExecution",
		log.Int64("job-id", int64(c.jobID)), log.Int64("execution-id", int64(executionID)))

	c.deps.Invoker.InvokeOnParticipants(
		ctx,
		membersView.Members,
		func(m model.MemberInfo) cluster.Operation {
			return cluster.InitExecutionOp{
				JobID:              c.jobID,
				ExecutionID:        executionID,
				MembersViewVersion: membersView.Version,
				Participants:       participantUUIDs,
				SerializedPlan:     plans[m],
			}
		},
		nil,
		func(responses map[model.MemberInfo]cluster.Response) {
			c.onInitStepCompleted(responses, len(plans))
		},
		false,
	)
}

// scheduleRestartLocked implements "quorum absent or cluster unsafe"
// from spec.md §4.3 step 6; must be called with mu held.
func (c *Controller) scheduleRestartLocked() {
	c.setStatus(model.NotRunning)
	jobID := c.jobID
	go c.deps.Coordination.ScheduleRestart(jobID)
}

func (c *Controller) resolveRestoreSource() *restoreSource {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.record.SnapshotID >= 0 {
		return &restoreSource{
			snapshotID:   c.record.SnapshotID,
			mapName:      c.record.SuccessfulSnapshotDataMapName(c.jobID),
			snapshotName: "",
		}
	}
	if c.cfg.InitialSnapshotName != "" {
		return &restoreSource{
			snapshotID:   0,
			mapName:      fmt.Sprintf("__jet.exportedSnapshot.%s", c.cfg.InitialSnapshotName),
			snapshotName: c.cfg.InitialSnapshotName,
		}
	}
	return nil
}

func (c *Controller) jobIDString() string {
	return fmt.Sprintf("%d", c.jobID)
}
