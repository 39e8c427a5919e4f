package jobcontroller

import (
	"github.com/flowmesh/jetcoord/pkg/log"
	"github.com/flowmesh/jetcoord/pkg/model"
)

// ResumeJob clears a job's Suspended status and re-drives TryStartJob,
// the entry point the coordinator uses when an operator resumes a job.
func (c *Controller) ResumeJob(idGen model.ExecutionIDSupplier) {
	c.mu.Lock()
	if c.status != model.Suspended {
		c.mu.Unlock()
		return
	}
	c.setStatus(model.NotRunning)
	c.record.Suspended = false
	c.mu.Unlock()

	c.TryStartJob(idGen)
}

// MaybeScaleUp is invoked when the cluster gains data members; if
// autoscaling is enabled, the job is RUNNING, and its current execution
// plan does not already span dataMembersCount members, it requests a
// graceful restart-with-snapshot so the job comes back up using the
// larger cluster (scenario 4 of spec.md §8). Returns true when there is
// nothing left for the caller to do — either because no restart was
// needed, or because one was successfully requested — and false only
// when a restart was needed but could not be requested right now (e.g.
// a termination is already in flight), so the caller should retry
// later. This mirrors the original's boolean convention: true means
// "done", never "an error occurred".
func (c *Controller) MaybeScaleUp(dataMembersCount int) bool {
	c.mu.Lock()
	autoScaling := c.cfg.AutoScaling
	status := c.status
	currentMembersCount := len(c.membersView.Members)
	c.mu.Unlock()

	if !autoScaling || status != model.Running {
		return true
	}

	if currentMembersCount == dataMembersCount {
		return true
	}

	log.L().Info("scaling up triggers a graceful restart",
		log.Int64("job-id", int64(c.jobID)), log.Int("data-members", dataMembersCount))

	_, err := c.RequestTermination(model.RestartGraceful, false)
	return err == nil
}

// GracefullyTerminate requests a graceful cancel with a terminal
// snapshot and returns the future for the execution being terminated.
func (c *Controller) GracefullyTerminate() (*model.VoidFuture, error) {
	return c.RequestTermination(model.CancelGraceful, false)
}

// OnParticipantGracefulShutdown handles a cooperating participant
// leaving the cluster in an orderly way: the job is suspended (with a
// terminal snapshot, if the job carries a processing guarantee) so it
// can resume once the member set stabilizes again.
func (c *Controller) OnParticipantGracefulShutdown(uuid string) (*model.VoidFuture, error) {
	log.L().Info("participant requested graceful shutdown",
		log.Int64("job-id", int64(c.jobID)), log.String("member", uuid))
	return c.RequestTermination(model.SuspendGraceful, false)
}
