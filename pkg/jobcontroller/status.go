package jobcontroller

import (
	"github.com/flowmesh/jetcoord/pkg/log"
	"github.com/flowmesh/jetcoord/pkg/model"
)

// legalTransitions enumerates C1's allowed status moves. Transitions not
// listed here are programming errors and are rejected by setStatus.
var legalTransitions = map[model.JobStatus]map[model.JobStatus]bool{
	model.NotRunning: {
		model.NotRunning: true,
		model.Starting:   true,
	},
	model.Starting: {
		model.Running:    true,
		model.NotRunning: true,
	},
	model.Running: {
		model.Completed:  true,
		model.Failed:     true,
		model.NotRunning: true,
		model.Suspended:  true,
	},
	model.Suspended: {
		model.NotRunning: true,
		model.Failed:     true,
	},
	model.SuspendedExportingSnapshot: {
		model.Failed: true,
	},
}

// setStatus moves c.status to next, enforcing C1's transition table.
// Must be called with mu held. From a terminal status no transition is
// legal (P2): the call is logged and ignored rather than panicking,
// since finalizeJob's terminal-status check races harmlessly with
// external callers that also check status first.
func (c *Controller) setStatus(next model.JobStatus) {
	if c.status.IsTerminal() {
		log.L().Warn("ignoring status transition attempt from terminal status",
			log.Int64("job-id", int64(c.jobID)),
			log.String("from", c.status.String()),
			log.String("to", next.String()))
		return
	}
	if !legalTransitions[c.status][next] {
		log.L().Warn("illegal job status transition",
			log.Int64("job-id", int64(c.jobID)),
			log.String("from", c.status.String()),
			log.String("to", next.String()))
		return
	}
	log.L().Info("job status transition",
		log.Int64("job-id", int64(c.jobID)),
		log.String("from", c.status.String()),
		log.String("to", next.String()))
	c.status = next
}
