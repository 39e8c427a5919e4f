package model

import "fmt"

// JobExecutionRecord is the per-job state persisted across restarts of
// the coordinator itself. At most one mutator may touch it at a time;
// callers are expected to hold the owning controller's master lock.
type JobExecutionRecord struct {
	JobID JobID

	QuorumSize int

	// SnapshotID is the id of the last successful snapshot, or -1 if
	// there is none.
	SnapshotID int64

	// OngoingSnapshotID is the id of a snapshot currently being taken,
	// passed to the plan builder (planbuilder.Build does not use it).
	OngoingSnapshotID int64

	Suspended bool

	executed bool
}

// JobID identifies a job across its whole lifetime.
type JobID int64

// NewJobExecutionRecord returns a fresh record for jobID with the given
// quorum size and no prior snapshot.
func NewJobExecutionRecord(jobID JobID, quorumSize int) *JobExecutionRecord {
	return &JobExecutionRecord{
		JobID:             jobID,
		QuorumSize:        quorumSize,
		SnapshotID:        -1,
		OngoingSnapshotID: -1,
	}
}

// MarkExecuted records that a start attempt has been made; called once
// per tryStartJob invocation regardless of outcome.
func (r *JobExecutionRecord) MarkExecuted() {
	r.executed = true
}

// Executed reports whether MarkExecuted has ever been called.
func (r *JobExecutionRecord) Executed() bool {
	return r.executed
}

// SuccessfulSnapshotDataMapName returns the name of the map holding the
// data of the last successful snapshot for this job.
func (r *JobExecutionRecord) SuccessfulSnapshotDataMapName(jobID JobID) string {
	return fmt.Sprintf("__jet.snapshot.%d.%d", jobID, r.SnapshotID)
}
