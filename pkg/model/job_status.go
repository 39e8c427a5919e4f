package model

// JobStatus is the tagged status of a job as tracked by the coordinator.
// Terminal values are Completed and Failed; every other value is
// transient and expected to change over the job's lifetime.
type JobStatus int32

const (
	// NotRunning means the job has no running execution; it may be
	// freshly submitted, between restarts, or just resumed.
	NotRunning JobStatus = iota
	// Starting means the two-phase start protocol is in flight.
	Starting
	// Running means every participant accepted InitExecution and
	// StartExecution has been dispatched.
	Running
	// Suspended means the job was stopped with SUSPEND_GRACEFUL or
	// equivalent and is waiting to be resumed.
	Suspended
	// SuspendedExportingSnapshot is driven externally by the snapshot
	// context while a suspending job's terminal snapshot is in flight.
	SuspendedExportingSnapshot
	// Completed is terminal: the job ran to completion successfully.
	Completed
	// Failed is terminal: the job stopped due to cancellation, an
	// unrestartable failure, or exhausting its restart policy.
	Failed
)

func (s JobStatus) String() string {
	switch s {
	case NotRunning:
		return "NOT_RUNNING"
	case Starting:
		return "STARTING"
	case Running:
		return "RUNNING"
	case Suspended:
		return "SUSPENDED"
	case SuspendedExportingSnapshot:
		return "SUSPENDED_EXPORTING_SNAPSHOT"
	case Completed:
		return "COMPLETED"
	case Failed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// IsTerminal reports whether no further transition is legal from s.
func (s JobStatus) IsTerminal() bool {
	return s == Completed || s == Failed
}
