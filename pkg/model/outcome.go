package model

import "fmt"

// The coordinator classifies every failure into one of a small set of
// kinds (spec.md §7). Go has no exception hierarchy to pattern-match on,
// so each kind is its own error type and callers use errors.As/a type
// switch instead of catch blocks (see spec's Design Notes on
// exception-as-control-flow).

// CancelledError means the job stopped because of a cancellation
// request: forceful, graceful, or against a suspended job.
type CancelledError struct{}

func (CancelledError) Error() string { return "job was cancelled" }

// ErrCancelled is the single shared CancelledError instance.
var ErrCancelled = CancelledError{}

// TerminateRequestedError means a non-cancel termination (restart,
// suspend, or a graceful restart with a terminal snapshot) stopped the
// current execution. Mode records which one, so the Finalizer can look
// at ActionAfterTerminate.
type TerminateRequestedError struct {
	Mode TerminationMode
}

func (e TerminateRequestedError) Error() string {
	return fmt.Sprintf("job termination requested: %s", e.Mode.Name())
}

// TopologyChangedError means at least one participant left the cluster
// mid-execution; eligible for an automatic restart.
type TopologyChangedError struct{}

func (TopologyChangedError) Error() string { return "job topology changed" }

// ErrTopologyChanged is the single shared TopologyChangedError instance.
var ErrTopologyChanged = TopologyChangedError{}

// TerminatedWithSnapshotError is what a participant reports when it
// stopped because a terminal snapshot completed locally.
type TerminatedWithSnapshotError struct{}

func (TerminatedWithSnapshotError) Error() string { return "terminated after a terminal snapshot" }

// ErrTerminatedWithSnapshot is the single shared instance.
var ErrTerminatedWithSnapshot = TerminatedWithSnapshotError{}

// MemberLeftError is a topology exception reported when a specific
// participant departs the cluster.
type MemberLeftError struct {
	UUID string
}

func (e MemberLeftError) Error() string { return fmt.Sprintf("member %s left the cluster", e.UUID) }

// UserError wraps a failure originating in user DAG code, plan
// deserialization, or DAG deserialization. Restartable marks whether the
// failure is transient and worth retrying automatically.
type UserError struct {
	Cause       error
	Restartable bool
}

func (e UserError) Error() string { return fmt.Sprintf("user error: %v", e.Cause) }
func (e UserError) Unwrap() error { return e.Cause }

// LocalMemberResetError means this node itself left and rejoined the
// cluster; the job should be cancelled locally without deleting its
// persisted metadata, since it will restart once a quorum re-forms.
type LocalMemberResetError struct{}

func (LocalMemberResetError) Error() string { return "local member reset" }

// IllegalStateError marks an invariant violation inside the coordinator.
// It should never be observed in correct operation and is always logged
// as severe.
type IllegalStateError struct {
	Message string
}

func (e IllegalStateError) Error() string { return "illegal state: " + e.Message }

// IsTopologyException reports whether err is a topology-change class of
// failure: either the generic TopologyChangedError or a specific
// MemberLeftError.
func IsTopologyException(err error) bool {
	switch err.(type) {
	case TopologyChangedError, MemberLeftError:
		return true
	default:
		return false
	}
}

// IsRestartableException reports whether failure is a class of error the
// coordinator should consider retrying automatically: topology changes
// and restartable user errors.
func IsRestartableException(failure error) bool {
	if failure == nil {
		return false
	}
	if IsTopologyException(failure) {
		return true
	}
	var ue UserError
	if as(failure, &ue) {
		return ue.Restartable
	}
	return false
}

// Peel unwraps a UserError down to its cause, mirroring
// ExceptionUtil.peel in the source system; any other error is returned
// unchanged.
func Peel(err error) error {
	var ue UserError
	if as(err, &ue) && ue.Cause != nil {
		return ue.Cause
	}
	return err
}

// as is a tiny local stand-in for errors.As, avoiding an import of the
// standard errors package; unlike errors.As it checks only err itself
// and does not walk a wrapped chain.
func as(err error, target *UserError) bool {
	ue, ok := err.(UserError)
	if !ok {
		return false
	}
	*target = ue
	return true
}
