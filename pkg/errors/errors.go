// Package errors defines the RFC-coded, normalized errors raised by the
// job execution coordinator. Every sentinel is built with
// errors.Normalize so that call sites can compare kinds with Is/Equal
// instead of matching on message text.
package errors

import (
	stderrors "errors"

	"github.com/pingcap/errors"
)

// Is reports whether err is (or wraps) target, the way pingcap/errors'
// normalized errors compare.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// Cause unwraps err to its root cause, same as pingcap/errors.Cause.
func Cause(err error) error {
	return errors.Cause(err)
}

// Trace annotates err with a stack trace without changing its identity.
func Trace(err error) error {
	if err == nil {
		return nil
	}
	return errors.Trace(err)
}

var (
	// ErrJobNotFound is returned when a job execution record cannot be
	// located in the job store.
	ErrJobNotFound = errors.Normalize(
		"job %s not found",
		errors.RFCCodeText("JET:ErrJobNotFound"),
	)

	// ErrIllegalJobStatus marks an invariant violation inside the
	// controller: an operation observed a status it should never see at
	// that point. Logged as severe, never expected in correct operation.
	ErrIllegalJobStatus = errors.Normalize(
		"illegal job status for job %s: %s",
		errors.RFCCodeText("JET:ErrIllegalJobStatus"),
	)

	// ErrDagDeserializeFailed wraps a failure to deserialize the stored
	// DAG bytes with the job's class loader equivalent.
	ErrDagDeserializeFailed = errors.Normalize(
		"failed to deserialize DAG for job %s",
		errors.RFCCodeText("JET:ErrDagDeserializeFailed"),
	)

	// ErrPlanBuildFailed wraps a failure from the external plan builder.
	ErrPlanBuildFailed = errors.Normalize(
		"failed to build execution plan for job %s",
		errors.RFCCodeText("JET:ErrPlanBuildFailed"),
	)

	// ErrSnapshotValidationFailed wraps a failure from the snapshot
	// validator consulted before splicing restore vertices into the DAG.
	ErrSnapshotValidationFailed = errors.Normalize(
		"snapshot validation failed for job %s, snapshot %d",
		errors.RFCCodeText("JET:ErrSnapshotValidationFailed"),
	)

	// ErrTerminationRejected is returned (not logged as an error) when a
	// termination request cannot be honoured given the current state.
	ErrTerminationRejected = errors.Normalize(
		"%s",
		errors.RFCCodeText("JET:ErrTerminationRejected"),
	)

	// ErrInvokerTransport is returned by jetcoordd's placeholder
	// participant call (cmd/jetcoordd/command/invoke.go). The RPC invoker
	// passes transport errors through unchanged as per-member responses.
	ErrInvokerTransport = errors.Normalize(
		"rpc to participant failed",
		errors.RFCCodeText("JET:ErrInvokerTransport"),
	)

	// ErrJobStoreUnavailable wraps a failure reading/writing persisted
	// job state.
	ErrJobStoreUnavailable = errors.Normalize(
		"job store unavailable",
		errors.RFCCodeText("JET:ErrJobStoreUnavailable"),
	)

	// ErrConfigLoadFailed wraps a failure parsing jetcoordd's TOML
	// config file.
	ErrConfigLoadFailed = errors.Normalize(
		"failed to load config from %s",
		errors.RFCCodeText("JET:ErrConfigLoadFailed"),
	)
)
