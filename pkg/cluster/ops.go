package cluster

import "github.com/flowmesh/jetcoord/pkg/model"

// Operation is the payload dispatched to one participant. The
// coordinator treats it as opaque; only the transport (below) needs to
// know how to marshal each concrete type onto the wire.
type Operation interface {
	// OpName identifies the operation for logging and for the Result
	// Classifier, which asserts on it (spec.md §4.5 step 4).
	OpName() string
}

// OperationCtor builds the Operation to send to a specific participant,
// e.g. because InitExecution carries a per-member serialized plan.
type OperationCtor func(model.MemberInfo) Operation

// InitExecutionOp is phase A of the start protocol.
type InitExecutionOp struct {
	JobID              model.JobID       `protobuf:"varint,1,opt,name=job_id"`
	ExecutionID        model.ExecutionID `protobuf:"varint,2,opt,name=execution_id"`
	MembersViewVersion int64             `protobuf:"varint,3,opt,name=members_view_version"`
	Participants       []string          `protobuf:"bytes,4,rep,name=participants"`
	SerializedPlan     []byte            `protobuf:"bytes,5,opt,name=serialized_plan"`
}

// OpName implements Operation.
func (InitExecutionOp) OpName() string { return "Init" }

// StartExecutionOp is phase B of the start protocol.
type StartExecutionOp struct {
	JobID       model.JobID       `protobuf:"varint,1,opt,name=job_id"`
	ExecutionID model.ExecutionID `protobuf:"varint,2,opt,name=execution_id"`
}

// OpName implements Operation.
func (StartExecutionOp) OpName() string { return "Execution" }

// TerminateExecutionOp cooperatively stops an execution on a
// participant, carrying the termination mode so the participant can
// decide whether to take a terminal snapshot first.
type TerminateExecutionOp struct {
	JobID       model.JobID           `protobuf:"varint,1,opt,name=job_id"`
	ExecutionID model.ExecutionID     `protobuf:"varint,2,opt,name=execution_id"`
	Mode        model.TerminationMode `protobuf:"bytes,3,opt,name=mode"`
}

// OpName implements Operation.
func (TerminateExecutionOp) OpName() string { return "Terminate" }

// GetLocalJobMetricsOp asks a participant for its locally-held metrics
// for one execution.
type GetLocalJobMetricsOp struct {
	JobID       model.JobID       `protobuf:"varint,1,opt,name=job_id"`
	ExecutionID model.ExecutionID `protobuf:"varint,2,opt,name=execution_id"`
}

// OpName implements Operation.
func (GetLocalJobMetricsOp) OpName() string { return "GetLocalJobMetrics" }

// ExecutionNotFoundError is returned by GetLocalJobMetrics when the
// queried member has no record of the given execution, the race the
// Metrics Aggregator (C7) retries around.
type ExecutionNotFoundError struct {
	JobID       model.JobID
	ExecutionID model.ExecutionID
}

func (e ExecutionNotFoundError) Error() string {
	return "execution not found on participant"
}
