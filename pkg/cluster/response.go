package cluster

// executionCompletedMarker is the sentinel value GetLocalJobMetrics
// returns instead of a RawJobMetrics when the participant has already
// finished the execution locally and discarded its live metrics.
type executionCompletedMarker struct{}

// ExecutionCompleted is the single instance of the EXECUTION_COMPLETED
// sentinel used throughout the metrics aggregator (C7).
var ExecutionCompleted = executionCompletedMarker{}

// Response is the tagged variant every per-participant reply is
// normalized to before it crosses into the coordinator: either a
// success payload, the EXECUTION_COMPLETED sentinel, or an error. This
// replaces overloading a single interface{} slot with ad hoc type
// assertions (see spec's Design Notes on sentinel values in
// union-typed maps).
type Response struct {
	Value interface{}
	Err   error
}

// IsErr reports whether r represents a failure response.
func (r Response) IsErr() bool {
	return r.Err != nil
}

// IsExecutionCompleted reports whether r carries the EXECUTION_COMPLETED
// sentinel.
func (r Response) IsExecutionCompleted() bool {
	_, ok := r.Value.(executionCompletedMarker)
	return ok
}

// Success wraps a successful response payload.
func Success(value interface{}) Response {
	return Response{Value: value}
}

// Failure wraps a failed response.
func Failure(err error) Response {
	return Response{Err: err}
}

// Completed returns a response carrying the EXECUTION_COMPLETED
// sentinel.
func Completed() Response {
	return Response{Value: ExecutionCompleted}
}
