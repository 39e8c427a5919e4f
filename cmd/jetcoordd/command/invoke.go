package command

import (
	"context"

	"google.golang.org/grpc"

	"github.com/flowmesh/jetcoord/pkg/cluster"
	derror "github.com/flowmesh/jetcoord/pkg/errors"
)

// invokeParticipant performs the actual unary RPC call for one
// Operation against a dialed participant connection. The participant-
// facing wire protocol (the generated client stub for Init/Start/
// Terminate/GetLocalJobMetrics) is out of this component's scope
// (spec.md §1): a real deployment wires its own generated client here.
func invokeParticipant(_ context.Context, _ *grpc.ClientConn, _ cluster.Operation) (interface{}, error) {
	return nil, derror.ErrInvokerTransport.GenWithStackByArgs()
}
