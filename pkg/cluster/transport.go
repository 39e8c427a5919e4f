package cluster

import (
	"context"
	"time"

	grpcmiddleware "github.com/grpc-ecosystem/go-grpc-middleware"
	grpclogging "github.com/grpc-ecosystem/go-grpc-middleware/logging/zap"
	grpcrecovery "github.com/grpc-ecosystem/go-grpc-middleware/recovery"
	"github.com/pkg/errors"
	"google.golang.org/grpc"

	"github.com/flowmesh/jetcoord/pkg/log"
	"github.com/flowmesh/jetcoord/pkg/model"
)

// ParticipantTransport sends one Operation to one participant and
// returns its raw reply or a transport-level error. It is the thing the
// RPC invocation primitive (spec.md §1, out of scope in depth) is built
// on; pkg/cluster only needs one concrete, network-backed
// implementation to exercise the rest of the stack end to end.
type ParticipantTransport interface {
	Send(ctx context.Context, member model.MemberInfo, op Operation) (interface{}, error)
}

// DialOptions returns the client-side gRPC dial options shared by every
// participant connection: an insecure transport (cluster members trust
// each other on the data-plane network) plus a logging interceptor
// chain, the same shape as the teacher's executor-facing client wiring.
func DialOptions() []grpc.DialOption {
	return []grpc.DialOption{
		grpc.WithInsecure(),
		grpc.WithBlock(),
		grpc.WithUnaryInterceptor(grpcmiddleware.ChainUnaryClient(
			grpclogging.UnaryClientInterceptor(log.L()),
		)),
	}
}

// ServerOptions returns the server-side gRPC options a participant-facing
// listener should use: a logging interceptor paired with a recovery
// interceptor so a panic handling one job's RPC can never take the whole
// process down.
func ServerOptions() []grpc.ServerOption {
	return []grpc.ServerOption{
		grpc.UnaryInterceptor(grpcmiddleware.ChainUnaryServer(
			grpclogging.UnaryServerInterceptor(log.L()),
			grpcrecovery.UnaryServerInterceptor(),
		)),
	}
}

// grpcTransport dials the participant on every Send and closes the
// connection once the call returns; connections are not cached or
// reused. It hands off the actual per-operation call to a
// pluggable codec function since this module does not generate protoc
// stubs for the participant-facing service (out of scope per spec.md §1).
type grpcTransport struct {
	dialTimeout time.Duration
	dial        func(addr string) (*grpc.ClientConn, error)
	invoke      func(ctx context.Context, conn *grpc.ClientConn, op Operation) (interface{}, error)
}

// NewGRPCTransport returns a ParticipantTransport that dials each
// member's address over gRPC and calls invoke to perform the actual
// unary RPC, so tests can substitute a fake invoke function while still
// exercising real connection setup.
func NewGRPCTransport(dialTimeout time.Duration, invoke func(ctx context.Context, conn *grpc.ClientConn, op Operation) (interface{}, error)) ParticipantTransport {
	return &grpcTransport{
		dialTimeout: dialTimeout,
		dial: func(addr string) (*grpc.ClientConn, error) {
			ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
			defer cancel()
			return grpc.DialContext(ctx, addr, DialOptions()...)
		},
		invoke: invoke,
	}
}

func (t *grpcTransport) Send(ctx context.Context, member model.MemberInfo, op Operation) (interface{}, error) {
	conn, err := t.dial(member.Address)
	if err != nil {
		return nil, errors.Wrapf(err, "dialing participant %s at %s", member.UUID, member.Address)
	}
	defer conn.Close()
	return t.invoke(ctx, conn, op)
}
