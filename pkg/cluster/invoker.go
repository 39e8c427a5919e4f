package cluster

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/flowmesh/jetcoord/pkg/model"
)

// Invoker is the RPC invocation primitive the coordinator dispatches
// against: build one Operation per participant, run them all
// concurrently, and report both per-response and completion callbacks.
// It is listed in spec.md §1 as an external collaborator, out of scope
// for its internals; this type is the one concrete implementation this
// module ships to exercise the rest of the stack.
type Invoker interface {
	// InvokeOnParticipants dispatches ctor(member) to every member in
	// participants concurrently. onResponse, if non-nil, is called once
	// per reply as soon as it arrives, in no particular order.
	// onComplete, if non-nil, is called exactly once after every
	// participant has replied, with the full response map. When
	// retryOnPartitionMigration is set the invoker may retry a transport
	// failure caused by a mid-flight partition table update; this
	// module's implementation retries any transport failure once, without
	// looking at its cause.
	InvokeOnParticipants(
		ctx context.Context,
		participants []model.MemberInfo,
		ctor OperationCtor,
		onResponse func(model.MemberInfo, Response),
		onComplete func(map[model.MemberInfo]Response),
		retryOnPartitionMigration bool,
	)
}

type transportInvoker struct {
	transport ParticipantTransport
}

// NewInvoker returns an Invoker backed by transport.
func NewInvoker(transport ParticipantTransport) Invoker {
	return &transportInvoker{transport: transport}
}

func (inv *transportInvoker) InvokeOnParticipants(
	ctx context.Context,
	participants []model.MemberInfo,
	ctor OperationCtor,
	onResponse func(model.MemberInfo, Response),
	onComplete func(map[model.MemberInfo]Response),
	retryOnPartitionMigration bool,
) {
	go func() {
		var mu sync.Mutex
		responses := make(map[model.MemberInfo]Response, len(participants))

		var g errgroup.Group
		for _, member := range participants {
			member := member
			g.Go(func() error {
				resp := inv.sendOne(ctx, member, ctor(member), retryOnPartitionMigration)
				mu.Lock()
				responses[member] = resp
				mu.Unlock()
				if onResponse != nil {
					onResponse(member, resp)
				}
				return nil
			})
		}
		_ = g.Wait()

		if onComplete != nil {
			onComplete(responses)
		}
	}()
}

func (inv *transportInvoker) sendOne(ctx context.Context, member model.MemberInfo, op Operation, retry bool) Response {
	value, err := inv.transport.Send(ctx, member, op)
	if err != nil && retry {
		value, err = inv.transport.Send(ctx, member, op)
	}
	if err != nil {
		return Failure(err)
	}
	if value == nil {
		return Response{}
	}
	if _, ok := value.(executionCompletedMarker); ok {
		return Completed()
	}
	return Success(value)
}
