package model

import (
	"context"
	"sync"

	"go.uber.org/atomic"
)

// VoidFuture models the executionCompletionFuture: it is (re)created for
// every start attempt, completes exactly once per attempt, and always
// completes normally — success carries no value and failure is reported
// elsewhere (via the job completion future or the caller of
// RequestTermination).
type VoidFuture struct {
	done   chan struct{}
	once   sync.Once
	closed atomic.Bool
}

// NewVoidFuture returns a fresh, incomplete VoidFuture.
func NewVoidFuture() *VoidFuture {
	return &VoidFuture{done: make(chan struct{})}
}

// CompletedVoidFuture returns a VoidFuture that is already complete, used
// as the initial value before any execution has started.
func CompletedVoidFuture() *VoidFuture {
	f := NewVoidFuture()
	f.Complete()
	return f
}

// Complete marks f done. Safe to call more than once; only the first
// call has an effect.
func (f *VoidFuture) Complete() {
	if f.closed.CAS(false, true) {
		f.once.Do(func() { close(f.done) })
	}
}

// Done returns a channel closed when f completes.
func (f *VoidFuture) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until f completes or ctx is done, whichever comes first.
func (f *VoidFuture) Wait(ctx context.Context) error {
	select {
	case <-f.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsDone reports whether f has completed already.
func (f *VoidFuture) IsDone() bool {
	return f.closed.Load()
}

// CompletionFuture models the jobCompletionFuture: completed at most
// once across the entire job lifetime, carrying either success (nil
// error) or the classified terminal cause.
type CompletionFuture struct {
	done   chan struct{}
	once   sync.Once
	closed atomic.Bool
	err    atomic.Error
}

// NewCompletionFuture returns a fresh, incomplete CompletionFuture.
func NewCompletionFuture() *CompletionFuture {
	return &CompletionFuture{done: make(chan struct{})}
}

// Complete marks f done with success. A no-op if f is already complete,
// preserving the at-most-once guarantee (P1 in the coordinator's
// testable properties).
func (f *CompletionFuture) Complete() {
	f.completeWith(nil)
}

// CompleteError marks f done with the given terminal cause.
func (f *CompletionFuture) CompleteError(err error) {
	f.completeWith(err)
}

func (f *CompletionFuture) completeWith(err error) {
	if f.closed.CAS(false, true) {
		if err != nil {
			f.err.Store(err)
		}
		f.once.Do(func() { close(f.done) })
	}
}

// Done returns a channel closed when f completes.
func (f *CompletionFuture) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until f completes or ctx is done, returning f's terminal
// error (nil on success) or ctx.Err() on timeout/cancellation.
func (f *CompletionFuture) Wait(ctx context.Context) error {
	select {
	case <-f.done:
		return f.err.Load()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsDone reports whether f has completed already.
func (f *CompletionFuture) IsDone() bool {
	return f.closed.Load()
}
