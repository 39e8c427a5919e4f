// Package snapshotctx models the snapshot context and snapshot
// validator external collaborators of spec.md §6: terminal-snapshot
// bookkeeping around an execution's lifetime, and validating a
// candidate restore source before it is spliced into a DAG.
package snapshotctx

import (
	"context"
	"sync"

	"github.com/flowmesh/jetcoord/pkg/model"
)

// Context tracks the terminal snapshot (if any) for one job's current
// execution. The coordinator's Termination Controller (C2) and Start
// Protocol Driver (C4) call it at well-defined lifecycle points;
// everything about how/when a snapshot is actually taken is out of this
// component's scope.
type Context interface {
	OnExecutionStarted()
	OnExecutionTerminated()

	// EnqueueSnapshot registers a pending snapshot. When isTerminal is
	// true it is the one snapshot the coordinator waits on before
	// finalizing the execution.
	EnqueueSnapshot(name string, isTerminal bool)

	// TryBeginSnapshot kicks off the terminal snapshot if one is
	// pending; idempotent, matching handleTermination's requirement in
	// spec.md §4.2.
	TryBeginSnapshot()

	// TerminalSnapshotFuture returns a future that resolves once the
	// terminal snapshot (if any was requested) has finished, successfully
	// or not.
	TerminalSnapshotFuture() *model.VoidFuture
}

// InMemoryContext is a Context suitable for tests and for driving the
// controller without a real snapshot subsystem: TryBeginSnapshot
// completes the terminal future immediately.
type InMemoryContext struct {
	mu sync.Mutex

	terminalFuture  *model.VoidFuture
	terminalPending bool
	beginHook       func()
}

// NewInMemoryContext returns a Context with no pending snapshot.
func NewInMemoryContext() *InMemoryContext {
	return &InMemoryContext{terminalFuture: model.CompletedVoidFuture()}
}

// SetBeginHook installs a callback invoked synchronously by
// TryBeginSnapshot, letting tests control exactly when the terminal
// future resolves (e.g. to simulate a slow snapshot).
func (c *InMemoryContext) SetBeginHook(hook func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.beginHook = hook
}

// OnExecutionStarted implements Context.
func (c *InMemoryContext) OnExecutionStarted() {}

// OnExecutionTerminated implements Context.
func (c *InMemoryContext) OnExecutionTerminated() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.terminalPending = false
}

// EnqueueSnapshot implements Context.
func (c *InMemoryContext) EnqueueSnapshot(_ string, isTerminal bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if isTerminal {
		c.terminalPending = true
		c.terminalFuture = model.NewVoidFuture()
	}
}

// TryBeginSnapshot implements Context.
func (c *InMemoryContext) TryBeginSnapshot() {
	c.mu.Lock()
	pending := c.terminalPending
	hook := c.beginHook
	future := c.terminalFuture
	c.mu.Unlock()
	if !pending {
		return
	}
	if hook != nil {
		hook()
		return
	}
	future.Complete()
}

// TerminalSnapshotFuture implements Context.
func (c *InMemoryContext) TerminalSnapshotFuture() *model.VoidFuture {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.terminalFuture
}

// CompleteTerminalSnapshot is a test helper to resolve the pending
// terminal snapshot asynchronously, simulating the real subsystem's
// callback.
func (c *InMemoryContext) CompleteTerminalSnapshot() {
	c.mu.Lock()
	future := c.terminalFuture
	c.terminalPending = false
	c.mu.Unlock()
	future.Complete()
}

// WaitTerminal blocks in tests until the terminal snapshot completes or
// ctx is done.
func (c *InMemoryContext) WaitTerminal(ctx context.Context) error {
	return c.TerminalSnapshotFuture().Wait(ctx)
}
