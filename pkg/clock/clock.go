// Package clock re-exports benbjohnson/clock so the rest of the module
// depends on a single, injectable time source instead of calling
// time.Now/time.AfterFunc directly. This lets tests drive the metrics
// retry timer and scheduled restarts deterministically.
package clock

import "github.com/benbjohnson/clock"

// Clock is benbjohnson/clock.Clock, re-exported as an alias.
type Clock = clock.Clock

// Mock is a fake clock for tests.
type Mock = clock.Mock

// New returns the real wall clock.
func New() Clock {
	return clock.New()
}

// NewMock returns a fake clock for tests.
func NewMock() *clock.Mock {
	return clock.NewMock()
}
