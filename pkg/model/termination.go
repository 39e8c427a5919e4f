package model

// ActionAfterTerminate names what the Finalizer should do once the
// current execution has stopped because of a requested termination.
type ActionAfterTerminate int32

const (
	// ActionNone means no special action: a plain cancel.
	ActionNone ActionAfterTerminate = iota
	// ActionRestart means the job should be restarted right away.
	ActionRestart
	// ActionSuspend means the job should move to Suspended.
	ActionSuspend
)

func (a ActionAfterTerminate) String() string {
	switch a {
	case ActionRestart:
		return "RESTART"
	case ActionSuspend:
		return "SUSPEND"
	default:
		return "NONE"
	}
}

// TerminationMode records the shape of a requested termination: whether
// it is graceful, whether it should take a terminal snapshot first, and
// what to do once the current execution has stopped.
type TerminationMode struct {
	ActionAfterTerminate ActionAfterTerminate
	WithTerminalSnapshot bool
	Graceful             bool
}

// Distinguished termination modes named in the coordinator's contracts.
var (
	CancelForceful  = TerminationMode{ActionAfterTerminate: ActionNone, WithTerminalSnapshot: false, Graceful: false}
	CancelGraceful  = TerminationMode{ActionAfterTerminate: ActionNone, WithTerminalSnapshot: true, Graceful: true}
	RestartGraceful = TerminationMode{ActionAfterTerminate: ActionRestart, WithTerminalSnapshot: true, Graceful: true}
	SuspendGraceful = TerminationMode{ActionAfterTerminate: ActionSuspend, WithTerminalSnapshot: true, Graceful: true}
)

// WithoutTerminalSnapshot returns a copy of m with the terminal-snapshot
// flag cleared and graceful downgraded to forceful, used when the job
// has no processing guarantee so a snapshot cannot be taken anyway.
func (m TerminationMode) WithoutTerminalSnapshot() TerminationMode {
	m.WithTerminalSnapshot = false
	m.Graceful = false
	return m
}

// Name returns a human-readable label for logging, matching the four
// distinguished constants above when m equals one of them.
func (m TerminationMode) Name() string {
	switch m {
	case CancelForceful:
		return "CANCEL_FORCEFUL"
	case CancelGraceful:
		return "CANCEL_GRACEFUL"
	case RestartGraceful:
		return "RESTART_GRACEFUL"
	case SuspendGraceful:
		return "SUSPEND_GRACEFUL"
	default:
		return "CUSTOM"
	}
}
