package jobcontroller

import (
	"fmt"

	"github.com/flowmesh/jetcoord/pkg/cluster"
	"github.com/flowmesh/jetcoord/pkg/model"
)

// classify implements the Result Classifier (C5): it maps a multiset of
// per-member responses to a single job-level outcome. planSize is the
// number of participants the dispatched operation was sent to — the
// Open Question in spec.md §9 is explicit that this, not len(responses),
// is the denominator for "did everyone succeed".
func classify(
	opName string,
	responses map[model.MemberInfo]cluster.Response,
	planSize int,
	forcefulCancelInEffect bool,
	mode model.TerminationMode,
) error {
	if forcefulCancelInEffect {
		return model.ErrCancelled
	}

	successes := 0
	var failures []error
	for _, resp := range responses {
		if resp.IsErr() {
			failures = append(failures, resp.Err)
		} else {
			successes++
		}
	}

	if successes == planSize {
		return nil
	}

	allTerminatedWithSnapshot := len(failures) > 0
	for _, f := range failures {
		if _, ok := f.(model.TerminatedWithSnapshotError); !ok {
			allTerminatedWithSnapshot = false
			break
		}
	}
	if allTerminatedWithSnapshot {
		// Only StartExecution responses carry TerminatedWithSnapshot;
		// seeing it for any other operation is an invariant violation.
		if opName != "Execution" {
			return model.IllegalStateError{Message: fmt.Sprintf("TerminatedWithSnapshot received for operation %q, expected \"Execution\"", opName)}
		}
		if mode == model.CancelGraceful {
			return model.ErrCancelled
		}
		return model.TerminateRequestedError{Mode: mode}
	}

	for _, f := range failures {
		if f == model.ErrCancelled {
			continue
		}
		if _, ok := f.(model.TerminatedWithSnapshotError); ok {
			continue
		}
		if model.IsTopologyException(f) {
			continue
		}
		return model.Peel(f)
	}

	return model.ErrTopologyChanged
}
