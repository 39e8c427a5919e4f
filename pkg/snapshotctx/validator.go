package snapshotctx

import (
	"context"

	derror "github.com/flowmesh/jetcoord/pkg/errors"
	"github.com/flowmesh/jetcoord/pkg/jobstore"
)

// Validator checks that a candidate restore source (a named map holding
// a previously-exported or successful snapshot) is usable before the
// Snapshot-Restore Weaver (C9) splices it into a DAG.
type Validator interface {
	Validate(ctx context.Context, snapshotID int64, mapName, jobIDString, snapshotName string) (resolvedSnapshotID int64, err error)
}

// StoreValidator is a Validator backed by the job store: it merely
// checks the named map exists. A real validator would also check the
// snapshot's format/version; that format is explicitly out of scope for
// this component (spec.md §1).
type StoreValidator struct {
	Store jobstore.Store
}

// Validate implements Validator.
func (v *StoreValidator) Validate(ctx context.Context, snapshotID int64, mapName, jobIDString, snapshotName string) (int64, error) {
	exists, err := v.Store.SnapshotMapExists(ctx, mapName)
	if err != nil {
		return 0, derror.ErrSnapshotValidationFailed.Wrap(err).GenWithStackByArgs(jobIDString, snapshotID)
	}
	if !exists {
		return 0, derror.ErrSnapshotValidationFailed.GenWithStackByArgs(jobIDString, snapshotID)
	}
	return snapshotID, nil
}
