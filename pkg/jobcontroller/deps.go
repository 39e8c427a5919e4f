// Package jobcontroller implements the master-side per-job execution
// coordinator: the two-phase start protocol, termination arbitration,
// result classification, finalization, metrics aggregation, and
// snapshot-restore DAG weaving described across C1-C9. It depends on a
// handful of external collaborators (cluster membership, the RPC
// invoker, the job store, the snapshot context/validator, the
// coordination and execution services, and the plan builder); this
// package owns none of their internals.
package jobcontroller

import (
	"github.com/flowmesh/jetcoord/pkg/clock"
	"github.com/flowmesh/jetcoord/pkg/cluster"
	"github.com/flowmesh/jetcoord/pkg/coordination"
	"github.com/flowmesh/jetcoord/pkg/dag"
	"github.com/flowmesh/jetcoord/pkg/jobstore"
	"github.com/flowmesh/jetcoord/pkg/model"
	"github.com/flowmesh/jetcoord/pkg/snapshotctx"
)

// DAGLoader deserializes a job's stored DAG bytes. The DAG surface
// language itself is out of scope (spec.md §1 Non-goals); the
// controller only needs something that turns bytes into a *dag.DAG or
// reports a user-caused failure.
type DAGLoader func(serialized []byte) (*dag.DAG, error)

// PlanBuilder partitions a (possibly snapshot-rewritten) DAG across
// membersView's participants and returns each member's serialized share,
// matching pkg/planbuilder.Build's signature.
type PlanBuilder func(
	d *dag.DAG,
	membersView model.MembersView,
	jobID model.JobID,
	executionID model.ExecutionID,
	cfg model.JobConfig,
	ongoingSnapshotID int64,
) (map[model.MemberInfo][]byte, error)

// Deps bundles every external collaborator the controller needs, all
// named identically to spec.md §6.
type Deps struct {
	Membership        cluster.Service
	Invoker           cluster.Invoker
	Store             jobstore.Store
	SnapshotContext   snapshotctx.Context
	SnapshotValidator snapshotctx.Validator
	Coordination      coordination.Service
	ExecutionService  coordination.ExecutionService
	PlanBuilder       PlanBuilder
	DAGLoader         DAGLoader
	Clock             clock.Clock

	// ExecutionIDSupplier allocates a fresh ExecutionID per start
	// attempt; always invoked under the controller's master lock.
	ExecutionIDSupplier model.ExecutionIDSupplier
}
