package planbuilder

import (
	"github.com/flowmesh/jetcoord/pkg/dag"
	derror "github.com/flowmesh/jetcoord/pkg/errors"
	"github.com/flowmesh/jetcoord/pkg/model"
)

// Build partitions d's vertices across membersView's members round-robin
// by vertex index and returns one ExecutionPlan per member, already
// serialized into the bytes InitExecutionOp.SerializedPlan carries.
//
// Round-robin-by-index is the simplest partitioning that spreads every
// vertex across the whole participant set without consulting anything
// about the vertex itself (spec.md's DAG surface deliberately carries no
// cost/locality hints); a smarter strategy (load-aware, affinity-aware)
// is possible future work but not required by any invariant this module
// tests against.
func Build(
	d *dag.DAG,
	membersView model.MembersView,
	jobID model.JobID,
	executionID model.ExecutionID,
	cfg model.JobConfig,
	ongoingSnapshotID int64,
) (map[model.MemberInfo][]byte, error) {
	members := membersView.Members
	if len(members) == 0 {
		return nil, derror.ErrPlanBuildFailed.GenWithStackByArgs("no participants")
	}

	plans := make(map[model.MemberInfo]*ExecutionPlan, len(members))
	for _, m := range members {
		plans[m] = &ExecutionPlan{}
	}

	for i, v := range d.Vertices() {
		m := members[i%len(members)]
		plan := plans[m]
		plan.Vertices = append(plan.Vertices, &VertexPlan{Name: v.Name, Index: int32(i)})
	}

	out := make(map[model.MemberInfo][]byte, len(members))
	for m, plan := range plans {
		bytes, err := Marshal(plan)
		if err != nil {
			return nil, err
		}
		out[m] = bytes
	}
	return out, nil
}
