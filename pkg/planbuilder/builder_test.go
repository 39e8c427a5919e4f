package planbuilder

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flowmesh/jetcoord/pkg/dag"
	"github.com/flowmesh/jetcoord/pkg/model"
)

func threeVertexDAG() *dag.DAG {
	d := dag.New()
	d.NewVertex("source", dag.NopProcessorSupplier{})
	d.NewVertex("map", dag.NopProcessorSupplier{})
	d.NewVertex("sink", dag.NopProcessorSupplier{})
	return d
}

func twoMembers() model.MembersView {
	return model.MembersView{
		Version: 1,
		Members: []model.MemberInfo{
			{UUID: "a", Address: "10.0.0.1:9000"},
			{UUID: "b", Address: "10.0.0.2:9000"},
		},
	}
}

func TestBuildDistributesVerticesRoundRobin(t *testing.T) {
	d := threeVertexDAG()
	mv := twoMembers()

	plans, err := Build(d, mv, 1, 1, model.JobConfig{}, 0)
	require.NoError(t, err)
	require.Len(t, plans, 2)

	for _, m := range mv.Members {
		_, ok := plans[m]
		require.True(t, ok, "expected a plan for member %v", m)
	}

	total := 0
	for _, bytes := range plans {
		plan, err := Unmarshal(bytes)
		require.NoError(t, err)
		total += len(plan.Vertices)
	}
	require.Equal(t, 3, total)
}

func TestBuildRejectsEmptyMembersView(t *testing.T) {
	d := threeVertexDAG()
	_, err := Build(d, model.MembersView{}, 1, 1, model.JobConfig{}, 0)
	require.Error(t, err)
}

func TestMarshalRoundTrip(t *testing.T) {
	plan := &ExecutionPlan{Vertices: []*VertexPlan{{Name: "source", Index: 0}}}
	bytes, err := Marshal(plan)
	require.NoError(t, err)

	decoded, err := Unmarshal(bytes)
	require.NoError(t, err)
	require.Len(t, decoded.Vertices, 1)
	require.Equal(t, "source", decoded.Vertices[0].Name)
}
