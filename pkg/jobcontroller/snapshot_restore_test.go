package jobcontroller

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flowmesh/jetcoord/pkg/dag"
)

func TestWeaveSnapshotRestorePrependsReadExplodePair(t *testing.T) {
	d := dag.New()
	source := d.NewVertex("source", dag.NopProcessorSupplier{})
	sink := d.NewVertex("sink", dag.NopProcessorSupplier{})
	d.AddEdge(dag.Isolated(source, 0, sink, 0))

	err := weaveSnapshotRestore(d, 7, "snapshot-map", "terminal-1")
	require.NoError(t, err)

	vertices := d.Vertices()
	require.Len(t, vertices, 4)
	require.Equal(t, "source", vertices[0].Name)
	require.Equal(t, "sink", vertices[1].Name)
	require.Equal(t, "__snapshot_read", vertices[2].Name)
	require.Equal(t, "__snapshot_explode", vertices[3].Name)

	read, ok := vertices[2].Supplier.(snapshotReadSupplier)
	require.True(t, ok)
	require.Equal(t, "snapshot-map", read.MapName)
	require.Equal(t, int64(7), read.SnapshotID)

	explode, ok := vertices[3].Supplier.(snapshotExplodeSupplier)
	require.True(t, ok)
	require.Equal(t, map[string]int{"source": 0, "sink": 1}, explode.VertexOrdinals)
}

func TestWeaveSnapshotRestoreLinksReadToExplodeInIsolation(t *testing.T) {
	d := dag.New()
	d.NewVertex("only", dag.NopProcessorSupplier{})

	require.NoError(t, weaveSnapshotRestore(d, 1, "map", "snap"))

	vertices := d.Vertices()
	readVertex := vertices[1]
	explodeVertex := vertices[2]

	var isolatedEdge *dag.Edge
	for _, e := range d.Edges() {
		if e.From == readVertex && e.To == explodeVertex {
			isolatedEdge = e
		}
	}
	require.NotNil(t, isolatedEdge)
	require.Equal(t, dag.EdgeTypeIsolated, isolatedEdge.Type)
}

func TestWeaveSnapshotRestoreSplicesOneDistributedPartitionedEdgePerVertex(t *testing.T) {
	d := dag.New()
	a := d.NewVertex("a", dag.NopProcessorSupplier{})
	b := d.NewVertex("b", dag.NopProcessorSupplier{})

	require.NoError(t, weaveSnapshotRestore(d, 1, "map", "snap"))

	vertices := d.Vertices()
	explodeVertex := vertices[3]

	var toA, toB *dag.Edge
	for _, e := range d.Edges() {
		if e.From != explodeVertex {
			continue
		}
		switch e.To {
		case a:
			toA = e
		case b:
			toB = e
		}
	}

	require.NotNil(t, toA)
	require.NotNil(t, toB)

	for _, e := range []*dag.Edge{toA, toB} {
		require.Equal(t, dag.EdgeTypeDistributed|dag.EdgeTypePartitioned, e.Type)
		require.Equal(t, math.MinInt32, e.Priority, "restore edges must outrank regular input so they drain first")
		require.NotNil(t, e.PartitionKey)
	}

	require.Equal(t, 0, toA.FromOrdinal)
	require.Equal(t, 1, toB.FromOrdinal)
}
