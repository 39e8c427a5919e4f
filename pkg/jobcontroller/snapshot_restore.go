package jobcontroller

import (
	"math"

	"github.com/flowmesh/jetcoord/pkg/dag"
)

// snapshotReadSupplier reads a previously-exported or successful
// snapshot's data map. What it actually does at runtime is the
// per-node execution engine's concern (out of scope, spec.md §1); the
// coordinator only needs to know its name and which map to read.
type snapshotReadSupplier struct {
	MapName    string
	SnapshotID int64
}

// Close implements dag.ProcessorSupplier.
func (snapshotReadSupplier) Close(error) {}

// snapshotExplodeSupplier fans the snapshot's entries back out, keyed
// per original vertex, using the vertexName→ordinal index built while
// weaving.
type snapshotExplodeSupplier struct {
	VertexOrdinals map[string]int
}

// Close implements dag.ProcessorSupplier.
func (snapshotExplodeSupplier) Close(error) {}

// weaveSnapshotRestore is C9: it rewrites d in place to prepend a
// snapshot-read + explode sub-graph ahead of every existing vertex,
// restoring state before regular processing resumes.
func weaveSnapshotRestore(d *dag.DAG, resolvedSnapshotID int64, mapName, snapshotName string) error {
	originalVertices := d.Vertices()

	ordinals := make(map[string]int, len(originalVertices))
	for i, v := range originalVertices {
		ordinals[v.Name] = i
	}

	readVertex := d.NewVertex("__snapshot_read", snapshotReadSupplier{MapName: mapName, SnapshotID: resolvedSnapshotID})
	explodeVertex := d.NewVertex("__snapshot_explode", snapshotExplodeSupplier{VertexOrdinals: ordinals})

	d.AddEdge(dag.Isolated(readVertex, 0, explodeVertex, 0))

	for i, v := range originalVertices {
		d.AddEdge(&dag.Edge{
			From:        explodeVertex,
			FromOrdinal: i,
			To:          v,
			ToOrdinal:   d.InboundEdgeCount(v),
			Type:        dag.EdgeTypeDistributed | dag.EdgeTypePartitioned,
			Priority:    math.MinInt32,
			PartitionKey: func(item interface{}) interface{} {
				return item
			},
		})
	}

	return nil
}
