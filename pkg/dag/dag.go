// Package dag provides the minimal directed-acyclic-graph surface the
// coordinator needs: enough to iterate a job's vertices in a stable
// order, and to splice in the snapshot-restore sub-graph (C9) ahead of
// dispatching InitExecution. The DAG surface language itself — what a
// Vertex actually computes — is out of this component's scope; Vertex
// only carries what the coordinator must read or rewrite.
package dag

// ProcessorSupplier is an opaque, serializable descriptor of the
// processor a vertex runs. The coordinator never inspects it; it is
// forwarded to the plan builder and ultimately to participants.
type ProcessorSupplier interface {
	// Close is invoked by the coordinator when a vertex's owning job
	// execution ends, successfully or not, mirroring
	// ProcessorMetaSupplier.close(failure) in the source system.
	Close(failure error)
}

// NopProcessorSupplier is a ProcessorSupplier with no teardown action,
// used by vertices the coordinator itself creates (e.g. the
// snapshot-restore read/explode pair).
type NopProcessorSupplier struct{}

// Close implements ProcessorSupplier.
func (NopProcessorSupplier) Close(error) {}

// Vertex is one processing stage in the DAG.
type Vertex struct {
	Name     string
	Supplier ProcessorSupplier
}

// EdgeType distinguishes the routing semantics among DAG edges.
type EdgeType int

const (
	// EdgeTypeDistributed allows routing across cluster members.
	EdgeTypeDistributed EdgeType = 1 << iota
	// EdgeTypePartitioned routes by a key extracted from each item.
	EdgeTypePartitioned
	// EdgeTypeIsolated is a 1:1, no-routing edge between two vertices
	// with identical parallelism, used for the snapshot read→explode
	// link where ordering and locality must be preserved exactly.
	EdgeTypeIsolated
)

// Edge connects two vertices with a particular ordinal pair and
// routing behavior.
type Edge struct {
	From         *Vertex
	FromOrdinal  int
	To           *Vertex
	ToOrdinal    int
	Type         EdgeType
	Priority     int
	PartitionKey func(item interface{}) interface{}
}

// DAG is an ordered collection of vertices and the edges between them.
// Vertex order is iteration order: stable, insertion order, exactly as
// spec.md requires for the index assigned during snapshot-restore
// weaving (C9) and for the vertex snapshot the Finalizer completes
// against (C6).
type DAG struct {
	vertices []*Vertex
	edges    []*Edge
}

// New returns an empty DAG.
func New() *DAG {
	return &DAG{}
}

// NewVertex creates, appends, and returns a new vertex named name.
func (d *DAG) NewVertex(name string, supplier ProcessorSupplier) *Vertex {
	v := &Vertex{Name: name, Supplier: supplier}
	d.vertices = append(d.vertices, v)
	return v
}

// Vertices returns the DAG's vertices in stable iteration order. The
// returned slice is owned by the caller; mutating it does not affect d.
func (d *DAG) Vertices() []*Vertex {
	out := make([]*Vertex, len(d.vertices))
	copy(out, d.vertices)
	return out
}

// AddEdge appends e to the DAG's edge list.
func (d *DAG) AddEdge(e *Edge) {
	d.edges = append(d.edges, e)
}

// Edges returns the DAG's edges in insertion order. The returned slice
// is owned by the caller.
func (d *DAG) Edges() []*Edge {
	out := make([]*Edge, len(d.edges))
	copy(out, d.edges)
	return out
}

// InboundEdgeCount returns how many edges currently point at v, used to
// assign the next free inbound ordinal when splicing a new edge.
func (d *DAG) InboundEdgeCount(v *Vertex) int {
	n := 0
	for _, e := range d.edges {
		if e.To == v {
			n++
		}
	}
	return n
}

// Isolated returns a 1:1, unrouted edge between from and to at the
// given ordinals.
func Isolated(from *Vertex, fromOrdinal int, to *Vertex, toOrdinal int) *Edge {
	return &Edge{From: from, FromOrdinal: fromOrdinal, To: to, ToOrdinal: toOrdinal, Type: EdgeTypeIsolated}
}
