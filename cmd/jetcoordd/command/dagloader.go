package command

import (
	"encoding/json"

	"github.com/flowmesh/jetcoord/pkg/dag"
	derror "github.com/flowmesh/jetcoord/pkg/errors"
)

// jsonDAGLoader deserializes the minimal DAG encoding jetcoordd accepts
// at job submission: a JSON array of vertex names, each becoming a
// no-op vertex. The DAG surface language itself is out of this
// component's scope (spec.md §1); any real deployment would plug its
// own DAGLoader into jobcontroller.Deps here instead.
func jsonDAGLoader(serialized []byte) (*dag.DAG, error) {
	var names []string
	if err := json.Unmarshal(serialized, &names); err != nil {
		return nil, derror.ErrDagDeserializeFailed.Wrap(err).GenWithStackByArgs("<unknown>")
	}
	d := dag.New()
	for _, name := range names {
		d.NewVertex(name, dag.NopProcessorSupplier{})
	}
	return d, nil
}
