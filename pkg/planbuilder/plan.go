// Package planbuilder partitions a job's DAG across participants and
// serializes each participant's share into the wire payload
// InitExecutionOp carries. It is the "plan builder" external
// collaborator named in spec.md §6; its partitioning strategy is not
// specified there and is recorded as an Open Question decision in
// DESIGN.md.
package planbuilder

import (
	"github.com/gogo/protobuf/proto"

	derror "github.com/flowmesh/jetcoord/pkg/errors"
)

// VertexPlan is one vertex's share of a participant's execution plan.
type VertexPlan struct {
	Name  string `protobuf:"bytes,1,opt,name=name"`
	Index int32  `protobuf:"varint,2,opt,name=index"`
}

// ExecutionPlan is a single participant's share of a job's DAG, the
// payload serialized into InitExecutionOp.SerializedPlan.
type ExecutionPlan struct {
	Vertices []*VertexPlan `protobuf:"bytes,1,rep,name=vertices"`
}

// Reset, String, and ProtoMessage satisfy gogo/protobuf's proto.Message
// interface so ExecutionPlan can be marshaled by reflection over its
// struct tags, the same shape hand-written plan types take before a
// .proto file and codegen step are introduced.
func (p *ExecutionPlan) Reset()         { *p = ExecutionPlan{} }
func (p *ExecutionPlan) String() string { return proto.CompactTextString(p) }
func (*ExecutionPlan) ProtoMessage()    {}

// Marshal serializes p for transport.
func Marshal(p *ExecutionPlan) ([]byte, error) {
	bytes, err := proto.Marshal(p)
	if err != nil {
		return nil, derror.ErrPlanBuildFailed.Wrap(err).GenWithStackByArgs()
	}
	return bytes, nil
}

// Unmarshal is the participant-side counterpart to Marshal; the
// coordinator itself never calls it, but it's exported so a participant
// stub (or a test standing in for one) can decode what was sent.
func Unmarshal(bytes []byte) (*ExecutionPlan, error) {
	p := &ExecutionPlan{}
	if err := proto.Unmarshal(bytes, p); err != nil {
		return nil, derror.ErrPlanBuildFailed.Wrap(err).GenWithStackByArgs()
	}
	return p, nil
}
