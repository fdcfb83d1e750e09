package datastructure

import (
	"fmt"

	"rindang/dynaroute/pkg/util"
)

const virtualRatioPrecision = 3

// NodeID identifies a node in the road network. A regular node carries only
// its Name. A virtual node is a session-scoped point on the edge (U,V) at
// Ratio along it; its Name is empty. The ratio is quantized so that two
// insertions at the same spot produce the same id, and the struct is
// comparable so it can be used as a map key directly.
type NodeID struct {
	Name  string
	U     string
	V     string
	Ratio float64
}

func NewNodeID(name string) NodeID {
	return NodeID{Name: name}
}

func NewVirtualNodeID(u, v string, ratio float64) NodeID {
	return NodeID{
		U:     u,
		V:     v,
		Ratio: util.RoundFloat(ratio, virtualRatioPrecision),
	}
}

func (id NodeID) Virtual() bool {
	return id.Name == ""
}

func (id NodeID) String() string {
	if id.Virtual() {
		return fmt.Sprintf("virtual:%s-%s@%.3f", id.U, id.V, id.Ratio)
	}
	return id.Name
}
