package session

import (
	"rindang/dynaroute/pkg/datastructure"
	"rindang/dynaroute/pkg/geo"

	"github.com/pkg/errors"
)

// ErrNoSuchEdge is returned when a virtual node is requested on an edge that
// is not in the graph. The graph is left untouched.
var ErrNoSuchEdge = errors.New("no such edge")

// Role distinguishes the selection slots that can hold a reference to a
// virtual node. Reference counting is per role: a virtual node used as both a
// stop and an endpoint survives until every role released it.
type Role int

const (
	RoleStart Role = iota
	RoleEnd
	RoleStop
)

// VirtualNodeManager inserts and removes the session-scoped nodes that split
// an existing edge at a ratio. Insertion is idempotent: the id is
// deterministic in (u, v, quantized ratio), so a second insertion at the same
// spot returns the existing node without duplicating edges.
type VirtualNodeManager struct {
	graph *datastructure.RoadNetwork
	refs  map[datastructure.NodeID]map[Role]int
}

func NewVirtualNodeManager(graph *datastructure.RoadNetwork) *VirtualNodeManager {
	return &VirtualNodeManager{
		graph: graph,
		refs:  make(map[datastructure.NodeID]map[Role]int),
	}
}

// InsertOnEdge splits edge (u,v) at ratio. The synthetic edges carry the
// proportional share of the ORIGINAL (u,v) weight, not the live one, so a jam
// active at insertion time does not get baked into the baseline; they are
// registered in the original-weight snapshot so the recompute pass resets
// them like any loaded edge. The reverse direction is split too when (v,u)
// exists. Boundary ratios are not rejected here; clamping is the caller's
// policy.
func (m *VirtualNodeManager) InsertOnEdge(u, v datastructure.NodeID, ratio float64) (datastructure.NodeID, error) {
	if !m.graph.HasEdge(u, v) {
		return datastructure.NodeID{}, ErrNoSuchEdge
	}

	id := datastructure.NewVirtualNodeID(u.String(), v.String(), ratio)
	if m.graph.HasNode(id) {
		return id, nil
	}

	w, ok := m.graph.OriginalWeight(u, v)
	if !ok {
		w, _ = m.graph.Weight(u, v)
	}

	posU, _ := m.graph.Position(u)
	posV, _ := m.graph.Position(v)
	m.graph.AddNode(id, geo.Interpolate(posU, posV, id.Ratio))

	m.addSplitEdge(u, id, id.Ratio*w)
	m.addSplitEdge(id, v, (1-id.Ratio)*w)

	if m.graph.HasEdge(v, u) {
		wRev, ok := m.graph.OriginalWeight(v, u)
		if !ok {
			wRev, _ = m.graph.Weight(v, u)
		}
		m.addSplitEdge(v, id, (1-id.Ratio)*wRev)
		m.addSplitEdge(id, u, id.Ratio*wRev)
	}

	return id, nil
}

func (m *VirtualNodeManager) addSplitEdge(u, v datastructure.NodeID, weight float64) {
	m.graph.AddEdge(u, v, weight)
	m.graph.RegisterOriginalWeight(u, v, weight)
}

// Acquire records that role references the node. Regular nodes are ignored;
// only virtual nodes are lifecycle-managed.
func (m *VirtualNodeManager) Acquire(id datastructure.NodeID, role Role) {
	if !id.Virtual() {
		return
	}
	if m.refs[id] == nil {
		m.refs[id] = make(map[Role]int)
	}
	m.refs[id][role]++
}

// Release drops one reference of role. The node and its synthetic edges are
// removed from the graph only when no role references it anymore.
func (m *VirtualNodeManager) Release(id datastructure.NodeID, role Role) {
	if !id.Virtual() {
		return
	}
	roles, ok := m.refs[id]
	if !ok {
		return
	}
	roles[role]--
	if roles[role] <= 0 {
		delete(roles, role)
	}
	if len(roles) == 0 {
		delete(m.refs, id)
		m.graph.RemoveNode(id)
	}
}

// DiscardUnreferenced removes a virtual node that no role ever acquired,
// undoing a speculative insertion whose selection was rejected.
func (m *VirtualNodeManager) DiscardUnreferenced(id datastructure.NodeID) {
	if !id.Virtual() || m.Referenced(id) {
		return
	}
	if m.graph.HasNode(id) {
		m.graph.RemoveNode(id)
	}
}

// Referenced reports whether any role still holds the node.
func (m *VirtualNodeManager) Referenced(id datastructure.NodeID) bool {
	return len(m.refs[id]) > 0
}
