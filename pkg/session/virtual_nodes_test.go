package session

import (
	"testing"

	"rindang/dynaroute/pkg/datastructure"

	"github.com/golang/geo/r2"
	"github.com/stretchr/testify/assert"
)

/*
	a ---10--- b

one bidirectional edge on the x axis, 100 units long
*/
func buildEdgeGraph() (*datastructure.RoadNetwork, datastructure.NodeID, datastructure.NodeID) {
	rn := datastructure.NewRoadNetwork()
	a := datastructure.NewNodeID("a")
	b := datastructure.NewNodeID("b")
	rn.AddNode(a, r2.Point{X: 0, Y: 0})
	rn.AddNode(b, r2.Point{X: 100, Y: 0})
	rn.AddEdge(a, b, 10)
	rn.AddEdge(b, a, 10)
	rn.SnapshotOriginalWeights()
	return rn, a, b
}

func TestInsertOnEdgeSplitsWeight(t *testing.T) {
	rn, a, b := buildEdgeGraph()
	m := NewVirtualNodeManager(rn)

	id, err := m.InsertOnEdge(a, b, 0.3)
	assert.Nil(t, err)
	assert.True(t, id.Virtual())

	pos, ok := rn.Position(id)
	assert.True(t, ok)
	assert.InDelta(t, 30.0, pos.X, 1e-9)
	assert.InDelta(t, 0.0, pos.Y, 1e-9)

	// forward split conserves the total weight
	wIn, _ := rn.Weight(a, id)
	wOut, _ := rn.Weight(id, b)
	assert.InDelta(t, 3.0, wIn, 1e-9)
	assert.InDelta(t, 7.0, wOut, 1e-9)
	assert.InDelta(t, 10.0, wIn+wOut, 1e-9)

	// the reverse direction is split too
	wIn, _ = rn.Weight(b, id)
	wOut, _ = rn.Weight(id, a)
	assert.InDelta(t, 7.0, wIn, 1e-9)
	assert.InDelta(t, 3.0, wOut, 1e-9)
}

func TestInsertOnEdgeIdempotent(t *testing.T) {
	rn, a, b := buildEdgeGraph()
	m := NewVirtualNodeManager(rn)

	id1, err := m.InsertOnEdge(a, b, 0.3)
	assert.Nil(t, err)
	nodesAfterFirst := rn.NumNodes()

	// same spot within the rounding quantum
	id2, err := m.InsertOnEdge(a, b, 0.3004)
	assert.Nil(t, err)
	assert.Equal(t, id1, id2)
	assert.Equal(t, nodesAfterFirst, rn.NumNodes())
}

func TestInsertOnEdgeUsesOriginalWeight(t *testing.T) {
	rn, a, b := buildEdgeGraph()
	m := NewVirtualNodeManager(rn)

	// a jam is active on the edge when the split happens
	rn.SetWeight(a, b, 50)

	id, err := m.InsertOnEdge(a, b, 0.3)
	assert.Nil(t, err)

	// the split shares derive from the original 10, not the jammed 50
	wIn, _ := rn.Weight(a, id)
	wOut, _ := rn.Weight(id, b)
	assert.InDelta(t, 3.0, wIn, 1e-9)
	assert.InDelta(t, 7.0, wOut, 1e-9)

	// and the shares survive a weight reset
	rn.ResetWeights()
	wIn, _ = rn.Weight(a, id)
	assert.InDelta(t, 3.0, wIn, 1e-9)
}

func TestInsertOnEdgeMissingEdge(t *testing.T) {
	rn, a, _ := buildEdgeGraph()
	m := NewVirtualNodeManager(rn)

	_, err := m.InsertOnEdge(a, datastructure.NewNodeID("nope"), 0.5)
	assert.ErrorIs(t, err, ErrNoSuchEdge)
	assert.Equal(t, 2, rn.NumNodes())
}

func TestVirtualNodeRefCounting(t *testing.T) {
	rn, a, b := buildEdgeGraph()
	m := NewVirtualNodeManager(rn)

	id, _ := m.InsertOnEdge(a, b, 0.5)
	m.Acquire(id, RoleStart)
	m.Acquire(id, RoleStop)

	m.Release(id, RoleStart)
	assert.True(t, rn.HasNode(id))
	assert.True(t, m.Referenced(id))

	m.Release(id, RoleStop)
	assert.False(t, rn.HasNode(id))
	assert.False(t, m.Referenced(id))
	assert.False(t, rn.HasEdge(a, id))
	assert.False(t, rn.HasEdge(id, b))
}

func TestRegularNodesNotLifecycleManaged(t *testing.T) {
	rn, a, _ := buildEdgeGraph()
	m := NewVirtualNodeManager(rn)

	m.Acquire(a, RoleStart)
	m.Release(a, RoleStart)
	assert.True(t, rn.HasNode(a))
}

func TestDiscardUnreferenced(t *testing.T) {
	rn, a, b := buildEdgeGraph()
	m := NewVirtualNodeManager(rn)

	id, _ := m.InsertOnEdge(a, b, 0.5)
	m.DiscardUnreferenced(id)
	assert.False(t, rn.HasNode(id))

	// an acquired node is not discarded
	id, _ = m.InsertOnEdge(a, b, 0.5)
	m.Acquire(id, RoleStop)
	m.DiscardUnreferenced(id)
	assert.True(t, rn.HasNode(id))
}
