package datastructure

import (
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/stretchr/testify/assert"
)

/*
	a ---10--- b ---20--- c

both edges bidirectional, nodes on the x axis 100 apart
*/
func buildLineNetwork() *RoadNetwork {
	rn := NewRoadNetwork()
	a, b, c := NewNodeID("a"), NewNodeID("b"), NewNodeID("c")
	rn.AddNode(a, r2.Point{X: 0, Y: 0})
	rn.AddNode(b, r2.Point{X: 100, Y: 0})
	rn.AddNode(c, r2.Point{X: 200, Y: 0})
	rn.AddEdge(a, b, 10)
	rn.AddEdge(b, a, 10)
	rn.AddEdge(b, c, 20)
	rn.AddEdge(c, b, 20)
	rn.SnapshotOriginalWeights()
	return rn
}

func TestRoadNetworkWeights(t *testing.T) {
	rn := buildLineNetwork()
	a, b := NewNodeID("a"), NewNodeID("b")

	w, ok := rn.Weight(a, b)
	assert.True(t, ok)
	assert.Equal(t, 10.0, w)

	rn.AddWeight(a, b, 5)
	w, _ = rn.Weight(a, b)
	assert.Equal(t, 15.0, w)

	rn.SetWeight(a, b, math.Inf(1))
	w, _ = rn.Weight(a, b)
	assert.True(t, math.IsInf(w, 1))

	// additive effects never un-block an infinite edge
	rn.AddWeight(a, b, -1000)
	w, _ = rn.Weight(a, b)
	assert.True(t, math.IsInf(w, 1))

	rn.ResetWeights()
	w, _ = rn.Weight(a, b)
	assert.Equal(t, 10.0, w)
}

func TestRoadNetworkAddWeightFloorsAtZero(t *testing.T) {
	rn := buildLineNetwork()
	a, b := NewNodeID("a"), NewNodeID("b")

	// a discount larger than the weight leaves the edge at 0, not negative
	rn.AddWeight(a, b, -25)
	w, _ := rn.Weight(a, b)
	assert.Equal(t, 0.0, w)

	rn.AddWeight(a, b, 3)
	w, _ = rn.Weight(a, b)
	assert.Equal(t, 3.0, w)
}

func TestRoadNetworkForEachEdge(t *testing.T) {
	rn := buildLineNetwork()
	a, b, c := NewNodeID("a"), NewNodeID("b"), NewNodeID("c")

	seen := make(map[DirectedEdge]float64)
	rn.ForEachEdge(func(u, v NodeID, weight float64) {
		seen[DirectedEdge{From: u, To: v}] = weight
	})
	assert.Equal(t, map[DirectedEdge]float64{
		{From: a, To: b}: 10,
		{From: b, To: a}: 10,
		{From: b, To: c}: 20,
		{From: c, To: b}: 20,
	}, seen)
}

func TestRoadNetworkResetOnlySnapshotted(t *testing.T) {
	rn := buildLineNetwork()
	a, c := NewNodeID("a"), NewNodeID("c")

	// added after the snapshot, without registering
	rn.AddEdge(a, c, 99)
	rn.SetWeight(a, c, 1)
	rn.ResetWeights()
	w, _ := rn.Weight(a, c)
	assert.Equal(t, 1.0, w)

	rn.RegisterOriginalWeight(a, c, 99)
	rn.ResetWeights()
	w, _ = rn.Weight(a, c)
	assert.Equal(t, 99.0, w)
}

func TestRoadNetworkRemoveNode(t *testing.T) {
	rn := buildLineNetwork()
	a, b, c := NewNodeID("a"), NewNodeID("b"), NewNodeID("c")

	rn.RemoveNode(b)
	assert.False(t, rn.HasNode(b))
	assert.False(t, rn.HasEdge(a, b))
	assert.False(t, rn.HasEdge(b, a))
	assert.False(t, rn.HasEdge(c, b))

	_, ok := rn.OriginalWeight(a, b)
	assert.False(t, ok)

	assert.True(t, rn.HasNode(a))
	assert.Equal(t, 2, rn.NumNodes())
	assert.Equal(t, 0, len(rn.Edges()))
}

func TestRoadNetworkEdgesNearSegment(t *testing.T) {
	rn := buildLineNetwork()
	a, b := NewNodeID("a"), NewNodeID("b")

	// vertical segment crossing a-b at x=50
	affected := rn.EdgesNearSegment(r2.Point{X: 50, Y: -10}, r2.Point{X: 50, Y: 10}, 5)
	assert.ElementsMatch(t, []DirectedEdge{
		{From: a, To: b},
		{From: b, To: a},
	}, affected)

	// far from every edge
	affected = rn.EdgesNearSegment(r2.Point{X: 50, Y: 100}, r2.Point{X: 60, Y: 100}, 5)
	assert.Empty(t, affected)

	// wide threshold captures everything
	affected = rn.EdgesNearSegment(r2.Point{X: 100, Y: 50}, r2.Point{X: 100, Y: 60}, 60)
	assert.Equal(t, 4, len(affected))
}
