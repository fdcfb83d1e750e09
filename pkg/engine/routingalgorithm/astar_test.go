package routingalgorithm

import (
	"math"
	"testing"

	"rindang/dynaroute/pkg/datastructure"

	"github.com/golang/geo/r2"
	"github.com/stretchr/testify/assert"
)

/*
	 p
	  \
	   \
	    10
	     \
		  v -----3----- r
		 /            /
		6            5
	   /    		/
	  q ---5----- w ----15---- f

every edge bidirectional; positions keep the straight-line heuristic
admissible (every weight is at least the endpoint distance)
*/
func buildTestGraph() *datastructure.RoadNetwork {
	rn := datastructure.NewRoadNetwork()
	positions := map[string]r2.Point{
		"p": {X: 0, Y: 2},
		"v": {X: 1, Y: 1},
		"r": {X: 3, Y: 1},
		"q": {X: 0, Y: 0},
		"w": {X: 2, Y: 0},
		"f": {X: 4, Y: 0},
	}
	for name, pos := range positions {
		rn.AddNode(datastructure.NewNodeID(name), pos)
	}

	addBoth := func(u, v string, w float64) {
		rn.AddEdge(datastructure.NewNodeID(u), datastructure.NewNodeID(v), w)
		rn.AddEdge(datastructure.NewNodeID(v), datastructure.NewNodeID(u), w)
	}
	addBoth("p", "v", 10)
	addBoth("v", "r", 3)
	addBoth("v", "q", 6)
	addBoth("q", "w", 5)
	addBoth("r", "w", 5)
	addBoth("w", "f", 15)

	rn.SnapshotOriginalWeights()
	return rn
}

func id(name string) datastructure.NodeID {
	return datastructure.NewNodeID(name)
}

func TestShortestPathAStar(t *testing.T) {
	rn := buildTestGraph()
	rt := NewRouteAlgorithm(rn)

	path, cost, found := rt.ShortestPath(id("p"), id("f"))
	assert.True(t, found)
	assert.Equal(t, 33.0, cost)

	// shortest path: p -> v -> r -> w -> f
	assert.Equal(t, []datastructure.NodeID{id("p"), id("v"), id("r"), id("w"), id("f")}, path)
}

func TestShortestPathSameNode(t *testing.T) {
	rn := buildTestGraph()
	rt := NewRouteAlgorithm(rn)

	path, cost, found := rt.ShortestPath(id("p"), id("p"))
	assert.True(t, found)
	assert.Equal(t, 0.0, cost)
	assert.Equal(t, []datastructure.NodeID{id("p")}, path)
}

func TestShortestPathUnknownNode(t *testing.T) {
	rn := buildTestGraph()
	rt := NewRouteAlgorithm(rn)

	_, _, found := rt.ShortestPath(id("p"), id("nope"))
	assert.False(t, found)
}

func TestShortestPathUnreachable(t *testing.T) {
	rn := buildTestGraph()
	rn.AddNode(id("island"), r2.Point{X: 50, Y: 50})
	rt := NewRouteAlgorithm(rn)

	_, _, found := rt.ShortestPath(id("p"), id("island"))
	assert.False(t, found)
}

func TestShortestPathAvoidsBlockedEdge(t *testing.T) {
	rn := buildTestGraph()
	rt := NewRouteAlgorithm(rn)

	// blocking r-w forces the detour through q
	rn.SetWeight(id("r"), id("w"), math.Inf(1))
	rn.SetWeight(id("w"), id("r"), math.Inf(1))

	path, cost, found := rt.ShortestPath(id("p"), id("f"))
	assert.True(t, found)
	assert.Equal(t, 36.0, cost)
	assert.Equal(t, []datastructure.NodeID{id("p"), id("v"), id("q"), id("w"), id("f")}, path)
}

/*
	    b
	   / \
	  1   1
	 /     \
	a---5---c

b sits 50 units off the a-c axis, so the raw straight-line distance to c
makes the detour look expensive even though its weights are tiny
*/
func TestShortestPathMultiHopBeatsDirectEdge(t *testing.T) {
	rn := datastructure.NewRoadNetwork()
	rn.AddNode(id("a"), r2.Point{X: 0, Y: 0})
	rn.AddNode(id("b"), r2.Point{X: 0, Y: 50})
	rn.AddNode(id("c"), r2.Point{X: 100, Y: 0})
	rn.AddEdge(id("a"), id("b"), 1)
	rn.AddEdge(id("b"), id("c"), 1)
	rn.AddEdge(id("a"), id("c"), 5)
	rn.SnapshotOriginalWeights()
	rt := NewRouteAlgorithm(rn)

	path, cost, found := rt.ShortestPath(id("a"), id("c"))
	assert.True(t, found)
	assert.Equal(t, 2.0, cost)
	assert.Equal(t, []datastructure.NodeID{id("a"), id("b"), id("c")}, path)
}

func TestShortestPathAllRoutesBlocked(t *testing.T) {
	rn := buildTestGraph()
	rt := NewRouteAlgorithm(rn)

	// f is only reachable over w
	rn.SetWeight(id("w"), id("f"), math.Inf(1))

	_, _, found := rt.ShortestPath(id("p"), id("f"))
	assert.False(t, found)
}
