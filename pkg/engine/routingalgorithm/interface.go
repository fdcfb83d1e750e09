package routingalgorithm

import (
	"rindang/dynaroute/pkg/datastructure"

	"github.com/golang/geo/r2"
)

// Graph is the view of the road network the search needs: adjacency with live
// weights plus node positions for the heuristic.
type Graph interface {
	HasNode(id datastructure.NodeID) bool
	Weight(u, v datastructure.NodeID) (float64, bool)
	Position(id datastructure.NodeID) (r2.Point, bool)
	ForOutEdgesOf(u datastructure.NodeID, handle func(v datastructure.NodeID, weight float64))
	ForEachEdge(handle func(u, v datastructure.NodeID, weight float64))
}

type RouteAlgorithm struct {
	graph Graph
}

func NewRouteAlgorithm(graph Graph) *RouteAlgorithm {
	return &RouteAlgorithm{graph: graph}
}
