package routingalgorithm

import (
	"math"

	"rindang/dynaroute/pkg/datastructure"
	"rindang/dynaroute/pkg/geo"
	"rindang/dynaroute/pkg/util"

	"github.com/golang/geo/r2"
)

// https://www.cs.princeton.edu/courses/archive/spr06/cos423/Handouts/GH05.pdf

// ShortestPath runs A* over the live weights, estimating the remaining cost
// as the straight-line distance scaled into the weight unit (weights are in
// arbitrary units, so the raw distance is not usable as a lower bound). Edges
// at +Inf are treated as absent, so a returned path never crosses a blocked
// edge. Returns found=false when no finite-cost path exists; from == to
// yields the single-node path with cost 0.
func (rt *RouteAlgorithm) ShortestPath(from, to datastructure.NodeID) ([]datastructure.NodeID, float64, bool) {
	if !rt.graph.HasNode(from) || !rt.graph.HasNode(to) {
		return nil, 0, false
	}
	if from == to {
		return []datastructure.NodeID{from}, 0, true
	}

	toPos, _ := rt.graph.Position(to)
	hScale := rt.heuristicScale()

	pq := datastructure.NewMinHeap[datastructure.NodeID]()
	pq.Insert(datastructure.PriorityQueueNode[datastructure.NodeID]{Rank: 0, Item: from})

	costSoFar := make(map[datastructure.NodeID]float64)
	costSoFar[from] = 0.0

	cameFrom := make(map[datastructure.NodeID]datastructure.NodeID)
	visited := make(map[datastructure.NodeID]struct{})

	for pq.Size() != 0 {
		current, _ := pq.ExtractMin()
		if current.Item == to {
			path := []datastructure.NodeID{}
			for at := to; ; {
				path = append(path, at)
				prev, ok := cameFrom[at]
				if !ok {
					break
				}
				at = prev
			}
			return util.ReverseG(path), costSoFar[to], true
		}
		if _, ok := visited[current.Item]; ok {
			continue
		}
		visited[current.Item] = struct{}{}

		rt.graph.ForOutEdgesOf(current.Item, func(neighbor datastructure.NodeID, weight float64) {
			if math.IsInf(weight, 1) {
				return
			}
			if _, ok := visited[neighbor]; ok {
				return
			}

			newCost := costSoFar[current.Item] + weight
			oldCost, seen := costSoFar[neighbor]
			if seen && newCost >= oldCost {
				return
			}

			costSoFar[neighbor] = newCost
			cameFrom[neighbor] = current.Item

			priority := newCost + hScale*rt.estimatedCost(neighbor, toPos)
			node := datastructure.PriorityQueueNode[datastructure.NodeID]{Rank: priority, Item: neighbor}
			if pq.Contains(neighbor) {
				// g(neighbor) strictly decreased and h is fixed, so the
				// rank can only go down here
				_ = pq.DecreaseKey(node)
			} else {
				pq.Insert(node)
			}
		})
	}

	return nil, 0, false
}

func (rt *RouteAlgorithm) estimatedCost(from datastructure.NodeID, toPos r2.Point) float64 {
	fromPos, ok := rt.graph.Position(from)
	if !ok {
		return 0
	}
	return geo.EuclideanDistance(fromPos, toPos)
}

// heuristicScale returns the factor that turns a straight-line distance into
// a lower bound on path cost: the minimum over finite edges of weight per
// unit of segment length. Any path covering distance d then costs at least
// scale*d, which keeps the estimate admissible and the search exact. A graph
// with no measurable edge yields 0, degrading the search to Dijkstra.
func (rt *RouteAlgorithm) heuristicScale() float64 {
	scale := math.Inf(1)
	rt.graph.ForEachEdge(func(u, v datastructure.NodeID, weight float64) {
		if math.IsInf(weight, 1) {
			return
		}
		posU, okU := rt.graph.Position(u)
		posV, okV := rt.graph.Position(v)
		if !okU || !okV {
			return
		}
		length := geo.EuclideanDistance(posU, posV)
		if length == 0 {
			return
		}
		if f := weight / length; f < scale {
			scale = f
		}
	})
	if math.IsInf(scale, 1) {
		return 0
	}
	return scale
}
