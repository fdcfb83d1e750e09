package routingalgorithm

import (
	"fmt"
	"math"

	"rindang/dynaroute/pkg/datastructure"
)

type RoutingErrorKind int

const (
	// Unreachable: no path exists at all between the segment's endpoints.
	Unreachable RoutingErrorKind = iota
	// Blocked: a path exists topologically but every variant crosses a +Inf
	// edge. Reported separately because the caller's messaging differs.
	Blocked
)

func (k RoutingErrorKind) String() string {
	if k == Blocked {
		return "blocked"
	}
	return "unreachable"
}

// RoutingError identifies which consecutive stop pair of a composed route
// failed, so the caller can report "no path between stop i and stop i+1".
type RoutingError struct {
	Kind    RoutingErrorKind
	Segment int
}

func (e *RoutingError) Error() string {
	return fmt.Sprintf("route segment %d -> %d is %s", e.Segment, e.Segment+1, e.Kind)
}

// ComposeRoute chains shortest-path searches across the ordered stop list
// into one continuous route. A consecutive pair connected by a direct edge
// uses that edge; otherwise the pair is routed with ShortestPath. The
// duplicated junction node between legs is dropped. Any failing leg aborts
// the whole composition; no partial route is ever returned.
func (rt *RouteAlgorithm) ComposeRoute(stops []datastructure.NodeID) (datastructure.Route, []datastructure.RouteLeg, error) {
	if len(stops) == 0 {
		return datastructure.Route{}, nil, &RoutingError{Kind: Unreachable, Segment: 0}
	}
	if len(stops) == 1 {
		return datastructure.Route{Nodes: stops, Cost: 0, Valid: true}, nil, nil
	}

	fullPath := []datastructure.NodeID{}
	legs := make([]datastructure.RouteLeg, 0, len(stops)-1)
	totalCost := 0.0

	for i := 0; i < len(stops)-1; i++ {
		legFrom, legTo := stops[i], stops[i+1]

		var legPath []datastructure.NodeID
		var legCost float64

		if w, ok := rt.graph.Weight(legFrom, legTo); ok {
			if math.IsInf(w, 1) {
				return datastructure.Route{}, nil, &RoutingError{Kind: Blocked, Segment: i}
			}
			legPath = []datastructure.NodeID{legFrom, legTo}
			legCost = w
		} else {
			path, cost, found := rt.ShortestPath(legFrom, legTo)
			if !found {
				return datastructure.Route{}, nil, &RoutingError{Kind: Unreachable, Segment: i}
			}
			for j := 0; j < len(path)-1; j++ {
				w, ok := rt.graph.Weight(path[j], path[j+1])
				if !ok || math.IsInf(w, 1) {
					return datastructure.Route{}, nil, &RoutingError{Kind: Blocked, Segment: i}
				}
			}
			legPath = path
			legCost = cost
		}

		totalCost += legCost
		legs = append(legs, datastructure.RouteLeg{From: legFrom, To: legTo, Nodes: legPath, Cost: legCost})
		if i == 0 {
			fullPath = append(fullPath, legPath...)
		} else {
			fullPath = append(fullPath, legPath[1:]...)
		}
	}

	return datastructure.Route{Nodes: fullPath, Cost: totalCost, Valid: true}, legs, nil
}
