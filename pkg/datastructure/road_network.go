package datastructure

import (
	"math"

	"rindang/dynaroute/pkg/geo"

	"github.com/golang/geo/r2"
)

// DirectedEdge is the (from, to) key of one directed edge.
type DirectedEdge struct {
	From NodeID
	To   NodeID
}

// RoadNetwork is the weighted directed graph plus per-node planar positions.
// Live edge weights are rewritten by every effect recompute pass; the
// original-weight snapshot taken at load time is what the pass resets to.
// The adjacency is map-based rather than index-based because virtual nodes
// are inserted and removed while the session runs.
type RoadNetwork struct {
	positions map[NodeID]r2.Point
	out       map[NodeID]map[NodeID]float64
	in        map[NodeID]map[NodeID]struct{}
	original  map[DirectedEdge]float64
}

func NewRoadNetwork() *RoadNetwork {
	return &RoadNetwork{
		positions: make(map[NodeID]r2.Point),
		out:       make(map[NodeID]map[NodeID]float64),
		in:        make(map[NodeID]map[NodeID]struct{}),
		original:  make(map[DirectedEdge]float64),
	}
}

func (rn *RoadNetwork) AddNode(id NodeID, pos r2.Point) {
	rn.positions[id] = pos
	if _, ok := rn.out[id]; !ok {
		rn.out[id] = make(map[NodeID]float64)
	}
	if _, ok := rn.in[id]; !ok {
		rn.in[id] = make(map[NodeID]struct{})
	}
}

// RemoveNode deletes the node and every incident edge, together with any
// snapshot entries registered for those edges.
func (rn *RoadNetwork) RemoveNode(id NodeID) {
	for to := range rn.out[id] {
		delete(rn.in[to], id)
		delete(rn.original, DirectedEdge{From: id, To: to})
	}
	for from := range rn.in[id] {
		delete(rn.out[from], id)
		delete(rn.original, DirectedEdge{From: from, To: id})
	}
	delete(rn.out, id)
	delete(rn.in, id)
	delete(rn.positions, id)
}

func (rn *RoadNetwork) HasNode(id NodeID) bool {
	_, ok := rn.positions[id]
	return ok
}

func (rn *RoadNetwork) Position(id NodeID) (r2.Point, bool) {
	p, ok := rn.positions[id]
	return p, ok
}

func (rn *RoadNetwork) AddEdge(u, v NodeID, weight float64) {
	if _, ok := rn.out[u]; !ok {
		rn.out[u] = make(map[NodeID]float64)
	}
	if _, ok := rn.in[v]; !ok {
		rn.in[v] = make(map[NodeID]struct{})
	}
	rn.out[u][v] = weight
	rn.in[v][u] = struct{}{}
}

func (rn *RoadNetwork) HasEdge(u, v NodeID) bool {
	_, ok := rn.out[u][v]
	return ok
}

func (rn *RoadNetwork) Weight(u, v NodeID) (float64, bool) {
	w, ok := rn.out[u][v]
	return w, ok
}

func (rn *RoadNetwork) SetWeight(u, v NodeID, weight float64) {
	if _, ok := rn.out[u][v]; !ok {
		return
	}
	rn.out[u][v] = weight
}

// AddWeight adds delta to the live weight of (u,v). The result is floored at
// 0, so a discount larger than the remaining weight cannot drive an edge
// negative. An edge already at +Inf keeps +Inf regardless of delta, so a
// blocked edge can never be un-blocked (or turned into NaN) by a later
// additive effect.
func (rn *RoadNetwork) AddWeight(u, v NodeID, delta float64) {
	w, ok := rn.out[u][v]
	if !ok {
		return
	}
	if math.IsInf(w, 1) {
		return
	}
	w += delta
	if w < 0 {
		w = 0
	}
	rn.out[u][v] = w
}

func (rn *RoadNetwork) ForOutEdgesOf(u NodeID, handle func(v NodeID, weight float64)) {
	for v, w := range rn.out[u] {
		handle(v, w)
	}
}

func (rn *RoadNetwork) ForEachEdge(handle func(u, v NodeID, weight float64)) {
	for u, adj := range rn.out {
		for v, w := range adj {
			handle(u, v, w)
		}
	}
}

// SnapshotOriginalWeights captures the current live weights as the reset
// baseline. Called once after the map load.
func (rn *RoadNetwork) SnapshotOriginalWeights() {
	rn.original = make(map[DirectedEdge]float64)
	for u, adj := range rn.out {
		for v, w := range adj {
			rn.original[DirectedEdge{From: u, To: v}] = w
		}
	}
}

// RegisterOriginalWeight adds one edge to the snapshot after the initial
// capture. Used for the synthetic edges of a virtual node so the recompute
// pass resets them like any other edge.
func (rn *RoadNetwork) RegisterOriginalWeight(u, v NodeID, weight float64) {
	rn.original[DirectedEdge{From: u, To: v}] = weight
}

func (rn *RoadNetwork) OriginalWeight(u, v NodeID) (float64, bool) {
	w, ok := rn.original[DirectedEdge{From: u, To: v}]
	return w, ok
}

// ResetWeights restores every snapshotted edge that still exists to its
// original weight.
func (rn *RoadNetwork) ResetWeights() {
	for e, w := range rn.original {
		if _, ok := rn.out[e.From][e.To]; ok {
			rn.out[e.From][e.To] = w
		}
	}
}

// EdgesNearSegment returns every directed edge whose segment comes within
// threshold of the query segment (a,b).
func (rn *RoadNetwork) EdgesNearSegment(a, b r2.Point, threshold float64) []DirectedEdge {
	affected := make([]DirectedEdge, 0)
	for u, adj := range rn.out {
		pu, ok := rn.positions[u]
		if !ok {
			continue
		}
		for v := range adj {
			pv, ok := rn.positions[v]
			if !ok {
				continue
			}
			if geo.SegmentSegmentDistance(pu, pv, a, b) <= threshold {
				affected = append(affected, DirectedEdge{From: u, To: v})
			}
		}
	}
	return affected
}

// Nodes returns the ids of all current nodes.
func (rn *RoadNetwork) Nodes() []NodeID {
	ids := make([]NodeID, 0, len(rn.positions))
	for id := range rn.positions {
		ids = append(ids, id)
	}
	return ids
}

// Edges returns every directed edge currently in the graph.
func (rn *RoadNetwork) Edges() []DirectedEdge {
	edges := make([]DirectedEdge, 0)
	for u, adj := range rn.out {
		for v := range adj {
			edges = append(edges, DirectedEdge{From: u, To: v})
		}
	}
	return edges
}

func (rn *RoadNetwork) NumNodes() int {
	return len(rn.positions)
}
