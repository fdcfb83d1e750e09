// Package snap resolves click coordinates to the road network: the nearest
// regular node when the click is close enough, otherwise the projection onto
// the nearest original edge, which the session turns into a virtual node.
package snap

import (
	"math"

	"rindang/dynaroute/pkg/datastructure"
	"rindang/dynaroute/pkg/geo"

	"github.com/dhconnelly/rtreego"
	"github.com/golang/geo/r2"
)

const (
	rtreeMinChildren = 25
	rtreeMaxChildren = 50
	// rects must have positive extent even for axis-aligned edges
	rectPadding = 1e-6
)

type edgeItem struct {
	rect rtreego.Rect
	from datastructure.NodeID
	to   datastructure.NodeID
	a    r2.Point
	b    r2.Point
}

func (e *edgeItem) Bounds() rtreego.Rect {
	return e.rect
}

// SnapResult is either a direct node hit (OnEdge false) or a projection onto
// edge (U,V) at Ratio (OnEdge true).
type SnapResult struct {
	Node   datastructure.NodeID
	OnEdge bool
	U      datastructure.NodeID
	V      datastructure.NodeID
	Ratio  float64
	Pos    r2.Point
}

// RoadSnapper indexes the loaded edges in an rtree once; virtual nodes are
// never indexed, so snapping always works against the original topology.
type RoadSnapper struct {
	tree       *rtreego.Rtree
	graph      *datastructure.RoadNetwork
	nodeRadius float64
	edgeRadius float64
}

func NewRoadSnapper(graph *datastructure.RoadNetwork, nodeRadius, edgeRadius float64) *RoadSnapper {
	rs := &RoadSnapper{
		tree:       rtreego.NewTree(2, rtreeMinChildren, rtreeMaxChildren),
		graph:      graph,
		nodeRadius: nodeRadius,
		edgeRadius: edgeRadius,
	}
	seen := make(map[[2]datastructure.NodeID]struct{})
	for _, e := range graph.Edges() {
		// one rtree leaf per undirected pair
		key := [2]datastructure.NodeID{e.From, e.To}
		if e.To.String() < e.From.String() {
			key = [2]datastructure.NodeID{e.To, e.From}
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		a, okA := graph.Position(e.From)
		b, okB := graph.Position(e.To)
		if !okA || !okB {
			continue
		}
		rs.tree.Insert(&edgeItem{
			rect: segmentRect(a, b),
			from: e.From,
			to:   e.To,
			a:    a,
			b:    b,
		})
	}
	return rs
}

func segmentRect(a, b r2.Point) rtreego.Rect {
	minX, maxX := math.Min(a.X, b.X), math.Max(a.X, b.X)
	minY, maxY := math.Min(a.Y, b.Y), math.Max(a.Y, b.Y)
	rect, _ := rtreego.NewRect(
		rtreego.Point{minX, minY},
		[]float64{maxX - minX + rectPadding, maxY - minY + rectPadding},
	)
	return rect
}

// NearestNode returns the closest regular node to p, skipping virtual nodes.
func (rs *RoadSnapper) NearestNode(p r2.Point) (datastructure.NodeID, r2.Point, bool) {
	var (
		best     datastructure.NodeID
		bestPos  r2.Point
		bestDist = math.Inf(1)
		found    bool
	)
	for _, id := range rs.graph.Nodes() {
		if id.Virtual() {
			continue
		}
		pos, _ := rs.graph.Position(id)
		d := geo.EuclideanDistance(p, pos)
		if d < bestDist {
			best, bestPos, bestDist = id, pos, d
			found = true
		}
	}
	return best, bestPos, found
}

// Snap resolves a click. A node within nodeRadius wins outright; otherwise
// the nearest indexed edge within edgeRadius is projected onto. Returns
// ok=false when the click is too far from everything.
func (rs *RoadSnapper) Snap(p r2.Point) (SnapResult, bool) {
	node, nodePos, haveNode := rs.NearestNode(p)
	if haveNode && geo.EuclideanDistance(p, nodePos) <= rs.nodeRadius {
		return SnapResult{Node: node, Pos: nodePos}, true
	}

	queryRect, _ := rtreego.NewRect(
		rtreego.Point{p.X - rs.edgeRadius, p.Y - rs.edgeRadius},
		[]float64{2 * rs.edgeRadius, 2 * rs.edgeRadius},
	)

	var (
		best     *edgeItem
		bestT    float64
		bestPos  r2.Point
		bestDist = math.Inf(1)
	)
	for _, spatial := range rs.tree.SearchIntersect(queryRect) {
		item := spatial.(*edgeItem)
		closest, t := geo.ClosestPointOnSegment(p, item.a, item.b)
		d := geo.EuclideanDistance(p, closest)
		if d < bestDist {
			best, bestT, bestPos, bestDist = item, t, closest, d
		}
	}
	if best == nil || bestDist > rs.edgeRadius {
		return SnapResult{}, false
	}
	return SnapResult{
		OnEdge: true,
		U:      best.from,
		V:      best.to,
		Ratio:  bestT,
		Pos:    bestPos,
	}, true
}
