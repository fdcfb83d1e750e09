package datastructure

import (
	"github.com/golang/geo/r2"
	"github.com/twpayne/go-polyline"
)

// Route is a composed multi-stop result: the full node sequence from start to
// end, the summed cost of every traversed edge, and Valid=false when any
// traversed edge is impassable.
type Route struct {
	Nodes []NodeID
	Cost  float64
	Valid bool
}

// RouteLeg describes one start/stop-to-stop segment inside a composed route.
type RouteLeg struct {
	From  NodeID
	To    NodeID
	Nodes []NodeID
	Cost  float64
}

// RenderPath encodes the route geometry as a polyline string for the caller's
// renderer.
func RenderPath(points []r2.Point) string {
	coords := make([][]float64, 0, len(points))
	for _, p := range points {
		coords = append(coords, []float64{p.X, p.Y})
	}
	return string(polyline.EncodeCoords(coords))
}
