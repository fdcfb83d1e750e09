// Package geo holds the planar segment geometry used by effect proximity
// queries and click snapping. Coordinates are plain floats in the map's own
// unit; there is no projection or unit conversion anywhere.
package geo

import (
	"math"

	"github.com/golang/geo/r2"
)

// segments shorter than this are treated as points
const degenerateLengthSq = 1e-9

func EuclideanDistance(a, b r2.Point) float64 {
	return a.Sub(b).Norm()
}

// ClosestPointOnSegment projects p onto segment (a,b) and returns the closest
// point together with the clamped projection parameter t in [0,1].
func ClosestPointOnSegment(p, a, b r2.Point) (r2.Point, float64) {
	ab := b.Sub(a)
	lenSq := ab.Dot(ab)
	if lenSq < degenerateLengthSq {
		return a, 0
	}
	t := p.Sub(a).Dot(ab) / lenSq
	t = math.Max(0, math.Min(1, t))
	return a.Add(ab.Mul(t)), t
}

func PointSegmentDistance(p, a, b r2.Point) float64 {
	closest, _ := ClosestPointOnSegment(p, a, b)
	return EuclideanDistance(p, closest)
}

// SegmentSegmentDistance returns the minimum distance between segments
// (a1,a2) and (b1,b2). Properly crossing segments have distance 0; otherwise
// the minimum is attained at one of the four endpoint projections. Degenerate
// operands fall back to point-to-segment or point-to-point distance.
func SegmentSegmentDistance(a1, a2, b1, b2 r2.Point) float64 {
	aDegenerate := a2.Sub(a1).Dot(a2.Sub(a1)) < degenerateLengthSq
	bDegenerate := b2.Sub(b1).Dot(b2.Sub(b1)) < degenerateLengthSq
	switch {
	case aDegenerate && bDegenerate:
		return EuclideanDistance(a1, b1)
	case aDegenerate:
		return PointSegmentDistance(a1, b1, b2)
	case bDegenerate:
		return PointSegmentDistance(b1, a1, a2)
	}

	if segmentsIntersect(a1, a2, b1, b2) {
		return 0
	}

	d := PointSegmentDistance(a1, b1, b2)
	d = math.Min(d, PointSegmentDistance(a2, b1, b2))
	d = math.Min(d, PointSegmentDistance(b1, a1, a2))
	d = math.Min(d, PointSegmentDistance(b2, a1, a2))
	return d
}

// Interpolate returns the point at parameter t along segment (a,b).
func Interpolate(a, b r2.Point, t float64) r2.Point {
	return a.Add(b.Sub(a).Mul(t))
}

func cross(o, a, b r2.Point) float64 {
	return a.Sub(o).Cross(b.Sub(o))
}

func segmentsIntersect(a1, a2, b1, b2 r2.Point) bool {
	d1 := cross(b1, b2, a1)
	d2 := cross(b1, b2, a2)
	d3 := cross(a1, a2, b1)
	d4 := cross(a1, a2, b2)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	return onSegment(b1, b2, a1, d1) || onSegment(b1, b2, a2, d2) ||
		onSegment(a1, a2, b1, d3) || onSegment(a1, a2, b2, d4)
}

func onSegment(a, b, p r2.Point, crossVal float64) bool {
	if crossVal != 0 {
		return false
	}
	return math.Min(a.X, b.X) <= p.X && p.X <= math.Max(a.X, b.X) &&
		math.Min(a.Y, b.Y) <= p.Y && p.Y <= math.Max(a.Y, b.Y)
}
