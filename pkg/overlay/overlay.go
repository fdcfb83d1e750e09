// Package overlay keeps the transient user-placed effects (traffic jams,
// blocked ways, traffic lights) and derives the road network's live edge
// weights from them. Weights are never patched incrementally: every recompute
// resets all snapshotted edges first and reapplies the full active-effect
// set, which makes the pass idempotent and independent of edit order.
package overlay

import (
	"math"
	"sort"

	"rindang/dynaroute/pkg/datastructure"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
)

type EffectKind int

const (
	KindTrafficJam EffectKind = iota
	KindBlockWay
	KindTrafficLight
)

func (k EffectKind) String() string {
	switch k {
	case KindTrafficJam:
		return "traffic_jam"
	case KindBlockWay:
		return "block_way"
	case KindTrafficLight:
		return "traffic_light"
	}
	return "unknown"
}

// Segment is the effect's placement geometry: the line the user drew.
type Segment struct {
	A r2.Point
	B r2.Point
}

// Effect is one active modifier. Weight is only meaningful for jams; Clock is
// only set for traffic lights and is owned by the effect (removal stops it).
type Effect struct {
	Handle int64
	Kind   EffectKind
	Seg    Segment
	Weight float64
	Clock  *LightClock
}

var ErrNoSuchEffect = errors.New("no such effect")

type Overlay struct {
	graph      *datastructure.RoadNetwork
	threshold  float64
	effects    map[int64]*Effect
	nextHandle int64
}

func NewOverlay(graph *datastructure.RoadNetwork, threshold float64) *Overlay {
	return &Overlay{
		graph:     graph,
		threshold: threshold,
		effects:   make(map[int64]*Effect),
	}
}

func (o *Overlay) add(e *Effect) int64 {
	o.nextHandle++
	e.Handle = o.nextHandle
	o.effects[e.Handle] = e
	return e.Handle
}

func (o *Overlay) AddTrafficJam(seg Segment, weight float64) int64 {
	return o.add(&Effect{Kind: KindTrafficJam, Seg: seg, Weight: weight})
}

func (o *Overlay) AddBlockWay(seg Segment) int64 {
	return o.add(&Effect{Kind: KindBlockWay, Seg: seg})
}

// AddTrafficLight takes ownership of the clock; it is stopped when the effect
// is removed or cleared.
func (o *Overlay) AddTrafficLight(seg Segment, clock *LightClock) int64 {
	return o.add(&Effect{Kind: KindTrafficLight, Seg: seg, Clock: clock})
}

func (o *Overlay) Remove(handle int64) error {
	e, ok := o.effects[handle]
	if !ok {
		return ErrNoSuchEffect
	}
	if e.Clock != nil {
		e.Clock.Stop()
	}
	delete(o.effects, handle)
	return nil
}

func (o *Overlay) ClearKind(kind EffectKind) {
	for h, e := range o.effects {
		if e.Kind != kind {
			continue
		}
		if e.Clock != nil {
			e.Clock.Stop()
		}
		delete(o.effects, h)
	}
}

func (o *Overlay) ClearAll() {
	for _, e := range o.effects {
		if e.Clock != nil {
			e.Clock.Stop()
		}
	}
	o.effects = make(map[int64]*Effect)
}

// Effects returns the active effects of one kind in handle order.
func (o *Overlay) Effects(kind EffectKind) []*Effect {
	out := make([]*Effect, 0)
	for _, e := range o.effects {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Handle < out[j].Handle })
	return out
}

// Tick advances every running light clock by one second and reports whether
// any of them changed phase, in which case the caller must recompute.
func (o *Overlay) Tick() bool {
	changed := false
	for _, e := range o.Effects(KindTrafficLight) {
		before := e.Clock.Phase()
		e.Clock.Tick()
		if e.Clock.Phase() != before {
			changed = true
		}
	}
	return changed
}

// Recompute rewrites the live edge weights from scratch. The stage order is
// load-bearing: jams first, then blocks, then lights. A block's +Inf is final
// because AddWeight is a no-op on an infinite edge, so a light processed
// afterwards cannot un-block it.
func (o *Overlay) Recompute() {
	o.graph.ResetWeights()

	for _, e := range o.Effects(KindTrafficJam) {
		for _, edge := range o.graph.EdgesNearSegment(e.Seg.A, e.Seg.B, o.threshold) {
			o.graph.AddWeight(edge.From, edge.To, e.Weight)
		}
	}

	for _, e := range o.Effects(KindBlockWay) {
		for _, edge := range o.graph.EdgesNearSegment(e.Seg.A, e.Seg.B, o.threshold) {
			o.graph.SetWeight(edge.From, edge.To, inf)
		}
	}

	for _, e := range o.Effects(KindTrafficLight) {
		modifier := e.Clock.WeightModifier()
		for _, edge := range o.graph.EdgesNearSegment(e.Seg.A, e.Seg.B, o.threshold) {
			o.graph.AddWeight(edge.From, edge.To, modifier)
		}
	}
}

var inf = math.Inf(1)
