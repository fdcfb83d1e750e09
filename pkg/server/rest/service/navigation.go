package service

import (
	"context"
	"errors"

	"rindang/dynaroute/pkg/datastructure"
	"rindang/dynaroute/pkg/engine/routingalgorithm"
	"rindang/dynaroute/pkg/kv"
	"rindang/dynaroute/pkg/overlay"
	"rindang/dynaroute/pkg/server"
	"rindang/dynaroute/pkg/session"

	"github.com/golang/geo/r2"
)

type KVDB interface {
	GetNearestEdgesFromPoint(x, y float64) ([]datastructure.KVEdge, error)
	GetLocations() ([]datastructure.KVNode, error)
}

type NavigationService struct {
	sess *session.Session
	kv   KVDB
}

func NewNavigationService(sess *session.Session, kvDB KVDB) *NavigationService {
	return &NavigationService{sess: sess, kv: kvDB}
}

// selectionError translates session selection failures into transport error
// kinds.
func selectionError(err error) error {
	switch {
	case errors.Is(err, session.ErrNothingNearby):
		return server.WrapErrorf(err, server.ErrNotFound, "no node or road near the given point")
	case errors.Is(err, session.ErrInvalidSelection):
		return server.WrapErrorf(err, server.ErrInvalidSelection, "invalid selection")
	case errors.Is(err, session.ErrNoSuchEdge):
		return server.WrapErrorf(err, server.ErrNoSuchEdge, "no such edge")
	default:
		return server.WrapErrorf(err, server.ErrInternalServerError, "internal server error")
	}
}

func (uc *NavigationService) SelectStartClick(ctx context.Context, x, y float64) (datastructure.NodeID, error) {
	id, err := uc.sess.SelectStartClick(r2.Point{X: x, Y: y})
	if err != nil {
		return datastructure.NodeID{}, selectionError(err)
	}
	return id, nil
}

func (uc *NavigationService) SelectStartNode(ctx context.Context, name string) (datastructure.NodeID, error) {
	id, err := uc.sess.SelectStartNode(name)
	if err != nil {
		return datastructure.NodeID{}, selectionError(err)
	}
	return id, nil
}

func (uc *NavigationService) SelectEndClick(ctx context.Context, x, y float64) (datastructure.NodeID, error) {
	id, err := uc.sess.SelectEndClick(r2.Point{X: x, Y: y})
	if err != nil {
		return datastructure.NodeID{}, selectionError(err)
	}
	return id, nil
}

func (uc *NavigationService) SelectEndNode(ctx context.Context, name string) (datastructure.NodeID, error) {
	id, err := uc.sess.SelectEndNode(name)
	if err != nil {
		return datastructure.NodeID{}, selectionError(err)
	}
	return id, nil
}

func (uc *NavigationService) AddStopClick(ctx context.Context, x, y float64, name string) (datastructure.NodeID, error) {
	id, err := uc.sess.AddStopClick(r2.Point{X: x, Y: y}, name)
	if err != nil {
		return datastructure.NodeID{}, selectionError(err)
	}
	return id, nil
}

func (uc *NavigationService) AddStopNode(ctx context.Context, nodeName, displayName string) (datastructure.NodeID, error) {
	id, err := uc.sess.AddStopNode(nodeName, displayName)
	if err != nil {
		return datastructure.NodeID{}, selectionError(err)
	}
	return id, nil
}

func (uc *NavigationService) RemoveStop(ctx context.Context, index int) error {
	if err := uc.sess.RemoveStop(index); err != nil {
		return selectionError(err)
	}
	return nil
}

// ClearSelection drops part of the selection. Scope is one of start, end,
// stops, or all; all also removes every effect and resets the weights.
func (uc *NavigationService) ClearSelection(ctx context.Context, scope string) error {
	switch scope {
	case "start":
		uc.sess.ClearStart()
	case "end":
		uc.sess.ClearEnd()
	case "stops":
		uc.sess.ClearStops()
	case "all":
		uc.sess.ClearAll()
	default:
		return server.NewErrorf(server.ErrBadRequest, "unknown selection scope %q", scope)
	}
	return nil
}

type SelectionView struct {
	Start *datastructure.NodeID
	End   *datastructure.NodeID
	Stops []session.Stop
}

func (uc *NavigationService) Selection(ctx context.Context) SelectionView {
	start, end, stops := uc.sess.Selection()
	return SelectionView{Start: start, End: end, Stops: stops}
}

func (uc *NavigationService) AddTrafficJam(ctx context.Context, ax, ay, bx, by, weight float64) (int64, error) {
	if weight <= 0 {
		return 0, server.NewErrorf(server.ErrBadRequest, "jam weight must be positive")
	}
	seg := overlay.Segment{A: r2.Point{X: ax, Y: ay}, B: r2.Point{X: bx, Y: by}}
	return uc.sess.AddTrafficJam(seg, weight), nil
}

func (uc *NavigationService) AddBlockWay(ctx context.Context, ax, ay, bx, by float64) (int64, error) {
	seg := overlay.Segment{A: r2.Point{X: ax, Y: ay}, B: r2.Point{X: bx, Y: by}}
	return uc.sess.AddBlockWay(seg), nil
}

func (uc *NavigationService) AddTrafficLight(ctx context.Context, ax, ay, bx, by float64, red, yellow, green int) (int64, error) {
	seg := overlay.Segment{A: r2.Point{X: ax, Y: ay}, B: r2.Point{X: bx, Y: by}}
	durations := overlay.PhaseDurations{Red: red, Yellow: yellow, Green: green}
	handle, err := uc.sess.AddTrafficLight(seg, durations)
	if err != nil {
		return 0, server.WrapErrorf(err, server.ErrBadRequest, "phase durations must be positive")
	}
	return handle, nil
}

func (uc *NavigationService) RemoveEffect(ctx context.Context, handle int64) error {
	if err := uc.sess.RemoveEffect(handle); err != nil {
		return server.WrapErrorf(err, server.ErrNotFound, "no effect with handle %d", handle)
	}
	return nil
}

// ClearEffects removes every effect of one kind, or every effect when kind
// is all.
func (uc *NavigationService) ClearEffects(ctx context.Context, kind string) error {
	switch kind {
	case "jam":
		uc.sess.ClearEffects(overlay.KindTrafficJam)
	case "block":
		uc.sess.ClearEffects(overlay.KindBlockWay)
	case "light":
		uc.sess.ClearEffects(overlay.KindTrafficLight)
	case "all":
		uc.sess.ClearAllEffects()
	default:
		return server.NewErrorf(server.ErrBadRequest, "unknown effect kind %q", kind)
	}
	return nil
}

func (uc *NavigationService) Lights(ctx context.Context) []session.LightStatus {
	return uc.sess.Lights()
}

func (uc *NavigationService) EffectCounts(ctx context.Context) (jams, blocks, lights int) {
	return uc.sess.EffectCounts()
}

type RouteResult struct {
	Polyline string
	Points   []r2.Point
	Nodes    []datastructure.NodeID
	Legs     []datastructure.RouteLeg
	Stops    []session.Stop
	Cost     float64
}

// Route composes the full multi-stop route over the current weights.
// Blocked and unreachable segments come back as typed errors naming the
// failing leg, never as a partial route.
func (uc *NavigationService) Route(ctx context.Context, optimize bool) (RouteResult, error) {
	route, legs, stops, err := uc.sess.Route(optimize)
	if err != nil {
		if errors.Is(err, session.ErrNoSelection) {
			return RouteResult{}, server.WrapErrorf(err, server.ErrBadRequest, "select a start and an end point first")
		}
		var routingErr *routingalgorithm.RoutingError
		if errors.As(err, &routingErr) {
			if routingErr.Kind == routingalgorithm.Blocked {
				return RouteResult{}, server.WrapErrorf(err, server.ErrBlocked,
					"no route: the way between stop %d and stop %d is blocked", routingErr.Segment, routingErr.Segment+1)
			}
			return RouteResult{}, server.WrapErrorf(err, server.ErrUnreachable,
				"no path between stop %d and stop %d", routingErr.Segment, routingErr.Segment+1)
		}
		return RouteResult{}, server.WrapErrorf(err, server.ErrInternalServerError, "internal server error")
	}

	points := uc.sess.RoutePositions(route.Nodes)
	return RouteResult{
		Polyline: datastructure.RenderPath(points),
		Points:   points,
		Nodes:    route.Nodes,
		Legs:     legs,
		Stops:    stops,
		Cost:     route.Cost,
	}, nil
}

// Locations serves the selectable location roster, preferring the persisted
// key-value copy and falling back to the live graph.
func (uc *NavigationService) Locations(ctx context.Context) ([]datastructure.KVNode, error) {
	locations, err := uc.kv.GetLocations()
	if err == nil {
		return locations, nil
	}
	if !errors.Is(err, kv.ErrLocationsNotFound) {
		return nil, server.WrapErrorf(err, server.ErrInternalServerError, "internal server error")
	}

	out := make([]datastructure.KVNode, 0)
	for _, loc := range uc.sess.Locations() {
		out = append(out, datastructure.KVNode{ID: loc.ID, Loc: [2]float64{loc.X, loc.Y}})
	}
	return out, nil
}

func (uc *NavigationService) NearestLocation(ctx context.Context, x, y float64) (session.Location, error) {
	loc, err := uc.sess.NearestLocation(r2.Point{X: x, Y: y})
	if err != nil {
		return session.Location{}, server.WrapErrorf(err, server.ErrNotFound, "no location near the given point")
	}
	return loc, nil
}

// NearestRoadSegments looks up the grid-indexed segments around a point.
func (uc *NavigationService) NearestRoadSegments(ctx context.Context, x, y float64) ([]datastructure.KVEdge, error) {
	edges, err := uc.kv.GetNearestEdgesFromPoint(x, y)
	if err != nil {
		if errors.Is(err, kv.ErrEdgesNotFound) {
			return nil, server.WrapErrorf(err, server.ErrNotFound, "no road segment near the given point")
		}
		return nil, server.WrapErrorf(err, server.ErrInternalServerError, "internal server error")
	}
	return edges, nil
}
