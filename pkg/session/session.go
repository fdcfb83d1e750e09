// Package session owns the mutable state of one editing session: the road
// network with its effect overlay, the start/end/stop selections, and the
// virtual nodes backing on-edge selections. Every operation is serialized
// behind one mutex because the light ticker mutates clock state concurrently
// with HTTP-driven edits and recompute rewrites the weights pathfinding
// reads.
package session

import (
	"sync"

	"rindang/dynaroute/pkg/datastructure"
	"rindang/dynaroute/pkg/engine/heuristics"
	"rindang/dynaroute/pkg/engine/routingalgorithm"
	"rindang/dynaroute/pkg/overlay"
	"rindang/dynaroute/pkg/snap"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
)

var (
	ErrInvalidSelection = errors.New("invalid selection")
	ErrNoSelection      = errors.New("start and end must be selected")
	ErrNothingNearby    = errors.New("no node or edge near the clicked point")
)

// Stop is one required intermediate visiting point. Name is caller-owned
// display metadata, echoed back in listings.
type Stop struct {
	ID   datastructure.NodeID
	Name string
}

type Session struct {
	mu sync.Mutex

	cfg     Config
	graph   *datastructure.RoadNetwork
	overlay *overlay.Overlay
	virtual *VirtualNodeManager
	snapper *snap.RoadSnapper
	routing *routingalgorithm.RouteAlgorithm
	solver  *heuristics.StopOrderSolver

	start *datastructure.NodeID
	end   *datastructure.NodeID
	stops []Stop
}

func NewSession(graph *datastructure.RoadNetwork, cfg Config) *Session {
	routing := routingalgorithm.NewRouteAlgorithm(graph)
	return &Session{
		cfg:     cfg,
		graph:   graph,
		overlay: overlay.NewOverlay(graph, cfg.EffectThreshold),
		virtual: NewVirtualNodeManager(graph),
		snapper: snap.NewRoadSnapper(graph, cfg.NodeSnapRadius, cfg.EdgeSnapRadius),
		routing: routing,
		solver:  heuristics.NewStopOrderSolver(graph2coster{graph, routing}),
		stops:   make([]Stop, 0),
	}
}

// graph2coster satisfies heuristics.PathCoster with the live graph weights
// and the session's route algorithm.
type graph2coster struct {
	graph   *datastructure.RoadNetwork
	routing *routingalgorithm.RouteAlgorithm
}

func (g graph2coster) Weight(u, v datastructure.NodeID) (float64, bool) {
	return g.graph.Weight(u, v)
}

func (g graph2coster) ShortestPath(from, to datastructure.NodeID) ([]datastructure.NodeID, float64, bool) {
	return g.routing.ShortestPath(from, to)
}

// resolveClick snaps a click to a node or, through a virtual node, to a point
// on an edge. Projections outside the clamp window collapse to the nearer
// endpoint rather than creating a degenerate split.
func (s *Session) resolveClick(p r2.Point) (datastructure.NodeID, error) {
	result, ok := s.snapper.Snap(p)
	if !ok {
		return datastructure.NodeID{}, ErrNothingNearby
	}
	if !result.OnEdge {
		return result.Node, nil
	}
	if result.Ratio < s.cfg.RatioClampMin {
		return result.U, nil
	}
	if result.Ratio > s.cfg.RatioClampMax {
		return result.V, nil
	}
	id, err := s.virtual.InsertOnEdge(result.U, result.V, result.Ratio)
	if err != nil {
		return datastructure.NodeID{}, err
	}
	return id, nil
}

func (s *Session) resolveNodeID(name string) (datastructure.NodeID, error) {
	id := datastructure.NewNodeID(name)
	if !s.graph.HasNode(id) {
		return datastructure.NodeID{}, errors.Wrapf(ErrInvalidSelection, "unknown node %q", name)
	}
	return id, nil
}

// SelectStartClick resolves the click and installs it as the start point.
// Rejected before any selection mutation when it equals the end point.
func (s *Session) SelectStartClick(p r2.Point) (datastructure.NodeID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := s.resolveClick(p)
	if err != nil {
		return datastructure.NodeID{}, err
	}
	if err := s.setStart(id); err != nil {
		s.virtual.DiscardUnreferenced(id)
		return datastructure.NodeID{}, err
	}
	return id, nil
}

func (s *Session) SelectStartNode(name string) (datastructure.NodeID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := s.resolveNodeID(name)
	if err != nil {
		return datastructure.NodeID{}, err
	}
	return id, s.setStart(id)
}

func (s *Session) setStart(id datastructure.NodeID) error {
	if s.end != nil && *s.end == id {
		return errors.Wrap(ErrInvalidSelection, "start cannot equal end")
	}
	if s.start != nil {
		s.virtual.Release(*s.start, RoleStart)
	}
	s.start = &id
	s.virtual.Acquire(id, RoleStart)
	return nil
}

func (s *Session) SelectEndClick(p r2.Point) (datastructure.NodeID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := s.resolveClick(p)
	if err != nil {
		return datastructure.NodeID{}, err
	}
	if err := s.setEnd(id); err != nil {
		s.virtual.DiscardUnreferenced(id)
		return datastructure.NodeID{}, err
	}
	return id, nil
}

func (s *Session) SelectEndNode(name string) (datastructure.NodeID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := s.resolveNodeID(name)
	if err != nil {
		return datastructure.NodeID{}, err
	}
	return id, s.setEnd(id)
}

func (s *Session) setEnd(id datastructure.NodeID) error {
	if s.start != nil && *s.start == id {
		return errors.Wrap(ErrInvalidSelection, "end cannot equal start")
	}
	if s.end != nil {
		s.virtual.Release(*s.end, RoleEnd)
	}
	s.end = &id
	s.virtual.Acquire(id, RoleEnd)
	return nil
}

func (s *Session) AddStopClick(p r2.Point, name string) (datastructure.NodeID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := s.resolveClick(p)
	if err != nil {
		return datastructure.NodeID{}, err
	}
	s.addStop(id, name)
	return id, nil
}

func (s *Session) AddStopNode(nodeName, displayName string) (datastructure.NodeID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := s.resolveNodeID(nodeName)
	if err != nil {
		return datastructure.NodeID{}, err
	}
	s.addStop(id, displayName)
	return id, nil
}

func (s *Session) addStop(id datastructure.NodeID, name string) {
	s.stops = append(s.stops, Stop{ID: id, Name: name})
	s.virtual.Acquire(id, RoleStop)
}

func (s *Session) RemoveStop(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.stops) {
		return errors.Wrapf(ErrInvalidSelection, "no stop at index %d", index)
	}
	removed := s.stops[index]
	s.stops = append(s.stops[:index], s.stops[index+1:]...)
	s.virtual.Release(removed.ID, RoleStop)
	return nil
}

func (s *Session) ClearStops() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, stop := range s.stops {
		s.virtual.Release(stop.ID, RoleStop)
	}
	s.stops = s.stops[:0]
}

func (s *Session) ClearStart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.start != nil {
		s.virtual.Release(*s.start, RoleStart)
		s.start = nil
	}
}

func (s *Session) ClearEnd() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.end != nil {
		s.virtual.Release(*s.end, RoleEnd)
		s.end = nil
	}
}

// ClearAll tears the session back to its post-load state: selections
// released, stops dropped, every effect removed with its clock stopped, and
// weights reset.
func (s *Session) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.start != nil {
		s.virtual.Release(*s.start, RoleStart)
		s.start = nil
	}
	if s.end != nil {
		s.virtual.Release(*s.end, RoleEnd)
		s.end = nil
	}
	for _, stop := range s.stops {
		s.virtual.Release(stop.ID, RoleStop)
	}
	s.stops = s.stops[:0]
	s.overlay.ClearAll()
	s.overlay.Recompute()
}

func (s *Session) AddTrafficJam(seg overlay.Segment, weight float64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	handle := s.overlay.AddTrafficJam(seg, weight)
	s.overlay.Recompute()
	return handle
}

func (s *Session) AddBlockWay(seg overlay.Segment) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	handle := s.overlay.AddBlockWay(seg)
	s.overlay.Recompute()
	return handle
}

// AddTrafficLight builds a clock from the caller durations and the
// process-wide modifiers, starts it, and installs the effect.
func (s *Session) AddTrafficLight(seg overlay.Segment, durations overlay.PhaseDurations) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clock, err := overlay.NewLightClock(durations, s.cfg.LightModifiers)
	if err != nil {
		return 0, err
	}
	clock.Start()
	handle := s.overlay.AddTrafficLight(seg, clock)
	s.overlay.Recompute()
	return handle, nil
}

func (s *Session) RemoveEffect(handle int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.overlay.Remove(handle); err != nil {
		return err
	}
	s.overlay.Recompute()
	return nil
}

func (s *Session) ClearEffects(kind overlay.EffectKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overlay.ClearKind(kind)
	s.overlay.Recompute()
}

func (s *Session) ClearAllEffects() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overlay.ClearAll()
	s.overlay.Recompute()
}

// TickLights advances every light clock by one second; a phase change makes
// the light's weight modifier stale, so the pass reruns before the next
// route request can read the weights.
func (s *Session) TickLights() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.overlay.Tick() {
		s.overlay.Recompute()
	}
}

// LightStatus is the observable clock state of one placed traffic light.
type LightStatus struct {
	Handle    int64
	Phase     overlay.LightPhase
	Remaining int
	Running   bool
}

func (s *Session) Lights() []LightStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	lights := s.overlay.Effects(overlay.KindTrafficLight)
	out := make([]LightStatus, 0, len(lights))
	for _, e := range lights {
		out = append(out, LightStatus{
			Handle:    e.Handle,
			Phase:     e.Clock.Phase(),
			Remaining: e.Clock.Remaining(),
			Running:   e.Clock.Running(),
		})
	}
	return out
}

// EffectCounts reports how many effects of each kind are currently placed.
func (s *Session) EffectCounts() (jams, blocks, lights int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	jams = len(s.overlay.Effects(overlay.KindTrafficJam))
	blocks = len(s.overlay.Effects(overlay.KindBlockWay))
	lights = len(s.overlay.Effects(overlay.KindTrafficLight))
	return jams, blocks, lights
}

// Route recomputes the overlay, optionally reorders the stops, and composes
// the full multi-stop route. The stored stop order is never mutated by
// optimization; the permutation only applies to this request.
func (s *Session) Route(optimize bool) (datastructure.Route, []datastructure.RouteLeg, []Stop, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.start == nil || s.end == nil {
		return datastructure.Route{}, nil, nil, ErrNoSelection
	}

	s.overlay.Recompute()

	orderedStops := s.stops
	if optimize && len(s.stops) > 1 {
		stopIDs := make([]datastructure.NodeID, len(s.stops))
		for i, stop := range s.stops {
			stopIDs[i] = stop.ID
		}
		order := s.solver.OptimalOrder(*s.start, *s.end, stopIDs)
		orderedStops = make([]Stop, len(order))
		for i, idx := range order {
			orderedStops[i] = s.stops[idx]
		}
	}

	points := make([]datastructure.NodeID, 0, len(orderedStops)+2)
	points = append(points, *s.start)
	for _, stop := range orderedStops {
		points = append(points, stop.ID)
	}
	points = append(points, *s.end)

	route, legs, err := s.routing.ComposeRoute(points)
	if err != nil {
		return datastructure.Route{}, nil, nil, err
	}
	return route, legs, orderedStops, nil
}

// Location is one searchable entry of the read-only node listing.
type Location struct {
	ID string
	X  float64
	Y  float64
}

// Locations snapshots the regular nodes for the caller's search feature.
// Virtual nodes are session transients and never listed.
func (s *Session) Locations() []Location {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Location, 0, s.graph.NumNodes())
	for _, id := range s.graph.Nodes() {
		if id.Virtual() {
			continue
		}
		pos, _ := s.graph.Position(id)
		out = append(out, Location{ID: id.Name, X: pos.X, Y: pos.Y})
	}
	return out
}

// NearestLocation snaps arbitrary coordinates to the closest regular node,
// for search entries that carry a position instead of a node id.
func (s *Session) NearestLocation(p r2.Point) (Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, pos, ok := s.snapper.NearestNode(p)
	if !ok {
		return Location{}, ErrNothingNearby
	}
	return Location{ID: id.Name, X: pos.X, Y: pos.Y}, nil
}

// Selection reports the current start/end/stops. Nil start or end means not
// selected.
func (s *Session) Selection() (start, end *datastructure.NodeID, stops []Stop) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stops = make([]Stop, len(s.stops))
	copy(stops, s.stops)
	if s.start != nil {
		v := *s.start
		start = &v
	}
	if s.end != nil {
		v := *s.end
		end = &v
	}
	return start, end, stops
}

// Position exposes a node position for rendering composed routes.
func (s *Session) Position(id datastructure.NodeID) (r2.Point, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph.Position(id)
}

// RoutePositions maps a route's node sequence to positions, skipping none:
// every routed node has a position by construction.
func (s *Session) RoutePositions(nodes []datastructure.NodeID) []r2.Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	points := make([]r2.Point, 0, len(nodes))
	for _, id := range nodes {
		if pos, ok := s.graph.Position(id); ok {
			points = append(points, pos)
		}
	}
	return points
}
