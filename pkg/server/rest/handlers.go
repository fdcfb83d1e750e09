package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"rindang/dynaroute/pkg/datastructure"
	"rindang/dynaroute/pkg/server"
	"rindang/dynaroute/pkg/server/rest/service"
	"rindang/dynaroute/pkg/session"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
)

type NavigationService interface {
	SelectStartClick(ctx context.Context, x, y float64) (datastructure.NodeID, error)
	SelectStartNode(ctx context.Context, name string) (datastructure.NodeID, error)
	SelectEndClick(ctx context.Context, x, y float64) (datastructure.NodeID, error)
	SelectEndNode(ctx context.Context, name string) (datastructure.NodeID, error)
	AddStopClick(ctx context.Context, x, y float64, name string) (datastructure.NodeID, error)
	AddStopNode(ctx context.Context, nodeName, displayName string) (datastructure.NodeID, error)
	RemoveStop(ctx context.Context, index int) error
	ClearSelection(ctx context.Context, scope string) error
	Selection(ctx context.Context) service.SelectionView

	AddTrafficJam(ctx context.Context, ax, ay, bx, by, weight float64) (int64, error)
	AddBlockWay(ctx context.Context, ax, ay, bx, by float64) (int64, error)
	AddTrafficLight(ctx context.Context, ax, ay, bx, by float64, red, yellow, green int) (int64, error)
	RemoveEffect(ctx context.Context, handle int64) error
	ClearEffects(ctx context.Context, kind string) error
	Lights(ctx context.Context) []session.LightStatus
	EffectCounts(ctx context.Context) (jams, blocks, lights int)

	Route(ctx context.Context, optimize bool) (service.RouteResult, error)
	Locations(ctx context.Context) ([]datastructure.KVNode, error)
	NearestLocation(ctx context.Context, x, y float64) (session.Location, error)
	NearestRoadSegments(ctx context.Context, x, y float64) ([]datastructure.KVEdge, error)
}

type NavigatorHandler struct {
	svc NavigationService
	m   *Metrics
}

func NavigatorRouter(r *chi.Mux, svc NavigationService, m *Metrics) {
	handler := &NavigatorHandler{svc: svc, m: m}

	r.Group(func(r chi.Router) {
		r.Route("/api/selection", func(r chi.Router) {
			r.Get("/", handler.Selection)
			r.Post("/start", handler.SelectStart)
			r.Post("/end", handler.SelectEnd)
			r.Post("/stops", handler.AddStop)
			r.Delete("/stops/{index}", handler.RemoveStop)
			r.Delete("/{scope}", handler.ClearSelection)
		})
		r.Route("/api/effects", func(r chi.Router) {
			r.Post("/jam", handler.AddTrafficJam)
			r.Post("/block", handler.AddBlockWay)
			r.Post("/light", handler.AddTrafficLight)
			r.Get("/lights", handler.Lights)
			r.Delete("/{handle}", handler.RemoveEffect)
			r.Delete("/", handler.ClearEffects)
		})
		r.Route("/api/navigations", func(r chi.Router) {
			r.Post("/route", handler.Route)
			r.Post("/nearest-road-segment", handler.NearestRoadSegments)
		})
		r.Route("/api/locations", func(r chi.Router) {
			r.Get("/", handler.Locations)
			r.Post("/nearest", handler.NearestLocation)
		})
	})
}

// SelectionRequest picks a point either by node id or by map coordinates.
type SelectionRequest struct {
	Node string   `json:"node,omitempty"`
	X    *float64 `json:"x,omitempty"`
	Y    *float64 `json:"y,omitempty"`
	Name string   `json:"name,omitempty"`
}

func (s *SelectionRequest) Bind(r *http.Request) error {
	if s.Node == "" && (s.X == nil || s.Y == nil) {
		return errors.New("either node or both x and y are required")
	}
	return nil
}

type SelectionResponse struct {
	ID      string `json:"id"`
	Virtual bool   `json:"virtual"`
}

func RenderSelectionResponse(id datastructure.NodeID) *SelectionResponse {
	return &SelectionResponse{
		ID:      id.String(),
		Virtual: id.Virtual(),
	}
}

func (h *NavigatorHandler) SelectStart(w http.ResponseWriter, r *http.Request) {
	data := &SelectionRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	var (
		id  datastructure.NodeID
		err error
	)
	if data.Node != "" {
		id, err = h.svc.SelectStartNode(r.Context(), data.Node)
	} else {
		id, err = h.svc.SelectStartClick(r.Context(), *data.X, *data.Y)
	}
	if err != nil {
		render.Render(w, r, ErrKind(err))
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, RenderSelectionResponse(id))
}

func (h *NavigatorHandler) SelectEnd(w http.ResponseWriter, r *http.Request) {
	data := &SelectionRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	var (
		id  datastructure.NodeID
		err error
	)
	if data.Node != "" {
		id, err = h.svc.SelectEndNode(r.Context(), data.Node)
	} else {
		id, err = h.svc.SelectEndClick(r.Context(), *data.X, *data.Y)
	}
	if err != nil {
		render.Render(w, r, ErrKind(err))
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, RenderSelectionResponse(id))
}

func (h *NavigatorHandler) AddStop(w http.ResponseWriter, r *http.Request) {
	data := &SelectionRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	var (
		id  datastructure.NodeID
		err error
	)
	if data.Node != "" {
		id, err = h.svc.AddStopNode(r.Context(), data.Node, data.Name)
	} else {
		id, err = h.svc.AddStopClick(r.Context(), *data.X, *data.Y, data.Name)
	}
	if err != nil {
		render.Render(w, r, ErrKind(err))
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, RenderSelectionResponse(id))
}

func (h *NavigatorHandler) RemoveStop(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		render.Render(w, r, ErrInvalidRequest(errors.New("stop index must be an integer")))
		return
	}
	if err := h.svc.RemoveStop(r.Context(), index); err != nil {
		render.Render(w, r, ErrKind(err))
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, map[string]string{"status": "ok"})
}

func (h *NavigatorHandler) ClearSelection(w http.ResponseWriter, r *http.Request) {
	scope := chi.URLParam(r, "scope")
	if err := h.svc.ClearSelection(r.Context(), scope); err != nil {
		render.Render(w, r, ErrKind(err))
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, map[string]string{"status": "ok"})
}

type StopResponse struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type SelectionViewResponse struct {
	Start *SelectionResponse `json:"start,omitempty"`
	End   *SelectionResponse `json:"end,omitempty"`
	Stops []StopResponse     `json:"stops"`
}

func (h *NavigatorHandler) Selection(w http.ResponseWriter, r *http.Request) {
	view := h.svc.Selection(r.Context())

	resp := &SelectionViewResponse{Stops: make([]StopResponse, 0, len(view.Stops))}
	if view.Start != nil {
		resp.Start = RenderSelectionResponse(*view.Start)
	}
	if view.End != nil {
		resp.End = RenderSelectionResponse(*view.End)
	}
	for _, stop := range view.Stops {
		resp.Stops = append(resp.Stops, StopResponse{ID: stop.ID.String(), Name: stop.Name})
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, resp)
}

// SegmentRequest is the drawn segment of an effect in map coordinates.
type SegmentRequest struct {
	Ax *float64 `json:"ax"`
	Ay *float64 `json:"ay"`
	Bx *float64 `json:"bx"`
	By *float64 `json:"by"`
}

func (s *SegmentRequest) bindSegment() error {
	if s.Ax == nil || s.Ay == nil || s.Bx == nil || s.By == nil {
		return errors.New("segment endpoints ax, ay, bx, by are required")
	}
	return nil
}

type TrafficJamRequest struct {
	SegmentRequest
	Weight float64 `json:"weight" validate:"required,gt=0"`
}

func (s *TrafficJamRequest) Bind(r *http.Request) error {
	return s.bindSegment()
}

type BlockWayRequest struct {
	SegmentRequest
}

func (s *BlockWayRequest) Bind(r *http.Request) error {
	return s.bindSegment()
}

type TrafficLightRequest struct {
	SegmentRequest
	Red    int `json:"red" validate:"required,gt=0"`
	Yellow int `json:"yellow" validate:"required,gt=0"`
	Green  int `json:"green" validate:"required,gt=0"`
}

func (s *TrafficLightRequest) Bind(r *http.Request) error {
	return s.bindSegment()
}

type EffectResponse struct {
	Handle int64 `json:"handle"`
}

func (h *NavigatorHandler) updateEffectGauges(ctx context.Context) {
	jams, blocks, lights := h.svc.EffectCounts(ctx)
	h.m.ActiveEffects.WithLabelValues("jam").Set(float64(jams))
	h.m.ActiveEffects.WithLabelValues("block").Set(float64(blocks))
	h.m.ActiveEffects.WithLabelValues("light").Set(float64(lights))
}

func (h *NavigatorHandler) AddTrafficJam(w http.ResponseWriter, r *http.Request) {
	data := &TrafficJamRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	validate := validator.New()
	if err := validate.Struct(*data); err != nil {
		english := en.New()
		uni := ut.New(english, english)
		trans, _ := uni.GetTranslator("en")
		_ = enTranslations.RegisterDefaultTranslations(validate, trans)
		vv := translateError(err, trans)
		render.Render(w, r, ErrValidation(err, vv))
		return
	}

	handle, err := h.svc.AddTrafficJam(r.Context(), *data.Ax, *data.Ay, *data.Bx, *data.By, data.Weight)
	if err != nil {
		render.Render(w, r, ErrKind(err))
		return
	}
	h.updateEffectGauges(r.Context())

	render.Status(r, http.StatusOK)
	render.JSON(w, r, &EffectResponse{Handle: handle})
}

func (h *NavigatorHandler) AddBlockWay(w http.ResponseWriter, r *http.Request) {
	data := &BlockWayRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	handle, err := h.svc.AddBlockWay(r.Context(), *data.Ax, *data.Ay, *data.Bx, *data.By)
	if err != nil {
		render.Render(w, r, ErrKind(err))
		return
	}
	h.updateEffectGauges(r.Context())

	render.Status(r, http.StatusOK)
	render.JSON(w, r, &EffectResponse{Handle: handle})
}

func (h *NavigatorHandler) AddTrafficLight(w http.ResponseWriter, r *http.Request) {
	data := &TrafficLightRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	validate := validator.New()
	if err := validate.Struct(*data); err != nil {
		english := en.New()
		uni := ut.New(english, english)
		trans, _ := uni.GetTranslator("en")
		_ = enTranslations.RegisterDefaultTranslations(validate, trans)
		vv := translateError(err, trans)
		render.Render(w, r, ErrValidation(err, vv))
		return
	}

	handle, err := h.svc.AddTrafficLight(r.Context(), *data.Ax, *data.Ay, *data.Bx, *data.By,
		data.Red, data.Yellow, data.Green)
	if err != nil {
		render.Render(w, r, ErrKind(err))
		return
	}
	h.updateEffectGauges(r.Context())

	render.Status(r, http.StatusOK)
	render.JSON(w, r, &EffectResponse{Handle: handle})
}

func (h *NavigatorHandler) RemoveEffect(w http.ResponseWriter, r *http.Request) {
	handle, err := strconv.ParseInt(chi.URLParam(r, "handle"), 10, 64)
	if err != nil {
		render.Render(w, r, ErrInvalidRequest(errors.New("effect handle must be an integer")))
		return
	}
	if err := h.svc.RemoveEffect(r.Context(), handle); err != nil {
		render.Render(w, r, ErrKind(err))
		return
	}
	h.updateEffectGauges(r.Context())

	render.Status(r, http.StatusOK)
	render.JSON(w, r, map[string]string{"status": "ok"})
}

func (h *NavigatorHandler) ClearEffects(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")
	if kind == "" {
		kind = "all"
	}
	if err := h.svc.ClearEffects(r.Context(), kind); err != nil {
		render.Render(w, r, ErrKind(err))
		return
	}
	h.updateEffectGauges(r.Context())

	render.Status(r, http.StatusOK)
	render.JSON(w, r, map[string]string{"status": "ok"})
}

type LightStatusResponse struct {
	Handle    int64  `json:"handle"`
	Phase     string `json:"phase"`
	Remaining int    `json:"remaining"`
	Running   bool   `json:"running"`
}

func (h *NavigatorHandler) Lights(w http.ResponseWriter, r *http.Request) {
	lights := h.svc.Lights(r.Context())

	resp := make([]LightStatusResponse, 0, len(lights))
	for _, l := range lights {
		resp = append(resp, LightStatusResponse{
			Handle:    l.Handle,
			Phase:     l.Phase.String(),
			Remaining: l.Remaining,
			Running:   l.Running,
		})
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, resp)
}

type RouteRequest struct {
	Optimize bool `json:"optimize"`
}

func (s *RouteRequest) Bind(r *http.Request) error {
	return nil
}

type Coord struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type RouteLegResponse struct {
	From string  `json:"from"`
	To   string  `json:"to"`
	Cost float64 `json:"cost"`
}

type RouteResponse struct {
	Path  string             `json:"path"`
	Cost  float64            `json:"cost"`
	Route []Coord            `json:"route"`
	Legs  []RouteLegResponse `json:"legs"`
	Stops []StopResponse     `json:"stops"`
}

func RenderRouteResponse(result service.RouteResult) *RouteResponse {
	coords := make([]Coord, 0, len(result.Points))
	for _, p := range result.Points {
		coords = append(coords, Coord{X: p.X, Y: p.Y})
	}
	legs := make([]RouteLegResponse, 0, len(result.Legs))
	for _, leg := range result.Legs {
		legs = append(legs, RouteLegResponse{
			From: leg.From.String(),
			To:   leg.To.String(),
			Cost: leg.Cost,
		})
	}
	stops := make([]StopResponse, 0, len(result.Stops))
	for _, stop := range result.Stops {
		stops = append(stops, StopResponse{ID: stop.ID.String(), Name: stop.Name})
	}
	return &RouteResponse{
		Path:  result.Polyline,
		Cost:  result.Cost,
		Route: coords,
		Legs:  legs,
		Stops: stops,
	}
}

func (h *NavigatorHandler) Route(w http.ResponseWriter, r *http.Request) {
	data := &RouteRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	result, err := h.svc.Route(r.Context(), data.Optimize)
	if err != nil {
		switch server.KindOf(err) {
		case server.ErrBlocked:
			h.m.RouteRequestsTotal.WithLabelValues("blocked").Inc()
		case server.ErrUnreachable:
			h.m.RouteRequestsTotal.WithLabelValues("unreachable").Inc()
		default:
			h.m.RouteRequestsTotal.WithLabelValues("error").Inc()
		}
		render.Render(w, r, ErrKind(err))
		return
	}
	h.m.RouteRequestsTotal.WithLabelValues("ok").Inc()

	render.Status(r, http.StatusOK)
	render.JSON(w, r, RenderRouteResponse(result))
}

type LocationResponse struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

func (h *NavigatorHandler) Locations(w http.ResponseWriter, r *http.Request) {
	locations, err := h.svc.Locations(r.Context())
	if err != nil {
		render.Render(w, r, ErrKind(err))
		return
	}

	resp := make([]LocationResponse, 0, len(locations))
	for _, loc := range locations {
		resp = append(resp, LocationResponse{ID: loc.ID, X: loc.Loc[0], Y: loc.Loc[1]})
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, resp)
}

type PointRequest struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

func (s *PointRequest) Bind(r *http.Request) error {
	if s.X == nil || s.Y == nil {
		return errors.New("x and y are required")
	}
	return nil
}

func (h *NavigatorHandler) NearestLocation(w http.ResponseWriter, r *http.Request) {
	data := &PointRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	loc, err := h.svc.NearestLocation(r.Context(), *data.X, *data.Y)
	if err != nil {
		render.Render(w, r, ErrKind(err))
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, &LocationResponse{ID: loc.ID, X: loc.X, Y: loc.Y})
}

type RoadSegmentResponse struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Center Coord  `json:"center"`
}

func (h *NavigatorHandler) NearestRoadSegments(w http.ResponseWriter, r *http.Request) {
	data := &PointRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	edges, err := h.svc.NearestRoadSegments(r.Context(), *data.X, *data.Y)
	if err != nil {
		render.Render(w, r, ErrKind(err))
		return
	}

	resp := make([]RoadSegmentResponse, 0, len(edges))
	for _, e := range edges {
		resp = append(resp, RoadSegmentResponse{
			From:   e.From.String(),
			To:     e.To.String(),
			Center: Coord{X: e.CenterLoc[0], Y: e.CenterLoc[1]},
		})
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, resp)
}

func ErrInvalidRequest(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: 400,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
	}
}

// ErrKind maps a wrapped service error to its HTTP status.
func ErrKind(err error) render.Renderer {
	status := http.StatusInternalServerError
	statusText := "Internal server error."
	switch server.KindOf(err) {
	case server.ErrNotFound, server.ErrUnreachable:
		status = http.StatusNotFound
		statusText = "Not found."
	case server.ErrBlocked:
		status = http.StatusConflict
		statusText = "Blocked."
	case server.ErrBadRequest, server.ErrInvalidSelection, server.ErrNoSuchEdge:
		status = http.StatusBadRequest
		statusText = "Invalid request."
	}
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: status,
		StatusText:     statusText,
		ErrorText:      err.Error(),
	}
}

type ErrResponse struct {
	Err            error `json:"-"` // low-level runtime error
	HTTPStatusCode int   `json:"-"` // http response status code

	StatusText    string   `json:"status"`          // user-level status message
	AppCode       int64    `json:"code,omitempty"`  // application-specific error code
	ErrorText     string   `json:"error,omitempty"` // application-level error message, for debugging
	ErrValidation []string `json:"validation,omitempty"`
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func translateError(err error, trans ut.Translator) (errs []error) {
	if err == nil {
		return nil
	}
	validatorErrs := err.(validator.ValidationErrors)
	for _, e := range validatorErrs {
		translatedErr := fmt.Errorf(e.Translate(trans))
		errs = append(errs, translatedErr)
	}
	return errs
}

func ErrValidation(err error, errV []error) render.Renderer {
	vv := []string{}
	for _, v := range errV {
		vv = append(vv, v.Error())
	}
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: 400,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
		ErrValidation:  vv,
	}
}
