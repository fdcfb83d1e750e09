package service

import (
	"context"
	"testing"

	"rindang/dynaroute/pkg/datastructure"
	"rindang/dynaroute/pkg/kv"
	"rindang/dynaroute/pkg/server"
	"rindang/dynaroute/pkg/session"

	"github.com/golang/geo/r2"
	"github.com/stretchr/testify/assert"
)

type fakeKVDB struct {
	edges     []datastructure.KVEdge
	locations []datastructure.KVNode
}

func (f *fakeKVDB) GetNearestEdgesFromPoint(x, y float64) ([]datastructure.KVEdge, error) {
	if len(f.edges) == 0 {
		return nil, kv.ErrEdgesNotFound
	}
	return f.edges, nil
}

func (f *fakeKVDB) GetLocations() ([]datastructure.KVNode, error) {
	if len(f.locations) == 0 {
		return nil, kv.ErrLocationsNotFound
	}
	return f.locations, nil
}

/*
	a ---100--- b ---100--- c

chain on the x axis, bidirectional
*/
func buildService(kvDB KVDB) *NavigationService {
	rn := datastructure.NewRoadNetwork()
	names := []string{"a", "b", "c"}
	for i, name := range names {
		rn.AddNode(datastructure.NewNodeID(name), r2.Point{X: float64(i) * 100, Y: 0})
	}
	for i := 0; i < len(names)-1; i++ {
		u := datastructure.NewNodeID(names[i])
		v := datastructure.NewNodeID(names[i+1])
		rn.AddEdge(u, v, 100)
		rn.AddEdge(v, u, 100)
	}
	rn.SnapshotOriginalWeights()
	sess := session.NewSession(rn, session.DefaultConfig())
	return NewNavigationService(sess, kvDB)
}

func TestServiceRoute(t *testing.T) {
	svc := buildService(&fakeKVDB{})
	ctx := context.Background()

	_, err := svc.SelectStartNode(ctx, "a")
	assert.Nil(t, err)
	_, err = svc.SelectEndNode(ctx, "c")
	assert.Nil(t, err)

	result, err := svc.Route(ctx, false)
	assert.Nil(t, err)
	assert.Equal(t, 200.0, result.Cost)
	assert.Equal(t, 3, len(result.Points))
	assert.NotEmpty(t, result.Polyline)
}

func TestServiceRouteWithoutSelection(t *testing.T) {
	svc := buildService(&fakeKVDB{})

	_, err := svc.Route(context.Background(), false)
	assert.Equal(t, server.ErrBadRequest, server.KindOf(err))
}

func TestServiceSelectionErrorKinds(t *testing.T) {
	svc := buildService(&fakeKVDB{})
	ctx := context.Background()

	_, err := svc.SelectStartNode(ctx, "nope")
	assert.Equal(t, server.ErrInvalidSelection, server.KindOf(err))

	_, err = svc.SelectStartClick(ctx, 5000, 5000)
	assert.Equal(t, server.ErrNotFound, server.KindOf(err))

	_, err = svc.SelectStartNode(ctx, "a")
	assert.Nil(t, err)
	_, err = svc.SelectEndNode(ctx, "a")
	assert.Equal(t, server.ErrInvalidSelection, server.KindOf(err))
}

func TestServiceBlockedRouteKind(t *testing.T) {
	svc := buildService(&fakeKVDB{})
	ctx := context.Background()

	_, err := svc.SelectStartNode(ctx, "a")
	assert.Nil(t, err)
	_, err = svc.SelectEndNode(ctx, "b")
	assert.Nil(t, err)

	// block the only edge between start and end
	_, err = svc.AddBlockWay(ctx, 50, -10, 50, 10)
	assert.Nil(t, err)

	_, err = svc.Route(ctx, false)
	assert.Equal(t, server.ErrBlocked, server.KindOf(err))
}

func TestServiceUnreachableRouteKind(t *testing.T) {
	svc := buildService(&fakeKVDB{})
	ctx := context.Background()

	_, err := svc.SelectStartNode(ctx, "a")
	assert.Nil(t, err)
	_, err = svc.SelectEndNode(ctx, "c")
	assert.Nil(t, err)

	// both edges blocked, c unreachable on any path
	_, err = svc.AddBlockWay(ctx, 50, -10, 50, 10)
	assert.Nil(t, err)
	_, err = svc.AddBlockWay(ctx, 150, -10, 150, 10)
	assert.Nil(t, err)

	_, err = svc.Route(ctx, false)
	assert.Equal(t, server.ErrUnreachable, server.KindOf(err))
}

func TestServiceClearAndEffectValidation(t *testing.T) {
	svc := buildService(&fakeKVDB{})
	ctx := context.Background()

	_, err := svc.AddTrafficJam(ctx, 50, -10, 50, 10, 0)
	assert.Equal(t, server.ErrBadRequest, server.KindOf(err))

	err = svc.ClearEffects(ctx, "tornado")
	assert.Equal(t, server.ErrBadRequest, server.KindOf(err))

	err = svc.RemoveEffect(ctx, 42)
	assert.Equal(t, server.ErrNotFound, server.KindOf(err))

	err = svc.ClearSelection(ctx, "everything")
	assert.Equal(t, server.ErrBadRequest, server.KindOf(err))
	assert.Nil(t, svc.ClearSelection(ctx, "all"))
}

func TestServiceLocationsFallback(t *testing.T) {
	// empty kv store falls back to the live graph
	svc := buildService(&fakeKVDB{})
	locations, err := svc.Locations(context.Background())
	assert.Nil(t, err)
	assert.Equal(t, 3, len(locations))

	// a persisted roster wins
	svc = buildService(&fakeKVDB{locations: []datastructure.KVNode{{ID: "stored", Loc: [2]float64{1, 2}}}})
	locations, err = svc.Locations(context.Background())
	assert.Nil(t, err)
	assert.Equal(t, 1, len(locations))
	assert.Equal(t, "stored", locations[0].ID)
}

func TestServiceNearestRoadSegments(t *testing.T) {
	svc := buildService(&fakeKVDB{})
	_, err := svc.NearestRoadSegments(context.Background(), 0, 0)
	assert.Equal(t, server.ErrNotFound, server.KindOf(err))

	svc = buildService(&fakeKVDB{edges: []datastructure.KVEdge{{
		CenterLoc: [2]float64{50, 0},
		From:      datastructure.NewNodeID("a"),
		To:        datastructure.NewNodeID("b"),
	}}})
	edges, err := svc.NearestRoadSegments(context.Background(), 0, 0)
	assert.Nil(t, err)
	assert.Equal(t, 1, len(edges))
}
