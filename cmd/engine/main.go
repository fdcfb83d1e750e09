package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"rindang/dynaroute/pkg/datastructure"
	"rindang/dynaroute/pkg/kv"
	"rindang/dynaroute/pkg/mapparser"
	"rindang/dynaroute/pkg/server/rest"
	"rindang/dynaroute/pkg/server/rest/service"
	"rindang/dynaroute/pkg/session"

	"github.com/dgraph-io/badger/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

var (
	listenAddr      = flag.String("listenaddr", ":5000", "server listen address")
	mapFile         = flag.String("f", "map.json", "road network map file")
	snapshotFile    = flag.String("snapshot", "", "binary road network snapshot, used instead of the map file when set")
	kvDir           = flag.String("kvdir", "./dynaroute_db", "badger key-value db directory")
	effectThreshold = flag.Float64("threshold", 0, "effect capture distance in map units, 0 keeps the default")
)

func main() {
	flag.Parse()

	var (
		graph *datastructure.RoadNetwork
		err   error
	)
	if *snapshotFile != "" {
		graph, err = mapparser.LoadSnapshot(*snapshotFile)
	} else {
		graph, err = mapparser.LoadRoadNetwork(*mapFile)
	}
	if err != nil {
		log.Fatal(err)
	}

	db, err := badger.Open(badger.DefaultOptions(*kvDir))
	if err != nil {
		log.Fatal(err)
	}

	kvDB := kv.NewKVDB(db)
	defer kvDB.Close()

	if err := kvDB.BuildGridIndexedEdges(context.Background(), graph); err != nil {
		log.Fatal(err)
	}
	if err := kvDB.PutLocations(locationRoster(graph)); err != nil {
		log.Fatal(err)
	}

	cfg := session.DefaultConfig()
	if *effectThreshold > 0 {
		cfg.EffectThreshold = *effectThreshold
	}
	sess := session.NewSession(graph, cfg)

	// One pass per second drives every placed traffic light clock.
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for range ticker.C {
			sess.TickLights()
		}
	}()

	reg := prometheus.NewRegistry()
	m := rest.NewMetrics(reg)

	r := chi.NewRouter()

	r.Use(middleware.Logger)

	r.Use(rest.PromeHttpMiddleware(m))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	navigatorSvc := service.NewNavigationService(sess, kvDB)
	rest.NavigatorRouter(r, navigatorSvc, m)

	fmt.Printf("\nroad network loaded: %d nodes\n", graph.NumNodes())
	fmt.Printf("server started at %s\n", *listenAddr)

	log.Fatal(http.ListenAndServe(*listenAddr, r))
}

func locationRoster(graph *datastructure.RoadNetwork) []datastructure.KVNode {
	roster := make([]datastructure.KVNode, 0, graph.NumNodes())
	for _, id := range graph.Nodes() {
		if id.Virtual() {
			continue
		}
		pos, ok := graph.Position(id)
		if !ok {
			continue
		}
		roster = append(roster, datastructure.KVNode{ID: id.Name, Loc: [2]float64{pos.X, pos.Y}})
	}
	return roster
}
