// Package mapparser performs the one-time graph load. The map source is an
// opaque node/edge listing (JSON for hand-edited maps, a compressed binary
// snapshot for fast restarts); once loaded the regular nodes and the
// original-weight snapshot are immutable for the session.
package mapparser

import (
	"encoding/json"
	"log"
	"os"

	"rindang/dynaroute/pkg/datastructure"

	"github.com/DataDog/zstd"
	"github.com/golang/geo/r2"
	"github.com/kelindar/binary"
	"github.com/pkg/errors"
)

type MapNode struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

type MapEdge struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Weight float64 `json:"weight"`
	Oneway bool    `json:"oneway,omitempty"`
}

type MapFile struct {
	Nodes []MapNode `json:"nodes"`
	Edges []MapEdge `json:"edges"`
}

// BuildRoadNetwork materializes the listing into a RoadNetwork and captures
// the original-weight snapshot. Two-way edges become a pair of opposite
// directed edges with the same weight.
func BuildRoadNetwork(m MapFile) (*datastructure.RoadNetwork, error) {
	rn := datastructure.NewRoadNetwork()
	for _, n := range m.Nodes {
		if n.ID == "" {
			return nil, errors.New("map node with empty id")
		}
		rn.AddNode(datastructure.NewNodeID(n.ID), r2.Point{X: n.X, Y: n.Y})
	}
	for _, e := range m.Edges {
		from := datastructure.NewNodeID(e.From)
		to := datastructure.NewNodeID(e.To)
		if !rn.HasNode(from) || !rn.HasNode(to) {
			return nil, errors.Errorf("map edge %s->%s references unknown node", e.From, e.To)
		}
		if e.Weight < 0 {
			return nil, errors.Errorf("map edge %s->%s has negative weight", e.From, e.To)
		}
		rn.AddEdge(from, to, e.Weight)
		if !e.Oneway {
			rn.AddEdge(to, from, e.Weight)
		}
	}
	rn.SnapshotOriginalWeights()
	log.Printf("loaded road network: %d nodes, %d edges", rn.NumNodes(), len(rn.Edges()))
	return rn, nil
}

func LoadRoadNetwork(path string) (*datastructure.RoadNetwork, error) {
	bb, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read map file")
	}
	var m MapFile
	if err := json.Unmarshal(bb, &m); err != nil {
		return nil, errors.Wrap(err, "parse map file")
	}
	return BuildRoadNetwork(m)
}

// SaveSnapshot writes the listing as a zstd-compressed binary blob.
func SaveSnapshot(path string, m MapFile) error {
	encoded, err := binary.Marshal(m)
	if err != nil {
		return errors.Wrap(err, "encode snapshot")
	}
	var compressed []byte
	compressed, err = zstd.Compress(compressed, encoded)
	if err != nil {
		return errors.Wrap(err, "compress snapshot")
	}
	return os.WriteFile(path, compressed, 0644)
}

func LoadSnapshot(path string) (*datastructure.RoadNetwork, error) {
	compressed, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read snapshot")
	}
	var bb []byte
	bb, err = zstd.Decompress(bb, compressed)
	if err != nil {
		return nil, errors.Wrap(err, "decompress snapshot")
	}
	var m MapFile
	if err := binary.Unmarshal(bb, &m); err != nil {
		return nil, errors.Wrap(err, "decode snapshot")
	}
	return BuildRoadNetwork(m)
}
