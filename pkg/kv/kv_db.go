package kv

import (
	"context"
	"errors"
	"fmt"
	"log"
	"rindang/dynaroute/pkg/datastructure"

	"github.com/dgraph-io/badger/v4"
)

var (
	ErrEdgesNotFound     = errors.New("edges not found")
	ErrLocationsNotFound = errors.New("locations not found")
)

const locationsKey = "locations"

// maxRingLevel bounds the outward grid search when the click cell and its
// neighbours hold no edges.
const maxRingLevel = 10

type KVDB struct {
	db *badger.DB
}

func NewKVDB(db *badger.DB) *KVDB {
	return &KVDB{db}
}

// BuildGridIndexedEdges buckets every road segment by the grid cell
// containing its midpoint and persists the buckets to the key-value db.
func (k *KVDB) BuildGridIndexedEdges(ctx context.Context, graph *datastructure.RoadNetwork) error {
	log.Printf("creating & saving grid indexed road segments to key-value db...")

	kvBuckets := make(map[string][]datastructure.KVEdge)
	for _, edge := range graph.Edges() {
		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled")
		default:
		}

		posFrom, okFrom := graph.Position(edge.From)
		posTo, okTo := graph.Position(edge.To)
		if !okFrom || !okTo {
			continue
		}

		centerX := (posFrom.X + posTo.X) / 2
		centerY := (posFrom.Y + posTo.Y) / 2

		segment := datastructure.KVEdge{
			CenterLoc: [2]float64{centerX, centerY},
			From:      edge.From,
			To:        edge.To,
		}

		key := cellOf(centerX, centerY).key()
		kvBuckets[key] = append(kvBuckets[key], segment)
	}

	batchSize := 1000
	batches := make([]batchData, 0, batchSize)
	for key, value := range kvBuckets {
		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled")
		default:
		}

		batches = append(batches, batchData{
			key:   key,
			value: value,
		})
		if len(batches) == batchSize {
			err := k.saveBatchEdges(ctx, batches)
			if err != nil {
				return err
			}
			batches = make([]batchData, 0, batchSize)
		}
	}

	if len(batches) > 0 {
		err := k.saveBatchEdges(ctx, batches)
		if err != nil {
			return err
		}
	}

	log.Printf("creating & saving grid indexed road segments to key-value db done...")
	return nil
}

type batchData struct {
	key   string
	value []datastructure.KVEdge
}

func (k *KVDB) saveBatchEdges(ctx context.Context, batchData []batchData) error {
	batch := k.db.NewWriteBatch()
	defer batch.Cancel()

	for _, data := range batchData {
		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled")
		default:
		}

		key := []byte(data.key)

		val, err := encodeEdges(data.value)
		if err != nil {
			return err
		}

		if err := batch.Set(key, val); err != nil {
			return err
		}
	}

	if err := batch.Flush(); err != nil {
		log.Printf("error saving edges: %v", err)
		return err
	}
	return nil
}

func (k *KVDB) get(val, key []byte) ([]byte, error) {
	err := k.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}

		val, err = item.ValueCopy(nil)
		if err != nil {
			return err
		}

		return nil
	})
	return val, err
}

// GetNearestEdgesFromPoint returns the road segments indexed in the grid
// cell containing (x, y), widening the search ring by ring when the
// nearby cells are empty.
func (k *KVDB) GetNearestEdgesFromPoint(x, y float64) ([]datastructure.KVEdge, error) {
	edges := []datastructure.KVEdge{}

	origin := cellOf(x, y)

	for lev := 0; lev <= maxRingLevel; lev++ {
		for _, currCell := range gridRing(origin, lev) {
			var val []byte
			val, err := k.get(val, []byte(currCell.key()))

			if err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					continue
				}
				return []datastructure.KVEdge{}, err
			}

			segments, err := loadEdges(val)
			if err != nil {
				return []datastructure.KVEdge{}, err
			}
			edges = append(edges, segments...)
		}
		if len(edges) > 0 {
			break
		}
	}

	if len(edges) == 0 {
		return []datastructure.KVEdge{}, ErrEdgesNotFound
	}

	return edges, nil
}

// PutLocations persists the selectable location roster.
func (k *KVDB) PutLocations(locations []datastructure.KVNode) error {
	val, err := encodeLocations(locations)
	if err != nil {
		return err
	}
	return k.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(locationsKey), val)
	})
}

// GetLocations loads the selectable location roster.
func (k *KVDB) GetLocations() ([]datastructure.KVNode, error) {
	var val []byte
	val, err := k.get(val, []byte(locationsKey))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrLocationsNotFound
		}
		return nil, err
	}
	return loadLocations(val)
}

func (k *KVDB) Close() {
	k.db.Close()
}
