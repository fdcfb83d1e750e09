package kv

import (
	"rindang/dynaroute/pkg/datastructure"

	"github.com/DataDog/zstd"
	"github.com/kelindar/binary"
)

func encodeEdges(sw []datastructure.KVEdge) ([]byte, error) {
	bb, err := binary.Marshal(sw)
	if err != nil {
		return nil, err
	}

	return compress(bb)
}

func loadEdges(bbCompressed []byte) ([]datastructure.KVEdge, error) {
	bb, err := decompress(bbCompressed)
	if err != nil {
		return nil, err
	}

	var sw []datastructure.KVEdge
	err = binary.Unmarshal(bb, &sw)
	return sw, err
}

func encodeLocations(locations []datastructure.KVNode) ([]byte, error) {
	bb, err := binary.Marshal(locations)
	if err != nil {
		return nil, err
	}

	return compress(bb)
}

func loadLocations(bbCompressed []byte) ([]datastructure.KVNode, error) {
	bb, err := decompress(bbCompressed)
	if err != nil {
		return nil, err
	}

	var locations []datastructure.KVNode
	err = binary.Unmarshal(bb, &locations)
	return locations, err
}

func compress(bb []byte) ([]byte, error) {
	var bbCompressed []byte
	bbCompressed, err := zstd.Compress(bbCompressed, bb)
	if err != nil {
		return []byte{}, err
	}
	return bbCompressed, nil
}

func decompress(bbCompressed []byte) ([]byte, error) {
	var bb []byte
	bb, err := zstd.Decompress(bb, bbCompressed)
	if err != nil {
		return []byte{}, err
	}

	return bb, nil
}
