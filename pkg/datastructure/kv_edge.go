package datastructure

// KVEdge is the compact road segment record stored in the grid-indexed
// key-value store. CenterLoc is the segment midpoint in map units.
type KVEdge struct {
	CenterLoc [2]float64
	From      NodeID
	To        NodeID
}

// KVNode is a selectable map location persisted alongside the edge index.
type KVNode struct {
	ID  string
	Loc [2]float64
}
