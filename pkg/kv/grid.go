package kv

import (
	"fmt"
	"math"
)

// gridCellSize is the side length of one square index cell in map units.
// Edges are bucketed by the cell containing their midpoint.
const gridCellSize = 64.0

type cell struct {
	x, y int
}

func cellOf(x, y float64) cell {
	return cell{
		x: int(math.Floor(x / gridCellSize)),
		y: int(math.Floor(y / gridCellSize)),
	}
}

func (c cell) key() string {
	return fmt.Sprintf("%d:%d", c.x, c.y)
}

// gridRing returns the cells on the square ring at the given chebyshev
// distance around origin. Ring 0 is the origin cell itself.
func gridRing(origin cell, lev int) []cell {
	if lev == 0 {
		return []cell{origin}
	}
	ring := make([]cell, 0, 8*lev)
	for dx := -lev; dx <= lev; dx++ {
		for dy := -lev; dy <= lev; dy++ {
			if dx != -lev && dx != lev && dy != -lev && dy != lev {
				continue
			}
			ring = append(ring, cell{x: origin.x + dx, y: origin.y + dy})
		}
	}
	return ring
}
