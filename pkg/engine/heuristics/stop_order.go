// Package heuristics orders the intermediate stops of a multi-stop trip.
// Small stop counts are solved exactly by enumeration; larger ones fall back
// to the nearest-neighbor heuristic, which is fast but not guaranteed
// optimal.
package heuristics

import (
	"math"

	"rindang/dynaroute/pkg/datastructure"
)

// BruteForceStopLimit is the largest stop count solved by exhaustive
// permutation (7! = 5040 orders).
const BruteForceStopLimit = 7

// PathCoster is the slice of the routing engine the solver needs: direct edge
// weights and shortest-path costs over the current live weights.
type PathCoster interface {
	Weight(u, v datastructure.NodeID) (float64, bool)
	ShortestPath(from, to datastructure.NodeID) ([]datastructure.NodeID, float64, bool)
}

type StopOrderSolver struct {
	coster PathCoster
}

func NewStopOrderSolver(coster PathCoster) *StopOrderSolver {
	return &StopOrderSolver{coster: coster}
}

// OptimalOrder returns a permutation of stop indices such that visiting the
// stops in that order minimizes (exactly, or per nearest-neighbor above the
// brute-force limit) the total cost start -> stops... -> end. Pairs with no
// finite connection get +Inf matrix entries; the order stays well-defined and
// the composed route fails later with a precise segment index.
func (s *StopOrderSolver) OptimalOrder(start, end datastructure.NodeID, stops []datastructure.NodeID) []int {
	n := len(stops)
	if n <= 1 {
		order := make([]int, n)
		for i := range order {
			order[i] = i
		}
		return order
	}

	// matrix over {start} + stops + {end}
	points := make([]datastructure.NodeID, 0, n+2)
	points = append(points, start)
	points = append(points, stops...)
	points = append(points, end)
	cost := s.costMatrix(points)

	if n <= BruteForceStopLimit {
		return s.bruteForce(cost, n)
	}
	return s.nearestNeighbor(cost, n)
}

func (s *StopOrderSolver) costMatrix(points []datastructure.NodeID) [][]float64 {
	n := len(points)
	cost := make([][]float64, n)
	for i := range cost {
		cost[i] = make([]float64, n)
		for j := range cost[i] {
			if i == j {
				continue
			}
			cost[i][j] = s.pairCost(points[i], points[j])
		}
	}
	return cost
}

func (s *StopOrderSolver) pairCost(from, to datastructure.NodeID) float64 {
	if w, ok := s.coster.Weight(from, to); ok {
		return w
	}
	path, pathCost, found := s.coster.ShortestPath(from, to)
	if !found {
		return math.Inf(1)
	}
	// a +Inf edge anywhere along the path poisons the pair
	for i := 0; i < len(path)-1; i++ {
		if w, ok := s.coster.Weight(path[i], path[i+1]); !ok || math.IsInf(w, 1) {
			return math.Inf(1)
		}
	}
	return pathCost
}

// bruteForce enumerates stop permutations in lexicographic order; ties keep
// the first permutation encountered, which makes the result deterministic.
func (s *StopOrderSolver) bruteForce(cost [][]float64, n int) []int {
	endIdx := n + 1
	current := make([]int, 0, n)
	used := make([]bool, n)

	best := make([]int, n)
	for i := range best {
		best[i] = i
	}
	bestCost := math.Inf(1)
	haveBest := false

	var walk func(prev int, costSoFar float64)
	walk = func(prev int, costSoFar float64) {
		if len(current) == n {
			total := costSoFar + cost[prev][endIdx]
			if !haveBest || total < bestCost {
				bestCost = total
				copy(best, current)
				haveBest = true
			}
			return
		}
		for i := 0; i < n; i++ {
			if used[i] {
				continue
			}
			used[i] = true
			current = append(current, i)
			walk(i+1, costSoFar+cost[prev][i+1]) // matrix index i+1 = stop i
			current = current[:len(current)-1]
			used[i] = false
		}
	}
	walk(0, 0)
	return best
}

// nearestNeighbor repeatedly picks the cheapest unvisited stop from the
// current point. A finite candidate always beats an infinite one; if every
// remaining candidate is infinite the lowest index is taken.
func (s *StopOrderSolver) nearestNeighbor(cost [][]float64, n int) []int {
	order := make([]int, 0, n)
	visited := make([]bool, n)
	current := 0 // matrix index of start

	for len(order) < n {
		nearest := -1
		nearestCost := math.Inf(1)
		for i := 0; i < n; i++ {
			if visited[i] {
				continue
			}
			c := cost[current][i+1]
			if nearest == -1 || c < nearestCost {
				nearest = i
				nearestCost = c
			}
		}
		visited[nearest] = true
		order = append(order, nearest)
		current = nearest + 1
	}
	return order
}
