// Package route orders detected points into a visiting sequence.
package route

import "github.com/aerosweep/sweep/pkg/core"

// improvementEpsilon is the minimum cost drop for a 2-opt move to be accepted.
const improvementEpsilon = 1e-9

// Planner builds a route with nearest neighbour construction followed by 2-opt refinement.
type Planner struct {
	Iterations int
}

// NewPlanner creates a planner doing at most iterations 2-opt passes.
func NewPlanner(iterations int) *Planner {
	return &Planner{Iterations: iterations}
}

// Plan returns an ordering of candidates starting from anchor. candidates is not modified.
func (p *Planner) Plan(anchor core.Point, candidates []core.Point) []core.Point {
	return TwoOpt(NearestNeighbor(anchor, candidates), anchor, p.Iterations)
}

// PathLength is the anchored open-path cost: anchor to route[0] plus the consecutive legs.
func PathLength(anchor core.Point, route []core.Point) float64 {
	total := 0.0
	cur := anchor
	for _, p := range route {
		total += cur.Dist(p)
		cur = p
	}
	return total
}

// NearestNeighbor greedily visits the closest unvisited point, starting from start.
// Ties go to the earliest candidate.
func NearestNeighbor(start core.Point, points []core.Point) []core.Point {
	remaining := make([]core.Point, len(points))
	copy(remaining, points)

	route := make([]core.Point, 0, len(points))
	cur := start
	for len(remaining) > 0 {
		best := 0
		bestDist := cur.Dist(remaining[0])
		for i := 1; i < len(remaining); i++ {
			if d := cur.Dist(remaining[i]); d < bestDist {
				best, bestDist = i, d
			}
		}
		cur = remaining[best]
		route = append(route, cur)
		remaining = append(remaining[:best], remaining[best+1:]...)
	}
	return route
}

// TwoOpt refines route by reversing segments route[i+1..j] while that shortens the
// anchored path. The first stop is kept in place. Each pass is O(n²) and the search
// stops after a pass without improvement or after iterations passes.
// Routes shorter than three points are returned unchanged.
func TwoOpt(route []core.Point, anchor core.Point, iterations int) []core.Point {
	best := make([]core.Point, len(route))
	copy(best, route)

	n := len(best)
	if n < 3 {
		return best
	}

	improved := true
	for it := 0; improved && it < iterations; it++ {
		improved = false
		for i := 0; i < n-2; i++ {
			for j := i + 2; j < n; j++ {
				if reversalDelta(best, i, j) < -improvementEpsilon {
					reverse(best[i+1 : j+1])
					improved = true
				}
			}
		}
	}
	return best
}

// reversalDelta is the cost change of reversing r[i+1..j]: only the edges entering and
// leaving the segment change. The path is open, so there is no edge after the last stop.
func reversalDelta(r []core.Point, i, j int) float64 {
	delta := r[i].Dist(r[j]) - r[i].Dist(r[i+1])
	if j+1 < len(r) {
		delta += r[i+1].Dist(r[j+1]) - r[j].Dist(r[j+1])
	}
	return delta
}

func reverse(s []core.Point) {
	for a, b := 0, len(s)-1; a < b; a, b = a+1, b-1 {
		s[a], s[b] = s[b], s[a]
	}
}
