// Package field places the mission's target points.
package field

import (
	"math"
	"math/rand"

	"github.com/aerosweep/sweep/internal/config"
	"github.com/aerosweep/sweep/pkg/core"
)

// Generator samples points uniformly over a disk around the base while limiting clustering.
type Generator struct {
	cfg    config.FieldConfig
	center core.Point
	rng    *rand.Rand
}

// Result is the outcome of one generation run.
type Result struct {
	Points    []core.Point
	Requested int
	Attempts  int
}

// Underfilled reports whether the attempt budget ran out before every point was placed.
func (r Result) Underfilled() bool {
	return len(r.Points) < r.Requested
}

// NewGenerator creates a generator centred on center's horizontal position.
// All randomness is drawn from rng.
func NewGenerator(cfg config.FieldConfig, center core.Point, rng *rand.Rand) *Generator {
	return &Generator{cfg: cfg, center: center, rng: rng}
}

// Generate places up to cfg.Count points. A candidate is rejected when more than
// cfg.MaxNeighbors already placed points lie within the detection radius of it.
func (g *Generator) Generate() Result {
	res := Result{Requested: g.cfg.Count}
	if g.cfg.Count <= 0 {
		return res
	}

	budget := g.cfg.Count * g.cfg.AttemptsPerPoint
	points := make([]core.Point, 0, g.cfg.Count)

	for len(points) < g.cfg.Count && res.Attempts < budget {
		res.Attempts++

		r := g.cfg.AreaRadius * math.Sqrt(g.rng.Float64())
		theta := g.rng.Float64() * 2 * math.Pi
		candidate := core.Point{
			X: g.center.X + r*math.Cos(theta),
			Y: g.center.Y + r*math.Sin(theta),
			Z: g.cfg.GroundHeight,
		}

		if g.neighbors(points, candidate) > g.cfg.MaxNeighbors {
			continue
		}
		points = append(points, candidate)
	}

	res.Points = points
	return res
}

func (g *Generator) neighbors(points []core.Point, p core.Point) int {
	n := 0
	for _, q := range points {
		if q.Dist(p) <= g.cfg.DetectionRadius {
			n++
		}
	}
	return n
}
