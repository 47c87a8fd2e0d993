// Package metrics accumulates per-tick samples and mission events into the final summary.
package metrics

import (
	"math"

	"github.com/aerosweep/sweep/pkg/core"
)

// Collector samples one mission. It is not safe for concurrent use.
type Collector struct {
	dt float64

	samples int
	altMean float64
	altM2   float64

	distance float64
	lastPos  core.Vec3
	hasPos   bool

	energy float64

	deliveries   int
	lastDelivery float64
	timePerPoint []float64

	replans int
}

// NewCollector creates a collector for a loop running at timestep dt.
func NewCollector(dt float64) *Collector {
	return &Collector{dt: dt, timePerPoint: []float64{}}
}

// Sample records the vehicle position for altitude statistics and path length.
func (c *Collector) Sample(pos core.Vec3) {
	c.samples++
	delta := pos.Z - c.altMean
	c.altMean += delta / float64(c.samples)
	c.altM2 += delta * (pos.Z - c.altMean)

	if c.hasPos {
		c.distance += c.lastPos.Dist(pos)
	}
	c.lastPos = pos
	c.hasPos = true
}

// RecordForce adds |F|·dt to the energy estimate.
func (c *Collector) RecordForce(f core.ForceCommand) {
	c.energy += f.Magnitude() * c.dt
}

// RecordDelivery stores the time since the previous delivery, or since mission start for the first.
func (c *Collector) RecordDelivery(t float64) float64 {
	elapsed := t - c.lastDelivery
	c.lastDelivery = t
	c.deliveries++
	c.timePerPoint = append(c.timePerPoint, elapsed)
	return elapsed
}

// RecordReplan counts one replan.
func (c *Collector) RecordReplan() {
	c.replans++
}

func (c *Collector) Deliveries() int { return c.deliveries }

func (c *Collector) Replans() int { return c.replans }

// Finalize builds the summary. Altitude statistics are nil when nothing was sampled;
// the standard deviation is the population one.
func (c *Collector) Finalize() core.Summary {
	s := core.Summary{
		Deliveries:   c.deliveries,
		Replans:      c.replans,
		TimePerPoint: append([]float64{}, c.timePerPoint...),
		EnergyEst:    c.energy,
		DistanceReal: c.distance,
	}
	if c.samples > 0 {
		mean := c.altMean
		std := math.Sqrt(c.altM2 / float64(c.samples))
		s.AltMean = &mean
		s.AltStd = &std
	}
	return s
}
