// Package detect implements the vehicle's proximity sensor.
package detect

import "github.com/aerosweep/sweep/pkg/core"

// Detector reports field points inside a spherical sensing range.
// Distance is measured in 3D, so the footprint on the ground shrinks with altitude.
type Detector struct {
	radius float64
}

// New creates a detector with the given range.
func New(radius float64) *Detector {
	return &Detector{radius: radius}
}

// Radius returns the sensing range.
func (d *Detector) Radius() float64 { return d.radius }

// Scan returns, in field order, the indices of points within range of position
// for which known reports false. known typically covers detected and delivered points.
func (d *Detector) Scan(position core.Vec3, field []core.Point, known func(int) bool) []int {
	var found []int
	for i, p := range field {
		if known != nil && known(i) {
			continue
		}
		if position.Dist(p) <= d.radius {
			found = append(found, i)
		}
	}
	return found
}
