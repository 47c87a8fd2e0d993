package physics

import (
	"math"

	"github.com/aerosweep/sweep/internal/config"
	"github.com/aerosweep/sweep/pkg/core"
)

// PointMass is a headless World holding a single body under gravity and linear damping.
// It has no attitude dynamics: forces act at the centre of mass whatever the frame.
// A ground plane at z = 0 stops the body.
type PointMass struct {
	mass    float64
	gravity float64
	damping float64
	dt      float64

	pos   core.Vec3
	vel   core.Vec3
	force core.Vec3
	steps int
}

// Vehicle is the id of the only body in a PointMass world.
const Vehicle BodyID = 0

// NewPointMass places the body at start with zero velocity.
func NewPointMass(vehicle config.VehicleConfig, dt float64, start core.Vec3) *PointMass {
	return &PointMass{
		mass:    vehicle.Mass,
		gravity: vehicle.Gravity,
		damping: vehicle.LinearDamping,
		dt:      dt,
		pos:     start,
	}
}

// State returns the current body state. Unknown ids read as the zero state.
func (w *PointMass) State(id BodyID) core.VehicleState {
	if id != Vehicle {
		return core.VehicleState{}
	}
	return core.VehicleState{
		Position:       w.pos,
		Orientation:    [4]float64{0, 0, 0, 1},
		LinearVelocity: w.vel,
	}
}

// ApplyForce accumulates force for the next step.
func (w *PointMass) ApplyForce(id BodyID, force core.Vec3, _ core.Vec3, _ Frame) {
	if id != Vehicle {
		return
	}
	w.force = w.force.Add(force)
}

// Step advances one timestep with semi-implicit Euler and clears the accumulated force.
func (w *PointMass) Step() {
	acc := w.force.Scale(1 / w.mass)
	acc.Z -= w.gravity

	w.vel = w.vel.Add(acc.Scale(w.dt))
	w.vel = w.vel.Scale(math.Pow(1-w.damping, w.dt))
	w.pos = w.pos.Add(w.vel.Scale(w.dt))

	if w.pos.Z < 0 {
		w.pos.Z = 0
		if w.vel.Z < 0 {
			w.vel.Z = 0
		}
	}

	w.force = core.Vec3{}
	w.steps++
}

// Steps returns how many steps have been taken.
func (w *PointMass) Steps() int { return w.steps }
