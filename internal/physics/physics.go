// Package physics defines the simulation collaborator driven by the mission loop.
package physics

import "github.com/aerosweep/sweep/pkg/core"

// BodyID identifies a rigid body in a World.
type BodyID int

// Frame selects the coordinate frame of an applied force.
type Frame int

const (
	WorldFrame Frame = iota
	LinkFrame
)

// World is a fixed-timestep physics simulation.
// Calls are synchronous and the mission loop owns the world exclusively.
type World interface {
	State(id BodyID) core.VehicleState
	// ApplyForce accumulates force on the body until the next Step.
	ApplyForce(id BodyID, force core.Vec3, at core.Vec3, frame Frame)
	Step()
}
