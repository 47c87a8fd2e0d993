// pkg/core/vehicle.go
package core

import "math"

// VehicleState is a snapshot of the vehicle read from the physics world once per tick.
type VehicleState struct {
	Position        Vec3
	Orientation     [4]float64 // quaternion x, y, z, w
	LinearVelocity  Vec3
	AngularVelocity Vec3
}

// ForceCommand is a world-frame force applied at the vehicle's centre of mass.
type ForceCommand struct {
	X float64 `json:"fx"`
	Y float64 `json:"fy"`
	Z float64 `json:"fz"`
}

// Vec returns the command as a vector.
func (f ForceCommand) Vec() Vec3 { return Vec3{X: f.X, Y: f.Y, Z: f.Z} }

// Magnitude returns |F|.
func (f ForceCommand) Magnitude() float64 { return math.Sqrt(f.X*f.X + f.Y*f.Y + f.Z*f.Z) }
