// Package control converts a target and the vehicle state into a force command.
package control

import (
	"math"

	"github.com/aerosweep/sweep/internal/config"
	"github.com/aerosweep/sweep/pkg/core"
)

// FlightController runs a cascaded PD loop: altitude drives vertical thrust, position
// error drives a desired horizontal velocity which a second PD loop tracks.
type FlightController struct {
	cfg      config.ControllerConfig
	mass     float64
	gravity  float64
	base     core.Point
	altitude float64
}

// Output is one controller evaluation.
type Output struct {
	Force              core.ForceCommand
	Target             core.Point
	HorizontalDistance float64
	Patrolling         bool
}

// New creates a controller for the given airframe. The patrol circle is centred on the base.
func New(cfg config.ControllerConfig, vehicle config.VehicleConfig) *FlightController {
	return &FlightController{
		cfg:      cfg,
		mass:     vehicle.Mass,
		gravity:  vehicle.Gravity,
		base:     core.Point{X: vehicle.BaseX, Y: vehicle.BaseY, Z: vehicle.CruiseAltitude},
		altitude: vehicle.CruiseAltitude,
	}
}

// Base returns the home position at cruise altitude.
func (fc *FlightController) Base() core.Point { return fc.base }

// Thrust returns the vertical force holding zTarget, clamped to [0, mass*ThrustCeiling].
func (fc *FlightController) Thrust(st core.VehicleState, zTarget float64) float64 {
	errZ := zTarget - st.Position.Z
	thrust := (fc.cfg.KpZ*errZ - fc.cfg.KdZ*st.LinearVelocity.Z + fc.mass*fc.gravity) * fc.cfg.ThrustMargin
	return clamp(thrust, 0, fc.mass*fc.cfg.ThrustCeiling)
}

// Horizontal returns the horizontal force towards target and the XY distance to it.
// Inside deadZone the desired velocity is zero, so the loop only brakes.
func (fc *FlightController) Horizontal(st core.VehicleState, target core.Point, deadZone float64) (fx, fy, dist float64) {
	dx := target.X - st.Position.X
	dy := target.Y - st.Position.Y
	dist = math.Hypot(dx, dy)

	var vxDes, vyDes float64
	if dist > deadZone {
		speed := math.Min(fc.cfg.SpeedMax, dist)
		if math.IsInf(dist, 1) {
			// the offset overflowed; only its heading is usable
			heading := math.Atan2(dy, dx)
			vxDes = math.Cos(heading) * speed
			vyDes = math.Sin(heading) * speed
		} else {
			vxDes = dx / dist * speed
			vyDes = dy / dist * speed
		}
	}

	vx, vy := st.LinearVelocity.X, st.LinearVelocity.Y
	fx = fc.cfg.KpV*(vxDes-vx) - fc.cfg.KdV*vx
	fy = fc.cfg.KpV*(vyDes-vy) - fc.cfg.KdV*vy

	limit := fc.cfg.MaxHorizontalForce
	return clamp(fx, -limit, limit), clamp(fy, -limit, limit), dist
}

// PatrolTarget is the point on the patrol circle at mission time t.
func (fc *FlightController) PatrolTarget(t float64) core.Point {
	theta := fc.cfg.PatrolRate * t
	return core.Point{
		X: fc.base.X + fc.cfg.PatrolRadius*math.Cos(theta),
		Y: fc.base.Y + fc.cfg.PatrolRadius*math.Sin(theta),
		Z: fc.altitude,
	}
}

// Command evaluates both loops for one tick. A nil destination selects the patrol target.
// The vehicle always holds cruise altitude.
func (fc *FlightController) Command(st core.VehicleState, destination *core.Point, t float64) Output {
	out := Output{}
	if destination != nil {
		out.Target = core.Point{X: destination.X, Y: destination.Y, Z: fc.altitude}
	} else {
		out.Target = fc.PatrolTarget(t)
		out.Patrolling = true
	}

	fz := fc.Thrust(st, out.Target.Z)
	fx, fy, dist := fc.Horizontal(st, out.Target, fc.cfg.DeadZone)

	out.Force = core.ForceCommand{X: fx, Y: fy, Z: fz}
	out.HorizontalDistance = dist
	return out
}

// clamp bounds v to [lo, hi]. NaN, from Inf-Inf on extreme states, maps to lo.
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
