package control

import (
	"math"
	"math/rand"
	"testing"

	"github.com/aerosweep/sweep/internal/config"
	"github.com/aerosweep/sweep/pkg/core"
	"github.com/stretchr/testify/assert"
)

func newController() *FlightController {
	cfg := config.Default()
	return New(cfg.Controller, cfg.Vehicle)
}

func TestThrust_HoverAtTarget(t *testing.T) {
	fc := newController()
	st := core.VehicleState{Position: core.Vec3{Z: 2}}

	// at rest on target: gravity compensation times margin
	assert.InDelta(t, 1.2*9.8*1.02, fc.Thrust(st, 2), 1e-9)
}

func TestThrust_Clamped(t *testing.T) {
	fc := newController()

	low := fc.Thrust(core.VehicleState{Position: core.Vec3{Z: 50}}, 2)
	assert.Equal(t, 0.0, low)

	high := fc.Thrust(core.VehicleState{Position: core.Vec3{Z: -50}, LinearVelocity: core.Vec3{Z: -30}}, 2)
	assert.InDelta(t, 96.0, high, 1e-9)
}

func TestHorizontal_PointsTowardTarget(t *testing.T) {
	fc := newController()
	st := core.VehicleState{}

	fx, fy, dist := fc.Horizontal(st, core.Point{X: 3, Y: 4}, 0.05)

	assert.InDelta(t, 5.0, dist, 1e-12)
	// desired velocity (3,4), Kp 8: (24,32) saturates at 12 on both axes
	assert.Equal(t, 12.0, fx)
	assert.Equal(t, 12.0, fy)
}

func TestHorizontal_SmallErrorUnsaturated(t *testing.T) {
	fc := newController()
	fx, fy, _ := fc.Horizontal(core.VehicleState{}, core.Point{X: 0.5}, 0.05)

	assert.InDelta(t, 4.0, fx, 1e-12)
	assert.InDelta(t, 0.0, fy, 1e-12)
}

func TestHorizontal_DeadZoneBrakes(t *testing.T) {
	fc := newController()
	st := core.VehicleState{LinearVelocity: core.Vec3{X: 0.5, Y: -0.25}}

	fx, fy, dist := fc.Horizontal(st, core.Point{X: 0.01}, 0.05)

	assert.InDelta(t, 0.01, dist, 1e-12)
	assert.InDelta(t, -(8+2)*0.5, fx, 1e-12)
	assert.InDelta(t, (8+2)*0.25, fy, 1e-12)
}

func TestPatrolTarget(t *testing.T) {
	fc := newController()

	p0 := fc.PatrolTarget(0)
	assert.InDelta(t, 3.0, p0.X, 1e-12)
	assert.InDelta(t, 0.0, p0.Y, 1e-12)
	assert.Equal(t, 2.0, p0.Z)

	// a quarter turn takes (pi/2)/0.25 time units
	p1 := fc.PatrolTarget(2 * math.Pi)
	assert.InDelta(t, 0.0, p1.X, 1e-9)
	assert.InDelta(t, 3.0, p1.Y, 1e-9)
}

func TestCommand_DestinationVsPatrol(t *testing.T) {
	fc := newController()
	st := core.VehicleState{Position: core.Vec3{Z: 2}}

	dest := core.Point{X: 1, Y: 0, Z: 0.2}
	out := fc.Command(st, &dest, 0)
	assert.False(t, out.Patrolling)
	assert.Equal(t, core.Point{X: 1, Z: 2}, out.Target)
	assert.InDelta(t, 1.0, out.HorizontalDistance, 1e-12)

	out = fc.Command(st, nil, 0)
	assert.True(t, out.Patrolling)
	assert.InDelta(t, 3.0, out.HorizontalDistance, 1e-12)
	assert.Equal(t, fc.Base().Z, out.Target.Z)
}

func TestCommand_Bounded(t *testing.T) {
	fc := newController()
	rng := rand.New(rand.NewSource(9))
	r := func(scale float64) float64 { return (rng.Float64()*2 - 1) * scale }

	for i := 0; i < 1000; i++ {
		st := core.VehicleState{
			Position:       core.Vec3{X: r(100), Y: r(100), Z: r(100)},
			LinearVelocity: core.Vec3{X: r(1e3), Y: r(1e3), Z: r(1e3)},
		}
		dest := core.Point{X: r(50), Y: r(50)}
		out := fc.Command(st, &dest, rng.Float64()*600)

		assert.GreaterOrEqual(t, out.Force.Z, 0.0)
		assert.LessOrEqual(t, out.Force.Z, 96.0+1e-9)
		assert.LessOrEqual(t, math.Abs(out.Force.X), 12.0)
		assert.LessOrEqual(t, math.Abs(out.Force.Y), 12.0)
	}
}

func TestCommand_BoundedOnExtremeStates(t *testing.T) {
	fc := newController()
	huge := math.MaxFloat64

	cases := []struct {
		name string
		st   core.VehicleState
		dest core.Point
	}{
		{"opposing overflow", core.VehicleState{
			Position:       core.Vec3{X: -huge, Z: -huge},
			LinearVelocity: core.Vec3{Z: huge},
		}, core.Point{X: huge}},
		{"diagonal overflow", core.VehicleState{
			Position:       core.Vec3{X: huge, Y: huge, Z: huge},
			LinearVelocity: core.Vec3{X: -huge, Y: huge, Z: -huge},
		}, core.Point{X: -huge, Y: -huge}},
		{"velocity only", core.VehicleState{
			LinearVelocity: core.Vec3{X: huge, Y: -huge, Z: huge},
		}, core.Point{X: 1}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dest := tc.dest
			out := fc.Command(tc.st, &dest, 0)

			assert.False(t, math.IsNaN(out.Force.X), "fx is NaN")
			assert.False(t, math.IsNaN(out.Force.Y), "fy is NaN")
			assert.False(t, math.IsNaN(out.Force.Z), "fz is NaN")
			assert.GreaterOrEqual(t, out.Force.Z, 0.0)
			assert.LessOrEqual(t, out.Force.Z, 96.0+1e-9)
			assert.LessOrEqual(t, math.Abs(out.Force.X), 12.0)
			assert.LessOrEqual(t, math.Abs(out.Force.Y), 12.0)
		})
	}
}

func TestClamp_NaNMapsToLowerBound(t *testing.T) {
	assert.Equal(t, 0.0, clamp(math.NaN(), 0, 96))
	assert.Equal(t, -12.0, clamp(math.NaN(), -12, 12))
	assert.Equal(t, 12.0, clamp(math.Inf(1), -12, 12))
}
