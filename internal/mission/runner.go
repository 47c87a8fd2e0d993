package mission

import (
	"context"
	"fmt"
	"time"

	"github.com/aerosweep/sweep/internal/physics"
	"github.com/aerosweep/sweep/pkg/core"
)

// Reporter receives the final summary. Implementations must not block the caller for
// long and handle their own failures.
type Reporter interface {
	Publish(ctx context.Context, summary core.Summary)
}

// Runner drives a Mission against a physics world: one tick, one force, one step.
type Runner struct {
	mission  *Mission
	world    physics.World
	body     physics.BodyID
	reporter Reporter
	pace     time.Duration
}

// NewRunner creates a runner for the vehicle body in world. reporter may be nil.
// With cfg.Run.RealTime set, ticks are paced at the simulated timestep.
func NewRunner(m *Mission, world physics.World, body physics.BodyID, reporter Reporter) *Runner {
	r := &Runner{mission: m, world: world, body: body, reporter: reporter}
	if m.cfg.Run.RealTime {
		r.pace = time.Duration(m.cfg.Run.TimeStep * float64(time.Second))
	}
	return r
}

// Run executes ticks until the mission completes or the tick budget is spent, then
// records the final metrics, flushes the event log and publishes the summary.
// A tick always runs to completion; ctx only bounds pacing waits and publishing.
func (r *Runner) Run(ctx context.Context) (core.Summary, error) {
	m := r.mission
	m.Start()

	var pacer *time.Ticker
	if r.pace > 0 {
		pacer = time.NewTicker(r.pace)
		defer pacer.Stop()
	}

	for !m.Done() {
		if m.Ticks() >= m.cfg.Run.MaxTicks {
			m.Abort()
			break
		}

		st := r.world.State(r.body)
		cmd := m.Tick(st)
		r.world.ApplyForce(r.body, cmd.Vec(), st.Position, physics.WorldFrame)
		r.world.Step()

		if pacer != nil {
			select {
			case <-pacer.C:
			case <-ctx.Done():
			}
		}
	}

	summary := m.Summary()
	m.events.Record(core.EventFinalMetrics, map[string]any{"metrics": summary}, m.SimTime())
	m.log.Info("Final metrics",
		"outcome", summary.Outcome,
		"deliveries", summary.Deliveries,
		"replans", summary.Replans,
		"energy", summary.EnergyEst,
		"distance", summary.DistanceReal,
		"ticks", summary.Ticks,
	)

	var err error
	if ferr := m.events.Flush(summary); ferr != nil {
		err = fmt.Errorf("flushing event log: %w", ferr)
	}
	if r.reporter != nil {
		r.reporter.Publish(ctx, summary)
	}
	return summary, err
}
