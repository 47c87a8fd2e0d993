package mission

import (
	"testing"

	"github.com/aerosweep/sweep/internal/config"
	"github.com/aerosweep/sweep/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingLog keeps every event in memory.
type recordingLog struct {
	events  []core.Event
	flushed *core.Summary
	err     error
}

func (r *recordingLog) Record(name string, data map[string]any, simTime float64) {
	r.events = append(r.events, core.Event{Seq: uint(len(r.events) + 1), Name: name, SimTime: simTime, Data: data})
}

func (r *recordingLog) Flush(summary core.Summary) error {
	r.flushed = &summary
	return r.err
}

func (r *recordingLog) names() []string {
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Name
	}
	return out
}

func (r *recordingLog) count(name string) int {
	n := 0
	for _, e := range r.events {
		if e.Name == name {
			n++
		}
	}
	return n
}

func at(x, y float64) core.VehicleState {
	return core.VehicleState{Position: core.Vec3{X: x, Y: y, Z: 2}}
}

func newMission(t *testing.T, cfg config.MissionConfig, field []core.Point) (*Mission, *recordingLog) {
	t.Helper()
	events := &recordingLog{}
	m, err := New(cfg, field, WithEventLog(events), WithID("test-mission"))
	require.NoError(t, err)
	return m, events
}

func states(ts []Transition) []State {
	out := make([]State, 0, len(ts)+1)
	for i, tr := range ts {
		if i == 0 {
			out = append(out, tr.From)
		}
		out = append(out, tr.To)
	}
	return out
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "SEARCHING", StateSearching.String())
	assert.Equal(t, "REPLANNING", StateReplanning.String())
	assert.Equal(t, "COMPLETE", StateComplete.String())
	assert.Equal(t, "UNKNOWN", State(0).String())
}

func TestNew_DeduplicatesField(t *testing.T) {
	p := core.Point{X: 1, Z: 0.2}
	m, _ := newMission(t, config.Default(), []core.Point{p, p, {X: 2, Z: 0.2}})

	assert.Len(t, m.Field(), 2)
	assert.Equal(t, 2, m.Summary().FieldSize)
}

func TestTick_ImmediateTargets(t *testing.T) {
	cfg := config.Default()
	field := []core.Point{{X: 0, Y: 0, Z: 0.2}, {X: 0.3, Y: 0, Z: 0.2}}
	m, events := newMission(t, cfg, field)

	m.Tick(at(0, 0))
	assert.Equal(t, StateNavigating, m.State())
	assert.Equal(t, []core.Point{{X: 0, Y: 0, Z: 0.2}}, m.Delivered())
	dest, ok := m.Destination()
	require.True(t, ok)
	assert.Equal(t, field[1], dest)

	m.Tick(at(0, 0))
	assert.Equal(t, StateReturning, m.State())
	assert.Len(t, m.Delivered(), 2)
	assert.Empty(t, m.Detected())
	assert.Empty(t, m.Route())

	assert.Equal(t, []string{
		core.EventMissionStart,
		core.EventPointsGenerated,
		core.EventDetected,
		core.EventDetected,
		core.EventInitialPlan,
		core.EventDelivery,
		core.EventNewImmediateTarget,
		core.EventDelivery,
		core.EventMissionComplete,
	}, events.names())

	s := m.Summary()
	assert.Equal(t, 2, s.Deliveries)
	assert.Equal(t, 0, s.Replans)
	require.Len(t, s.TimePerPoint, 2)
	assert.Equal(t, 0.0, s.TimePerPoint[0])
	assert.InDelta(t, cfg.Run.TimeStep, s.TimePerPoint[1], 1e-12)
}

func TestTick_ReplanWhenRouteExhausted(t *testing.T) {
	cfg := config.Default()
	cfg.Field.DetectionRadius = 2.5
	p0 := core.Point{X: 1, Z: 0.2}
	p1 := core.Point{X: 2.5, Z: 0.2}
	m, events := newMission(t, cfg, []core.Point{p0, p1})

	m.Tick(at(0, 0))
	assert.Equal(t, []core.Point{p0}, m.Detected())
	assert.Equal(t, []core.Point{p0}, m.Route())
	assert.Equal(t, StateNavigating, m.State())

	m.Tick(at(0.8, 0))
	assert.Equal(t, []core.Point{p0}, m.Delivered())
	assert.Equal(t, []core.Point{p1}, m.Route())
	assert.Equal(t, StateNavigating, m.State())

	m.Tick(at(2.5, 0))
	assert.Equal(t, StateReturning, m.State())

	s := m.Summary()
	assert.Equal(t, 1, s.Replans)
	assert.Equal(t, 2, s.Deliveries)
	assert.Equal(t, 1, events.count(core.EventReplan))
	assert.Contains(t, states(m.Transitions()), StateReplanning)
}

func TestTick_SearchingAfterPartialDelivery(t *testing.T) {
	cfg := config.Default()
	cfg.Field.DetectionRadius = 2.5
	near := core.Point{X: 0.2, Z: 0.2}
	far := core.Point{X: 4, Z: 0.2}
	m, _ := newMission(t, cfg, []core.Point{near, far})

	m.Tick(at(0, 0))
	assert.Equal(t, StateSearching, m.State())
	_, ok := m.Destination()
	assert.False(t, ok)

	m.Tick(at(3.5, 0))
	assert.Equal(t, StateReturning, m.State())

	assert.Equal(t, []State{
		StateSearching, StatePlanning, StateNavigating, StateDelivering, StateSearching,
		StatePlanning, StateNavigating, StateDelivering, StateReturning,
	}, states(m.Transitions()))
	assert.Equal(t, 0, m.Summary().Replans)
}

func TestTick_ReturnLegHoldsThrust(t *testing.T) {
	cfg := config.Default()
	cfg.Run.ReturnTicks = 3
	m, _ := newMission(t, cfg, []core.Point{{Z: 0.2}})

	first := m.Tick(at(0, 0))
	require.Equal(t, StateReturning, m.State())

	// far from cruise altitude: a live altitude loop would react, the held value does not
	st := core.VehicleState{Position: core.Vec3{X: 1, Z: 5}}
	for i := 0; i < 3; i++ {
		cmd := m.Tick(st)
		assert.Equal(t, first.Z, cmd.Z)
		assert.Less(t, cmd.X, 0.0, "heading back to base")
	}

	assert.True(t, m.Done())
	assert.Equal(t, StateComplete, m.State())
	assert.Equal(t, core.OutcomeComplete, m.Outcome())
	assert.Equal(t, core.ForceCommand{}, m.Tick(st), "ticks after completion are no-ops")
	assert.Equal(t, 4, m.Ticks())
}

func TestStart_EmptyFieldReturnsImmediately(t *testing.T) {
	cfg := config.Default()
	cfg.Run.ReturnTicks = 2
	m, events := newMission(t, cfg, nil)

	m.Start()
	assert.Equal(t, StateReturning, m.State())
	assert.Equal(t, 1, events.count(core.EventMissionComplete))

	cmd := m.Tick(at(0, 0))
	assert.InDelta(t, 1.2*9.8*1.02, cmd.Z, 1e-9, "altitude loop evaluated once when nothing is held")
	m.Tick(at(0, 0))
	assert.True(t, m.Done())
	assert.Equal(t, core.OutcomeComplete, m.Outcome())
}

func TestStart_ZeroReturnTicksCompletesAtDelivery(t *testing.T) {
	cfg := config.Default()
	cfg.Run.ReturnTicks = 0
	m, _ := newMission(t, cfg, []core.Point{{Z: 0.2}})

	m.Tick(at(0, 0))
	assert.True(t, m.Done())
	assert.Equal(t, StateComplete, m.State())
	assert.Equal(t, 1, m.Ticks())
}

func TestAbort_Timeout(t *testing.T) {
	m, events := newMission(t, config.Default(), []core.Point{{X: 50, Z: 0.2}})
	m.Tick(at(0, 0))
	m.Abort()
	m.Abort()

	assert.True(t, m.Done())
	assert.Equal(t, core.OutcomeTimeout, m.Outcome())
	assert.Equal(t, StateSearching, m.State())
	assert.Equal(t, 1, events.count(core.EventMissionTimeout))
	assert.Equal(t, core.OutcomeTimeout, m.Summary().Outcome)
}

func TestContext_PublishesStatus(t *testing.T) {
	ctx := NewContext()
	assert.Equal(t, StateSearching, ctx.Status().State)

	m, err := New(config.Default(), []core.Point{{X: 0.1, Z: 0.2}, {X: 9, Z: 0.2}}, WithContext(ctx))
	require.NoError(t, err)
	m.Tick(at(0, 0))

	st := ctx.Status()
	assert.Equal(t, 1, st.Tick)
	assert.Equal(t, 1, st.Deliveries)
	assert.Equal(t, 2, st.FieldSize)
	assert.Equal(t, StateSearching, st.State)
}

func TestInvariants_SetsStayDisjoint(t *testing.T) {
	cfg := config.Default()
	field := []core.Point{{X: 1, Z: 0.2}, {X: 1.3, Z: 0.2}, {X: -1, Z: 0.2}, {X: 8, Z: 0.2}}
	m, _ := newMission(t, cfg, field)

	path := []core.VehicleState{at(0, 0), at(0.9, 0), at(1.2, 0), at(-0.5, 0), at(-1, 0), at(5, 0), at(8, 0)}
	for _, st := range path {
		m.Tick(st)

		delivered := map[core.Point]bool{}
		for _, p := range m.Delivered() {
			assert.False(t, delivered[p], "delivered twice")
			delivered[p] = true
		}
		for _, p := range m.Detected() {
			assert.False(t, delivered[p], "delivered point still detected")
		}
		detected := map[core.Point]bool{}
		for _, p := range m.Detected() {
			detected[p] = true
		}
		for _, p := range m.Route() {
			assert.True(t, detected[p], "route point not in detected set")
		}
	}
	assert.Len(t, m.Delivered(), 4)
}
