// Package mission runs the search-and-delivery state machine.
//
// A Mission owns the field, the detected and delivered sets and the current route.
// Each call to Tick consumes one vehicle state and returns the force to apply before
// the physics step. The Runner closes that loop against a physics.World.
package mission

import (
	"context"
	"log/slog"

	"github.com/aerosweep/sweep/internal/config"
	"github.com/aerosweep/sweep/internal/control"
	"github.com/aerosweep/sweep/internal/detect"
	"github.com/aerosweep/sweep/internal/metrics"
	"github.com/aerosweep/sweep/internal/route"
	"github.com/aerosweep/sweep/pkg/core"

	"go.opentelemetry.io/otel/metric"
)

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// EventLog receives mission events in order and persists them when the mission ends.
type EventLog interface {
	Record(name string, data map[string]any, simTime float64)
	Flush(summary core.Summary) error
}

// Option configures a Mission.
type Option func(*Mission)

// WithID sets the mission identifier reported in the summary.
func WithID(id string) Option {
	return func(m *Mission) { m.id = id }
}

// WithLogger sets the structured logger.
func WithLogger(l Logger) Option {
	return func(m *Mission) { m.log = l }
}

// WithEventLog sets the event sink.
func WithEventLog(e EventLog) Option {
	return func(m *Mission) { m.events = e }
}

// WithContext publishes a Status snapshot after every tick.
func WithContext(c *Context) Option {
	return func(m *Mission) { m.status = c }
}

// WithMeterProvider sets the provider the mission instruments are created from.
// Without it the global provider is used.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(m *Mission) { m.meterProvider = mp }
}

// Mission is one search-and-delivery run. It is not safe for concurrent use;
// use a Context to observe it from another goroutine.
type Mission struct {
	id  string
	cfg config.MissionConfig

	field []core.Point
	index map[core.Point]int

	detector   *detect.Detector
	planner    *route.Planner
	controller *control.FlightController
	metrics    *metrics.Collector

	log           Logger
	events        EventLog
	status        *Context
	telemetry     *instruments
	meterProvider metric.MeterProvider

	state   State
	tick    int
	simTime float64
	started bool
	done    bool
	outcome core.Outcome

	detected   []int
	isDetected map[int]bool
	delivered  []int
	isDone     map[int]bool
	route      []int

	thrust     float64
	hasThrust  bool
	returnLeft int

	transitions []Transition
}

// New creates a mission over field. Duplicate points are dropped.
func New(cfg config.MissionConfig, field []core.Point, opts ...Option) (*Mission, error) {
	m := &Mission{
		cfg:        cfg,
		index:      make(map[core.Point]int, len(field)),
		detector:   detect.New(cfg.Field.DetectionRadius),
		planner:    route.NewPlanner(cfg.Planner.TwoOptIterations),
		controller: control.New(cfg.Controller, cfg.Vehicle),
		metrics:    metrics.NewCollector(cfg.Run.TimeStep),
		log:        slog.New(slog.DiscardHandler),
		events:     discardEvents{},
		state:      StateSearching,
		isDetected: make(map[int]bool),
		isDone:     make(map[int]bool),
	}
	for _, p := range field {
		if _, dup := m.index[p]; dup {
			continue
		}
		m.index[p] = len(m.field)
		m.field = append(m.field, p)
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.log == nil {
		m.log = slog.New(slog.DiscardHandler)
	}
	if m.events == nil {
		m.events = discardEvents{}
	}

	telemetry, err := newInstruments(m.meterProvider)
	if err != nil {
		return nil, err
	}
	m.telemetry = telemetry
	return m, nil
}

// Start emits the opening events. An empty field needs no deliveries, so the
// mission goes straight to RETURNING.
func (m *Mission) Start() {
	if m.started {
		return
	}
	m.started = true

	m.events.Record(core.EventMissionStart, map[string]any{
		"points":           len(m.field),
		"detection_radius": m.detector.Radius(),
		"base":             m.controller.Base(),
	}, m.simTime)
	m.events.Record(core.EventPointsGenerated, map[string]any{
		"count":  len(m.field),
		"points": m.Field(),
	}, m.simTime)
	m.log.Info("Mission started", "points", len(m.field), "detectionRadius", m.detector.Radius())

	if len(m.field) == 0 {
		m.log.Warn("Field is empty, returning to base")
		m.complete()
	}
	m.publish()
}

// Tick advances the mission by one control step and returns the force to apply.
// It must be called once per physics step with the state read at the start of the step.
func (m *Mission) Tick(st core.VehicleState) core.ForceCommand {
	if m.done {
		return core.ForceCommand{}
	}
	if !m.started {
		m.Start()
	}

	m.metrics.Sample(st.Position)

	var cmd core.ForceCommand
	if m.state == StateReturning {
		cmd = m.returnStep(st)
	} else {
		cmd = m.searchStep(st)
	}
	m.metrics.RecordForce(cmd)

	m.tick++
	m.simTime += m.cfg.Run.TimeStep
	m.telemetry.ticks.Add(context.Background(), 1)
	m.publish()
	return cmd
}

// searchStep covers every phase before RETURNING.
func (m *Mission) searchStep(st core.VehicleState) core.ForceCommand {
	m.scan(st.Position)

	if len(m.route) == 0 && len(m.detected) > 0 {
		m.transition(StatePlanning)
		planned := m.plan(st.Position)
		m.events.Record(core.EventInitialPlan, map[string]any{
			"route": planned,
			"cost":  route.PathLength(st.Position, planned),
		}, m.simTime)
		m.transition(StateNavigating)
	}

	var dest *core.Point
	if len(m.route) > 0 {
		p := m.field[m.route[0]]
		dest = &p
	}

	out := m.controller.Command(st, dest, m.simTime)
	m.thrust, m.hasThrust = out.Force.Z, true
	m.trace(st, out)

	if dest != nil && out.HorizontalDistance <= m.cfg.Run.ArrivalRadius {
		m.deliver(st.Position)
	}
	return out.Force
}

// returnStep flies back over the base with the vertical thrust held from the last search tick.
func (m *Mission) returnStep(st core.VehicleState) core.ForceCommand {
	base := m.controller.Base()
	if !m.hasThrust {
		m.thrust, m.hasThrust = m.controller.Thrust(st, base.Z), true
	}
	fx, fy, _ := m.controller.Horizontal(st, base, m.cfg.Run.ReturnDeadZone)

	m.returnLeft--
	if m.returnLeft <= 0 {
		m.finish(core.OutcomeComplete)
	}
	return core.ForceCommand{X: fx, Y: fy, Z: m.thrust}
}

func (m *Mission) scan(pos core.Vec3) {
	found := m.detector.Scan(pos, m.field, func(i int) bool { return m.isDetected[i] || m.isDone[i] })
	for _, i := range found {
		m.isDetected[i] = true
		m.detected = append(m.detected, i)
		m.events.Record(core.EventDetected, map[string]any{
			"index": i,
			"point": m.field[i],
		}, m.simTime)
		m.log.Debug("Point detected", "index", i, "point", m.field[i], "t", m.simTime)
	}
	if len(found) > 0 {
		m.telemetry.detections.Add(context.Background(), int64(len(found)))
	}
}

// plan replaces the route with an ordering of every detected point, anchored at pos.
func (m *Mission) plan(pos core.Vec3) []core.Point {
	candidates := make([]core.Point, len(m.detected))
	for i, idx := range m.detected {
		candidates[i] = m.field[idx]
	}

	ordered := m.planner.Plan(pos, candidates)
	m.route = make([]int, len(ordered))
	for i, p := range ordered {
		m.route[i] = m.index[p]
	}
	m.telemetry.routeLength.Record(context.Background(), int64(len(ordered)))
	return ordered
}

func (m *Mission) deliver(pos core.Vec3) {
	m.transition(StateDelivering)

	idx := m.route[0]
	m.route = m.route[1:]
	m.removeDetected(idx)
	m.isDone[idx] = true
	m.delivered = append(m.delivered, idx)

	elapsed := m.metrics.RecordDelivery(m.simTime)
	m.telemetry.deliveries.Add(context.Background(), 1)
	m.events.Record(core.EventDelivery, map[string]any{
		"index":      idx,
		"point":      m.field[idx],
		"elapsed":    elapsed,
		"deliveries": len(m.delivered),
	}, m.simTime)
	m.log.Info("Delivered", "index", idx, "deliveries", len(m.delivered), "of", len(m.field), "t", m.simTime)

	switch {
	case len(m.route) > 0:
		// TODO: decide whether the rest of the route should be re-refined from the
		// delivery position. It is currently followed as planned.
		next := m.field[m.route[0]]
		m.events.Record(core.EventNewImmediateTarget, map[string]any{
			"index": m.route[0],
			"point": next,
		}, m.simTime)
		m.transition(StateNavigating)

	case len(m.detected) > 0:
		m.transition(StateReplanning)
		m.metrics.RecordReplan()
		m.telemetry.replans.Add(context.Background(), 1)
		planned := m.plan(pos)
		m.events.Record(core.EventReplan, map[string]any{
			"replans": m.metrics.Replans(),
			"route":   planned,
		}, m.simTime)
		m.log.Info("Replanned", "replans", m.metrics.Replans(), "stops", len(planned))
		m.transition(StateNavigating)

	case len(m.delivered) >= len(m.field):
		m.log.Info("All points delivered, returning to base", "deliveries", len(m.delivered), "t", m.simTime)
		m.complete()

	default:
		m.transition(StateSearching)
	}
}

// complete enters RETURNING, or finishes at once when no return leg is configured.
func (m *Mission) complete() {
	m.events.Record(core.EventMissionComplete, map[string]any{
		"deliveries": len(m.delivered),
	}, m.simTime)
	m.transition(StateReturning)
	m.returnLeft = m.cfg.Run.ReturnTicks
	if m.returnLeft <= 0 {
		m.finish(core.OutcomeComplete)
	}
}

// Abort ends the mission with a timeout, whatever its state.
func (m *Mission) Abort() {
	if m.done {
		return
	}
	m.events.Record(core.EventMissionTimeout, map[string]any{
		"state":      m.state.String(),
		"ticks":      m.tick,
		"deliveries": len(m.delivered),
		"remaining":  len(m.field) - len(m.delivered),
	}, m.simTime)
	m.log.Warn("Tick budget exhausted", "ticks", m.tick, "state", m.state.String(),
		"deliveries", len(m.delivered), "of", len(m.field))
	m.finish(core.OutcomeTimeout)
	m.publish()
}

func (m *Mission) finish(outcome core.Outcome) {
	m.done = true
	m.outcome = outcome
	if outcome == core.OutcomeComplete {
		m.transition(StateComplete)
		m.log.Info("Mission complete", "deliveries", len(m.delivered), "t", m.simTime)
	}
}

func (m *Mission) transition(to State) {
	if m.state == to {
		return
	}
	m.transitions = append(m.transitions, Transition{Tick: m.tick, SimTime: m.simTime, From: m.state, To: to})
	m.log.Debug("State transition", "from", m.state.String(), "to", to.String(), "tick", m.tick)
	m.state = to
}

func (m *Mission) removeDetected(idx int) {
	delete(m.isDetected, idx)
	for i, d := range m.detected {
		if d == idx {
			m.detected = append(m.detected[:i], m.detected[i+1:]...)
			return
		}
	}
}

func (m *Mission) trace(st core.VehicleState, out control.Output) {
	every := m.cfg.Run.TraceInterval
	if every <= 0 || m.tick%every != 0 {
		return
	}
	m.log.Debug("Flight trace",
		"t", m.simTime,
		"pos", st.Position,
		"dist", out.HorizontalDistance,
		"thrust", out.Force.Z,
		"vx", st.LinearVelocity.X,
		"vy", st.LinearVelocity.Y,
		"patrol", out.Patrolling,
	)
}

func (m *Mission) publish() {
	if m.status == nil {
		return
	}
	m.status.set(Status{
		Tick:       m.tick,
		SimTime:    m.simTime,
		State:      m.state,
		Detected:   len(m.detected),
		Deliveries: len(m.delivered),
		FieldSize:  len(m.field),
	})
}

// Summary returns the metrics document. Outcome is empty until the mission is done.
func (m *Mission) Summary() core.Summary {
	s := m.metrics.Finalize()
	s.MissionID = m.id
	s.Outcome = m.outcome
	s.FieldSize = len(m.field)
	s.Ticks = m.tick
	s.SimTime = m.simTime
	return s
}

// State returns the current phase.
func (m *Mission) State() State { return m.state }

// Ticks returns the number of ticks executed.
func (m *Mission) Ticks() int { return m.tick }

// SimTime returns the mission time in seconds.
func (m *Mission) SimTime() float64 { return m.simTime }

// Done reports whether the mission has finished.
func (m *Mission) Done() bool { return m.done }

// Outcome returns how the mission ended, empty while it runs.
func (m *Mission) Outcome() core.Outcome { return m.outcome }

// Transitions returns every state change so far.
func (m *Mission) Transitions() []Transition {
	return append([]Transition(nil), m.transitions...)
}

// Field returns the de-duplicated target points.
func (m *Mission) Field() []core.Point {
	return append([]core.Point(nil), m.field...)
}

// Detected returns detected, undelivered points in detection order.
func (m *Mission) Detected() []core.Point { return m.points(m.detected) }

// Route returns the remaining route; the first element is the current destination.
func (m *Mission) Route() []core.Point { return m.points(m.route) }

// Delivered returns delivered points in delivery order.
func (m *Mission) Delivered() []core.Point { return m.points(m.delivered) }

// Destination returns the current destination, if any.
func (m *Mission) Destination() (core.Point, bool) {
	if len(m.route) == 0 {
		return core.Point{}, false
	}
	return m.field[m.route[0]], true
}

func (m *Mission) points(idx []int) []core.Point {
	out := make([]core.Point, len(idx))
	for i, j := range idx {
		out[i] = m.field[j]
	}
	return out
}

type discardEvents struct{}

func (discardEvents) Record(string, map[string]any, float64) {}

func (discardEvents) Flush(core.Summary) error { return nil }
