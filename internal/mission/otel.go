package mission

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/aerosweep/sweep/internal/mission"

func meter(mp metric.MeterProvider) metric.Meter {
	if mp == nil {
		return otel.Meter(instrumentationName)
	}
	return mp.Meter(instrumentationName)
}

type instruments struct {
	ticks       metric.Int64Counter
	detections  metric.Int64Counter
	deliveries  metric.Int64Counter
	replans     metric.Int64Counter
	routeLength metric.Int64Histogram
}

// newInstruments creates the mission instruments from mp, or from the global meter
// provider when mp is nil.
func newInstruments(mp metric.MeterProvider) (*instruments, error) {
	m := meter(mp)
	var (
		ins instruments
		err error
	)

	if ins.ticks, err = m.Int64Counter("mission.ticks",
		metric.WithDescription("Control ticks executed")); err != nil {
		return nil, fmt.Errorf("creating ticks counter: %w", err)
	}
	if ins.detections, err = m.Int64Counter("mission.detections",
		metric.WithDescription("Field points detected")); err != nil {
		return nil, fmt.Errorf("creating detections counter: %w", err)
	}
	if ins.deliveries, err = m.Int64Counter("mission.deliveries",
		metric.WithDescription("Field points delivered")); err != nil {
		return nil, fmt.Errorf("creating deliveries counter: %w", err)
	}
	if ins.replans, err = m.Int64Counter("mission.replans",
		metric.WithDescription("Routes rebuilt after the previous route was exhausted")); err != nil {
		return nil, fmt.Errorf("creating replans counter: %w", err)
	}
	if ins.routeLength, err = m.Int64Histogram("mission.route.length",
		metric.WithDescription("Number of stops in each planned route")); err != nil {
		return nil, fmt.Errorf("creating route length histogram: %w", err)
	}
	return &ins, nil
}
