package convert

import (
	"encoding/json"

	"github.com/aerosweep/sweep/internal/model"
	"github.com/aerosweep/sweep/pkg/core"
)

func positionToPoint(p model.Position) core.Point {
	return core.Point{X: p.X, Y: p.Y, Z: p.Z}
}

// MissionToCore converts a GORM model.Mission back to a core.Mission.
// Field points must be preloaded and ordered by index.
func MissionToCore(m model.Mission) core.Mission {
	field := make([]core.Point, len(m.FieldPoints))
	for i, fp := range m.FieldPoints {
		field[i] = positionToPoint(fp.Local)
	}
	return core.Mission{
		ID:              m.UUID,
		Name:            m.MissionName,
		StartTime:       m.StartTime,
		Seed:            m.Seed,
		Base:            positionToPoint(m.Base),
		DetectionRadius: m.DetectionRadius,
		Field:           field,
	}
}

// MissionToSummary rebuilds the metrics document from a finished mission row.
func MissionToSummary(m model.Mission) core.Summary {
	var perPoint []float64
	if len(m.TimePerPoint) > 0 {
		_ = json.Unmarshal(m.TimePerPoint, &perPoint)
	}
	return core.Summary{
		MissionID:    m.UUID,
		Outcome:      core.Outcome(m.Outcome),
		FieldSize:    m.FieldSize,
		Deliveries:   m.Deliveries,
		Replans:      m.Replans,
		TimePerPoint: perPoint,
		EnergyEst:    m.EnergyEst,
		AltMean:      m.AltMean,
		AltStd:       m.AltStd,
		DistanceReal: m.DistanceReal,
		Ticks:        m.Ticks,
		SimTime:      m.SimTime,
	}
}

// EventToCore converts a GORM model.Event to a core.Event.
// Payload values come back as their JSON types (numbers are float64).
func EventToCore(e model.Event) core.Event {
	var data map[string]any
	if len(e.Data) > 0 {
		_ = json.Unmarshal(e.Data, &data)
	}
	return core.Event{
		Seq:     e.Seq,
		Name:    e.Name,
		Time:    e.Time,
		SimTime: e.SimTime,
		Data:    data,
	}
}
