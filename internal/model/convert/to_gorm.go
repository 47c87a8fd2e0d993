// Package convert provides functions to convert between GORM models and core models
package convert

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/aerosweep/sweep/internal/geo"
	"github.com/aerosweep/sweep/internal/model"
	"github.com/aerosweep/sweep/pkg/core"
	"gorm.io/datatypes"
)

func pointToPosition(p core.Point) model.Position {
	return model.Position{X: p.X, Y: p.Y, Z: p.Z}
}

// toJSON marshals v for a JSON column, using fallback when v is empty or not encodable.
func toJSON(v any, fallback string) datatypes.JSON {
	data, err := json.Marshal(v)
	if err != nil || string(data) == "null" {
		return datatypes.JSON(fallback)
	}
	return datatypes.JSON(data)
}

// CoreToMission converts a core.Mission to a GORM model.Mission with its field points.
// core.Mission.ID maps to Mission.UUID; ref, when non-nil, fills the WGS84 positions.
func CoreToMission(m core.Mission, ref *geo.Reference) model.Mission {
	points := make([]model.FieldPoint, len(m.Field))
	for i, p := range m.Field {
		points[i] = model.FieldPoint{
			Index: i,
			Local: pointToPosition(p),
		}
		if ref != nil {
			points[i].Position = ref.Point(p)
		}
	}

	return model.Mission{
		UUID:            m.ID,
		MissionName:     m.Name,
		StartTime:       m.StartTime,
		Seed:            m.Seed,
		Base:            pointToPosition(m.Base),
		DetectionRadius: m.DetectionRadius,
		FieldSize:       len(m.Field),
		TimePerPoint:    datatypes.JSON("[]"),
		FieldPoints:     points,
	}
}

// CoreToEvent converts a core.Event to a GORM model.Event. MissionID is stamped by the writer.
func CoreToEvent(e core.Event) model.Event {
	return model.Event{
		Seq:     e.Seq,
		Name:    e.Name,
		Time:    e.Time,
		SimTime: e.SimTime,
		Data:    toJSON(e.Data, "{}"),
	}
}

// SummaryColumns returns the mission columns to update when a run ends.
func SummaryColumns(s core.Summary, end time.Time) map[string]any {
	return map[string]any{
		"end_time":       sql.NullTime{Time: end, Valid: true},
		"outcome":        string(s.Outcome),
		"field_size":     s.FieldSize,
		"deliveries":     s.Deliveries,
		"replans":        s.Replans,
		"time_per_point": toJSON(s.TimePerPoint, "[]"),
		"energy_est":     s.EnergyEst,
		"alt_mean":       s.AltMean,
		"alt_std":        s.AltStd,
		"distance_real":  s.DistanceReal,
		"ticks":          s.Ticks,
		"sim_time":       s.SimTime,
	}
}
