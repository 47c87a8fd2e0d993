package convert

import (
	"database/sql"
	"testing"
	"time"

	"github.com/aerosweep/sweep/internal/geo"
	"github.com/aerosweep/sweep/internal/model"
	"github.com/aerosweep/sweep/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func testMission() core.Mission {
	return core.Mission{
		ID:              "0d8f7a4e-1111-4000-8000-00000000abcd",
		Name:            "sweep",
		StartTime:       time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Seed:            42,
		Base:            core.Point{X: 1, Y: 2, Z: 2},
		DetectionRadius: 5,
		Field:           []core.Point{{X: 3, Y: 0, Z: 0.2}, {X: -1, Y: 4, Z: 0.2}},
	}
}

func TestCoreToMission(t *testing.T) {
	m := CoreToMission(testMission(), nil)

	assert.Equal(t, "0d8f7a4e-1111-4000-8000-00000000abcd", m.UUID)
	assert.Equal(t, "sweep", m.MissionName)
	assert.Equal(t, int64(42), m.Seed)
	assert.Equal(t, model.Position{X: 1, Y: 2, Z: 2}, m.Base)
	assert.Equal(t, 2, m.FieldSize)
	assert.Equal(t, datatypes.JSON("[]"), m.TimePerPoint)
	require.Len(t, m.FieldPoints, 2)
	assert.Equal(t, 1, m.FieldPoints[1].Index)
	assert.Equal(t, model.Position{X: -1, Y: 4, Z: 0.2}, m.FieldPoints[1].Local)
	assert.True(t, m.FieldPoints[0].Position.IsEmpty())
}

func TestCoreToMission_GeoReferenced(t *testing.T) {
	ref, err := geo.NewReference(48.1, 11.5)
	require.NoError(t, err)

	m := CoreToMission(testMission(), &ref)

	coord, ok := m.FieldPoints[0].Position.Coordinates()
	require.True(t, ok)
	assert.InDelta(t, 11.5, coord.XY.X, 0.01)
	assert.InDelta(t, 48.1, coord.XY.Y, 0.01)
	assert.Equal(t, 0.2, coord.Z)
}

func TestMissionRoundTrip(t *testing.T) {
	orig := testMission()
	back := MissionToCore(CoreToMission(orig, nil))
	assert.Equal(t, orig, back)
}

func TestCoreToEvent(t *testing.T) {
	e := core.Event{
		Seq:     7,
		Name:    core.EventDelivery,
		Time:    time.Date(2024, 3, 1, 12, 0, 5, 0, time.UTC),
		SimTime: 2.5,
		Data:    map[string]any{"index": 3, "point": core.Point{X: 1, Y: 2, Z: 0.2}},
	}

	got := CoreToEvent(e)
	assert.Equal(t, uint(7), got.Seq)
	assert.Equal(t, core.EventDelivery, got.Name)
	assert.Equal(t, 2.5, got.SimTime)
	assert.JSONEq(t, `{"index":3,"point":{"x":1,"y":2,"z":0.2}}`, string(got.Data))
}

func TestCoreToEvent_NilData(t *testing.T) {
	got := CoreToEvent(core.Event{Name: core.EventMissionComplete})
	assert.Equal(t, datatypes.JSON("{}"), got.Data)
}

func TestEventRoundTrip(t *testing.T) {
	e := core.Event{
		Seq:     1,
		Name:    core.EventReplan,
		Time:    time.Date(2024, 3, 1, 12, 0, 5, 0, time.UTC),
		SimTime: 9.75,
		Data:    map[string]any{"route_len": 4.0, "points": 2.0},
	}
	assert.Equal(t, e, EventToCore(CoreToEvent(e)))
}

func TestSummaryColumns(t *testing.T) {
	mean := 2.01
	s := core.Summary{
		Outcome:      core.OutcomeComplete,
		FieldSize:    3,
		Deliveries:   3,
		Replans:      1,
		TimePerPoint: []float64{1.5, 2},
		AltMean:      &mean,
		Ticks:        1200,
		SimTime:      5,
	}
	end := time.Date(2024, 3, 1, 12, 10, 0, 0, time.UTC)

	cols := SummaryColumns(s, end)
	assert.Equal(t, "complete", cols["outcome"])
	assert.Equal(t, sql.NullTime{Time: end, Valid: true}, cols["end_time"])
	assert.Equal(t, datatypes.JSON("[1.5,2]"), cols["time_per_point"])
	assert.Equal(t, &mean, cols["alt_mean"])
	assert.Nil(t, cols["alt_std"])
}

func TestMissionToSummary(t *testing.T) {
	std := 0.1
	m := model.Mission{
		UUID:         "abc",
		Outcome:      "timeout",
		FieldSize:    4,
		Deliveries:   2,
		TimePerPoint: datatypes.JSON("[3,4.5]"),
		AltStd:       &std,
		Ticks:        1000,
	}

	s := MissionToSummary(m)
	assert.Equal(t, "abc", s.MissionID)
	assert.Equal(t, core.OutcomeTimeout, s.Outcome)
	assert.Equal(t, []float64{3, 4.5}, s.TimePerPoint)
	assert.Equal(t, &std, s.AltStd)
	assert.Nil(t, s.AltMean)
}
