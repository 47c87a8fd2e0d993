package gormstorage

import (
	"errors"
	"testing"
	"time"

	"github.com/aerosweep/sweep/internal/database"
	"github.com/aerosweep/sweep/internal/geo"
	"github.com/aerosweep/sweep/internal/model"
	"github.com/aerosweep/sweep/internal/storage"
	"github.com/aerosweep/sweep/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Compile-time interface check
var _ storage.Backend = (*Backend)(nil)

// newTestBackend creates an initialized Backend on a private in-memory SQLite DB.
func newTestBackend(t *testing.T, deps Dependencies) *Backend {
	t.Helper()
	db, err := database.GetSqliteDB("")
	require.NoError(t, err)
	deps.DB = db

	b := New(deps)
	require.NoError(t, b.Init())
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func testMission() *core.Mission {
	return &core.Mission{
		ID:              "3b0c4a7e-2222-4000-8000-000000000042",
		Name:            "sweep",
		StartTime:       time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC),
		Seed:            42,
		Base:            core.Point{Z: 2},
		DetectionRadius: 5,
		Field:           []core.Point{{X: 3, Z: 0.2}, {X: 0, Y: -6, Z: 0.2}, {X: 2, Y: 2, Z: 0.2}},
	}
}

func testEvents(n int) []core.Event {
	t0 := time.Date(2024, 5, 2, 8, 0, 1, 0, time.UTC)
	events := make([]core.Event, n)
	for i := range events {
		events[i] = core.Event{
			Seq:     uint(i + 1),
			Name:    core.EventDetected,
			Time:    t0.Add(time.Duration(i) * time.Second),
			SimTime: float64(i) * 0.5,
			Data:    map[string]any{"index": float64(i)},
		}
	}
	return events
}

func TestNew_Defaults(t *testing.T) {
	b := New(Dependencies{})
	require.NotNil(t, b)
	assert.Equal(t, DefaultBatchSize, b.deps.BatchSize)
	assert.NotNil(t, b.deps.Logger)
}

func TestInit_NoDB(t *testing.T) {
	b := New(Dependencies{})
	assert.ErrorIs(t, b.Init(), ErrNoDatabase)
	assert.NoError(t, b.Close())
}

func TestInit_MigratesSchema(t *testing.T) {
	b := newTestBackend(t, Dependencies{})
	for _, m := range model.DatabaseModels {
		assert.True(t, b.DB().Migrator().HasTable(m), "missing table for %T", m)
	}
}

func TestRecordEvents_RequiresMission(t *testing.T) {
	b := newTestBackend(t, Dependencies{})

	err := b.RecordEvents(testEvents(1))
	assert.True(t, errors.Is(err, storage.ErrNoMission))
	assert.ErrorIs(t, b.EndMission(core.Summary{}), storage.ErrNoMission)
}

func TestStartMission_StoresField(t *testing.T) {
	b := newTestBackend(t, Dependencies{})
	m := testMission()

	require.NoError(t, b.StartMission(m))
	id := b.MissionID()
	require.NotZero(t, id)

	got, _, err := b.LoadMission(id)
	require.NoError(t, err)
	assert.Equal(t, m.ID, got.ID)
	assert.Equal(t, m.Name, got.Name)
	assert.True(t, m.StartTime.Equal(got.StartTime))
	assert.Equal(t, m.Seed, got.Seed)
	assert.Equal(t, m.Base, got.Base)
	assert.Equal(t, m.Field, got.Field)

	var count int64
	require.NoError(t, b.DB().Model(&model.FieldPoint{}).Where("mission_id = ?", id).Count(&count).Error)
	assert.Equal(t, int64(3), count)
}

func TestStartMission_GeoReferenced(t *testing.T) {
	ref, err := geo.NewReference(52.5, 13.4)
	require.NoError(t, err)
	b := newTestBackend(t, Dependencies{Geo: &ref})

	require.NoError(t, b.StartMission(testMission()))

	var fp model.FieldPoint
	require.NoError(t, b.DB().Where("mission_id = ? AND point_index = ?", b.MissionID(), 0).First(&fp).Error)
	coord, ok := fp.Position.Coordinates()
	require.True(t, ok)
	assert.InDelta(t, 13.4, coord.XY.X, 0.01)
	assert.InDelta(t, 52.5, coord.XY.Y, 0.01)
}

func TestStartMission_EmptyField(t *testing.T) {
	b := newTestBackend(t, Dependencies{})
	m := testMission()
	m.Field = nil

	require.NoError(t, b.StartMission(m))
	got, _, err := b.LoadMission(b.MissionID())
	require.NoError(t, err)
	assert.Empty(t, got.Field)
}

func TestRecordEvents_Batches(t *testing.T) {
	b := newTestBackend(t, Dependencies{BatchSize: 2})
	require.NoError(t, b.StartMission(testMission()))

	events := testEvents(5)
	require.NoError(t, b.RecordEvents(events[:3]))
	require.NoError(t, b.RecordEvents(events[3:]))
	require.NoError(t, b.RecordEvents(nil))

	got, err := b.LoadEvents(b.MissionID())
	require.NoError(t, err)
	require.Len(t, got, 5)
	for i, e := range got {
		assert.Equal(t, uint(i+1), e.Seq)
		assert.Equal(t, core.EventDetected, e.Name)
		assert.Equal(t, float64(i), e.Data["index"])
		assert.True(t, events[i].Time.Equal(e.Time))
	}
}

func TestEndMission_StoresSummary(t *testing.T) {
	b := newTestBackend(t, Dependencies{})
	require.NoError(t, b.StartMission(testMission()))

	mean := 2.0
	summary := core.Summary{
		MissionID:    testMission().ID,
		Outcome:      core.OutcomeComplete,
		FieldSize:    3,
		Deliveries:   3,
		Replans:      2,
		TimePerPoint: []float64{2.5, 1.25, 4},
		EnergyEst:    310.5,
		AltMean:      &mean,
		DistanceReal: 27.3,
		Ticks:        9000,
		SimTime:      37.5,
	}
	require.NoError(t, b.EndMission(summary))

	_, got, err := b.LoadMission(b.MissionID())
	require.NoError(t, err)
	assert.Equal(t, summary, got)

	var row model.Mission
	require.NoError(t, b.DB().First(&row, b.MissionID()).Error)
	assert.True(t, row.EndTime.Valid)
}

func TestStartMission_SecondMission(t *testing.T) {
	b := newTestBackend(t, Dependencies{})
	require.NoError(t, b.StartMission(testMission()))
	first := b.MissionID()
	require.NoError(t, b.RecordEvents(testEvents(2)))

	m := testMission()
	m.ID = "3b0c4a7e-2222-4000-8000-000000000043"
	require.NoError(t, b.StartMission(m))
	second := b.MissionID()
	require.NotEqual(t, first, second)
	require.NoError(t, b.RecordEvents(testEvents(1)))

	a, err := b.LoadEvents(first)
	require.NoError(t, err)
	c, err := b.LoadEvents(second)
	require.NoError(t, err)
	assert.Len(t, a, 2)
	assert.Len(t, c, 1)

	ids, err := b.MissionIDs()
	require.NoError(t, err)
	assert.Equal(t, []uint{first, second}, ids)
}

func TestMissionIDs_Empty(t *testing.T) {
	b := newTestBackend(t, Dependencies{})
	ids, err := b.MissionIDs()
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestLoadMission_NotFound(t *testing.T) {
	b := newTestBackend(t, Dependencies{})
	_, _, err := b.LoadMission(99)
	assert.Error(t, err)
}
