// Package gormstorage implements storage.Backend on top of GORM. The SQLite and
// Postgres backends embed it and differ only in how the connection is made.
package gormstorage

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aerosweep/sweep/internal/geo"
	"github.com/aerosweep/sweep/internal/model"
	"github.com/aerosweep/sweep/internal/model/convert"
	"github.com/aerosweep/sweep/internal/storage"
	"github.com/aerosweep/sweep/pkg/core"

	"gorm.io/gorm"
)

// ErrNoDatabase is returned by Init when no connection was injected.
var ErrNoDatabase = errors.New("no database connection")

// DefaultBatchSize is the insert batch size used when none is configured.
const DefaultBatchSize = 256

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB        *gorm.DB
	Logger    *slog.Logger
	Geo       *geo.Reference // optional, fills field point positions
	BatchSize int
}

// Backend implements storage.Backend with one row per mission, field point and event.
type Backend struct {
	deps      Dependencies
	mu        sync.Mutex
	missionID uint
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	if deps.BatchSize <= 0 {
		deps.BatchSize = DefaultBatchSize
	}
	return &Backend{deps: deps}
}

// DB returns the underlying connection.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Logger returns the backend's logger.
func (b *Backend) Logger() *slog.Logger {
	return b.deps.Logger
}

// SetDB injects a connection made after construction. It must be called before Init.
func (b *Backend) SetDB(db *gorm.DB) {
	b.deps.DB = db
}

// Init runs schema migration.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return ErrNoDatabase
	}
	if err := b.setupDB(); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}
	return nil
}

func (b *Backend) setupDB() error {
	log := b.deps.Logger

	log.Info("Migrating schema", "dialect", b.deps.DB.Name())
	if err := b.deps.DB.AutoMigrate(model.DatabaseModels...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	log.Info("Database setup complete")
	return nil
}

// Close releases the connection pool.
func (b *Backend) Close() error {
	if b.deps.DB == nil {
		return nil
	}
	sqlDB, err := b.deps.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	return sqlDB.Close()
}

// StartMission inserts the mission row together with its field points.
func (b *Backend) StartMission(m *core.Mission) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	gormMission := convert.CoreToMission(*m, b.deps.Geo)
	err := b.deps.DB.Transaction(func(tx *gorm.DB) error {
		points := gormMission.FieldPoints
		gormMission.FieldPoints = nil
		if err := tx.Omit("FieldPoints", "Events").Create(&gormMission).Error; err != nil {
			return fmt.Errorf("failed to insert new mission: %w", err)
		}
		if len(points) == 0 {
			return nil
		}
		for i := range points {
			points[i].MissionID = gormMission.ID
		}
		if err := tx.Omit("Mission").CreateInBatches(&points, b.deps.BatchSize).Error; err != nil {
			return fmt.Errorf("failed to insert field points: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	b.missionID = gormMission.ID
	b.deps.Logger.Debug("Mission stored", "id", gormMission.ID, "uuid", gormMission.UUID, "points", len(m.Field))
	return nil
}

// MissionID returns the database ID of the current mission, 0 before StartMission.
func (b *Backend) MissionID() uint {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.missionID
}

// RecordEvents writes events in one transaction. On failure nothing is written.
func (b *Backend) RecordEvents(events []core.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.missionID == 0 {
		return storage.ErrNoMission
	}
	if len(events) == 0 {
		return nil
	}

	rows := make([]model.Event, len(events))
	for i, e := range events {
		rows[i] = convert.CoreToEvent(e)
		rows[i].MissionID = b.missionID
	}

	start := time.Now()
	err := b.deps.DB.Transaction(func(tx *gorm.DB) error {
		return tx.Omit("Mission").CreateInBatches(&rows, b.deps.BatchSize).Error
	})
	if err != nil {
		return fmt.Errorf("error creating events: %w", err)
	}

	b.deps.Logger.Debug("Wrote events", "count", len(rows), "duration", time.Since(start))
	return nil
}

// EndMission stores the summary columns on the mission row.
func (b *Backend) EndMission(summary core.Summary) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.missionID == 0 {
		return storage.ErrNoMission
	}

	res := b.deps.DB.Model(&model.Mission{}).
		Where("id = ?", b.missionID).
		Updates(convert.SummaryColumns(summary, time.Now()))
	if res.Error != nil {
		return fmt.Errorf("failed to update mission summary: %w", res.Error)
	}
	return nil
}

// MissionIDs lists stored missions in creation order.
func (b *Backend) MissionIDs() ([]uint, error) {
	var ids []uint
	if err := b.deps.DB.Model(&model.Mission{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list missions: %w", err)
	}
	return ids, nil
}

// LoadMission reads a stored mission with its field and summary.
func (b *Backend) LoadMission(id uint) (core.Mission, core.Summary, error) {
	var m model.Mission
	err := b.deps.DB.
		Preload("FieldPoints", func(db *gorm.DB) *gorm.DB { return db.Order("point_index") }).
		First(&m, id).Error
	if err != nil {
		return core.Mission{}, core.Summary{}, fmt.Errorf("failed to load mission %d: %w", id, err)
	}
	return convert.MissionToCore(m), convert.MissionToSummary(m), nil
}

// LoadEvents reads a stored mission's event log in sequence order.
func (b *Backend) LoadEvents(id uint) ([]core.Event, error) {
	var rows []model.Event
	if err := b.deps.DB.Where("mission_id = ?", id).Order("seq").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load events for mission %d: %w", id, err)
	}
	events := make([]core.Event, len(rows))
	for i, r := range rows {
		events[i] = convert.EventToCore(r)
	}
	return events, nil
}
