// internal/storage/memory/memory.go
package memory

import (
	"sync"

	"github.com/aerosweep/sweep/internal/config"
	"github.com/aerosweep/sweep/internal/geo"
	"github.com/aerosweep/sweep/internal/storage"
	"github.com/aerosweep/sweep/pkg/core"
)

// Backend keeps the mission's events in memory and exports them as one JSON document.
type Backend struct {
	cfg config.MemoryConfig
	geo *geo.Reference

	mission *core.Mission
	events  []core.Event
	summary *core.Summary

	lastExportPath string
	mu             sync.RWMutex
}

// New creates a new memory backend. ref, when non-nil, adds WGS84 positions to the export.
func New(cfg config.MemoryConfig, ref *geo.Reference) *Backend {
	return &Backend{cfg: cfg, geo: ref}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StartMission begins recording a new mission, dropping anything recorded before.
func (b *Backend) StartMission(mission *core.Mission) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.mission = mission
	b.events = nil
	b.summary = nil
	b.lastExportPath = ""
	return nil
}

// RecordEvents appends events to the log.
func (b *Backend) RecordEvents(events []core.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.mission == nil {
		return storage.ErrNoMission
	}
	b.events = append(b.events, events...)
	return nil
}

// EndMission stores the summary and writes the export file.
func (b *Backend) EndMission(summary core.Summary) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.mission == nil {
		return storage.ErrNoMission
	}
	b.summary = &summary
	return b.exportJSON()
}

// Events returns a copy of the recorded events.
func (b *Backend) Events() []core.Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]core.Event(nil), b.events...)
}

// ExportedFilePath returns the path of the last export, empty before EndMission.
func (b *Backend) ExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}
