// internal/storage/storage.go
package storage

import (
	"errors"

	"github.com/aerosweep/sweep/pkg/core"
)

// ErrNoMission is returned when events or a summary arrive before StartMission.
var ErrNoMission = errors.New("no mission started")

// Backend is the interface all event log stores must satisfy.
// Calls come from the mission goroutine in order: Init, StartMission,
// RecordEvents (any number of times), EndMission, Close.
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Mission management
	StartMission(mission *core.Mission) error
	EndMission(summary core.Summary) error

	// Event recording, in sequence order
	RecordEvents(events []core.Event) error
}

// Exporter is an optional interface for backends that write one file per mission.
type Exporter interface {
	ExportedFilePath() string
}
