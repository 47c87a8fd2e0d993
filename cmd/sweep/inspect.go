package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aerosweep/sweep/internal/database"
	gormstorage "github.com/aerosweep/sweep/internal/storage/gorm"
	"github.com/aerosweep/sweep/pkg/core"
)

// storedMission is one mission read back from a sqlite dump.
type storedMission struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	StartTime  time.Time    `json:"start_time"`
	Seed       int64        `json:"seed"`
	Points     int          `json:"points"`
	Summary    core.Summary `json:"summary"`
	Events     int          `json:"events"`
	FirstEvent string       `json:"first_event,omitempty"`
	LastEvent  string       `json:"last_event,omitempty"`
}

// inspect prints every mission stored in the sqlite dump at path.
func inspect(path string, stdout io.Writer) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("opening dump: %w", err)
	}
	db, err := database.GetSqliteDB(path)
	if err != nil {
		return fmt.Errorf("opening dump %s: %w", path, err)
	}
	backend := gormstorage.New(gormstorage.Dependencies{DB: db})
	defer backend.Close()

	ids, err := backend.MissionIDs()
	if err != nil {
		return err
	}

	out := make([]storedMission, 0, len(ids))
	for _, id := range ids {
		m, summary, err := backend.LoadMission(id)
		if err != nil {
			return err
		}
		events, err := backend.LoadEvents(id)
		if err != nil {
			return err
		}
		rec := storedMission{
			ID:        m.ID,
			Name:      m.Name,
			StartTime: m.StartTime,
			Seed:      m.Seed,
			Points:    len(m.Field),
			Summary:   summary,
			Events:    len(events),
		}
		if len(events) > 0 {
			rec.FirstEvent = events[0].Name
			rec.LastEvent = events[len(events)-1].Name
		}
		out = append(out, rec)
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
