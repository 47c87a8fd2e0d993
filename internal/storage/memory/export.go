// internal/storage/memory/export.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aerosweep/sweep/pkg/core"
)

// MissionExport is the root JSON structure
type MissionExport struct {
	MissionID       string       `json:"missionId"`
	MissionName     string       `json:"missionName"`
	StartTime       time.Time    `json:"startTime"`
	Seed            int64        `json:"seed"`
	Base            core.Point   `json:"base"`
	DetectionRadius float64      `json:"detectionRadius"`
	Field           []FieldPoint `json:"field"`
	Events          []EventJSON  `json:"events"`
	Metrics         core.Summary `json:"metrics"`
	DeliveryPath    string       `json:"deliveryPath,omitempty"` // WKT, geo-referenced exports only
}

// FieldPoint is a target point with its optional WGS84 position.
type FieldPoint struct {
	Index int      `json:"index"`
	X     float64  `json:"x"`
	Y     float64  `json:"y"`
	Z     float64  `json:"z"`
	Lon   *float64 `json:"lon,omitempty"`
	Lat   *float64 `json:"lat,omitempty"`
	WKT   string   `json:"wkt,omitempty"`
}

// EventJSON is one event log entry.
type EventJSON struct {
	Seq     uint           `json:"seq"`
	Event   string         `json:"event"`
	Time    time.Time      `json:"time"`
	SimTime float64        `json:"simTime"`
	Data    map[string]any `json:"data"`
}

// exportJSON writes the mission document, gzipped when configured
func (b *Backend) exportJSON() error {
	export := b.buildExport()

	missionName := strings.ReplaceAll(b.mission.Name, " ", "_")
	missionName = strings.ReplaceAll(missionName, ":", "_")
	timestamp := b.mission.StartTime.Format("20060102_150405")

	var filename string
	if b.cfg.CompressOutput {
		filename = fmt.Sprintf("%s_%s.json.gz", missionName, timestamp)
	} else {
		filename = fmt.Sprintf("%s_%s.json", missionName, timestamp)
	}

	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if b.cfg.CompressOutput {
		if err := b.writeGzipJSON(outputPath, export); err != nil {
			return err
		}
	} else {
		if err := b.writeJSON(outputPath, export); err != nil {
			return err
		}
	}

	b.lastExportPath = outputPath
	return nil
}

func (b *Backend) buildExport() MissionExport {
	export := MissionExport{
		MissionID:       b.mission.ID,
		MissionName:     b.mission.Name,
		StartTime:       b.mission.StartTime,
		Seed:            b.mission.Seed,
		Base:            b.mission.Base,
		DetectionRadius: b.mission.DetectionRadius,
		Field:           make([]FieldPoint, 0, len(b.mission.Field)),
		Events:          make([]EventJSON, 0, len(b.events)),
	}
	if b.summary != nil {
		export.Metrics = *b.summary
	}

	for i, p := range b.mission.Field {
		fp := FieldPoint{Index: i, X: p.X, Y: p.Y, Z: p.Z}
		if b.geo != nil {
			lon, lat := b.geo.ToWGS84(p)
			fp.Lon, fp.Lat = &lon, &lat
			fp.WKT = b.geo.PointWKT(p)
		}
		export.Field = append(export.Field, fp)
	}

	path := []core.Point{b.mission.Base}
	for _, e := range b.events {
		export.Events = append(export.Events, EventJSON{
			Seq:     e.Seq,
			Event:   e.Name,
			Time:    e.Time,
			SimTime: e.SimTime,
			Data:    e.Data,
		})
		if e.Name == core.EventDelivery {
			if p, ok := e.Data["point"].(core.Point); ok {
				path = append(path, p)
			}
		}
	}

	if b.geo != nil && len(path) > 1 {
		if wkt, err := b.geo.PathWKT(path); err == nil {
			export.DeliveryPath = wkt
		}
	}
	return export
}

func (b *Backend) writeJSON(path string, data MissionExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	return encoder.Encode(data)
}

func (b *Backend) writeGzipJSON(path string, data MissionExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gzWriter := gzip.NewWriter(f)
	defer gzWriter.Close()

	encoder := json.NewEncoder(gzWriter)
	return encoder.Encode(data)
}
