// pkg/core/mission.go
package core

import "time"

// Mission describes one run: identity, the generated field and where the vehicle starts.
type Mission struct {
	ID              string
	Name            string
	StartTime       time.Time
	Seed            int64
	Base            Point
	DetectionRadius float64
	Field           []Point
}

// Outcome tells how a mission ended.
type Outcome string

const (
	OutcomeComplete Outcome = "complete"
	OutcomeTimeout  Outcome = "timeout"
)

// Summary is the end-of-mission metrics document.
type Summary struct {
	MissionID    string    `json:"mission_id"`
	Outcome      Outcome   `json:"outcome"`
	FieldSize    int       `json:"field_size"`
	Deliveries   int       `json:"deliveries"`
	Replans      int       `json:"replans"`
	TimePerPoint []float64 `json:"time_per_point"`
	EnergyEst    float64   `json:"energy_est"`
	AltMean      *float64  `json:"alt_mean"`
	AltStd       *float64  `json:"alt_std"`
	DistanceReal float64   `json:"distance_real"`
	Ticks        int       `json:"ticks"`
	SimTime      float64   `json:"sim_time"`
}
