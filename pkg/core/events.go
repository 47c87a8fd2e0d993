// pkg/core/events.go
package core

import (
	"time"
)

// Event names written to the mission event log.
const (
	EventMissionStart       = "mission_start"
	EventPointsGenerated    = "points_generated"
	EventDetected           = "detected"
	EventInitialPlan        = "initial_plan"
	EventNewImmediateTarget = "new_immediate_target"
	EventDelivery           = "delivery"
	EventReplan             = "replan"
	EventMissionComplete    = "mission_complete"
	EventMissionTimeout     = "mission_timeout"
	EventFinalMetrics       = "final_metrics"
)

// Event is one entry of the mission event log.
// Seq is assigned by the recorder and is strictly increasing within a mission.
type Event struct {
	Seq     uint
	Name    string
	Time    time.Time
	SimTime float64
	Data    map[string]any
}
