package model

import (
	"database/sql"
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&Mission{},
	&FieldPoint{},
	&Event{},
}

// Position is an embedded XYZ triple in the mission's local frame
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Mission is one run of the controller. Summary columns are filled when the run ends.
type Mission struct {
	gorm.Model
	UUID            string    `json:"uuid" gorm:"size:36;uniqueIndex:idx_mission_uuid"`
	MissionName     string    `json:"missionName" gorm:"size:200"`
	StartTime       time.Time `json:"missionStart" gorm:"index:idx_mission_start"`
	Seed            int64     `json:"seed"`
	Base            Position  `json:"base" gorm:"embedded;embeddedPrefix:base_"`
	DetectionRadius float64   `json:"detectionRadius"`
	FieldSize       int       `json:"fieldSize"`

	EndTime      sql.NullTime   `json:"missionEnd"`
	Outcome      string         `json:"outcome" gorm:"size:16;index:idx_mission_outcome"`
	Deliveries   int            `json:"deliveries"`
	Replans      int            `json:"replans"`
	TimePerPoint datatypes.JSON `json:"timePerPoint"`
	EnergyEst    float64        `json:"energyEst"`
	AltMean      *float64       `json:"altMean"`
	AltStd       *float64       `json:"altStd"`
	DistanceReal float64        `json:"distanceReal"`
	Ticks        int            `json:"ticks"`
	SimTime      float64        `json:"simTime"`

	FieldPoints []FieldPoint
	Events      []Event
}

func (*Mission) TableName() string {
	return "missions"
}

// FieldPoint is one generated target point
type FieldPoint struct {
	ID        uint       `json:"id" gorm:"primarykey;autoIncrement;"`
	MissionID uint       `json:"missionId" gorm:"index:idx_fieldpoint_mission_id"`
	Mission   Mission    `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:MissionID;"`
	Index     int        `json:"index" gorm:"column:point_index;index:idx_fieldpoint_index"`
	Local     Position   `json:"local" gorm:"embedded;embeddedPrefix:local_"`
	Position  geom.Point `json:"position"` // WGS84 lon/lat, empty when the mission is not geo-referenced
}

func (*FieldPoint) TableName() string {
	return "field_points"
}

// Event is one entry of the mission event log
type Event struct {
	ID        uint           `json:"id" gorm:"primarykey;autoIncrement;"`
	MissionID uint           `json:"missionId" gorm:"index:idx_event_mission_id"`
	Mission   Mission        `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:MissionID;"`
	Seq       uint           `json:"seq" gorm:"index:idx_event_seq"`
	Name      string         `json:"name" gorm:"size:64;index:idx_event_name"`
	Time      time.Time      `json:"time"`
	SimTime   float64        `json:"simTime"`
	Data      datatypes.JSON `json:"data"`
}

func (*Event) TableName() string {
	return "events"
}
