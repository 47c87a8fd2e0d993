package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "sweep.cfg.json"

// FieldConfig controls target point generation and sensing.
type FieldConfig struct {
	Count            int     `json:"count" mapstructure:"count"`
	AreaRadius       float64 `json:"areaRadius" mapstructure:"areaRadius"`
	DetectionRadius  float64 `json:"detectionRadius" mapstructure:"detectionRadius"`
	MaxNeighbors     int     `json:"maxNeighbors" mapstructure:"maxNeighbors"`
	AttemptsPerPoint int     `json:"attemptsPerPoint" mapstructure:"attemptsPerPoint"`
	GroundHeight     float64 `json:"groundHeight" mapstructure:"groundHeight"`
	Seed             int64   `json:"seed" mapstructure:"seed"`
}

// VehicleConfig holds the airframe and its home position.
type VehicleConfig struct {
	Mass           float64 `json:"mass" mapstructure:"mass"`
	Gravity        float64 `json:"gravity" mapstructure:"gravity"`
	LinearDamping  float64 `json:"linearDamping" mapstructure:"linearDamping"`
	BaseX          float64 `json:"baseX" mapstructure:"baseX"`
	BaseY          float64 `json:"baseY" mapstructure:"baseY"`
	CruiseAltitude float64 `json:"cruiseAltitude" mapstructure:"cruiseAltitude"`
}

// ControllerConfig holds the PD gains and limits of the flight controller.
type ControllerConfig struct {
	KpZ                float64 `json:"kpZ" mapstructure:"kpZ"`
	KdZ                float64 `json:"kdZ" mapstructure:"kdZ"`
	ThrustMargin       float64 `json:"thrustMargin" mapstructure:"thrustMargin"`
	ThrustCeiling      float64 `json:"thrustCeiling" mapstructure:"thrustCeiling"` // per unit of mass
	KpV                float64 `json:"kpV" mapstructure:"kpV"`
	KdV                float64 `json:"kdV" mapstructure:"kdV"`
	SpeedMax           float64 `json:"speedMax" mapstructure:"speedMax"`
	MaxHorizontalForce float64 `json:"maxHorizontalForce" mapstructure:"maxHorizontalForce"`
	DeadZone           float64 `json:"deadZone" mapstructure:"deadZone"`
	PatrolRadius       float64 `json:"patrolRadius" mapstructure:"patrolRadius"`
	PatrolRate         float64 `json:"patrolRate" mapstructure:"patrolRate"`
}

// PlannerConfig controls route refinement.
type PlannerConfig struct {
	TwoOptIterations int `json:"twoOptIterations" mapstructure:"twoOptIterations"`
}

// RunConfig controls the tick loop.
type RunConfig struct {
	Name           string  `json:"name" mapstructure:"name"`
	TimeStep       float64 `json:"timeStep" mapstructure:"timeStep"`
	MaxTicks       int     `json:"maxTicks" mapstructure:"maxTicks"`
	ArrivalRadius  float64 `json:"arrivalRadius" mapstructure:"arrivalRadius"`
	ReturnTicks    int     `json:"returnTicks" mapstructure:"returnTicks"`
	ReturnDeadZone float64 `json:"returnDeadZone" mapstructure:"returnDeadZone"`
	TraceInterval  int     `json:"traceInterval" mapstructure:"traceInterval"`
	RealTime       bool    `json:"realTime" mapstructure:"realTime"`
}

// MissionConfig bundles everything the mission core needs.
type MissionConfig struct {
	Field      FieldConfig
	Vehicle    VehicleConfig
	Controller ControllerConfig
	Planner    PlannerConfig
	Run        RunConfig
}

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds SQLite storage backend settings
type SQLiteConfig struct {
	DumpPath string `json:"dumpPath" mapstructure:"dumpPath"`
}

// PostgresConfig holds PostgreSQL connection settings
type PostgresConfig struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
	SSLMode  string `json:"sslMode" mapstructure:"sslMode"`
}

// StorageConfig selects and configures the event log backend
type StorageConfig struct {
	Type      string         `json:"type" mapstructure:"type"`
	BatchSize int            `json:"batchSize" mapstructure:"batchSize"`
	Memory    MemoryConfig   `json:"memory" mapstructure:"memory"`
	SQLite    SQLiteConfig   `json:"sqlite" mapstructure:"sqlite"`
	Postgres  PostgresConfig `json:"postgres" mapstructure:"postgres"`
}

// APIConfig configures the HTTP metrics endpoint
type APIConfig struct {
	Enabled     bool          `json:"enabled" mapstructure:"enabled"`
	ServerURL   string        `json:"serverUrl" mapstructure:"serverUrl"`
	MetricsPath string        `json:"metricsPath" mapstructure:"metricsPath"`
	APIKey      string        `json:"apiKey" mapstructure:"apiKey"`
	Timeout     time.Duration `json:"timeout" mapstructure:"timeout"`
}

// InfluxConfig configures the InfluxDB metrics sink
type InfluxConfig struct {
	Enabled    bool   `json:"enabled" mapstructure:"enabled"`
	Host       string `json:"host" mapstructure:"host"`
	Port       string `json:"port" mapstructure:"port"`
	Protocol   string `json:"protocol" mapstructure:"protocol"`
	Token      string `json:"token" mapstructure:"token"`
	Org        string `json:"org" mapstructure:"org"`
	Bucket     string `json:"bucket" mapstructure:"bucket"`
	BackupPath string `json:"backupPath" mapstructure:"backupPath"`
}

// URL returns the server address built from protocol, host and port.
func (c InfluxConfig) URL() string {
	return fmt.Sprintf("%s://%s:%s", c.Protocol, c.Host, c.Port)
}

// GraylogConfig configures GELF log shipping
type GraylogConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Address string `json:"address" mapstructure:"address"`
}

// GeoConfig anchors the local field frame to a WGS84 position for exports
type GeoConfig struct {
	Enabled   bool    `json:"enabled" mapstructure:"enabled"`
	Latitude  float64 `json:"latitude" mapstructure:"latitude"`
	Longitude float64 `json:"longitude" mapstructure:"longitude"`
}

// MonitorConfig controls the periodic status snapshot
type MonitorConfig struct {
	Enabled  bool          `json:"enabled" mapstructure:"enabled"`
	Interval time.Duration `json:"interval" mapstructure:"interval"`
	FileName string        `json:"fileName" mapstructure:"fileName"`
}

// OTelConfig controls the OpenTelemetry meter provider
type OTelConfig struct {
	Enabled        bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName    string        `json:"serviceName" mapstructure:"serviceName"`
	ExportInterval time.Duration `json:"exportInterval" mapstructure:"exportInterval"`
	FileName       string        `json:"fileName" mapstructure:"fileName"`
}

// Default mission parameters.
const (
	DefaultPointCount      = 100
	DefaultAreaRadius      = 18.0
	DefaultDetectionRadius = 5.0
	DefaultMaxNeighbors    = 2
	DefaultAttempts        = 300
	DefaultGroundHeight    = 0.2
	DefaultSeed            = 42

	DefaultMass           = 1.2
	DefaultGravity        = 9.8
	DefaultLinearDamping  = 0.8
	DefaultCruiseAltitude = 2.0

	DefaultKpZ           = 30.0
	DefaultKdZ           = 8.0
	DefaultThrustMargin  = 1.02
	DefaultThrustCeiling = 80.0
	DefaultKpV           = 8.0
	DefaultKdV           = 2.0
	DefaultSpeedMax      = 20.0
	DefaultMaxHForce     = 12.0
	DefaultDeadZone      = 0.05
	DefaultPatrolRadius  = 3.0
	DefaultPatrolRate    = 0.25

	DefaultTwoOptIterations = 200

	DefaultTimeStep       = 1.0 / 240.0
	DefaultMaxTicks       = 144000 // 600s of simulated time
	DefaultArrivalRadius  = 0.55
	DefaultReturnTicks    = 300
	DefaultReturnDeadZone = 0.2
	DefaultTraceInterval  = 120
)

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	setDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./logs")
	viper.SetDefault("logBackend", "slog")

	viper.SetDefault("field.count", DefaultPointCount)
	viper.SetDefault("field.areaRadius", DefaultAreaRadius)
	viper.SetDefault("field.detectionRadius", DefaultDetectionRadius)
	viper.SetDefault("field.maxNeighbors", DefaultMaxNeighbors)
	viper.SetDefault("field.attemptsPerPoint", DefaultAttempts)
	viper.SetDefault("field.groundHeight", DefaultGroundHeight)
	viper.SetDefault("field.seed", DefaultSeed)

	viper.SetDefault("vehicle.mass", DefaultMass)
	viper.SetDefault("vehicle.gravity", DefaultGravity)
	viper.SetDefault("vehicle.linearDamping", DefaultLinearDamping)
	viper.SetDefault("vehicle.baseX", 0.0)
	viper.SetDefault("vehicle.baseY", 0.0)
	viper.SetDefault("vehicle.cruiseAltitude", DefaultCruiseAltitude)

	viper.SetDefault("controller.kpZ", DefaultKpZ)
	viper.SetDefault("controller.kdZ", DefaultKdZ)
	viper.SetDefault("controller.thrustMargin", DefaultThrustMargin)
	viper.SetDefault("controller.thrustCeiling", DefaultThrustCeiling)
	viper.SetDefault("controller.kpV", DefaultKpV)
	viper.SetDefault("controller.kdV", DefaultKdV)
	viper.SetDefault("controller.speedMax", DefaultSpeedMax)
	viper.SetDefault("controller.maxHorizontalForce", DefaultMaxHForce)
	viper.SetDefault("controller.deadZone", DefaultDeadZone)
	viper.SetDefault("controller.patrolRadius", DefaultPatrolRadius)
	viper.SetDefault("controller.patrolRate", DefaultPatrolRate)

	viper.SetDefault("planner.twoOptIterations", DefaultTwoOptIterations)

	viper.SetDefault("mission.name", "sweep")
	viper.SetDefault("mission.timeStep", DefaultTimeStep)
	viper.SetDefault("mission.maxTicks", DefaultMaxTicks)
	viper.SetDefault("mission.arrivalRadius", DefaultArrivalRadius)
	viper.SetDefault("mission.returnTicks", DefaultReturnTicks)
	viper.SetDefault("mission.returnDeadZone", DefaultReturnDeadZone)
	viper.SetDefault("mission.traceInterval", DefaultTraceInterval)
	viper.SetDefault("mission.realTime", false)

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.batchSize", 256)
	viper.SetDefault("storage.memory.outputDir", "./missions")
	viper.SetDefault("storage.memory.compressOutput", false)
	viper.SetDefault("storage.sqlite.dumpPath", "./missions/sweep.db")
	viper.SetDefault("storage.postgres.host", "localhost")
	viper.SetDefault("storage.postgres.port", "5432")
	viper.SetDefault("storage.postgres.username", "postgres")
	viper.SetDefault("storage.postgres.password", "postgres")
	viper.SetDefault("storage.postgres.database", "sweep")
	viper.SetDefault("storage.postgres.sslMode", "disable")

	viper.SetDefault("api.enabled", true)
	viper.SetDefault("api.serverUrl", "http://127.0.0.1:1880")
	viper.SetDefault("api.metricsPath", "/metrics")
	viper.SetDefault("api.apiKey", "")
	viper.SetDefault("api.timeout", "2s")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "sweep-metrics")
	viper.SetDefault("influx.bucket", "mission_metrics")
	viper.SetDefault("influx.backupPath", "./logs/influx_backup.lp.gz")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("geo.enabled", false)
	viper.SetDefault("geo.latitude", 0.0)
	viper.SetDefault("geo.longitude", 0.0)

	viper.SetDefault("monitor.enabled", true)
	viper.SetDefault("monitor.interval", "1s")
	viper.SetDefault("monitor.fileName", "status.json")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "sweep")
	viper.SetDefault("otel.exportInterval", "10s")
	viper.SetDefault("otel.fileName", "sweep.otel.json")
}

// Default returns the mission parameters without consulting viper.
func Default() MissionConfig {
	return MissionConfig{
		Field: FieldConfig{
			Count:            DefaultPointCount,
			AreaRadius:       DefaultAreaRadius,
			DetectionRadius:  DefaultDetectionRadius,
			MaxNeighbors:     DefaultMaxNeighbors,
			AttemptsPerPoint: DefaultAttempts,
			GroundHeight:     DefaultGroundHeight,
			Seed:             DefaultSeed,
		},
		Vehicle: VehicleConfig{
			Mass:           DefaultMass,
			Gravity:        DefaultGravity,
			LinearDamping:  DefaultLinearDamping,
			CruiseAltitude: DefaultCruiseAltitude,
		},
		Controller: ControllerConfig{
			KpZ:                DefaultKpZ,
			KdZ:                DefaultKdZ,
			ThrustMargin:       DefaultThrustMargin,
			ThrustCeiling:      DefaultThrustCeiling,
			KpV:                DefaultKpV,
			KdV:                DefaultKdV,
			SpeedMax:           DefaultSpeedMax,
			MaxHorizontalForce: DefaultMaxHForce,
			DeadZone:           DefaultDeadZone,
			PatrolRadius:       DefaultPatrolRadius,
			PatrolRate:         DefaultPatrolRate,
		},
		Planner: PlannerConfig{TwoOptIterations: DefaultTwoOptIterations},
		Run: RunConfig{
			Name:           "sweep",
			TimeStep:       DefaultTimeStep,
			MaxTicks:       DefaultMaxTicks,
			ArrivalRadius:  DefaultArrivalRadius,
			ReturnTicks:    DefaultReturnTicks,
			ReturnDeadZone: DefaultReturnDeadZone,
			TraceInterval:  DefaultTraceInterval,
		},
	}
}

// GetMissionConfig returns the mission parameters from viper.
func GetMissionConfig() MissionConfig {
	return MissionConfig{
		Field: FieldConfig{
			Count:            viper.GetInt("field.count"),
			AreaRadius:       viper.GetFloat64("field.areaRadius"),
			DetectionRadius:  viper.GetFloat64("field.detectionRadius"),
			MaxNeighbors:     viper.GetInt("field.maxNeighbors"),
			AttemptsPerPoint: viper.GetInt("field.attemptsPerPoint"),
			GroundHeight:     viper.GetFloat64("field.groundHeight"),
			Seed:             viper.GetInt64("field.seed"),
		},
		Vehicle: VehicleConfig{
			Mass:           viper.GetFloat64("vehicle.mass"),
			Gravity:        viper.GetFloat64("vehicle.gravity"),
			LinearDamping:  viper.GetFloat64("vehicle.linearDamping"),
			BaseX:          viper.GetFloat64("vehicle.baseX"),
			BaseY:          viper.GetFloat64("vehicle.baseY"),
			CruiseAltitude: viper.GetFloat64("vehicle.cruiseAltitude"),
		},
		Controller: ControllerConfig{
			KpZ:                viper.GetFloat64("controller.kpZ"),
			KdZ:                viper.GetFloat64("controller.kdZ"),
			ThrustMargin:       viper.GetFloat64("controller.thrustMargin"),
			ThrustCeiling:      viper.GetFloat64("controller.thrustCeiling"),
			KpV:                viper.GetFloat64("controller.kpV"),
			KdV:                viper.GetFloat64("controller.kdV"),
			SpeedMax:           viper.GetFloat64("controller.speedMax"),
			MaxHorizontalForce: viper.GetFloat64("controller.maxHorizontalForce"),
			DeadZone:           viper.GetFloat64("controller.deadZone"),
			PatrolRadius:       viper.GetFloat64("controller.patrolRadius"),
			PatrolRate:         viper.GetFloat64("controller.patrolRate"),
		},
		Planner: PlannerConfig{
			TwoOptIterations: viper.GetInt("planner.twoOptIterations"),
		},
		Run: RunConfig{
			Name:           viper.GetString("mission.name"),
			TimeStep:       viper.GetFloat64("mission.timeStep"),
			MaxTicks:       viper.GetInt("mission.maxTicks"),
			ArrivalRadius:  viper.GetFloat64("mission.arrivalRadius"),
			ReturnTicks:    viper.GetInt("mission.returnTicks"),
			ReturnDeadZone: viper.GetFloat64("mission.returnDeadZone"),
			TraceInterval:  viper.GetInt("mission.traceInterval"),
			RealTime:       viper.GetBool("mission.realTime"),
		},
	}
}

// GetStorageConfig returns the storage backend settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type:      viper.GetString("storage.type"),
		BatchSize: viper.GetInt("storage.batchSize"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			DumpPath: viper.GetString("storage.sqlite.dumpPath"),
		},
		Postgres: PostgresConfig{
			Host:     viper.GetString("storage.postgres.host"),
			Port:     viper.GetString("storage.postgres.port"),
			Username: viper.GetString("storage.postgres.username"),
			Password: viper.GetString("storage.postgres.password"),
			Database: viper.GetString("storage.postgres.database"),
			SSLMode:  viper.GetString("storage.postgres.sslMode"),
		},
	}
}

// GetAPIConfig returns the HTTP metrics endpoint settings.
func GetAPIConfig() APIConfig {
	return APIConfig{
		Enabled:     viper.GetBool("api.enabled"),
		ServerURL:   viper.GetString("api.serverUrl"),
		MetricsPath: viper.GetString("api.metricsPath"),
		APIKey:      viper.GetString("api.apiKey"),
		Timeout:     viper.GetDuration("api.timeout"),
	}
}

// GetInfluxConfig returns the InfluxDB sink settings.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:    viper.GetBool("influx.enabled"),
		Host:       viper.GetString("influx.host"),
		Port:       viper.GetString("influx.port"),
		Protocol:   viper.GetString("influx.protocol"),
		Token:      viper.GetString("influx.token"),
		Org:        viper.GetString("influx.org"),
		Bucket:     viper.GetString("influx.bucket"),
		BackupPath: viper.GetString("influx.backupPath"),
	}
}

// GetGraylogConfig returns the GELF shipping settings.
func GetGraylogConfig() GraylogConfig {
	return GraylogConfig{
		Enabled: viper.GetBool("graylog.enabled"),
		Address: viper.GetString("graylog.address"),
	}
}

// GetGeoConfig returns the geo-reference used by exports.
func GetGeoConfig() GeoConfig {
	return GeoConfig{
		Enabled:   viper.GetBool("geo.enabled"),
		Latitude:  viper.GetFloat64("geo.latitude"),
		Longitude: viper.GetFloat64("geo.longitude"),
	}
}

// GetMonitorConfig returns the status monitor settings.
func GetMonitorConfig() MonitorConfig {
	return MonitorConfig{
		Enabled:  viper.GetBool("monitor.enabled"),
		Interval: viper.GetDuration("monitor.interval"),
		FileName: viper.GetString("monitor.fileName"),
	}
}

// GetOTelConfig returns the OpenTelemetry settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:        viper.GetBool("otel.enabled"),
		ServiceName:    viper.GetString("otel.serviceName"),
		ExportInterval: viper.GetDuration("otel.exportInterval"),
		FileName:       viper.GetString("otel.fileName"),
	}
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}
