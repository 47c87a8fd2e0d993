// Command sweep runs one search-and-delivery mission against the headless
// point-mass simulator and records its event log and metrics.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/aerosweep/sweep/internal/api"
	"github.com/aerosweep/sweep/internal/config"
	"github.com/aerosweep/sweep/internal/eventlog"
	"github.com/aerosweep/sweep/internal/field"
	"github.com/aerosweep/sweep/internal/influx"
	"github.com/aerosweep/sweep/internal/logging"
	"github.com/aerosweep/sweep/internal/mission"
	"github.com/aerosweep/sweep/internal/monitor"
	"github.com/aerosweep/sweep/internal/otel"
	"github.com/aerosweep/sweep/internal/physics"
	"github.com/aerosweep/sweep/internal/report"
	"github.com/aerosweep/sweep/internal/storage"
	"github.com/aerosweep/sweep/pkg/core"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

// BuildDate can be set at build time via ldflags
var (
	Version   string = "0.0.1"
	BuildDate string = "unknown"

	AppName string = "sweep"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "%s: %v\n", AppName, err)
		os.Exit(1)
	}
}

// session holds the logging sinks opened for one run.
type session struct {
	logs    *logging.SlogManager
	logger  *slog.Logger
	zerolog zerolog.Logger
	file    *os.File
}

func (s *session) close() {
	_ = s.logs.Close()
	if s.file != nil {
		_ = s.file.Close()
	}
}

// missionLogger returns the logger handed to the mission core, per the logBackend setting.
func (s *session) missionLogger() mission.Logger {
	if strings.EqualFold(config.GetString("logBackend"), "zerolog") {
		return logging.NewZerologAdapter(s.zerolog)
	}
	return s.logger
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	flags := newFlagSet()
	if err := flags.Parse(args); err != nil {
		return err
	}
	if v, _ := flags.GetBool("version"); v {
		fmt.Fprintf(stdout, "%s %s (%s)\n", AppName, Version, BuildDate)
		return nil
	}

	if path, _ := flags.GetString("inspect"); path != "" {
		return inspect(path, stdout)
	}

	configDir, _ := flags.GetString("config")
	cfgErr := config.Load(configDir)
	if err := bindFlags(flags); err != nil {
		return err
	}

	sessionStart := time.Now()
	sess := setupLogging(sessionStart)
	defer sess.close()
	logger := sess.logger

	if cfgErr != nil {
		logger.Warn("Failed to load config, using defaults!", "error", cfgErr)
	} else {
		logger.Info("Loaded config", "dir", configDir)
	}

	cfg := config.GetMissionConfig()
	base := core.Point{X: cfg.Vehicle.BaseX, Y: cfg.Vehicle.BaseY}

	rng := rand.New(rand.NewSource(cfg.Field.Seed))
	generated := field.NewGenerator(cfg.Field, base, rng).Generate()
	if generated.Underfilled() {
		logger.Warn("Field generation under-filled",
			"requested", generated.Requested,
			"generated", len(generated.Points),
			"attempts", generated.Attempts,
		)
	}

	ref := geoReference(logger)
	coreMission := &core.Mission{
		ID:              uuid.NewString(),
		Name:            cfg.Run.Name,
		StartTime:       sessionStart,
		Seed:            cfg.Field.Seed,
		Base:            core.Point{X: base.X, Y: base.Y, Z: cfg.Vehicle.CruiseAltitude},
		DetectionRadius: cfg.Field.DetectionRadius,
		Field:           generated.Points,
	}

	storageCfg := config.GetStorageConfig()
	backend, err := createStorageBackend(storageCfg, ref, logger, sessionStart)
	if err != nil {
		return err
	}
	if err := backend.Init(); err != nil {
		return fmt.Errorf("failed to initialize storage backend: %w", err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Warn("Failed to close storage backend", "error", err)
		}
	}()
	if err := backend.StartMission(coreMission); err != nil {
		return fmt.Errorf("failed to start mission in storage: %w", err)
	}

	recorder := eventlog.New(backend, storageCfg.BatchSize, eventlog.WithLogger(logger))
	status := mission.NewContext()
	sess.logs.SetContextProvider(func() []slog.Attr {
		s := status.Status()
		return []slog.Attr{
			slog.Int("tick", s.Tick),
			slog.String("state", s.State.String()),
		}
	})
	defer sess.logs.SetContextProvider(nil)

	telemetry := setupTelemetry(logger)
	defer func() {
		if err := telemetry.close(); err != nil {
			logger.Warn("Failed to shut down telemetry", "error", err)
		}
	}()

	m, err := mission.New(cfg, generated.Points,
		mission.WithMeterProvider(telemetry.provider.MeterProvider()),
		mission.WithID(coreMission.ID),
		mission.WithLogger(sess.missionLogger()),
		mission.WithEventLog(recorder),
		mission.WithContext(status),
	)
	if err != nil {
		return fmt.Errorf("failed to create mission: %w", err)
	}

	publisher, closeSinks := createPublisher(ctx, logger, sess.zerolog)
	defer closeSinks()

	world := physics.NewPointMass(cfg.Vehicle, cfg.Run.TimeStep, core.Vec3{X: base.X, Y: base.Y, Z: cfg.Vehicle.CruiseAltitude})
	logger.Info("Mission starting",
		"id", coreMission.ID,
		"points", len(generated.Points),
		"seed", cfg.Field.Seed,
		"storage", storageCfg.Type,
		"sinks", publisher.Len(),
	)

	stopMonitor := startMonitor(logger, coreMission.ID, status, recorder)
	summary, err := mission.NewRunner(m, world, physics.Vehicle, publisher).Run(ctx)
	stopMonitor()
	if err != nil {
		logger.Error("Event log not persisted", "error", err)
	}
	if exp, ok := backend.(storage.Exporter); ok && exp.ExportedFilePath() != "" {
		logger.Info("Mission exported", "path", exp.ExportedFilePath())
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(summary); encErr != nil {
		return fmt.Errorf("writing summary: %w", encErr)
	}
	return err
}

// setupLogging opens the session log file and the optional Graylog writer.
// Without a usable log file, records go to stdout.
func setupLogging(start time.Time) *session {
	logsDir := config.GetString("logsDir")
	level := config.GetString("logLevel")
	sess := &session{logs: logging.NewSlogManager()}

	var setupErrs []error
	var out io.Writer
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		setupErrs = append(setupErrs, fmt.Errorf("creating logs dir: %w", err))
	} else {
		path := logging.LogFilePath(logsDir, AppName, start)
		if _, err := os.Stat(path); err == nil {
			_ = os.Rename(path, path+".old")
		}
		file, err := os.OpenFile(filepath.Clean(path), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			setupErrs = append(setupErrs, fmt.Errorf("opening log file: %w", err))
		} else {
			sess.file = file
			out = file
		}
	}

	var graylog io.Writer
	if gl := config.GetGraylogConfig(); gl.Enabled {
		w, err := logging.NewGraylogWriter(gl.Address)
		if err != nil {
			setupErrs = append(setupErrs, fmt.Errorf("connecting to graylog at %s: %w", gl.Address, err))
		} else {
			graylog = w
		}
	}

	sess.logs.Setup(out, level, graylog)
	sess.logger = sess.logs.Logger()
	zOut := io.Writer(os.Stderr)
	if out != nil {
		zOut = out
	}
	sess.zerolog = logging.NewZerolog(zOut, level)

	for _, err := range setupErrs {
		sess.logger.Warn("Logging setup degraded", "error", err)
	}
	return sess
}

// telemetrySession owns the meter provider and the file its exporter writes to.
type telemetrySession struct {
	provider *otel.Provider
	file     *os.File
}

func (t *telemetrySession) close() error {
	err := t.provider.Shutdown(context.Background())
	if t.file != nil {
		err = errors.Join(err, t.file.Close())
	}
	return err
}

// setupTelemetry builds the OpenTelemetry meter provider and installs it globally.
// Any failure leaves a disabled provider in place.
func setupTelemetry(logger *slog.Logger) *telemetrySession {
	disabled, _ := otel.New(otel.Config{})
	oc := config.GetOTelConfig()
	if !oc.Enabled {
		return &telemetrySession{provider: disabled}
	}

	path := filepath.Join(config.GetString("logsDir"), oc.FileName)
	file, err := os.OpenFile(filepath.Clean(path), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0666)
	if err != nil {
		logger.Warn("Telemetry disabled", "error", fmt.Errorf("opening metrics file: %w", err))
		return &telemetrySession{provider: disabled}
	}

	provider, err := otel.New(otel.Config{
		Enabled:        true,
		ServiceName:    oc.ServiceName,
		ExportInterval: oc.ExportInterval,
		MetricWriter:   file,
	})
	if err != nil {
		_ = file.Close()
		logger.Warn("Telemetry disabled", "error", err)
		return &telemetrySession{provider: disabled}
	}
	provider.Install()
	logger.Debug("Telemetry enabled", "path", path, "interval", oc.ExportInterval)
	return &telemetrySession{provider: provider, file: file}
}

// startMonitor snapshots mission progress into the logs directory while the mission runs.
func startMonitor(logger *slog.Logger, id string, status *mission.Context, recorder *eventlog.Recorder) func() {
	mc := config.GetMonitorConfig()
	if !mc.Enabled {
		return func() {}
	}
	svc := monitor.NewService(monitor.Dependencies{
		Logger:         logger,
		MissionID:      id,
		MissionContext: status,
		PendingEvents:  recorder.Pending,
		StatusPath:     filepath.Join(config.GetString("logsDir"), mc.FileName),
		Interval:       mc.Interval,
	})
	if err := svc.Start(); err != nil {
		logger.Warn("Status monitor unavailable", "error", err)
		return func() {}
	}
	return svc.Stop
}

// createPublisher registers the enabled metrics sinks. The returned func releases them.
func createPublisher(ctx context.Context, logger *slog.Logger, zl zerolog.Logger) (*report.Publisher, func()) {
	publisher := report.NewPublisher(logger)
	var closers []func() error

	if apiCfg := config.GetAPIConfig(); apiCfg.Enabled {
		client := api.New(apiCfg.ServerURL, apiCfg.MetricsPath, apiCfg.APIKey, apiCfg.Timeout)
		if err := client.Healthcheck(ctx); err != nil {
			logger.Warn("Metrics endpoint healthcheck failed", "url", client.URL(), "error", err)
		}
		publisher.Add(client)
		logger.Debug("Metrics endpoint registered", "url", client.URL())
	}

	if influxCfg := config.GetInfluxConfig(); influxCfg.Enabled {
		manager := influx.NewManager(influxCfg, zl)
		if err := manager.Connect(ctx); err != nil {
			logger.Warn("InfluxDB sink unavailable", "error", err)
		} else {
			publisher.Add(manager)
			closers = append(closers, manager.Close)
		}
	}

	return publisher, func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logger.Warn("Failed to close metrics sink", "error", err)
			}
		}
	}
}
