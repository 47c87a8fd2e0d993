// Package influx writes mission summaries to InfluxDB, falling back to a gzipped
// line-protocol file when the server cannot be reached.
package influx

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aerosweep/sweep/internal/config"
	"github.com/aerosweep/sweep/pkg/core"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"github.com/rs/zerolog"
)

// ErrDisabled is returned by Connect when the sink is switched off in config.
var ErrDisabled = errors.New("influx.enabled is false")

// Measurement is the measurement name of summary points.
const Measurement = "mission_summary"

// retentionSeconds is the retention applied to a bucket created by Connect.
const retentionSeconds = 60 * 60 * 24 * 90 // 90 days

// Manager handles the InfluxDB connection and writes.
type Manager struct {
	cfg    config.InfluxConfig
	log    zerolog.Logger
	client influxdb2.Client
	writer influxdb2_api.WriteAPIBlocking

	backupFile *os.File
	backup     *gzip.Writer
	valid      bool
	mu         sync.Mutex
}

// NewManager creates a new InfluxDB manager.
func NewManager(cfg config.InfluxConfig, log zerolog.Logger) *Manager {
	return &Manager{cfg: cfg, log: log}
}

// Name identifies the sink in logs.
func (m *Manager) Name() string {
	return "influx"
}

// Valid reports whether points go to the server rather than the backup file.
func (m *Manager) Valid() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.valid
}

// Connect pings the server and prepares the org and bucket. When the server is
// unreachable it opens the backup file instead and returns nil.
func (m *Manager) Connect(ctx context.Context) error {
	if !m.cfg.Enabled {
		return ErrDisabled
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.client = influxdb2.NewClientWithOptions(
		m.cfg.URL(),
		m.cfg.Token,
		influxdb2.DefaultOptions().
			SetHTTPRequestTimeout(5),
	)

	running, err := m.client.Ping(ctx)
	if err != nil || !running {
		m.log.Warn().Err(err).Str("backupPath", m.cfg.BackupPath).
			Msg("InfluxDB unreachable, writing to backup file")
		return m.openBackup()
	}

	if err := m.setupOrganizationAndBucket(ctx); err != nil {
		return err
	}
	m.writer = m.client.WriteAPIBlocking(m.cfg.Org, m.cfg.Bucket)
	m.valid = true
	m.log.Info().Str("url", m.cfg.URL()).Str("bucket", m.cfg.Bucket).Msg("InfluxDB client initialized")
	return nil
}

func (m *Manager) openBackup() error {
	if m.backup != nil {
		return nil
	}
	if m.cfg.BackupPath == "" {
		return errors.New("influx backup path not set")
	}
	if err := os.MkdirAll(filepath.Dir(m.cfg.BackupPath), 0755); err != nil {
		return fmt.Errorf("error creating backup directory: %w", err)
	}
	file, err := os.OpenFile(m.cfg.BackupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("error creating backup file: %w", err)
	}
	m.backupFile = file
	m.backup = gzip.NewWriter(file)
	return nil
}

func (m *Manager) setupOrganizationAndBucket(ctx context.Context) error {
	orgs := m.client.OrganizationsAPI()

	org, err := orgs.FindOrganizationByName(ctx, m.cfg.Org)
	if err != nil {
		m.log.Info().Str("org", m.cfg.Org).Msg("Organization not found, creating")
		org, err = orgs.CreateOrganizationWithName(ctx, m.cfg.Org)
		if err != nil {
			return fmt.Errorf("error creating organization %s: %w", m.cfg.Org, err)
		}
	}

	buckets := m.client.BucketsAPI()
	if _, err := buckets.FindBucketByName(ctx, m.cfg.Bucket); err != nil {
		m.log.Info().Str("bucket", m.cfg.Bucket).Msg("Bucket not found, creating")
		rule := domain.RetentionRuleTypeExpire
		_, err = buckets.CreateBucketWithName(ctx, org, m.cfg.Bucket, domain.RetentionRule{
			Type:         &rule,
			EverySeconds: retentionSeconds,
		})
		if err != nil {
			return fmt.Errorf("error creating bucket %s: %w", m.cfg.Bucket, err)
		}
	}
	return nil
}

// SummaryPoint builds the point written for one finished mission.
func SummaryPoint(s core.Summary, at time.Time) *influxdb2_write.Point {
	fields := map[string]interface{}{
		"field_size":    s.FieldSize,
		"deliveries":    s.Deliveries,
		"replans":       s.Replans,
		"energy_est":    s.EnergyEst,
		"distance_real": s.DistanceReal,
		"ticks":         s.Ticks,
		"sim_time":      s.SimTime,
	}
	if s.AltMean != nil {
		fields["alt_mean"] = *s.AltMean
	}
	if s.AltStd != nil {
		fields["alt_std"] = *s.AltStd
	}
	if n := len(s.TimePerPoint); n > 0 {
		var total float64
		for _, v := range s.TimePerPoint {
			total += v
		}
		fields["time_per_point_mean"] = total / float64(n)
	}

	tags := map[string]string{"outcome": string(s.Outcome)}
	if s.MissionID != "" {
		tags["mission_id"] = s.MissionID
	}
	return influxdb2_write.NewPoint(Measurement, tags, fields, at)
}

// Submit writes the summary point.
func (m *Manager) Submit(ctx context.Context, summary core.Summary) error {
	return m.WritePoint(ctx, SummaryPoint(summary, time.Now()))
}

// WritePoint writes a point to InfluxDB or the backup file.
func (m *Manager) WritePoint(ctx context.Context, point *influxdb2_write.Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.valid {
		if err := m.writer.WritePoint(ctx, point); err != nil {
			return fmt.Errorf("error sending data to InfluxDB: %w", err)
		}
		return nil
	}

	if m.backup == nil {
		return errors.New("influxDB client not initialized and backup writer not available")
	}
	line := strings.TrimRight(influxdb2_write.PointToLineProtocol(point, time.Nanosecond), "\n")
	if _, err := m.backup.Write([]byte(line + "\n")); err != nil {
		return fmt.Errorf("error writing to InfluxDB backup file: %w", err)
	}
	return nil
}

// Close flushes the backup file and releases the client.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	if m.backup != nil {
		errs = append(errs, m.backup.Close())
		errs = append(errs, m.backupFile.Close())
		m.backup, m.backupFile = nil, nil
	}
	if m.client != nil {
		m.client.Close()
		m.client = nil
	}
	m.valid = false
	return errors.Join(errs...)
}
