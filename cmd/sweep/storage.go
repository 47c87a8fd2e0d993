package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/aerosweep/sweep/internal/config"
	"github.com/aerosweep/sweep/internal/geo"
	"github.com/aerosweep/sweep/internal/storage"
	gormstorage "github.com/aerosweep/sweep/internal/storage/gorm"
	"github.com/aerosweep/sweep/internal/storage/memory"
	pgstorage "github.com/aerosweep/sweep/internal/storage/postgres"
	sqlitestorage "github.com/aerosweep/sweep/internal/storage/sqlite"
)

func createStorageBackend(storageCfg config.StorageConfig, ref *geo.Reference, logger *slog.Logger, start time.Time) (storage.Backend, error) {
	deps := gormstorage.Dependencies{
		Logger:    logger,
		Geo:       ref,
		BatchSize: storageCfg.BatchSize,
	}

	switch storageCfg.Type {
	case "postgres":
		logger.Info("Postgres storage backend initialized", "host", storageCfg.Postgres.Host)
		return pgstorage.New(storageCfg.Postgres, deps), nil

	case "sqlite":
		sqliteCfg := storageCfg.SQLite
		if sqliteCfg.DumpPath != "" {
			sqliteCfg.DumpPath = timestampedPath(sqliteCfg.DumpPath, start)
		}
		backend, err := sqlitestorage.New(sqliteCfg, deps)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite backend: %w", err)
		}
		logger.Info("SQLite storage backend initialized", "dumpPath", sqliteCfg.DumpPath)
		return backend, nil

	case "memory", "":
		logger.Info("Memory storage backend initialized", "outputDir", storageCfg.Memory.OutputDir)
		return memory.New(storageCfg.Memory, ref), nil

	default:
		return nil, fmt.Errorf("unknown storage type %q", storageCfg.Type)
	}
}

// timestampedPath turns dir/name.ext into dir/name_<start>.ext so sessions never overwrite each other.
func timestampedPath(path string, start time.Time) string {
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	return fmt.Sprintf("%s_%s%s", stem, start.Format("20060102_150405"), ext)
}

func geoReference(logger *slog.Logger) *geo.Reference {
	geoCfg := config.GetGeoConfig()
	if !geoCfg.Enabled {
		return nil
	}
	ref, err := geo.NewReference(geoCfg.Latitude, geoCfg.Longitude)
	if err != nil {
		logger.Warn("Ignoring geo reference", "error", err, "latitude", geoCfg.Latitude, "longitude", geoCfg.Longitude)
		return nil
	}
	return &ref
}
