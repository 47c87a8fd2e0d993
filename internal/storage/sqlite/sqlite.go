// Package sqlitestorage implements the storage.Backend interface using an in-memory
// SQLite database that is written to disk with VACUUM INTO when the mission ends.
package sqlitestorage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aerosweep/sweep/internal/config"
	"github.com/aerosweep/sweep/internal/database"
	gormstorage "github.com/aerosweep/sweep/internal/storage/gorm"
	"github.com/aerosweep/sweep/pkg/core"
)

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	cfg      config.SQLiteConfig
	lastDump string
}

// New creates a new SQLite storage backend. Without an injected DB it opens a
// private in-memory database.
func New(cfg config.SQLiteConfig, deps gormstorage.Dependencies) (*Backend, error) {
	if deps.DB == nil {
		db, err := database.GetSqliteDB("")
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory SQLite DB: %w", err)
		}
		deps.DB = db
	}

	return &Backend{
		Backend: gormstorage.New(deps),
		cfg:     cfg,
	}, nil
}

// EndMission stores the summary, then dumps the database to DumpPath when set.
func (b *Backend) EndMission(summary core.Summary) error {
	if err := b.Backend.EndMission(summary); err != nil {
		return err
	}
	if b.cfg.DumpPath == "" {
		return nil
	}
	return b.Dump()
}

// Dump writes a point-in-time snapshot of the database to DumpPath.
func (b *Backend) Dump() error {
	if dir := filepath.Dir(b.cfg.DumpPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create dump directory: %w", err)
		}
	}

	start := time.Now()
	if err := database.DumpMemoryDBToDisk(b.DB(), b.cfg.DumpPath); err != nil {
		return err
	}
	b.lastDump = b.cfg.DumpPath
	b.Logger().Debug("Dumped to disk", "path", b.cfg.DumpPath, "duration", time.Since(start))
	return nil
}

// ExportedFilePath returns the path of the last dump, empty before one was written.
func (b *Backend) ExportedFilePath() string {
	return b.lastDump
}
