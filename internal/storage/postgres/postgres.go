// Package postgres implements the storage.Backend interface using GORM/PostgreSQL.
package postgres

import (
	"fmt"

	"github.com/aerosweep/sweep/internal/config"
	"github.com/aerosweep/sweep/internal/database"
	gormstorage "github.com/aerosweep/sweep/internal/storage/gorm"
)

// Backend wraps the GORM backend and owns the server connection.
type Backend struct {
	*gormstorage.Backend
	cfg config.PostgresConfig
}

// New creates a new Postgres storage backend. The connection is made in Init
// unless one was injected through deps.
func New(cfg config.PostgresConfig, deps gormstorage.Dependencies) *Backend {
	return &Backend{
		Backend: gormstorage.New(deps),
		cfg:     cfg,
	}
}

// Init connects if needed, validates the connection and migrates the schema.
func (b *Backend) Init() error {
	if b.DB() == nil {
		db, err := database.GetPostgresDB(b.cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		b.SetDB(db)
	}

	sqlDB, err := b.DB().DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	if err = sqlDB.Ping(); err != nil {
		return fmt.Errorf("failed to validate connection: %w", err)
	}
	if b.DB().Name() == "postgres" {
		sqlDB.SetMaxOpenConns(10)
	}

	b.Logger().Info("Connected to database", "host", b.cfg.Host, "database", b.cfg.Database)
	return b.Backend.Init()
}
