// Package postgresstorage implements the storage.Backend interface on
// PostgreSQL/PostGIS. It wraps the GORM backend via composition; the only
// Postgres-specific concern is establishing and validating the connection.
package postgresstorage

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/acmitools/replay/internal/database"
	"github.com/acmitools/replay/internal/logging"
	gormstorage "github.com/acmitools/replay/internal/storage/gorm"
)

// Backend wraps the GORM backend for Postgres-specific behavior.
type Backend struct {
	*gormstorage.Backend
}

// New creates a new Postgres storage backend using the viper storage.postgres
// settings.
func New(logManager *logging.SlogManager) (*Backend, error) {
	dbm := database.NewManager(zerolog.Nop())
	db, err := dbm.GetPostgresDB()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sql interface: %w", err)
	}
	if err = sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to validate connection: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)

	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{
			DB:         db,
			LogManager: logManager,
		}),
	}, nil
}
