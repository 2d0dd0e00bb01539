// Package sqlitestorage implements the storage.Backend interface on a local
// SQLite file. It wraps the GORM backend via composition; the only
// SQLite-specific concern is opening the database file.
package sqlitestorage

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/acmitools/replay/internal/config"
	"github.com/acmitools/replay/internal/database"
	"github.com/acmitools/replay/internal/logging"
	gormstorage "github.com/acmitools/replay/internal/storage/gorm"
)

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
}

// New creates a new SQLite storage backend.
func New(cfg config.SQLiteConfig, logManager *logging.SlogManager) (*Backend, error) {
	dbm := database.NewManager(zerolog.Nop())
	db, err := dbm.GetSqliteDB(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite DB: %w", err)
	}

	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{
			DB:         db,
			LogManager: logManager,
		}),
	}, nil
}
