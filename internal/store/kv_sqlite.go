package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"github.com/MKhiriev/go-entitlement-keeper/internal/config"
	"github.com/MKhiriev/go-entitlement-keeper/internal/logger"
)

const createVaultTableSQLite = `CREATE TABLE IF NOT EXISTS vault_store (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

// NewConnectSQLite opens (creating if needed) the local sqlite vault store.
// The schema is applied inline; sqlite is the on-device backend and does not
// go through the goose migration path the postgres backend uses.
func NewConnectSQLite(ctx context.Context, cfg config.DB, log *logger.Logger) (*sqlKV, error) {
	if err := createLocalDBFileIfNotExists(cfg.DSN); err != nil {
		log.Err(err).Str("func", "NewConnectSQLite").Msg("error creating database file")
		return nil, fmt.Errorf("error creating database file")
	}

	conn, err := sql.Open("sqlite3", cfg.DSN)
	if err != nil {
		log.Err(err).Str("func", "NewConnectSQLite").Msg("error connecting database")
		return nil, fmt.Errorf("error opening connection to DB")
	}

	// ping database
	if err = conn.PingContext(ctx); err != nil {
		log.Err(err).Str("func", "NewConnectSQLite").Msg("error connecting database (ping)")
		return nil, err
	}

	if _, err = conn.ExecContext(ctx, createVaultTableSQLite); err != nil {
		log.Err(err).Str("func", "NewConnectSQLite").Msg("error creating vault table")
		return nil, fmt.Errorf("error creating vault table: %w", err)
	}
	log.Debug().Str("func", "NewConnectSQLite").Msg("connected to database successfully")

	return &sqlKV{
		db:          conn,
		placeholder: sq.Question,
		classify:    func(error) string { return "" },
		logger:      log,
	}, nil
}

func createLocalDBFileIfNotExists(dbFile string) error {
	if _, err := os.Stat(dbFile); os.IsNotExist(err) {
		// if not found - create
		f, err := os.Create(dbFile)
		if err != nil {
			return fmt.Errorf("error creating DB file: %w", err)
		}
		f.Close()
	}

	// file already exists
	return nil
}
