package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/MKhiriev/go-entitlement-keeper/internal/config"
	"github.com/MKhiriev/go-entitlement-keeper/internal/logger"
	"github.com/MKhiriev/go-entitlement-keeper/migrations"
)

// NewConnectPostgres opens the postgres-backed vault store and runs the
// embedded goose migrations. Used for fleet deployments where a set of
// devices shares a managed database instead of local sqlite files.
func NewConnectPostgres(ctx context.Context, cfg config.DB, log *logger.Logger) (*sqlKV, error) {
	// establish connection
	conn, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		log.Err(err).Str("func", "NewConnectPostgres").Msg("error occured during database connection")
		return nil, fmt.Errorf("error occured during database connection: %w", err)
	}

	// setup connections
	conn.SetMaxOpenConns(4)

	// ping database
	if err = conn.PingContext(ctx); err != nil {
		log.Err(err).Str("func", "NewConnectPostgres").Msg("error connecting database (ping)")
		return nil, err
	}

	if err = migrations.Migrate(conn); err != nil {
		log.Err(err).Str("func", "NewConnectPostgres").Msg("error migrating vault schema")
		return nil, err
	}
	log.Info().Str("func", "NewConnectPostgres").Msg("connected to database successfully")

	return &sqlKV{
		db:          conn,
		placeholder: sq.Dollar,
		classify:    postgresError,
		logger:      log,
	}, nil
}

// IsConnectionError reports whether err is a postgres connection-class
// failure (SQLSTATE 08xxx). Callers treat such a failure like being offline
// rather than like a corrupt store.
func IsConnectionError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgerrcode.IsConnectionException(pgErr.Code)
	}
	return false
}

// postgresError extracts the SQLSTATE code from a postgres driver error, for
// structured logging. Returns "" for non-postgres errors.
func postgresError(err error) string {
	var pgErr *pgconn.PgError
	// if postgres returns error
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}

	return ""
}
