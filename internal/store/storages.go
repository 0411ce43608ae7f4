package store

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-entitlement-keeper/internal/config"
	"github.com/MKhiriev/go-entitlement-keeper/internal/logger"
)

// NewKV constructs the key-value store selected by cfg.DB.Driver:
// "sqlite3" for the on-device file store (default), "pgx" for a managed
// postgres instance, or the in-memory store for a ":memory:" DSN.
func NewKV(ctx context.Context, cfg config.Storage, log *logger.Logger) (KV, error) {
	if cfg.DB.DSN == ":memory:" {
		return NewMemoryKV(), nil
	}

	switch cfg.DB.Driver {
	case "sqlite3":
		return NewConnectSQLite(ctx, cfg.DB, log)
	case "pgx":
		return NewConnectPostgres(ctx, cfg.DB, log)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.DB.Driver)
	}
}
