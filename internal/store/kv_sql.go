// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-entitlement-keeper/internal/logger"
)

// sqlKV is the shared database/sql implementation of [KV] behind both the
// sqlite and postgres backends. The two differ only in placeholder format
// and error classification.
type sqlKV struct {
	db          *sql.DB
	placeholder sq.PlaceholderFormat
	classify    func(error) string
	logger      *logger.Logger
}

func (s *sqlKV) Get(ctx context.Context, key string) (string, bool, error) {
	query, args, err := buildGetQuery(s.placeholder, key)
	if err != nil {
		return "", false, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var value string
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		s.logger.Err(err).Str("key", key).Str("code", s.classify(err)).Msg("vault store read failed")
		return "", false, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return value, true, nil
}

func (s *sqlKV) Set(ctx context.Context, key string, value string) error {
	query, args, err := buildSetQuery(s.placeholder, key, value)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = s.db.ExecContext(ctx, query, args...); err != nil {
		s.logger.Err(err).Str("key", key).Str("code", s.classify(err)).Msg("vault store write failed")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return nil
}

// Close releases the underlying connection pool.
func (s *sqlKV) Close() error {
	return s.db.Close()
}
