package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-entitlement-keeper/internal/logger"
)

func newTestKV(t *testing.T) (*sqlKV, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	kv := &sqlKV{
		db:          db,
		placeholder: sq.Dollar,
		classify:    postgresError,
		logger:      logger.Nop(),
	}
	return kv, mock, db
}

func TestSQLKV_Get_Found(t *testing.T) {
	kv, mock, db := newTestKV(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"value"}).AddRow("blob")
	mock.ExpectQuery("SELECT value FROM vault_store").
		WithArgs("com.example|mac:entitlements").
		WillReturnRows(rows)

	value, ok, err := kv.Get(context.Background(), "com.example|mac:entitlements")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "blob", value)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLKV_Get_Absent(t *testing.T) {
	kv, mock, db := newTestKV(t)
	defer db.Close()

	mock.ExpectQuery("SELECT value FROM vault_store").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	value, ok, err := kv.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, value)
}

func TestSQLKV_Get_QueryError(t *testing.T) {
	kv, mock, db := newTestKV(t)
	defer db.Close()

	mock.ExpectQuery("SELECT value FROM vault_store").
		WithArgs("k").
		WillReturnError(errors.New("boom"))

	_, _, err := kv.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrExecutingQuery)
}

func TestSQLKV_Set_Upserts(t *testing.T) {
	kv, mock, db := newTestKV(t)
	defer db.Close()

	mock.ExpectExec("INSERT INTO vault_store").
		WithArgs("k", "v").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, kv.Set(context.Background(), "k", "v"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLKV_Set_ExecError(t *testing.T) {
	kv, mock, db := newTestKV(t)
	defer db.Close()

	mock.ExpectExec("INSERT INTO vault_store").
		WithArgs("k", "v").
		WillReturnError(errors.New("down"))

	err := kv.Set(context.Background(), "k", "v")
	assert.ErrorIs(t, err, ErrExecutingQuery)
}

func TestIsConnectionError(t *testing.T) {
	assert.True(t, IsConnectionError(&pgconn.PgError{Code: "08006"}))
	assert.False(t, IsConnectionError(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsConnectionError(errors.New("plain")))
}
