package store

import (
	sq "github.com/Masterminds/squirrel"
)

const vaultTable = "vault_store"

// buildGetQuery builds the single-key lookup for the vault table.
func buildGetQuery(placeholder sq.PlaceholderFormat, key string) (string, []any, error) {
	return sq.
		Select("value").
		From(vaultTable).
		Where(sq.Eq{"key": key}).
		PlaceholderFormat(placeholder).
		ToSql()
}

// buildSetQuery builds the single-key upsert for the vault table. Both
// supported backends understand the ON CONFLICT clause.
func buildSetQuery(placeholder sq.PlaceholderFormat, key, value string) (string, []any, error) {
	return sq.
		Insert(vaultTable).
		Columns("key", "value").
		Values(key, value).
		Suffix("ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP").
		PlaceholderFormat(placeholder).
		ToSql()
}
