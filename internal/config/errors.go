package config

import (
	"errors"
	"time"
)

const (
	defaultRequestTimeout = 15 * time.Second
	defaultPollInterval   = 2 * time.Second
)

// Validation errors returned by [StructuredConfig.validate] when required
// configuration groups are incomplete or invalid.
var (
	// ErrInvalidAppConfigs indicates invalid installation identity settings
	// (missing bundle identifier or hardware model — the device key cannot
	// be derived without both).
	ErrInvalidAppConfigs = errors.New("invalid app configuration")
	// ErrInvalidStorageConfigs indicates invalid key-value store settings
	// (for example, empty DSN or unsupported driver).
	ErrInvalidStorageConfigs = errors.New("invalid storage configuration")
	// ErrInvalidAuthorityConfigs indicates invalid marketplace authority
	// settings (for example, missing base URL).
	ErrInvalidAuthorityConfigs = errors.New("invalid authority configuration")
)
