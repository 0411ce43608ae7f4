// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

// applyDefaults fills in the values that have sensible fallbacks so a bare
// invocation still starts against a local sqlite store.
func (cfg *StructuredConfig) applyDefaults() {
	if cfg.Storage.DB.Driver == "" {
		cfg.Storage.DB.Driver = "sqlite3"
	}
	if cfg.Storage.DB.DSN == "" && cfg.Storage.DB.Driver == "sqlite3" {
		cfg.Storage.DB.DSN = "keeper.db"
	}
	if cfg.Authority.RequestTimeout <= 0 {
		cfg.Authority.RequestTimeout = defaultRequestTimeout
	}
	if cfg.Authority.PollInterval <= 0 {
		cfg.Authority.PollInterval = defaultPollInterval
	}
}

// validate checks that the final merged [StructuredConfig] satisfies all
// application invariants before it is used at startup.
//
// Returns nil if the configuration is valid, or a sentinel error otherwise.
func (cfg *StructuredConfig) validate() error {
	if cfg.App.BundleID == "" || cfg.App.HardwareModel == "" {
		return ErrInvalidAppConfigs
	}

	if cfg.Storage.DB.Driver != "sqlite3" && cfg.Storage.DB.Driver != "pgx" {
		return ErrInvalidStorageConfigs
	}
	if cfg.Storage.DB.DSN == "" {
		return ErrInvalidStorageConfigs
	}

	if cfg.Authority.BaseURL == "" {
		return ErrInvalidAuthorityConfigs
	}

	return nil
}
