package config

import (
	"flag"
	"time"
)

// ParseFlags parses all configuration flags.
//
// Flags:
//
//	-bundle-id application bundle identifier
//	-hardware-model hardware model name of this device
//	-catalog path to the bundled product catalog JSON file
//	-d key-value store DSN
//	-driver key-value store driver ("sqlite3" or "pgx")
//	-authority-url base URL of the marketplace authority API
//	-signing-key key verifying the authority's transaction envelopes
//	-request-timeout authority request timeout (e.g., "30s", "1m")
//	-poll-interval pause between stream long-poll cycles
//	-c/-config json file path with configs
func ParseFlags() *StructuredConfig {
	var bundleID string
	var hardwareModel string
	var catalogPath string
	var databaseDSN string
	var databaseDriver string
	var authorityURL string
	var signingKey string
	var requestTimeout time.Duration
	var pollInterval time.Duration
	var jsonConfigPath string

	flag.StringVar(&bundleID, "bundle-id", "", "Application bundle identifier")
	flag.StringVar(&hardwareModel, "hardware-model", "", "Hardware model name")
	flag.StringVar(&catalogPath, "catalog", "", "Product catalog JSON path")
	flag.StringVar(&databaseDSN, "d", "", "Key-value store DSN")
	flag.StringVar(&databaseDriver, "driver", "", "Key-value store driver (sqlite3 or pgx)")
	flag.StringVar(&authorityURL, "authority-url", "", "Marketplace authority base URL")
	flag.StringVar(&signingKey, "signing-key", "", "Transaction envelope verification key")
	flag.DurationVar(&requestTimeout, "request-timeout", 0, "Authority request timeout (e.g., 30s, 1m)")
	flag.DurationVar(&pollInterval, "poll-interval", 0, "Stream long-poll interval (e.g., 2s)")
	flag.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	flag.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")

	flag.Parse()

	return &StructuredConfig{
		App: App{
			BundleID:      bundleID,
			HardwareModel: hardwareModel,
			CatalogPath:   catalogPath,
		},
		Storage: Storage{
			DB: DB{
				Driver: databaseDriver,
				DSN:    databaseDSN,
			},
		},
		Authority: Authority{
			BaseURL:        authorityURL,
			SigningKey:     signingKey,
			RequestTimeout: requestTimeout,
			PollInterval:   pollInterval,
		},
		Workers:      Workers{},
		JSONFilePath: jsonConfigPath,
	}
}
