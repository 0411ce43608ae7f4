package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/MKhiriev/go-entitlement-keeper/internal/adapter"
	"github.com/MKhiriev/go-entitlement-keeper/internal/catalog"
	"github.com/MKhiriev/go-entitlement-keeper/internal/config"
	"github.com/MKhiriev/go-entitlement-keeper/internal/logger"
	"github.com/MKhiriev/go-entitlement-keeper/internal/service"
	"github.com/MKhiriev/go-entitlement-keeper/internal/store"
	"github.com/MKhiriev/go-entitlement-keeper/internal/vault"
	"github.com/MKhiriev/go-entitlement-keeper/models"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.NewLogger("entitlement-keeper")
	cfg, err := config.GetStructuredConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	log.Debug().Any("config", cfg).Msg("received configs")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	kv, err := store.NewKV(ctx, cfg.Storage, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating vault store")
	}

	products, err := catalog.Load(cfg.App.CatalogPath)
	if err != nil {
		log.Fatal().Err(err).Msg("error loading product catalog")
	}

	authority := adapter.NewHTTPAuthority(adapter.HTTPClientConfig{
		BaseURL:      cfg.Authority.BaseURL,
		SigningKey:   cfg.Authority.SigningKey,
		Timeout:      cfg.Authority.RequestTimeout,
		PollInterval: cfg.Authority.PollInterval,
	}, log)

	deviceKey := cfg.App.DeviceKey()
	services := service.NewServices(service.Deps{
		Authority:    authority,
		Conn:         authority,
		Catalog:      products,
		Entitlements: vault.New[models.PurchasedProductSnapshot](kv, vault.SnapshotCodec{}, deviceKey, "entitlements", log),
		Versions:     vault.New[models.VersionHistoryEntry](kv, vault.VersionCodec{}, deviceKey, "versions", log),
		Logger:       log,
	})

	if err = services.Engine.RestoreFromVault(ctx); err != nil {
		log.Warn().Err(err).Msg("vault restore failed, starting empty")
	}

	services.Engine.Start(ctx)

	if err = services.Engine.RefreshEntitlements(ctx); err != nil {
		log.Warn().Err(err).Msg("initial entitlement refresh failed")
	}

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")
	services.Engine.Stop()
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}
	if buildDate == "" {
		buildDate = "N/A"
	}
	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
