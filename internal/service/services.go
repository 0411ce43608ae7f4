// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package service implements the entitlement engine proper: the in-memory
// entitlement set and version ledger, the reconciliation engine with its two
// stream listeners, the query policy layer, and the observer registry that
// carries notifications to the host UI.
package service

import (
	"github.com/MKhiriev/go-entitlement-keeper/internal/adapter"
	"github.com/MKhiriev/go-entitlement-keeper/internal/catalog"
	"github.com/MKhiriev/go-entitlement-keeper/internal/logger"
	"github.com/MKhiriev/go-entitlement-keeper/models"
)

// Deps carries the collaborators the engine is built from. Refund may be nil
// on hosts without a surface to anchor the refund UI.
type Deps struct {
	Authority    adapter.Authority
	Conn         adapter.Connectivity
	Catalog      *catalog.Catalog
	Entitlements SnapshotVault
	Versions     VersionVault
	Refund       RefundFlow
	Logger       *logger.Logger
}

// Services bundles the engine's public surfaces for the host: the query
// service, the reconciliation engine lifecycle, and observer registration.
type Services struct {
	Query     EntitlementQueryService
	Engine    *ReconciliationEngine
	Observers *ObserverRegistry
}

// NewServices wires the engine and the query layer over shared in-memory
// state. The engine consults the query service for promoted-purchase
// idempotence, and the query service delegates refreshes back to the engine,
// so the two are cross-wired here and nowhere else.
func NewServices(deps Deps) *Services {
	observers := NewObserverRegistry()
	set := newEntitlementSet()
	ledger := newVersionLedger()

	engine := &ReconciliationEngine{
		authority: deps.Authority,
		conn:      deps.Conn,
		catalog:   deps.Catalog,
		observers: observers,
		set:       set,
		ledger:    ledger,
		snapVault: deps.Entitlements,
		verVault:  deps.Versions,
		latestTx:  make(map[string]models.TransactionRecord),
		logger:    deps.Logger,
	}

	query := &entitlementQueryService{
		authority: deps.Authority,
		conn:      deps.Conn,
		catalog:   deps.Catalog,
		refresher: engine,
		engine:    engine,
		set:       set,
		ledger:    ledger,
		snapVault: deps.Entitlements,
		refund:    deps.Refund,
		logger:    deps.Logger,
	}
	engine.query = query

	return &Services{
		Query:     query,
		Engine:    engine,
		Observers: observers,
	}
}
