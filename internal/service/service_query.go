// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-entitlement-keeper/internal/adapter"
	"github.com/MKhiriev/go-entitlement-keeper/internal/catalog"
	"github.com/MKhiriev/go-entitlement-keeper/internal/logger"
	"github.com/MKhiriev/go-entitlement-keeper/internal/trust"
	"github.com/MKhiriev/go-entitlement-keeper/models"
)

// entitlementQueryService answers entitlement queries against the source
// ranked most trustworthy first: version-ledger grants, then live state when
// the authority is reachable, then the offline vault. Verification and
// storage failures resolve to "not purchased", never to an error.
type entitlementQueryService struct {
	authority adapter.Authority
	conn      adapter.Connectivity
	catalog   *catalog.Catalog
	refresher Refresher
	engine    *ReconciliationEngine

	set       *entitlementSet
	ledger    *versionLedger
	snapVault SnapshotVault

	refund RefundFlow

	logger *logger.Logger
}

// IsPurchased applies the query policy. A grandfather grant from the version
// ledger always wins, since the user may be offline indefinitely. The vault
// is only deobfuscated on the offline path; online queries hit the in-memory
// set directly.
func (s *entitlementQueryService) IsPurchased(ctx context.Context, productID string) bool {
	gate := s.catalog.Attribute(catalog.AttrPurchasedBeforeVersion, productID, "")
	if gate != "" && s.ledger.Granted(gate) {
		return true
	}

	if !s.conn.Online() {
		items, err := s.snapVault.Load(ctx)
		if err != nil {
			s.logger.Warn().Err(err).Str("product_id", productID).Msg("vault unavailable, treating as not purchased")
			return false
		}
		for _, item := range items {
			if item.ID == productID {
				return item.Type.Known()
			}
		}
		return false
	}

	snap, ok := s.set.Get(productID)
	return ok && snap.Type.Known()
}

// Purchase runs the authority's purchase flow. A cancelled or pending flow
// is not an error: the caller gets (nil, nil) and no state changes. A
// completed flow is verified, folded into a full entitlement refresh, and
// acknowledged before the record is returned.
func (s *entitlementQueryService) Purchase(ctx context.Context, productID string) (*models.TransactionRecord, error) {
	result, err := s.authority.Purchase(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("purchase flow for %q: %w", productID, err)
	}

	switch result.State {
	case models.PurchaseCancelled, models.PurchasePending:
		s.logger.Debug().
			Str("product_id", productID).
			Str("state", string(result.State)).
			Msg("purchase flow ended without a transaction")
		return nil, nil
	case models.PurchaseSuccess:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPurchaseState, result.State)
	}

	tx := result.Transaction
	record, err := trust.Verify(tx)
	if err != nil {
		s.finish(ctx, tx.Record.TransactionID)
		return nil, fmt.Errorf("purchase transaction for %q: %w", productID, err)
	}

	if err = s.refresher.RefreshEntitlements(ctx); err != nil {
		s.logger.Error().Err(err).Msg("entitlement refresh after purchase failed")
	}

	s.finish(ctx, record.TransactionID)
	return &record, nil
}

func (s *entitlementQueryService) finish(ctx context.Context, transactionID string) {
	if err := s.authority.Finish(ctx, transactionID); err != nil {
		s.logger.Warn().
			Err(err).
			Str("transaction_id", transactionID).
			Msg("transaction acknowledgment failed")
	}
}

// Attribute is a pure catalog lookup; missing keys at any level return
// fallback.
func (s *entitlementQueryService) Attribute(name, productID, fallback string) string {
	return s.catalog.Attribute(name, productID, fallback)
}

// BeginRefundProcess hands the product's most recent verified transaction to
// the platform refund flow. onComplete fires exactly once whatever happens;
// it signals only that the flow finished.
func (s *entitlementQueryService) BeginRefundProcess(ctx context.Context, productID string, onComplete func()) {
	if onComplete != nil {
		defer onComplete()
	}

	record, ok := s.engine.latestTransaction(productID)
	if !ok {
		s.logger.Warn().
			Err(ErrNoTransactionForProduct).
			Str("product_id", productID).
			Msg("refund request dropped")
		return
	}

	if s.refund == nil {
		s.logger.Warn().
			Err(ErrRefundUnavailable).
			Str("product_id", productID).
			Msg("refund request dropped")
		return
	}

	if err := s.refund.Present(ctx, record); err != nil {
		s.logger.Warn().
			Err(err).
			Str("product_id", productID).
			Str("transaction_id", record.TransactionID).
			Msg("refund flow failed")
	}
}
