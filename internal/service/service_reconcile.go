// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/MKhiriev/go-entitlement-keeper/internal/adapter"
	"github.com/MKhiriev/go-entitlement-keeper/internal/catalog"
	"github.com/MKhiriev/go-entitlement-keeper/internal/logger"
	"github.com/MKhiriev/go-entitlement-keeper/internal/trust"
	"github.com/MKhiriev/go-entitlement-keeper/internal/workers"
	"github.com/MKhiriev/go-entitlement-keeper/models"
)

// ReconciliationEngine owns the background listeners on the authority's
// transaction and promoted-purchase streams and drives every rebuild of the
// entitlement set and the version ledger. Its lifetime belongs to the host:
// construct, Start, and Stop explicitly; there is no ambient global instance.
type ReconciliationEngine struct {
	authority adapter.Authority
	conn      adapter.Connectivity
	catalog   *catalog.Catalog
	observers *ObserverRegistry

	set    *entitlementSet
	ledger *versionLedger

	snapVault SnapshotVault
	verVault  VersionVault

	// query is set once during wiring, before Start. The promoted listener
	// consults it for idempotence checks.
	query EntitlementQueryService

	// latest verified transaction per product id, kept for refund lookups.
	txMu     sync.RWMutex
	latestTx map[string]models.TransactionRecord

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger *logger.Logger
}

// Start launches the two stream listeners in the background. It is a no-op
// if the engine is already running. The listeners run until Stop or until
// ctx is cancelled; an event being processed when cancellation arrives is
// allowed to finish its pass.
func (e *ReconciliationEngine) Start(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cancel != nil {
		return
	}

	ctx, e.cancel = context.WithCancel(ctx)
	listeners := workers.New(
		&entitlementListener{engine: e},
		&promotedListener{engine: e},
	)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		if err := listeners.Run(ctx); err != nil && ctx.Err() == nil {
			e.logger.Error().Err(err).Msg("stream listeners stopped")
		}
	}()

	e.logger.Info().Msg("reconciliation engine started")
}

// Stop cancels the listeners and blocks until both have drained. Safe to
// call when the engine was never started.
func (e *ReconciliationEngine) Stop() {
	e.mu.Lock()
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.mu.Unlock()

	e.wg.Wait()
	e.logger.Info().Msg("reconciliation engine stopped")
}

// handleTransaction processes one delivered transaction: verify, notify on
// revocation, refresh the whole entitlement set, and acknowledge the
// delivery with the authority exactly once regardless of outcome.
func (e *ReconciliationEngine) handleTransaction(ctx context.Context, tx models.SignedTransaction) {
	defer func() {
		if err := e.authority.Finish(ctx, tx.Record.TransactionID); err != nil {
			e.logger.Warn().
				Err(err).
				Str("transaction_id", tx.Record.TransactionID).
				Msg("transaction acknowledgment failed")
		}
	}()

	record, err := trust.Verify(tx)
	if err != nil {
		e.logger.Warn().
			Err(err).
			Str("transaction_id", tx.Record.TransactionID).
			Msg("dropping unverified transaction")
		return
	}

	if record.RevokedAt != nil {
		e.observers.notifyProductRevoked(record)
	}

	// Always a full refresh: entitlements change as a set (family sharing,
	// subscription state), never just by the one transaction delivered.
	if err = e.RefreshEntitlements(ctx); err != nil {
		e.logger.Error().Err(err).Msg("entitlement refresh failed")
	}
}

// handlePromoted processes one marketplace-initiated purchase intent. An
// already-owned product reports success without a new purchase flow, so a
// promoted purchase can never double-charge.
func (e *ReconciliationEngine) handlePromoted(ctx context.Context, intent models.PromotedPurchase) {
	if e.query.IsPurchased(ctx, intent.ProductID) {
		e.observers.notifyPromotedOutcome(intent.ProductID, true)
		return
	}

	record, err := e.query.Purchase(ctx, intent.ProductID)
	if err != nil {
		e.logger.Warn().
			Err(err).
			Str("product_id", intent.ProductID).
			Msg("promoted purchase flow failed")
	}

	e.observers.notifyPromotedOutcome(intent.ProductID, err == nil && record != nil)
}

// RefreshEntitlements rebuilds the entitlement set from the authority's full
// current transaction list. Verification failures and revoked transactions
// are skipped, not fatal to the pass. The set is replaced wholesale, and the
// vault is rewritten only while the authority is reachable, so a vault is
// never built from a degraded view.
func (e *ReconciliationEngine) RefreshEntitlements(ctx context.Context) error {
	txs, err := e.authority.CurrentEntitlements(ctx)
	if err != nil {
		return fmt.Errorf("fetch current entitlements: %w", err)
	}

	snapshots := make([]models.PurchasedProductSnapshot, 0, len(txs))
	latest := make(map[string]models.TransactionRecord, len(txs))
	for _, tx := range txs {
		record, err := trust.Verify(tx)
		if err != nil {
			e.logger.Warn().
				Err(err).
				Str("transaction_id", tx.Record.TransactionID).
				Msg("skipping unverified entitlement")
			continue
		}
		if record.RevokedAt != nil {
			continue
		}

		if prev, ok := latest[record.ProductID]; !ok || record.PurchasedAt.After(prev.PurchasedAt) {
			latest[record.ProductID] = record
		}
		snapshots = append(snapshots, e.catalog.Snapshot(record.ProductID, record.Type))
	}

	e.set.Replace(snapshots)

	e.txMu.Lock()
	e.latestTx = latest
	e.txMu.Unlock()

	e.observers.notifyPurchasesChanged()

	if !e.conn.Online() {
		e.logger.Debug().Msg("offline, entitlement vault left untouched")
		return nil
	}
	if err = e.snapVault.Persist(ctx, e.set.List()); err != nil {
		return fmt.Errorf("persist entitlement vault: %w", err)
	}
	return nil
}

// VerifyPreviousPurchase rebuilds the version ledger for the given candidate
// versions. Every entry starts false; entries turn true only when the
// authority reports a verified original-purchase version strictly earlier
// than the candidate. Verification or parse failures leave entries false —
// the ledger never guesses. The resulting ledger is persisted
// unconditionally.
func (e *ReconciliationEngine) VerifyPreviousPurchase(ctx context.Context, versions []string) ([]models.VersionHistoryEntry, error) {
	entries := make([]models.VersionHistoryEntry, len(versions))
	for i, v := range versions {
		entries[i] = models.VersionHistoryEntry{Version: v}
	}

	origin, outcome, err := e.authority.OriginalPurchaseVersion(ctx)
	switch {
	case err != nil:
		e.logger.Warn().Err(err).Msg("original purchase version unavailable, no grants")
	case outcome != models.VerificationVerified:
		e.logger.Warn().Msg("original purchase version unverified, no grants")
	default:
		for i := range entries {
			entries[i].PurchasedBefore = purchasedBefore(origin, entries[i].Version)
		}
	}

	e.ledger.Replace(entries)

	if err = e.verVault.Persist(ctx, entries); err != nil {
		return entries, fmt.Errorf("persist version vault: %w", err)
	}
	return entries, nil
}

// RestoreFromVault primes the in-memory state from the persisted vaults.
// Intended for startup, before the first reconciliation pass; a tampered or
// absent vault simply yields empty state.
func (e *ReconciliationEngine) RestoreFromVault(ctx context.Context) error {
	snapshots, err := e.snapVault.Load(ctx)
	if err != nil {
		return fmt.Errorf("load entitlement vault: %w", err)
	}
	e.set.Replace(snapshots)

	entries, err := e.verVault.Load(ctx)
	if err != nil {
		return fmt.Errorf("load version vault: %w", err)
	}
	e.ledger.Replace(entries)

	e.logger.Debug().
		Int("entitlements", len(snapshots)).
		Int("version_entries", len(entries)).
		Msg("state restored from vault")
	return nil
}

// latestTransaction returns the most recent verified transaction known for
// productID, from the last reconciliation pass.
func (e *ReconciliationEngine) latestTransaction(productID string) (models.TransactionRecord, bool) {
	e.txMu.RLock()
	defer e.txMu.RUnlock()

	record, ok := e.latestTx[productID]
	return record, ok
}

// entitlementListener consumes the live transaction stream. An event being
// processed when cancellation arrives completes its pass before the worker
// returns.
type entitlementListener struct {
	engine *ReconciliationEngine
}

func (l *entitlementListener) Run(ctx context.Context) error {
	stream := l.engine.authority.Transactions(ctx)
	if stream == nil {
		<-ctx.Done()
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case tx, ok := <-stream:
			if !ok {
				return nil
			}
			l.engine.handleTransaction(context.WithoutCancel(ctx), tx)
		}
	}
}

// promotedListener consumes marketplace-initiated purchase intents. On
// platforms without promoted purchases the stream is nil and the listener
// just waits for cancellation.
type promotedListener struct {
	engine *ReconciliationEngine
}

func (l *promotedListener) Run(ctx context.Context) error {
	stream := l.engine.authority.PromotedPurchases(ctx)
	if stream == nil {
		<-ctx.Done()
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case intent, ok := <-stream:
			if !ok {
				return nil
			}
			l.engine.handlePromoted(context.WithoutCancel(ctx), intent)
		}
	}
}
