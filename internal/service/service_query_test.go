// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-entitlement-keeper/internal/trust"
	"github.com/MKhiriev/go-entitlement-keeper/models"
)

func TestQuery_IsPurchasedIdempotent(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)
	rig.authority.setEntitlements(verifiedTx("tx-1", "coffee.basic", models.NonConsumable))

	require.NoError(t, rig.services.Engine.RefreshEntitlements(ctx))

	for i := 0; i < 3; i++ {
		assert.True(t, rig.services.Query.IsPurchased(ctx, "coffee.basic"))
		assert.False(t, rig.services.Query.IsPurchased(ctx, "coffee.pro"))
	}
}

// A grandfather grant overrides live state in both directions of
// connectivity: the user may be offline indefinitely.
func TestQuery_VersionLedgerGrantAlwaysWins(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)
	rig.authority.originVersion = "1.0"

	// coffee.legacy is gated on "2.0" in the catalog; no transaction exists.
	_, err := rig.services.Engine.VerifyPreviousPurchase(ctx, []string{"2.0"})
	require.NoError(t, err)

	assert.True(t, rig.services.Query.IsPurchased(ctx, "coffee.legacy"))

	rig.conn.setOnline(false)
	assert.True(t, rig.services.Query.IsPurchased(ctx, "coffee.legacy"))
}

func TestQuery_UngatedProductIgnoresLedger(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)
	rig.authority.originVersion = "1.0"

	_, err := rig.services.Engine.VerifyPreviousPurchase(ctx, []string{"2.0"})
	require.NoError(t, err)

	// coffee.basic has no version gate, so the grant does not apply to it.
	assert.False(t, rig.services.Query.IsPurchased(ctx, "coffee.basic"))
}

func TestQuery_UnknownProductTypeNeverPurchased(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)
	rig.authority.setEntitlements(verifiedTx("tx-1", "coffee.basic", models.ProductType("mystery")))

	require.NoError(t, rig.services.Engine.RefreshEntitlements(ctx))

	assert.False(t, rig.services.Query.IsPurchased(ctx, "coffee.basic"))

	rig.conn.setOnline(false)
	assert.False(t, rig.services.Query.IsPurchased(ctx, "coffee.basic"))
}

func TestQuery_PurchaseSuccess(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)

	tx := verifiedTx("tx-buy", "coffee.basic", models.NonConsumable)
	rig.authority.purchaseResult = models.PurchaseResult{State: models.PurchaseSuccess, Transaction: tx}
	rig.authority.setEntitlements(tx)

	record, err := rig.services.Query.Purchase(ctx, "coffee.basic")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "tx-buy", record.TransactionID)

	assert.Equal(t, 1, rig.authority.finishCount("tx-buy"))
	assert.True(t, rig.services.Query.IsPurchased(ctx, "coffee.basic"))
}

func TestQuery_PurchaseCancelledAndPendingReturnNoTransaction(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)

	for _, state := range []models.PurchaseState{models.PurchaseCancelled, models.PurchasePending} {
		rig.authority.purchaseResult = models.PurchaseResult{State: state}

		record, err := rig.services.Query.Purchase(ctx, "coffee.basic")
		assert.NoError(t, err)
		assert.Nil(t, record)
	}

	assert.Empty(t, rig.authority.finished)
}

func TestQuery_PurchaseUnverifiedTransactionStillAcknowledged(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)

	tx := verifiedTx("tx-bad", "coffee.basic", models.NonConsumable)
	tx.Outcome = models.VerificationUnverified
	rig.authority.purchaseResult = models.PurchaseResult{State: models.PurchaseSuccess, Transaction: tx}

	record, err := rig.services.Query.Purchase(ctx, "coffee.basic")
	assert.ErrorIs(t, err, trust.ErrVerificationFailed)
	assert.Nil(t, record)
	assert.Equal(t, 1, rig.authority.finishCount("tx-bad"))
}

func TestQuery_PurchaseFlowError(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)
	rig.authority.purchaseErr = errors.New("marketplace down")

	record, err := rig.services.Query.Purchase(ctx, "coffee.basic")
	assert.Error(t, err)
	assert.Nil(t, record)
}

func TestQuery_AttributeFallsBack(t *testing.T) {
	rig := newTestRig(t)

	assert.Equal(t, "Basic Coffee", rig.services.Query.Attribute("display_name", "coffee.basic", "n/a"))
	assert.Equal(t, "n/a", rig.services.Query.Attribute("price_tier", "coffee.basic", "n/a"))
	assert.Equal(t, "n/a", rig.services.Query.Attribute("display_name", "coffee.unknown", "n/a"))
}

func TestQuery_BeginRefundProcessPresentsLatestTransaction(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)

	older := verifiedTx("tx-old", "coffee.basic", models.NonConsumable)
	newer := verifiedTx("tx-new", "coffee.basic", models.NonConsumable)
	newer.Record.PurchasedAt = older.Record.PurchasedAt.AddDate(0, 1, 0)
	rig.authority.setEntitlements(older, newer)

	require.NoError(t, rig.services.Engine.RefreshEntitlements(ctx))

	completed := 0
	rig.services.Query.BeginRefundProcess(ctx, "coffee.basic", func() { completed++ })

	assert.Equal(t, 1, completed)
	require.Len(t, rig.refund.presented, 1)
	assert.Equal(t, "tx-new", rig.refund.presented[0].TransactionID)
}

// onComplete fires exactly once whatever goes wrong: missing transaction,
// missing refund surface, or a failing flow.
func TestQuery_BeginRefundProcessAlwaysCompletes(t *testing.T) {
	ctx := context.Background()

	t.Run("no transaction on record", func(t *testing.T) {
		rig := newTestRig(t)

		completed := 0
		rig.services.Query.BeginRefundProcess(ctx, "coffee.basic", func() { completed++ })

		assert.Equal(t, 1, completed)
		assert.Empty(t, rig.refund.presented)
	})

	t.Run("no refund surface", func(t *testing.T) {
		rig := newTestRig(t)
		rig.authority.setEntitlements(verifiedTx("tx-1", "coffee.basic", models.NonConsumable))
		require.NoError(t, rig.services.Engine.RefreshEntitlements(ctx))

		rig.services.Query.(*entitlementQueryService).refund = nil

		completed := 0
		rig.services.Query.BeginRefundProcess(ctx, "coffee.basic", func() { completed++ })
		assert.Equal(t, 1, completed)
	})

	t.Run("flow error", func(t *testing.T) {
		rig := newTestRig(t)
		rig.authority.setEntitlements(verifiedTx("tx-1", "coffee.basic", models.NonConsumable))
		require.NoError(t, rig.services.Engine.RefreshEntitlements(ctx))

		rig.refund.err = errors.New("no active scene")

		completed := 0
		rig.services.Query.BeginRefundProcess(ctx, "coffee.basic", func() { completed++ })
		assert.Equal(t, 1, completed)
	})

	t.Run("nil callback tolerated", func(t *testing.T) {
		rig := newTestRig(t)
		rig.services.Query.BeginRefundProcess(ctx, "coffee.basic", nil)
	})
}
