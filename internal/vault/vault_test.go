// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package vault

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-entitlement-keeper/internal/logger"
	"github.com/MKhiriev/go-entitlement-keeper/internal/store"
	"github.com/MKhiriev/go-entitlement-keeper/models"
)

const testDeviceKey = "com.example.coffee|MacBookPro18,2"

func testSnapshots() []models.PurchasedProductSnapshot {
	return []models.PurchasedProductSnapshot{
		{ID: "coffee.basic", Type: models.NonConsumable, DisplayName: "Basic Coffee", Description: "One cup a day"},
		{ID: "coffee.pro", Type: models.AutoRenewable, DisplayName: "Pro Coffee", Description: "Unlimited cups"},
		{ID: "coffee.gift", Type: models.Consumable, DisplayName: "Gift Cup", Description: ""},
	}
}

func newSnapshotVault(kv store.KV, deviceKey string) *Vault[models.PurchasedProductSnapshot] {
	return New[models.PurchasedProductSnapshot](kv, SnapshotCodec{}, deviceKey, "entitlements", logger.Nop())
}

func TestVault_RoundTripPreservesOrder(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	v := newSnapshotVault(kv, testDeviceKey)

	want := testSnapshots()
	require.NoError(t, v.Persist(ctx, want))

	got, err := v.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestVault_RoundTripEmptyList(t *testing.T) {
	ctx := context.Background()
	v := newSnapshotVault(store.NewMemoryKV(), testDeviceKey)

	require.NoError(t, v.Persist(ctx, nil))

	got, err := v.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestVault_LoadAbsentKey(t *testing.T) {
	v := newSnapshotVault(store.NewMemoryKV(), testDeviceKey)

	got, err := v.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestVault_PersistOverwritesPrior(t *testing.T) {
	ctx := context.Background()
	v := newSnapshotVault(store.NewMemoryKV(), testDeviceKey)

	require.NoError(t, v.Persist(ctx, testSnapshots()))
	require.NoError(t, v.Persist(ctx, testSnapshots()[:1]))

	got, err := v.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, testSnapshots()[:1], got)
}

// A blob copied from another device/app pairing must be silently discarded,
// even when it lands under this device's storage key.
func TestVault_ForeignDeviceBlobDiscarded(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()

	source := newSnapshotVault(kv, "com.example.coffee|OtherDevice9,9")
	require.NoError(t, source.Persist(ctx, testSnapshots()))

	foreign, ok, err := kv.Get(ctx, "com.example.coffee|OtherDevice9,9:entitlements")
	require.NoError(t, err)
	require.True(t, ok)

	target := newSnapshotVault(kv, testDeviceKey)
	require.NoError(t, kv.Set(ctx, testDeviceKey+":entitlements", foreign))

	got, err := target.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

// Mutating any single byte of the persisted blob must yield an empty load:
// either the base64/zstd framing breaks or the crc32 catches it. The final
// base64 quantum is skipped because its padding bits are not payload.
func TestVault_SingleByteMutationFailsClosed(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	v := newSnapshotVault(kv, testDeviceKey)

	require.NoError(t, v.Persist(ctx, testSnapshots()))
	original, ok, err := kv.Get(ctx, testDeviceKey+":entitlements")
	require.NoError(t, err)
	require.True(t, ok)

	for i := 0; i < len(original)-4; i++ {
		mutated := []byte(original)
		mutated[i] ^= 0x01
		require.NoError(t, kv.Set(ctx, testDeviceKey+":entitlements", string(mutated)))

		got, err := v.Load(ctx)
		require.NoError(t, err)
		assert.Emptyf(t, got, "mutation at byte %d was not detected", i)
	}
}

func TestVault_GarbageBlobFailsClosed(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	v := newSnapshotVault(kv, testDeviceKey)

	require.NoError(t, kv.Set(ctx, testDeviceKey+":entitlements", "!!!not base64!!!"))

	got, err := v.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestVault_DelimiterInFieldRejected(t *testing.T) {
	v := newSnapshotVault(store.NewMemoryKV(), testDeviceKey)

	bad := []models.PurchasedProductSnapshot{
		{ID: "coffee.basic", Type: models.NonConsumable, DisplayName: "Basic\x1fCoffee"},
	}

	err := v.Persist(context.Background(), bad)
	assert.ErrorIs(t, err, ErrEncodingInvariant)
}

func TestVault_VersionEntriesRoundTrip(t *testing.T) {
	ctx := context.Background()
	v := New[models.VersionHistoryEntry](store.NewMemoryKV(), VersionCodec{}, testDeviceKey, "versions", logger.Nop())

	want := []models.VersionHistoryEntry{
		{Version: "1.0", PurchasedBefore: false},
		{Version: "2.0", PurchasedBefore: true},
		{Version: "3.0", PurchasedBefore: true},
	}
	require.NoError(t, v.Persist(ctx, want))

	got, err := v.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

// Vaults in different slots under the same device key must not collide.
func TestVault_SlotsAreIndependent(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()

	entVault := newSnapshotVault(kv, testDeviceKey)
	verVault := New[models.VersionHistoryEntry](kv, VersionCodec{}, testDeviceKey, "versions", logger.Nop())

	require.NoError(t, entVault.Persist(ctx, testSnapshots()))
	require.NoError(t, verVault.Persist(ctx, []models.VersionHistoryEntry{{Version: "2.0", PurchasedBefore: true}}))

	snaps, err := entVault.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, snaps, 3)

	entries, err := verVault.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
