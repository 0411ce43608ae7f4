package service

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-entitlement-keeper/internal/catalog"
	"github.com/MKhiriev/go-entitlement-keeper/internal/logger"
	"github.com/MKhiriev/go-entitlement-keeper/internal/store"
	"github.com/MKhiriev/go-entitlement-keeper/internal/vault"
	"github.com/MKhiriev/go-entitlement-keeper/models"
)

const testDeviceKey = "com.example.coffee|MacBookPro18,2"

// fakeAuthority is a scriptable stand-in for the marketplace authority. All
// fields are guarded by mu so listener goroutines and test assertions may
// touch them concurrently.
type fakeAuthority struct {
	mu sync.Mutex

	entitlements    []models.SignedTransaction
	entitlementsErr error

	originVersion string
	originOutcome models.VerificationOutcome
	originErr     error

	purchaseResult models.PurchaseResult
	purchaseErr    error
	purchaseCalls  int

	finished []string

	txCh       chan models.SignedTransaction
	promotedCh chan models.PromotedPurchase
}

func newFakeAuthority() *fakeAuthority {
	return &fakeAuthority{
		txCh:          make(chan models.SignedTransaction, 8),
		promotedCh:    make(chan models.PromotedPurchase, 8),
		originOutcome: models.VerificationVerified,
	}
}

func (a *fakeAuthority) Transactions(context.Context) <-chan models.SignedTransaction {
	return a.txCh
}

func (a *fakeAuthority) PromotedPurchases(context.Context) <-chan models.PromotedPurchase {
	return a.promotedCh
}

func (a *fakeAuthority) CurrentEntitlements(context.Context) ([]models.SignedTransaction, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.entitlementsErr != nil {
		return nil, a.entitlementsErr
	}
	return append([]models.SignedTransaction(nil), a.entitlements...), nil
}

func (a *fakeAuthority) OriginalPurchaseVersion(context.Context) (string, models.VerificationOutcome, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.originVersion, a.originOutcome, a.originErr
}

func (a *fakeAuthority) Purchase(_ context.Context, _ string) (models.PurchaseResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.purchaseCalls++
	return a.purchaseResult, a.purchaseErr
}

func (a *fakeAuthority) Finish(_ context.Context, transactionID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.finished = append(a.finished, transactionID)
	return nil
}

func (a *fakeAuthority) setEntitlements(txs ...models.SignedTransaction) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.entitlements = txs
}

func (a *fakeAuthority) finishCount(transactionID string) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := 0
	for _, id := range a.finished {
		if id == transactionID {
			n++
		}
	}
	return n
}

func (a *fakeAuthority) purchaseCallCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.purchaseCalls
}

// fakeConn toggles reachability mid-test.
type fakeConn struct {
	mu     sync.Mutex
	online bool
}

func (c *fakeConn) Online() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.online
}

func (c *fakeConn) setOnline(online bool) {
	c.mu.Lock()
	c.online = online
	c.mu.Unlock()
}

// fakeRefund records presented transactions.
type fakeRefund struct {
	mu        sync.Mutex
	presented []models.TransactionRecord
	err       error
}

func (r *fakeRefund) Present(_ context.Context, tx models.TransactionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.presented = append(r.presented, tx)
	return r.err
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()

	path := filepath.Join(t.TempDir(), "catalog.json")
	data := `{
		"coffee.basic": {
			"display_name": "Basic Coffee",
			"description": "One cup a day"
		},
		"coffee.legacy": {
			"display_name": "Legacy Coffee",
			"purchased_before_version": "2.0"
		}
	}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	c, err := catalog.Load(path)
	require.NoError(t, err)
	return c
}

type testRig struct {
	services  *Services
	authority *fakeAuthority
	conn      *fakeConn
	refund    *fakeRefund
	kv        store.KV
}

func newTestRig(t *testing.T) *testRig {
	t.Helper()

	authority := newFakeAuthority()
	conn := &fakeConn{online: true}
	refund := &fakeRefund{}
	kv := store.NewMemoryKV()
	log := logger.Nop()

	svc := NewServices(Deps{
		Authority:    authority,
		Conn:         conn,
		Catalog:      testCatalog(t),
		Entitlements: vault.New[models.PurchasedProductSnapshot](kv, vault.SnapshotCodec{}, testDeviceKey, "entitlements", log),
		Versions:     vault.New[models.VersionHistoryEntry](kv, vault.VersionCodec{}, testDeviceKey, "versions", log),
		Refund:       refund,
		Logger:       log,
	})

	return &testRig{services: svc, authority: authority, conn: conn, refund: refund, kv: kv}
}

func verifiedTx(transactionID, productID string, productType models.ProductType) models.SignedTransaction {
	return models.SignedTransaction{
		Record: models.TransactionRecord{
			TransactionID: transactionID,
			ProductID:     productID,
			Type:          productType,
			PurchasedAt:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		},
		Outcome: models.VerificationVerified,
	}
}

func revokedTx(transactionID, productID string) models.SignedTransaction {
	tx := verifiedTx(transactionID, productID, models.NonConsumable)
	revokedAt := tx.Record.PurchasedAt.Add(48 * time.Hour)
	tx.Record.RevokedAt = &revokedAt
	return tx
}
