package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/MKhiriev/go-entitlement-keeper/models"
)

func TestObserverRegistry_FireAndUnregister(t *testing.T) {
	r := NewObserverRegistry()

	var changed int
	handle := r.OnPurchasesChanged(func() { changed++ })

	r.notifyPurchasesChanged()
	assert.Equal(t, 1, changed)

	r.Unregister(handle)
	r.notifyPurchasesChanged()
	assert.Equal(t, 1, changed)
}

func TestObserverRegistry_RevokedCarriesRecord(t *testing.T) {
	r := NewObserverRegistry()

	var got models.TransactionRecord
	r.OnProductRevoked(func(tx models.TransactionRecord) { got = tx })

	r.notifyProductRevoked(models.TransactionRecord{TransactionID: "tx-1", ProductID: "coffee.basic"})
	assert.Equal(t, "tx-1", got.TransactionID)
	assert.Equal(t, "coffee.basic", got.ProductID)
}

func TestObserverRegistry_ClearAllReleasesEverything(t *testing.T) {
	r := NewObserverRegistry()

	var fired int
	r.OnPurchasesChanged(func() { fired++ })
	r.OnProductRevoked(func(models.TransactionRecord) { fired++ })
	r.OnPromotedPurchaseOutcome(func(string, bool) { fired++ })

	r.ClearAll()

	r.notifyPurchasesChanged()
	r.notifyProductRevoked(models.TransactionRecord{})
	r.notifyPromotedOutcome("coffee.basic", true)
	assert.Zero(t, fired)
}

func TestObserverRegistry_ObserverMayUnregisterItself(t *testing.T) {
	r := NewObserverRegistry()

	var fired int
	var h uuid.UUID
	h = r.OnPurchasesChanged(func() {
		fired++
		r.Unregister(h)
	})

	r.notifyPurchasesChanged()
	r.notifyPurchasesChanged()
	assert.Equal(t, 1, fired)
}
