package service

import (
	"sync"

	"github.com/google/uuid"

	"github.com/MKhiriev/go-entitlement-keeper/models"
)

// ObserverRegistry delivers engine notifications to the host UI. Observers
// register by handle and are released either individually or all at once
// (ClearAll before backgrounding). Registration and firing are safe to
// interleave from any goroutine.
type ObserverRegistry struct {
	mu               sync.RWMutex
	purchasesChanged map[uuid.UUID]func()
	productRevoked   map[uuid.UUID]func(models.TransactionRecord)
	promotedOutcome  map[uuid.UUID]func(productID string, success bool)
}

func NewObserverRegistry() *ObserverRegistry {
	return &ObserverRegistry{
		purchasesChanged: make(map[uuid.UUID]func()),
		productRevoked:   make(map[uuid.UUID]func(models.TransactionRecord)),
		promotedOutcome:  make(map[uuid.UUID]func(productID string, success bool)),
	}
}

// OnPurchasesChanged registers a callback fired after every completed
// reconciliation pass. Returns the handle for Unregister.
func (r *ObserverRegistry) OnPurchasesChanged(fn func()) uuid.UUID {
	id := uuid.New()
	r.mu.Lock()
	r.purchasesChanged[id] = fn
	r.mu.Unlock()
	return id
}

// OnProductRevoked registers a callback fired once per delivered revocation
// transaction.
func (r *ObserverRegistry) OnProductRevoked(fn func(models.TransactionRecord)) uuid.UUID {
	id := uuid.New()
	r.mu.Lock()
	r.productRevoked[id] = fn
	r.mu.Unlock()
	return id
}

// OnPromotedPurchaseOutcome registers a callback fired once per promoted
// purchase intent with the product id and whether the user ends up owning
// the product.
func (r *ObserverRegistry) OnPromotedPurchaseOutcome(fn func(productID string, success bool)) uuid.UUID {
	id := uuid.New()
	r.mu.Lock()
	r.promotedOutcome[id] = fn
	r.mu.Unlock()
	return id
}

// Unregister removes the observer with the given handle, whichever kind it
// is. Unknown handles are a no-op.
func (r *ObserverRegistry) Unregister(id uuid.UUID) {
	r.mu.Lock()
	delete(r.purchasesChanged, id)
	delete(r.productRevoked, id)
	delete(r.promotedOutcome, id)
	r.mu.Unlock()
}

// ClearAll releases every registered observer. Hosts call it before
// backgrounding so stale UI callbacks never fire.
func (r *ObserverRegistry) ClearAll() {
	r.mu.Lock()
	r.purchasesChanged = make(map[uuid.UUID]func())
	r.productRevoked = make(map[uuid.UUID]func(models.TransactionRecord))
	r.promotedOutcome = make(map[uuid.UUID]func(productID string, success bool))
	r.mu.Unlock()
}

// Callbacks are invoked outside the lock so an observer may re-enter the
// registry (e.g. unregister itself).

func (r *ObserverRegistry) notifyPurchasesChanged() {
	r.mu.RLock()
	fns := make([]func(), 0, len(r.purchasesChanged))
	for _, fn := range r.purchasesChanged {
		fns = append(fns, fn)
	}
	r.mu.RUnlock()

	for _, fn := range fns {
		fn()
	}
}

func (r *ObserverRegistry) notifyProductRevoked(tx models.TransactionRecord) {
	r.mu.RLock()
	fns := make([]func(models.TransactionRecord), 0, len(r.productRevoked))
	for _, fn := range r.productRevoked {
		fns = append(fns, fn)
	}
	r.mu.RUnlock()

	for _, fn := range fns {
		fn(tx)
	}
}

func (r *ObserverRegistry) notifyPromotedOutcome(productID string, success bool) {
	r.mu.RLock()
	fns := make([]func(string, bool), 0, len(r.promotedOutcome))
	for _, fn := range r.promotedOutcome {
		fns = append(fns, fn)
	}
	r.mu.RUnlock()

	for _, fn := range fns {
		fn(productID, success)
	}
}
