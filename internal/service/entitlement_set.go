package service

import (
	"sync"

	"github.com/MKhiriev/go-entitlement-keeper/models"
)

// entitlementSet is the in-memory authoritative set of purchased products,
// unique by product id. It is replaced wholesale on every reconciliation
// pass; readers never observe a partially rebuilt set.
type entitlementSet struct {
	mu    sync.RWMutex
	index map[string]models.PurchasedProductSnapshot
	order []string
}

func newEntitlementSet() *entitlementSet {
	return &entitlementSet{index: make(map[string]models.PurchasedProductSnapshot)}
}

// Replace swaps the whole set atomically. Duplicate ids keep their first
// occurrence; insertion order is preserved for vault serialization.
func (s *entitlementSet) Replace(snapshots []models.PurchasedProductSnapshot) {
	index := make(map[string]models.PurchasedProductSnapshot, len(snapshots))
	order := make([]string, 0, len(snapshots))
	for _, snap := range snapshots {
		if _, ok := index[snap.ID]; ok {
			continue
		}
		index[snap.ID] = snap
		order = append(order, snap.ID)
	}

	s.mu.Lock()
	s.index = index
	s.order = order
	s.mu.Unlock()
}

// Get returns the snapshot for productID, if present.
func (s *entitlementSet) Get(productID string) (models.PurchasedProductSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.index[productID]
	return snap, ok
}

// List returns the snapshots in insertion order.
func (s *entitlementSet) List() []models.PurchasedProductSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.PurchasedProductSnapshot, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.index[id])
	}
	return out
}
