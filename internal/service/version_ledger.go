package service

import (
	"sync"

	"github.com/MKhiriev/go-entitlement-keeper/models"
)

// versionLedger holds the grandfather grants: per app version, whether this
// installation was originally purchased strictly before it. Rebuilt only by
// the version-grant pass and replaced atomically.
type versionLedger struct {
	mu      sync.RWMutex
	entries []models.VersionHistoryEntry
	granted map[string]bool
}

func newVersionLedger() *versionLedger {
	return &versionLedger{granted: make(map[string]bool)}
}

// Replace swaps the whole ledger atomically, preserving entry order.
func (l *versionLedger) Replace(entries []models.VersionHistoryEntry) {
	granted := make(map[string]bool, len(entries))
	for _, e := range entries {
		granted[e.Version] = e.PurchasedBefore
	}

	l.mu.Lock()
	l.entries = append([]models.VersionHistoryEntry(nil), entries...)
	l.granted = granted
	l.mu.Unlock()
}

// Granted reports whether the ledger grants access for the given version
// cutoff. Unknown versions never grant.
func (l *versionLedger) Granted(version string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.granted[version]
}

// List returns the entries in original order.
func (l *versionLedger) List() []models.VersionHistoryEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return append([]models.VersionHistoryEntry(nil), l.entries...)
}
