package service

import (
	"context"

	"github.com/MKhiriev/go-entitlement-keeper/models"
)

// EntitlementQueryService is the public query surface of the engine. It
// answers entitlement questions with a policy that prefers live truth but
// falls back to the offline vault, and exposes purchase and refund
// initiation.
type EntitlementQueryService interface {
	// IsPurchased reports whether this installation is entitled to
	// productID. A grandfather grant from the version ledger always wins;
	// otherwise the live entitlement set answers when the authority is
	// reachable and the offline vault answers when it is not. Unrecognized
	// product types never count as purchased. Repeated calls with no
	// intervening reconciliation event return the same result.
	IsPurchased(ctx context.Context, productID string) bool

	// Purchase runs the purchase flow for productID, verifies the
	// resulting transaction, refreshes entitlements, and acknowledges the
	// transaction. A user-cancelled or pending flow returns (nil, nil)
	// rather than an error.
	Purchase(ctx context.Context, productID string) (*models.TransactionRecord, error)

	// Attribute is a pure lookup into the static product catalog. Missing
	// keys at any level return fallback, never an error.
	Attribute(name, productID, fallback string) string

	// BeginRefundProcess locates the most recent verified transaction for
	// productID and hands it to the platform refund flow. onComplete is
	// invoked exactly once regardless of outcome; it signals only that the
	// flow finished, not that a refund was granted.
	BeginRefundProcess(ctx context.Context, productID string, onComplete func())
}

// RefundFlow is the platform collaborator that presents the refund UI for a
// transaction. Hosts without a window/scene to anchor the UI may leave it
// unset; refund requests are then logged and dropped.
type RefundFlow interface {
	Present(ctx context.Context, tx models.TransactionRecord) error
}

// Refresher triggers a full entitlement refresh. Implemented by the
// reconciliation engine; split out so the query layer does not depend on
// the engine's concrete type.
type Refresher interface {
	RefreshEntitlements(ctx context.Context) error
}

// SnapshotVault is the persistence surface the engine needs for the
// entitlement vault.
type SnapshotVault interface {
	Persist(ctx context.Context, items []models.PurchasedProductSnapshot) error
	Load(ctx context.Context) ([]models.PurchasedProductSnapshot, error)
}

// VersionVault is the persistence surface for the version ledger.
type VersionVault interface {
	Persist(ctx context.Context, items []models.VersionHistoryEntry) error
	Load(ctx context.Context) ([]models.VersionHistoryEntry, error)
}
