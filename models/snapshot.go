package models

// PurchasedProductSnapshot is the minimal serializable projection of a
// purchased product, built on every reconciliation pass and persisted in the
// entitlement vault for offline checks.
type PurchasedProductSnapshot struct {
	ID          string
	Type        ProductType
	DisplayName string
	Description string
}
