package models

// ProductType classifies a purchasable product the way the marketplace does.
type ProductType string

const (
	Consumable    ProductType = "consumable"
	NonConsumable ProductType = "non_consumable"
	AutoRenewable ProductType = "auto_renewable"
	NonRenewable  ProductType = "non_renewable"
)

// Known reports whether t is one of the product types this application
// understands. Entitlement checks must treat unknown types as not purchased.
func (t ProductType) Known() bool {
	switch t {
	case Consumable, NonConsumable, AutoRenewable, NonRenewable:
		return true
	}
	return false
}
