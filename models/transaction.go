package models

import "time"

// VerificationOutcome is the remote authority's verdict on a signed
// transaction envelope. Nothing downstream of the verifier ever re-checks
// signatures; it only looks at this value.
type VerificationOutcome string

const (
	VerificationVerified   VerificationOutcome = "verified"
	VerificationUnverified VerificationOutcome = "unverified"
)

// TransactionRecord is one purchase (or revocation) fact delivered by the
// marketplace. Immutable; consumed once per delivery.
type TransactionRecord struct {
	TransactionID string
	ProductID     string
	Type          ProductType
	PurchasedAt   time.Time

	// RevokedAt is set when the marketplace has revoked this transaction
	// (refund, family-sharing removal). Nil for active purchases.
	RevokedAt *time.Time
}

// SignedTransaction wraps a TransactionRecord together with the verification
// verdict of the envelope it arrived in. Raw keeps the original envelope so
// the transaction can be acknowledged even when verification failed.
type SignedTransaction struct {
	Record  TransactionRecord
	Outcome VerificationOutcome
	Raw     string
}

// PromotedPurchase is a purchase intent initiated from the marketplace UI
// outside the application.
type PromotedPurchase struct {
	ProductID string
}

// PurchaseState describes how a purchase flow ended.
type PurchaseState string

const (
	PurchaseSuccess   PurchaseState = "success"
	PurchaseCancelled PurchaseState = "cancelled"
	PurchasePending   PurchaseState = "pending"
)

// PurchaseResult is the outcome of a purchase flow. Transaction is only
// meaningful when State is PurchaseSuccess.
type PurchaseResult struct {
	State       PurchaseState
	Transaction SignedTransaction
}
