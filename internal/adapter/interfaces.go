package adapter

//go:generate mockgen -source=interfaces.go -destination=../mock/authority_mock.go -package=mock

import (
	"context"

	"github.com/MKhiriev/go-entitlement-keeper/models"
)

// Authority is the remote marketplace transaction authority. It is the only
// source of purchase truth; everything the engine stores locally is a cache
// of what this interface reported.
type Authority interface {
	// Transactions returns the live transaction event stream. The channel
	// is closed when ctx is cancelled. Each delivered envelope carries the
	// authority's verification verdict.
	Transactions(ctx context.Context) <-chan models.SignedTransaction

	// PromotedPurchases returns the stream of purchase intents initiated
	// from the marketplace UI outside the app. The channel is closed when
	// ctx is cancelled. Implementations on platforms without promoted
	// purchases may return nil.
	PromotedPurchases(ctx context.Context) <-chan models.PromotedPurchase

	// CurrentEntitlements fetches the authority's full current list of
	// entitlement-granting transactions. Returns ErrNotConnected when the
	// authority is unreachable.
	CurrentEntitlements(ctx context.Context) ([]models.SignedTransaction, error)

	// OriginalPurchaseVersion reports the app version this installation was
	// originally purchased with, together with the verification verdict of
	// the envelope that carried it.
	OriginalPurchaseVersion(ctx context.Context) (string, models.VerificationOutcome, error)

	// Purchase runs the purchase flow for productID. A user-cancelled or
	// pending flow is a result state, not an error.
	Purchase(ctx context.Context, productID string) (models.PurchaseResult, error)

	// Finish acknowledges a delivered transaction with the authority.
	// Called exactly once per delivery regardless of verification outcome.
	Finish(ctx context.Context, transactionID string) error
}

// Connectivity reports whether the authority is currently reachable. The
// query layer uses it to choose between live state and the offline vault.
type Connectivity interface {
	Online() bool
}
