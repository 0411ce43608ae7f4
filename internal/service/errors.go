package service

import "errors"

var (
	// ErrRefundUnavailable indicates the host provided no platform refund
	// flow to anchor the refund UI. Logged only; the completion callback
	// still fires.
	ErrRefundUnavailable = errors.New("no refund flow available")

	// ErrNoTransactionForProduct indicates a refund was requested for a
	// product with no verified transaction on record.
	ErrNoTransactionForProduct = errors.New("no verified transaction for product")

	// ErrUnknownPurchaseState indicates the authority reported a purchase
	// state this engine does not understand.
	ErrUnknownPurchaseState = errors.New("unknown purchase state")
)
