// Package trust holds the single boundary between remote-signed marketplace
// data and the rest of the engine. Every component past [Verify] may assume
// the transaction it handles carried a valid signature.
package trust

import (
	"errors"

	"github.com/MKhiriev/go-entitlement-keeper/models"
)

// ErrVerificationFailed is returned when the remote authority marked a
// transaction envelope unverified. Such transactions are logged and dropped,
// never surfaced to query callers.
var ErrVerificationFailed = errors.New("transaction verification failed")

// Verify unwraps a signed transaction. It returns the record unchanged when
// the authority's verdict is verified, and ErrVerificationFailed otherwise.
// No side effects.
func Verify(tx models.SignedTransaction) (models.TransactionRecord, error) {
	if tx.Outcome != models.VerificationVerified {
		return models.TransactionRecord{}, ErrVerificationFailed
	}
	return tx.Record, nil
}
