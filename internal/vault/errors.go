package vault

import "errors"

var (
	// ErrEncodingInvariant is returned when a field value contains one of
	// the reserved delimiters. Well-formed catalog and transaction data
	// never does; the check is a guard, not an expected path.
	ErrEncodingInvariant = errors.New("field contains reserved delimiter")

	// ErrTamperDetected marks a blob that failed the integrity or
	// device-identity check on load. It is logged, never returned: a
	// tampered vault is treated as absent.
	ErrTamperDetected = errors.New("vault blob failed integrity check")
)
