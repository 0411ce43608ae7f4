package store

import "context"

// KV is the persistent key-value collaborator the obfuscated vaults write
// their blobs to. Implementations guarantee single-key atomicity: a Get
// concurrent with a Set returns either the old or the new committed value,
// never a torn one. No transactional guarantees beyond that are assumed.
type KV interface {
	// Get returns the value stored under key. The second return value is
	// false when the key is absent.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key, overwriting any prior value.
	Set(ctx context.Context, key string, value string) error
}
