package models

// VersionHistoryEntry records whether this installation was originally
// purchased strictly before the given app version. Entries are rebuilt by the
// version-grant pass and persisted in the version vault.
type VersionHistoryEntry struct {
	Version         string
	PurchasedBefore bool
}
