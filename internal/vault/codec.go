package vault

import (
	"fmt"
	"strconv"

	"github.com/MKhiriev/go-entitlement-keeper/models"
)

// Codec translates one vault item to and from its field-delimited encoding.
// Encode and Decode must round-trip exactly; field order is part of the
// format.
type Codec[T any] interface {
	Encode(item T) []string
	Decode(fields []string) (T, error)
}

// SnapshotCodec encodes purchased-product snapshots for the entitlement
// vault.
type SnapshotCodec struct{}

func (SnapshotCodec) Encode(s models.PurchasedProductSnapshot) []string {
	return []string{s.ID, string(s.Type), s.DisplayName, s.Description}
}

func (SnapshotCodec) Decode(fields []string) (models.PurchasedProductSnapshot, error) {
	if len(fields) != 4 {
		return models.PurchasedProductSnapshot{}, fmt.Errorf("snapshot record has %d fields, want 4", len(fields))
	}
	return models.PurchasedProductSnapshot{
		ID:          fields[0],
		Type:        models.ProductType(fields[1]),
		DisplayName: fields[2],
		Description: fields[3],
	}, nil
}

// VersionCodec encodes version-history entries for the version vault.
type VersionCodec struct{}

func (VersionCodec) Encode(e models.VersionHistoryEntry) []string {
	return []string{e.Version, strconv.FormatBool(e.PurchasedBefore)}
}

func (VersionCodec) Decode(fields []string) (models.VersionHistoryEntry, error) {
	if len(fields) != 2 {
		return models.VersionHistoryEntry{}, fmt.Errorf("version record has %d fields, want 2", len(fields))
	}
	purchased, err := strconv.ParseBool(fields[1])
	if err != nil {
		return models.VersionHistoryEntry{}, fmt.Errorf("version record flag: %w", err)
	}
	return models.VersionHistoryEntry{Version: fields[0], PurchasedBefore: purchased}, nil
}
