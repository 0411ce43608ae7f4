// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package vault persists tamper-evident, obfuscated snapshots of engine
// state in the key-value store, keyed by device identity. Two instances run
// in production: the entitlement vault (purchased-product snapshots) and the
// version vault (version-history entries).
//
// Write pipeline: serialize -> checksum -> compress -> obfuscate -> base64.
// The read pipeline is the exact inverse and fails closed: any checksum,
// decode, or device-identity mismatch yields an absent vault, never a
// partially trusted one.
package vault

import (
	"context"
	"encoding/base64"
	"fmt"
	"hash/crc32"
	"strconv"
	"strings"

	"github.com/MKhiriev/go-entitlement-keeper/internal/logger"
	"github.com/MKhiriev/go-entitlement-keeper/internal/store"
)

// Reserved delimiters. Field values are constrained to printable metadata
// and never contain these control characters; serialize rejects any that do.
const (
	fieldSeparator  = "\x1f"
	recordSeparator = "\x1e"
	blobSeparator   = "\x1d"
)

// Vault is one obfuscated snapshot store, parameterized by storage slot and
// item codec.
type Vault[T any] struct {
	kv        store.KV
	codec     Codec[T]
	deviceKey string
	slot      string
	pad       []byte
	logger    *logger.Logger
}

// New constructs a vault for the given device identity and storage slot
// (e.g. "entitlements", "versions"). The storage key is the device key
// joined with the slot, so vaults from different device/app pairings never
// collide.
func New[T any](kv store.KV, codec Codec[T], deviceKey, slot string, log *logger.Logger) *Vault[T] {
	return &Vault[T]{
		kv:        kv,
		codec:     codec,
		deviceKey: deviceKey,
		slot:      slot,
		pad:       derivePad(deviceKey, slot),
		logger:    log,
	}
}

func (v *Vault[T]) storageKey() string {
	return v.deviceKey + ":" + v.slot
}

// serialize produces the deterministic, order-preserving payload: the
// device-identity header followed by each item's field-delimited encoding.
func (v *Vault[T]) serialize(items []T) (string, error) {
	records := make([]string, 0, len(items)+1)

	if err := checkFields(v.deviceKey); err != nil {
		return "", err
	}
	records = append(records, v.deviceKey)

	for _, item := range items {
		fields := v.codec.Encode(item)
		if err := checkFields(fields...); err != nil {
			return "", err
		}
		records = append(records, strings.Join(fields, fieldSeparator))
	}

	return strings.Join(records, recordSeparator), nil
}

func checkFields(fields ...string) error {
	for _, f := range fields {
		if strings.ContainsAny(f, fieldSeparator+recordSeparator+blobSeparator) {
			return fmt.Errorf("%w: %q", ErrEncodingInvariant, f)
		}
	}
	return nil
}

// Persist serializes items, wraps them with a crc32 checksum, obfuscates the
// whole blob, and writes it under the device-keyed storage key, overwriting
// any prior value. The blob is written as one atomic value; readers never
// observe a torn write.
func (v *Vault[T]) Persist(ctx context.Context, items []T) error {
	payload, err := v.serialize(items)
	if err != nil {
		return err
	}

	sum := crc32.ChecksumIEEE([]byte(payload))
	blob := payload + blobSeparator + strconv.FormatUint(uint64(sum), 10)

	packed := xorPad(compress([]byte(blob)), v.pad)
	encoded := base64.StdEncoding.EncodeToString(packed)

	if err = v.kv.Set(ctx, v.storageKey(), encoded); err != nil {
		if store.IsConnectionError(err) {
			v.logger.Warn().Str("slot", v.slot).Msg("vault store unreachable, snapshot not persisted")
		}
		return fmt.Errorf("persist vault blob: %w", err)
	}

	v.logger.Debug().Str("slot", v.slot).Int("items", len(items)).Msg("vault persisted")
	return nil
}

// Load reads and decodes the persisted blob. It returns (nil, nil) when the
// key is absent or the blob fails any integrity gate: base64 decode,
// deobfuscation/decompression, checksum, device-identity header, or item
// decode. Tamper is invisible to callers; they just see an empty vault.
func (v *Vault[T]) Load(ctx context.Context) ([]T, error) {
	raw, ok, err := v.kv.Get(ctx, v.storageKey())
	if err != nil {
		return nil, fmt.Errorf("read vault blob: %w", err)
	}
	if !ok {
		return nil, nil
	}

	packed, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return v.discard("blob is not valid base64")
	}

	blobBytes, err := decompress(xorPad(packed, v.pad))
	if err != nil {
		return v.discard("blob failed deobfuscation")
	}
	blob := string(blobBytes)

	idx := strings.LastIndex(blob, blobSeparator)
	if idx < 0 {
		return v.discard("blob has no checksum")
	}
	payload, sumText := blob[:idx], blob[idx+1:]

	sum, err := strconv.ParseUint(sumText, 10, 32)
	if err != nil || uint32(sum) != crc32.ChecksumIEEE([]byte(payload)) {
		return v.discard("checksum mismatch")
	}

	records := strings.Split(payload, recordSeparator)
	if records[0] != v.deviceKey {
		return v.discard("device identity mismatch")
	}

	items := make([]T, 0, len(records)-1)
	for _, record := range records[1:] {
		item, err := v.codec.Decode(strings.Split(record, fieldSeparator))
		if err != nil {
			return v.discard("record decode failed")
		}
		items = append(items, item)
	}

	return items, nil
}

// discard logs the tamper signal and reports the vault as absent.
func (v *Vault[T]) discard(reason string) ([]T, error) {
	v.logger.Warn().
		Str("slot", v.slot).
		Str("reason", reason).
		Err(ErrTamperDetected).
		Msg("discarding vault blob")
	return nil, nil
}
