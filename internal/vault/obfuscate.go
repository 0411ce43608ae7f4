// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package vault

import (
	"crypto/sha256"
	"io"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/crypto/hkdf"
)

// padSalt domain-separates the obfuscation pad from any other use of the
// device key.
const padSalt = "entitlement-keeper/vault-pad"

// Shared zstd coders. EncodeAll/DecodeAll are safe for concurrent use.
var (
	zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
	zstdDecoder, _ = zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
)

// derivePad expands the device key into the 32-byte rolling XOR pad for one
// vault slot. Deterministic: the same device identity and slot always derive
// the same pad, so a blob written on one device never deobfuscates cleanly
// on another.
func derivePad(deviceKey, slot string) []byte {
	r := hkdf.New(sha256.New, []byte(deviceKey), []byte(padSalt), []byte(slot))
	pad := make([]byte, 32)
	if _, err := io.ReadFull(r, pad); err != nil {
		// hkdf cannot fail for a single hash-sized block
		panic(err)
	}
	return pad
}

// xorPad applies the rolling pad to data. The transform is its own inverse;
// it hides the blob from casual inspection and is not a security boundary.
func xorPad(data, pad []byte) []byte {
	out := make([]byte, len(data))
	for i := range data {
		out[i] = data[i] ^ pad[i%len(pad)]
	}
	return out
}

func compress(data []byte) []byte {
	return zstdEncoder.EncodeAll(data, nil)
}

func decompress(data []byte) ([]byte, error) {
	return zstdDecoder.DecodeAll(data, nil)
}
