// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/MKhiriev/go-entitlement-keeper/models"
)

// transactionClaims is the JWS payload the authority signs for each
// transaction.
type transactionClaims struct {
	ProductID   string `json:"product_id"`
	ProductType string `json:"product_type"`
	PurchasedAt int64  `json:"purchased_at"`
	RevokedAt   *int64 `json:"revoked_at,omitempty"`
	jwt.RegisteredClaims
}

// versionClaims is the JWS payload for the original-purchase-version query.
type versionClaims struct {
	OriginalVersion string `json:"original_version"`
	jwt.RegisteredClaims
}

// DecodeEnvelope parses a signed transaction envelope. Signature validation
// decides the verification outcome; the record itself is extracted either
// way so an unverified transaction can still be logged and acknowledged.
func DecodeEnvelope(raw string, signingKey []byte) models.SignedTransaction {
	var claims transactionClaims

	outcome := models.VerificationVerified
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (any, error) { return signingKey, nil },
		jwt.WithValidMethods([]string{"HS256"}),
	)
	if err != nil {
		outcome = models.VerificationUnverified
		// best-effort extraction for logging and acknowledgment
		if _, _, perr := jwt.NewParser().ParseUnverified(raw, &claims); perr != nil {
			return models.SignedTransaction{Outcome: models.VerificationUnverified, Raw: raw}
		}
	}

	record := models.TransactionRecord{
		TransactionID: claims.ID,
		ProductID:     claims.ProductID,
		Type:          models.ProductType(claims.ProductType),
		PurchasedAt:   time.Unix(claims.PurchasedAt, 0).UTC(),
	}
	if claims.RevokedAt != nil {
		revoked := time.Unix(*claims.RevokedAt, 0).UTC()
		record.RevokedAt = &revoked
	}

	return models.SignedTransaction{Record: record, Outcome: outcome, Raw: raw}
}

// decodeVersionEnvelope parses the original-purchase-version envelope.
func decodeVersionEnvelope(raw string, signingKey []byte) (string, models.VerificationOutcome) {
	var claims versionClaims

	_, err := jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (any, error) { return signingKey, nil },
		jwt.WithValidMethods([]string{"HS256"}),
	)
	if err != nil {
		return "", models.VerificationUnverified
	}

	return claims.OriginalVersion, models.VerificationVerified
}

// SignEnvelope builds a signed transaction envelope. Production envelopes
// come from the marketplace; this is for the mockmarket dev server and
// tests.
func SignEnvelope(record models.TransactionRecord, signingKey []byte) (string, error) {
	claims := transactionClaims{
		ProductID:   record.ProductID,
		ProductType: string(record.Type),
		PurchasedAt: record.PurchasedAt.Unix(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       record.TransactionID,
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	if record.RevokedAt != nil {
		revoked := record.RevokedAt.Unix()
		claims.RevokedAt = &revoked
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
}

// SignVersionEnvelope builds a signed original-purchase-version envelope for
// the mockmarket dev server and tests.
func SignVersionEnvelope(originalVersion string, signingKey []byte) (string, error) {
	claims := versionClaims{
		OriginalVersion: originalVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
}
