// Copyright 2025 ZapSign Authors
// SPDX-License-Identifier: Apache-2.0

package signer

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Known vector from the AWS Signature Version 4 documentation
// ("Examples of how to derive a signing key").
func TestDeriveSigningKeyKnownVector(t *testing.T) {
	key := deriveSigningKey(
		"wJalrXUtnFEMI/K7MDENG+bPxRfiCYEXAMPLEKEY",
		"20150830",
		"us-east-1",
		"iam",
	)
	assert.Equal(t,
		"c4afb1cc5771d871763a393e44b703571b55cc28424d1a5e86da6ed3c154a4b9",
		hex.EncodeToString(key),
	)
}

func TestDeriveSigningKeyRawBytes(t *testing.T) {
	key := deriveSigningKey("secret", "20250101", Region, Service)
	assert.Len(t, key, 32, "intermediate chain values must be raw SHA-256 output")

	// Different scope inputs must produce different keys.
	other := deriveSigningKey("secret", "20250102", Region, Service)
	assert.NotEqual(t, key, other)
}
