// Copyright 2025 ZapSign Authors
// SPDX-License-Identifier: Apache-2.0

package signer

import (
	"crypto/hmac"
	"crypto/sha256"
)

// deriveSigningKey derives the scoped signing key using the SigV4
// HMAC-SHA256 chain:
//
//	kDate    = HMAC("AWS4" + SecretKey, Date)
//	kRegion  = HMAC(kDate, Region)
//	kService = HMAC(kRegion, Service)
//	kSigning = HMAC(kService, "aws4_request")
//
// Intermediate values are raw bytes, never hex.
func deriveSigningKey(secretKey, date, region, service string) []byte {
	kDate := hmacSHA256([]byte("AWS4"+secretKey), []byte(date))
	kRegion := hmacSHA256(kDate, []byte(region))
	kService := hmacSHA256(kRegion, []byte(service))
	return hmacSHA256(kService, []byte("aws4_request"))
}

// hmacSHA256 computes HMAC-SHA256
func hmacSHA256(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}
