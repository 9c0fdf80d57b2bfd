// Copyright 2025 ZapSign Authors
// SPDX-License-Identifier: Apache-2.0

// Package signer implements AWS Signature Version 4 query-parameter
// presigning against an S3-compatible object store, following:
// https://docs.aws.amazon.com/general/latest/gr/signature-version-4.html
package signer

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/LeeDigitalWorks/zapsign/pkg/utils"
)

const (
	// AuthHeaderV4 is the SigV4 algorithm identifier.
	AuthHeaderV4 = "AWS4-HMAC-SHA256"

	// Region and Service are fixed for the target store: it accepts the
	// sentinel region "auto" and only speaks the s3 service dialect.
	Region  = "auto"
	Service = "s3"

	// UnsignedPayload is the payload-hash sentinel for query presigning.
	// The body is never hashed at sign time because it is not yet known.
	UnsignedPayload = "UNSIGNED-PAYLOAD"

	// MinExpirySeconds and MaxExpirySeconds bound X-Amz-Expires.
	MinExpirySeconds = 60
	MaxExpirySeconds = 86400

	// DefaultStoreDomain is the domain suffix of the object store.
	// The signed host is <bucket>.<accountID>.<storeDomain>.
	DefaultStoreDomain = "r2.cloudflarestorage.com"
)

// ErrEmptyObjectKey is returned when the object key is empty after
// leading-slash trimming. Nothing is signed in that case.
var ErrEmptyObjectKey = errors.New("object key is required")

// Credentials holds the store account used for signing. Loaded once at
// startup, immutable afterwards, and never logged.
type Credentials struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	StoreDomain     string
}

// Host returns the virtual-hosted style host the signature is bound to.
func (c Credentials) Host() string {
	domain := c.StoreDomain
	if domain == "" {
		domain = DefaultStoreDomain
	}
	return c.Bucket + "." + c.AccountID + "." + domain
}

// Validate rejects incomplete credentials. An empty secret would still
// derive a mathematically valid signing key, so it is refused here rather
// than relying on the store to reject the resulting signatures.
func (c Credentials) Validate() error {
	switch {
	case c.AccountID == "":
		return errors.New("account id is required")
	case c.AccessKeyID == "":
		return errors.New("access key id is required")
	case c.SecretAccessKey == "":
		return errors.New("secret access key is required")
	case c.Bucket == "":
		return errors.New("bucket is required")
	}
	return nil
}

// Signer builds time-bounded query-signed URLs for a fixed credential set.
// It holds no mutable state and is safe for concurrent use.
type Signer struct {
	creds Credentials

	// now is the clock; replaced in tests for deterministic signatures.
	now func() time.Time
}

// New creates a Signer for the given credentials.
func New(creds Credentials) *Signer {
	return &Signer{creds: creds, now: time.Now}
}

// ClampExpiry bounds an expiry into [MinExpirySeconds, MaxExpirySeconds].
func ClampExpiry(seconds int) int {
	if seconds < MinExpirySeconds {
		return MinExpirySeconds
	}
	if seconds > MaxExpirySeconds {
		return MaxExpirySeconds
	}
	return seconds
}

// Presign builds a fully signed URL authorizing one HTTP method against one
// object key until the clamped expiry elapses. extraParams are carried into
// the signed query string (e.g. uploadId, partNumber). The returned URL is
// usable directly by an untrusted caller; validity is verified by the store
// at request time, no server-side state backs it.
func (s *Signer) Presign(method, objectKey string, extraParams map[string]string, expirySeconds int) (string, error) {
	key := strings.TrimLeft(objectKey, "/")
	if key == "" {
		return "", ErrEmptyObjectKey
	}

	expiry := ClampExpiry(expirySeconds)
	now := s.now().UTC()
	amzDate := now.Format(Iso8601BasicFormat)
	dateStamp := now.Format(Iso8601DateFormat)
	scope := strings.Join([]string{dateStamp, Region, Service, "aws4_request"}, "/")

	params := make(map[string]string, len(extraParams)+5)
	for k, v := range extraParams {
		params[k] = v
	}
	params["X-Amz-Algorithm"] = AuthHeaderV4
	params["X-Amz-Credential"] = s.creds.AccessKeyID + "/" + scope
	params["X-Amz-Date"] = amzDate
	params["X-Amz-Expires"] = strconv.Itoa(expiry)
	params["X-Amz-SignedHeaders"] = "host"

	host := s.creds.Host()
	path := "/" + EncodeObjectPath(key)
	canonicalQuery := CanonicalQueryString(params)

	// Canonical request: method, URI, query, canonical headers (host only),
	// signed header list, payload hash sentinel.
	canonicalRequest := strings.Join([]string{
		method,
		path,
		canonicalQuery,
		"host:" + host,
		"",
		"host",
		UnsignedPayload,
	}, "\n")

	stringToSign := strings.Join([]string{
		AuthHeaderV4,
		amzDate,
		scope,
		hashHex(canonicalRequest),
	}, "\n")

	signingKey := deriveSigningKey(s.creds.SecretAccessKey, dateStamp, Region, Service)
	signature := hex.EncodeToString(hmacSHA256(signingKey, []byte(stringToSign)))

	return fmt.Sprintf("https://%s%s?%s&X-Amz-Signature=%s", host, path, canonicalQuery, signature), nil
}

// hashHex returns the hex SHA256 digest of s.
func hashHex(s string) string {
	h := utils.Sha256PoolGetHasher()
	h.Write([]byte(s))
	sum := hex.EncodeToString(h.Sum(nil))
	utils.Sha256PoolPutHasher(h)
	return sum
}
