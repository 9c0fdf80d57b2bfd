// Copyright 2025 ZapSign Authors
// SPDX-License-Identifier: Apache-2.0

package signer

import (
	"sort"
	"strings"
)

const (
	// Iso8601BasicFormat is the X-Amz-Date timestamp layout.
	Iso8601BasicFormat = "20060102T150405Z"
	// Iso8601DateFormat is the date-only credential scope layout.
	Iso8601DateFormat = "20060102"
)

const upperhex = "0123456789ABCDEF"

// percentEncode applies RFC3986-strict percent encoding as required by the
// SigV4 canonicalization rules: unreserved characters (A-Z a-z 0-9 - _ . ~)
// pass through, everything else is encoded byte-wise as %XX with uppercase
// hex. Unlike net/url, the sub-delims ! ' ( ) * are encoded too.
func percentEncode(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&0xf])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	return 'A' <= c && c <= 'Z' ||
		'a' <= c && c <= 'z' ||
		'0' <= c && c <= '9' ||
		c == '-' || c == '_' || c == '.' || c == '~'
}

// EncodeObjectPath encodes an object key for the canonical URI.
// Each path segment is percent-encoded separately so that slashes remain
// literal path separators, matching how AWS SDKs encode paths for
// signature calculation. The result carries no leading slash.
func EncodeObjectPath(key string) string {
	segments := strings.Split(key, "/")
	encoded := make([]string, len(segments))
	for i, segment := range segments {
		encoded[i] = percentEncode(segment)
	}
	return strings.Join(encoded, "/")
}

// CanonicalQueryString builds the sorted canonical query string: parameter
// names byte-ordered, names and values percent-encoded, joined as
// name=value pairs with &. Output is deterministic regardless of map
// iteration order.
func CanonicalQueryString(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, percentEncode(k)+"="+percentEncode(params[k]))
	}
	return strings.Join(parts, "&")
}
