// Copyright 2025 ZapSign Authors
// SPDX-License-Identifier: Apache-2.0

package signer

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentEncode(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"unreserved untouched", "AZaz09-_.~", "AZaz09-_.~"},
		{"space", "a b", "a%20b"},
		{"slash encoded", "a/b", "a%2Fb"},
		{"sub-delims encoded", "!'()*", "%21%27%28%29%2A"},
		{"plus and equals", "a+b=c", "a%2Bb%3Dc"},
		{"utf8 bytes", "é", "%C3%A9"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, percentEncode(tt.input))
		})
	}
}

func TestEncodeObjectPath(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want string
	}{
		{"plain", "file.txt", "file.txt"},
		{"nested", "a/b/c.txt", "a/b/c.txt"},
		{"space in segment", "a/b c.txt", "a/b%20c.txt"},
		{"reserved chars", "dir/na+me(1)*.txt", "dir/na%2Bme%281%29%2A.txt"},
		{"empty segment kept", "a//b", "a//b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EncodeObjectPath(tt.key))
		})
	}
}

// Encoded paths must survive a standard URL parser and decode back to the
// original segments.
func TestEncodeObjectPathRoundTrip(t *testing.T) {
	keys := []string{
		"a/b c.txt",
		"images/2024/snow storm.png",
		"weird/!'()*+=&?#.bin",
		"unicode/héllo wörld.txt",
	}
	for _, key := range keys {
		u, err := url.Parse("https://example.com/" + EncodeObjectPath(key))
		require.NoError(t, err)
		assert.Equal(t, "/"+key, u.Path, "key %q", key)
	}
}

func TestCanonicalQueryString(t *testing.T) {
	t.Run("byte sorted", func(t *testing.T) {
		got := CanonicalQueryString(map[string]string{
			"uploadId":        "abc",
			"X-Amz-Expires":   "900",
			"partNumber":      "2",
			"X-Amz-Algorithm": "AWS4-HMAC-SHA256",
		})
		// Uppercase sorts before lowercase in byte order.
		assert.Equal(t, "X-Amz-Algorithm=AWS4-HMAC-SHA256&X-Amz-Expires=900&partNumber=2&uploadId=abc", got)
	})

	t.Run("values encoded", func(t *testing.T) {
		got := CanonicalQueryString(map[string]string{
			"X-Amz-Credential": "AKID/20250101/auto/s3/aws4_request",
		})
		assert.Equal(t, "X-Amz-Credential=AKID%2F20250101%2Fauto%2Fs3%2Faws4_request", got)
	})

	t.Run("empty value keeps marker", func(t *testing.T) {
		got := CanonicalQueryString(map[string]string{"uploads": ""})
		assert.Equal(t, "uploads=", got)
	})

	t.Run("deterministic across iterations", func(t *testing.T) {
		params := map[string]string{
			"b": "2", "a": "1", "c": "3", "d": "4", "e": "5",
		}
		first := CanonicalQueryString(params)
		for range 50 {
			assert.Equal(t, first, CanonicalQueryString(params))
		}
		assert.True(t, strings.HasPrefix(first, "a=1&b=2"))
	})
}
