// Copyright 2025 ZapSign Authors
// SPDX-License-Identifier: Apache-2.0

package multipart

import (
	"encoding/xml"
	"sort"
	"strings"
)

const (
	// MinPartSize is the smallest part the store accepts (last part excepted).
	MinPartSize = 5 * 1024 * 1024
	// DefaultPartSize is suggested to callers that do not request one.
	DefaultPartSize = 64 * 1024 * 1024
)

// InitiateMultipartUploadResult is the store's response to an init call.
type InitiateMultipartUploadResult struct {
	XMLName  xml.Name `xml:"InitiateMultipartUploadResult"`
	Bucket   string   `xml:"Bucket"`
	Key      string   `xml:"Key"`
	UploadID string   `xml:"UploadId"`
}

// CompleteMultipartUpload is the completion manifest posted to the store.
type CompleteMultipartUpload struct {
	XMLName xml.Name `xml:"CompleteMultipartUpload"`
	Parts   []Part   `xml:"Part"`
}

// Part describes one uploaded part in the completion manifest.
type Part struct {
	PartNumber int    `xml:"PartNumber"`
	ETag       string `xml:"ETag"`
}

// CompleteMultipartUploadResult is the store's response to a complete call.
type CompleteMultipartUploadResult struct {
	XMLName  xml.Name `xml:"CompleteMultipartUploadResult"`
	Location string   `xml:"Location"`
	Bucket   string   `xml:"Bucket"`
	Key      string   `xml:"Key"`
	ETag     string   `xml:"ETag"`
}

// NormalizeParts prepares a caller-supplied part list for the completion
// manifest: ETag quotes are stripped, entries with a non-positive part
// number or empty ETag are silently dropped, and the survivors are sorted
// ascending by part number.
func NormalizeParts(parts []Part) []Part {
	valid := make([]Part, 0, len(parts))
	for _, p := range parts {
		etag := strings.Trim(strings.TrimSpace(p.ETag), `"`)
		if p.PartNumber <= 0 || etag == "" {
			continue
		}
		valid = append(valid, Part{PartNumber: p.PartNumber, ETag: etag})
	}
	sort.Slice(valid, func(i, j int) bool {
		return valid[i].PartNumber < valid[j].PartNumber
	})
	return valid
}

// EffectivePartSize resolves the part size advertised to the caller:
// DefaultPartSize when unrequested, otherwise the request floored at
// MinPartSize.
func EffectivePartSize(requested int64) int64 {
	if requested <= 0 {
		return DefaultPartSize
	}
	if requested < MinPartSize {
		return MinPartSize
	}
	return requested
}
