// Copyright 2025 ZapSign Authors
// SPDX-License-Identifier: Apache-2.0

package multipart

import (
	"encoding/xml"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeParts(t *testing.T) {
	t.Run("filters and sorts", func(t *testing.T) {
		got := NormalizeParts([]Part{
			{PartNumber: 3, ETag: "c"},
			{PartNumber: 1, ETag: "a"},
			{PartNumber: 0, ETag: "x"},
			{PartNumber: 2, ETag: "b"},
		})
		want := []Part{
			{PartNumber: 1, ETag: "a"},
			{PartNumber: 2, ETag: "b"},
			{PartNumber: 3, ETag: "c"},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("NormalizeParts mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("strips quotes", func(t *testing.T) {
		got := NormalizeParts([]Part{{PartNumber: 1, ETag: `"abc123"`}})
		require.Len(t, got, 1)
		assert.Equal(t, "abc123", got[0].ETag)
	})

	t.Run("drops empty etags and negative numbers", func(t *testing.T) {
		got := NormalizeParts([]Part{
			{PartNumber: 1, ETag: ""},
			{PartNumber: -2, ETag: "ok"},
			{PartNumber: 4, ETag: `""`},
		})
		assert.Empty(t, got)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, NormalizeParts(nil))
	})
}

func TestEffectivePartSize(t *testing.T) {
	tests := []struct {
		requested int64
		want      int64
	}{
		{0, DefaultPartSize},
		{-1, DefaultPartSize},
		{1, MinPartSize},
		{MinPartSize, MinPartSize},
		{128 * 1024 * 1024, 128 * 1024 * 1024},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EffectivePartSize(tt.requested), "requested %d", tt.requested)
	}
}

func TestInitResultUnmarshal(t *testing.T) {
	// Store responses carry an xmlns attribute; unmarshalling must tolerate it.
	raw := `<?xml version="1.0" encoding="UTF-8"?>
<InitiateMultipartUploadResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">
  <Bucket>uploads</Bucket>
  <Key>videos/clip.mp4</Key>
  <UploadId>2~Cg8wfWRlbW8</UploadId>
</InitiateMultipartUploadResult>`

	var result InitiateMultipartUploadResult
	require.NoError(t, xml.Unmarshal([]byte(raw), &result))
	assert.Equal(t, "2~Cg8wfWRlbW8", result.UploadID)
	assert.Equal(t, "videos/clip.mp4", result.Key)
}

func TestCompletionManifestShape(t *testing.T) {
	manifest, err := xml.Marshal(CompleteMultipartUpload{Parts: []Part{
		{PartNumber: 1, ETag: "a"},
		{PartNumber: 2, ETag: "b"},
	}})
	require.NoError(t, err)

	want := "<CompleteMultipartUpload>" +
		"<Part><PartNumber>1</PartNumber><ETag>a</ETag></Part>" +
		"<Part><PartNumber>2</PartNumber><ETag>b</ETag></Part>" +
		"</CompleteMultipartUpload>"
	assert.Equal(t, want, string(manifest))
}
