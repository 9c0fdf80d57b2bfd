// Copyright 2025 ZapSign Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"encoding/json"

	"github.com/LeeDigitalWorks/zapsign/pkg/api/apierr"
)

// Supported op literals of the command envelope.
const (
	OpPresignPut        = "presign_put"
	OpPresignGet        = "presign_get"
	OpMultipartInit     = "multipart_init"
	OpMultipartSignPart = "multipart_sign_part"
	OpMultipartComplete = "multipart_complete"
	OpMultipartAbort    = "multipart_abort"
)

// envelope carries only the op discriminator; the remaining fields are
// decoded into the matching typed request before dispatch.
type envelope struct {
	Op string `json:"op"`
}

// PresignPutRequest asks for a signed PUT URL.
type PresignPutRequest struct {
	ObjectKey     string `json:"object_key"`
	Expires       int    `json:"expires"`
	PublicBaseURL string `json:"public_base_url"`
}

// PresignGetRequest asks for a signed GET URL.
type PresignGetRequest struct {
	ObjectKey string `json:"object_key"`
	Expires   int    `json:"expires"`
}

// MultipartInitRequest starts a multipart upload.
type MultipartInitRequest struct {
	ObjectKey string `json:"object_key"`
	Expires   int    `json:"expires"`
	PartSize  int64  `json:"part_size"`
}

// MultipartSignPartRequest asks for a signed PUT URL for one part.
type MultipartSignPartRequest struct {
	ObjectKey  string `json:"object_key"`
	UploadID   string `json:"upload_id"`
	PartNumber int    `json:"part_number"`
	Expires    int    `json:"expires"`
}

// PartInput is one caller-reported uploaded part.
type PartInput struct {
	PartNumber int    `json:"part_number"`
	ETag       string `json:"etag"`
}

// MultipartCompleteRequest stitches the uploaded parts together.
type MultipartCompleteRequest struct {
	ObjectKey string      `json:"object_key"`
	UploadID  string      `json:"upload_id"`
	Parts     []PartInput `json:"parts"`
	Expires   int         `json:"expires"`
}

// MultipartAbortRequest cancels a multipart upload.
type MultipartAbortRequest struct {
	ObjectKey string `json:"object_key"`
	UploadID  string `json:"upload_id"`
	Expires   int    `json:"expires"`
}

// decodeInto unmarshals the envelope body into an op-specific request.
// Unknown fields are tolerated; browser callers tend to send extras this
// service ignores.
func decodeInto(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return apierr.Wrap(apierr.KindValidation, "malformed request body", err)
	}
	return nil
}
