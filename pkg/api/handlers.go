// Copyright 2025 ZapSign Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/LeeDigitalWorks/zapsign/pkg/api/apierr"
	"github.com/LeeDigitalWorks/zapsign/pkg/logger"
	"github.com/LeeDigitalWorks/zapsign/pkg/multipart"
	"github.com/LeeDigitalWorks/zapsign/pkg/signer"

	"github.com/dustin/go-humanize"
)

// Default expiries per operation, in seconds.
const (
	defaultPutExpiry       = 900
	defaultGetExpiry       = 86400
	defaultMultipartExpiry = 3600
)

// PresignPutResponse is the reply to presign_put.
type PresignPutResponse struct {
	UploadURL string `json:"upload_url"`
	PublicURL string `json:"public_url,omitempty"`
	Expires   int    `json:"expires"`
}

// PresignGetResponse is the reply to presign_get.
type PresignGetResponse struct {
	DownloadURL string `json:"download_url"`
	Expires     int    `json:"expires"`
}

// MultipartInitResponse is the reply to multipart_init.
type MultipartInitResponse struct {
	UploadID string `json:"upload_id"`
	Key      string `json:"key"`
	PartSize int64  `json:"part_size"`
}

// MultipartSignPartResponse is the reply to multipart_sign_part.
type MultipartSignPartResponse struct {
	UploadURL  string `json:"upload_url"`
	PartNumber int    `json:"part_number"`
	Expires    int    `json:"expires"`
}

// MultipartCompleteResponse is the reply to multipart_complete.
type MultipartCompleteResponse struct {
	OK   bool   `json:"ok"`
	Key  string `json:"key"`
	ETag string `json:"etag,omitempty"`
}

// MultipartAbortResponse is the reply to multipart_abort.
type MultipartAbortResponse struct {
	OK bool `json:"ok"`
}

func orDefault(expires, fallback int) int {
	if expires == 0 {
		return fallback
	}
	return expires
}

func (s *Server) handlePresignPut(ctx context.Context, req PresignPutRequest) (any, error) {
	expiry := signer.ClampExpiry(orDefault(req.Expires, defaultPutExpiry))
	uploadURL, err := s.signer.Presign(http.MethodPut, req.ObjectKey, nil, expiry)
	if err != nil {
		return nil, err
	}

	resp := PresignPutResponse{UploadURL: uploadURL, Expires: expiry}
	if req.PublicBaseURL != "" {
		key := strings.TrimLeft(req.ObjectKey, "/")
		resp.PublicURL = strings.TrimRight(req.PublicBaseURL, "/") + "/" + signer.EncodeObjectPath(key)
	}
	return resp, nil
}

func (s *Server) handlePresignGet(ctx context.Context, req PresignGetRequest) (any, error) {
	expiry := signer.ClampExpiry(orDefault(req.Expires, defaultGetExpiry))
	downloadURL, err := s.signer.Presign(http.MethodGet, req.ObjectKey, nil, expiry)
	if err != nil {
		return nil, err
	}
	return PresignGetResponse{DownloadURL: downloadURL, Expires: expiry}, nil
}

func (s *Server) handleMultipartInit(ctx context.Context, req MultipartInitRequest) (any, error) {
	expiry := signer.ClampExpiry(orDefault(req.Expires, defaultMultipartExpiry))
	uploadID, err := s.store.Init(ctx, req.ObjectKey, expiry)
	if err != nil {
		return nil, err
	}

	requested := req.PartSize
	if requested <= 0 {
		requested = s.defaultPartSize
	}
	partSize := multipart.EffectivePartSize(requested)
	logger.Ctx(ctx).Debug().
		Str("key", req.ObjectKey).
		Str("part_size", humanize.IBytes(uint64(partSize))).
		Msg("resolved multipart part size")

	return MultipartInitResponse{
		UploadID: uploadID,
		Key:      strings.TrimLeft(req.ObjectKey, "/"),
		PartSize: partSize,
	}, nil
}

func (s *Server) handleMultipartSignPart(ctx context.Context, req MultipartSignPartRequest) (any, error) {
	if req.UploadID == "" {
		return nil, apierr.New(apierr.KindValidation, "upload_id is required")
	}
	if req.PartNumber <= 0 {
		return nil, apierr.New(apierr.KindValidation, "part_number must be a positive integer")
	}

	expiry := signer.ClampExpiry(orDefault(req.Expires, defaultMultipartExpiry))
	uploadURL, err := s.signer.Presign(http.MethodPut, req.ObjectKey, map[string]string{
		"partNumber": strconv.Itoa(req.PartNumber),
		"uploadId":   req.UploadID,
	}, expiry)
	if err != nil {
		return nil, err
	}

	return MultipartSignPartResponse{
		UploadURL:  uploadURL,
		PartNumber: req.PartNumber,
		Expires:    expiry,
	}, nil
}

func (s *Server) handleMultipartComplete(ctx context.Context, req MultipartCompleteRequest) (any, error) {
	if req.UploadID == "" {
		return nil, apierr.New(apierr.KindValidation, "upload_id is required")
	}

	parts := make([]multipart.Part, len(req.Parts))
	for i, p := range req.Parts {
		parts[i] = multipart.Part{PartNumber: p.PartNumber, ETag: p.ETag}
	}

	expiry := signer.ClampExpiry(orDefault(req.Expires, defaultMultipartExpiry))
	etag, err := s.store.Complete(ctx, req.ObjectKey, req.UploadID, parts, expiry)
	if err != nil {
		return nil, err
	}

	return MultipartCompleteResponse{
		OK:   true,
		Key:  strings.TrimLeft(req.ObjectKey, "/"),
		ETag: etag,
	}, nil
}

func (s *Server) handleMultipartAbort(ctx context.Context, req MultipartAbortRequest) (any, error) {
	if req.UploadID == "" {
		return nil, apierr.New(apierr.KindValidation, "upload_id is required")
	}

	expiry := signer.ClampExpiry(orDefault(req.Expires, defaultMultipartExpiry))
	if err := s.store.Abort(ctx, req.ObjectKey, req.UploadID, expiry); err != nil {
		return nil, err
	}
	return MultipartAbortResponse{OK: true}, nil
}
