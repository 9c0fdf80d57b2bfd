// Copyright 2025 ZapSign Authors
// SPDX-License-Identifier: Apache-2.0

// Package multipart drives the object store's multipart-upload protocol
// over URLs presigned by this service. The service itself holds no upload
// state: every call is reconstructed from the (objectKey, uploadId) pair
// the caller threads through.
package multipart

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/LeeDigitalWorks/zapsign/pkg/logger"
	"github.com/LeeDigitalWorks/zapsign/pkg/signer"
)

// ErrNoValidParts is returned by Complete when part normalization leaves
// nothing to stitch together.
var ErrNoValidParts = errors.New("no valid parts to complete upload")

// StoreError is a non-success response from the object store. It is not
// retried here; the caller decides whether the operation is worth retrying.
type StoreError struct {
	Op         string
	StatusCode int
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s failed with status %d", e.Op, e.StatusCode)
}

// Config holds tuning for the outbound HTTP client.
type Config struct {
	// Timeout bounds each store call end to end. No internal retries.
	Timeout time.Duration

	// MaxIdleConns sizes the shared connection pool.
	MaxIdleConns int

	// Endpoint, when set, overrides the scheme and host of outbound calls.
	// Used for local stores and tests; the signed query is preserved.
	Endpoint string
}

// Client performs the three store-touching multipart operations. Safe for
// concurrent use; all state lives in the store.
type Client struct {
	signer     *signer.Signer
	httpClient *http.Client
	endpoint   string
}

// NewClient creates a Client over a shared tuned transport.
func NewClient(s *signer.Signer, cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 100
	}

	return &Client{
		signer:   s,
		endpoint: cfg.Endpoint,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        cfg.MaxIdleConns,
				MaxIdleConnsPerHost: cfg.MaxIdleConns / 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// CloseIdleConnections drops pooled store connections.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}

// Init starts a multipart upload and returns the store-issued upload id.
func (c *Client) Init(ctx context.Context, objectKey string, expirySeconds int) (string, error) {
	signedURL, err := c.signer.Presign(http.MethodPost, objectKey, map[string]string{"uploads": ""}, expirySeconds)
	if err != nil {
		return "", err
	}

	body, err := c.do(ctx, http.MethodPost, "init", signedURL, nil, "")
	if err != nil {
		return "", err
	}

	var result InitiateMultipartUploadResult
	if err := xml.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("parse init response: %w", err)
	}
	if result.UploadID == "" {
		return "", errors.New("store init response missing UploadId")
	}

	logger.Ctx(ctx).Debug().
		Str("key", objectKey).
		Str("upload_id", result.UploadID).
		Msg("multipart upload initiated")

	return result.UploadID, nil
}

// Complete stitches the uploaded parts together and returns the final ETag.
// Invalid parts are dropped, not reported; at least one valid part is
// required. Not idempotent: a second complete after success fails at the
// store and that failure is surfaced, never swallowed.
func (c *Client) Complete(ctx context.Context, objectKey, uploadID string, parts []Part, expirySeconds int) (string, error) {
	valid := NormalizeParts(parts)
	if len(valid) == 0 {
		return "", ErrNoValidParts
	}

	manifest, err := xml.Marshal(CompleteMultipartUpload{Parts: valid})
	if err != nil {
		return "", fmt.Errorf("build completion manifest: %w", err)
	}

	signedURL, err := c.signer.Presign(http.MethodPost, objectKey, map[string]string{"uploadId": uploadID}, expirySeconds)
	if err != nil {
		return "", err
	}

	body, err := c.do(ctx, http.MethodPost, "complete", signedURL, manifest, "application/xml")
	if err != nil {
		return "", err
	}

	var result CompleteMultipartUploadResult
	if err := xml.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("parse complete response: %w", err)
	}

	logger.Ctx(ctx).Debug().
		Str("key", objectKey).
		Str("upload_id", uploadID).
		Int("parts", len(valid)).
		Msg("multipart upload completed")

	return strings.Trim(result.ETag, `"`), nil
}

// Abort cancels a multipart upload. A 404 from the store means the upload
// is already gone and counts as success, which makes Abort idempotent.
func (c *Client) Abort(ctx context.Context, objectKey, uploadID string, expirySeconds int) error {
	signedURL, err := c.signer.Presign(http.MethodDelete, objectKey, map[string]string{"uploadId": uploadID}, expirySeconds)
	if err != nil {
		return err
	}

	_, err = c.do(ctx, http.MethodDelete, "abort", signedURL, nil, "")
	var storeErr *StoreError
	if errors.As(err, &storeErr) && storeErr.StatusCode == http.StatusNotFound {
		logger.Ctx(ctx).Debug().
			Str("key", objectKey).
			Str("upload_id", uploadID).
			Msg("multipart upload already aborted")
		return nil
	}
	return err
}

// do issues a single pass-through call against the store and returns the
// response body on 2xx.
func (c *Client) do(ctx context.Context, method, op, signedURL string, body []byte, contentType string) ([]byte, error) {
	target, err := c.resolve(signedURL)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("store %s call: %w", op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read store %s response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Ctx(ctx).Warn().
			Str("op", op).
			Int("status", resp.StatusCode).
			Msg("store call failed")
		return nil, &StoreError{Op: op, StatusCode: resp.StatusCode}
	}

	return respBody, nil
}

// resolve applies the endpoint override, keeping the signed path and query.
func (c *Client) resolve(signedURL string) (string, error) {
	if c.endpoint == "" {
		return signedURL, nil
	}
	u, err := url.Parse(signedURL)
	if err != nil {
		return "", err
	}
	ep, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint override: %w", err)
	}
	u.Scheme = ep.Scheme
	u.Host = ep.Host
	return u.String(), nil
}
