// Copyright 2025 ZapSign Authors
// SPDX-License-Identifier: Apache-2.0

// Package api implements the JSON command dispatcher: one POST endpoint
// accepting {"op": ..., ...} envelopes, routed to the six signing
// operations. Each request is handled independently; no state is shared
// between requests beyond read-only configuration.
package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/LeeDigitalWorks/zapsign/pkg/api/apierr"
	"github.com/LeeDigitalWorks/zapsign/pkg/logger"
	"github.com/LeeDigitalWorks/zapsign/pkg/multipart"
	"github.com/LeeDigitalWorks/zapsign/pkg/signer"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const maxBodyBytes = 1 << 20

// opUnknown is the op label recorded for requests rejected before or during
// routing.
const opUnknown = "unknown"

// Config holds dispatcher configuration.
type Config struct {
	// AuthSecret, when non-empty, is required as "Authorization: Bearer
	// <secret>" on every request. Leaving it empty disables auth entirely;
	// that is an explicit opt-in for trusted-network deployments.
	AuthSecret string

	// MaxRPS caps accepted requests per second. Zero disables limiting.
	MaxRPS float64

	// DefaultPartSize is suggested to multipart_init callers that do not
	// request a part size. Zero falls back to the store client default.
	DefaultPartSize int64
}

// Server dispatches signing commands. Safe for concurrent use.
type Server struct {
	signer          *signer.Signer
	store           *multipart.Client
	authSecret      string
	limiter         *rate.Limiter
	defaultPartSize int64
}

// NewServer creates the dispatcher over a signer and a store client.
func NewServer(sg *signer.Signer, store *multipart.Client, cfg Config) *Server {
	s := &Server{
		signer:          sg,
		store:           store,
		authSecret:      cfg.AuthSecret,
		defaultPartSize: cfg.DefaultPartSize,
	}
	if s.defaultPartSize <= 0 {
		s.defaultPartSize = multipart.DefaultPartSize
	}
	if cfg.MaxRPS > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.MaxRPS), int(cfg.MaxRPS)+1)
	}
	return s
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := uuid.NewString()
	w.Header().Set("X-Request-Id", requestID)

	reqLogger := logger.Ctx(r.Context()).With().Str("request_id", requestID).Logger()
	ctx := logger.WithLogger(r.Context(), &reqLogger)

	op, result, err := s.dispatch(ctx, w, r)

	code := http.StatusOK
	if err != nil {
		code = apierr.KindOf(err).HTTPStatus()
		writeJSON(w, code, errorResponse{Error: err.Error()})
	} else {
		writeJSON(w, code, result)
	}

	requestsTotal.WithLabelValues(metricOp(op), strconv.Itoa(code)).Inc()
	requestDuration.WithLabelValues(metricOp(op)).Observe(time.Since(start).Seconds())

	evt := reqLogger.Info()
	if err != nil {
		evt = reqLogger.Warn().Err(err)
	}
	evt.Str("op", op).
		Int("code", code).
		Dur("duration", time.Since(start)).
		Msg("request handled")
}

// metricOp folds anything outside the six known op literals into "unknown"
// so callers cannot mint unbounded metric children with bogus op strings.
func metricOp(op string) string {
	switch op {
	case OpPresignPut, OpPresignGet, OpMultipartInit,
		OpMultipartSignPart, OpMultipartComplete, OpMultipartAbort:
		return op
	}
	return opUnknown
}

// dispatch enforces the boundary checks, decodes the envelope, and routes
// to the matching handler. Returned errors are classified apierr values;
// anything unclassified surfaces as an internal failure.
func (s *Server) dispatch(ctx context.Context, w http.ResponseWriter, r *http.Request) (string, any, error) {
	if r.Method != http.MethodPost {
		return opUnknown, nil, apierr.Newf(apierr.KindMethod, "method %s not allowed", r.Method)
	}

	if err := s.checkAuth(r); err != nil {
		return opUnknown, nil, err
	}

	if s.limiter != nil && !s.limiter.Allow() {
		return opUnknown, nil, apierr.New(apierr.KindRateLimited, "request rate exceeded")
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return opUnknown, nil, apierr.Wrap(apierr.KindValidation, "unreadable request body", err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return opUnknown, nil, apierr.Wrap(apierr.KindValidation, "malformed command envelope", err)
	}

	result, err := s.route(ctx, env.Op, body)
	return env.Op, result, normalize(err)
}

func (s *Server) route(ctx context.Context, op string, body []byte) (any, error) {
	switch op {
	case OpPresignPut:
		var req PresignPutRequest
		if err := decodeInto(body, &req); err != nil {
			return nil, err
		}
		return s.handlePresignPut(ctx, req)
	case OpPresignGet:
		var req PresignGetRequest
		if err := decodeInto(body, &req); err != nil {
			return nil, err
		}
		return s.handlePresignGet(ctx, req)
	case OpMultipartInit:
		var req MultipartInitRequest
		if err := decodeInto(body, &req); err != nil {
			return nil, err
		}
		return s.handleMultipartInit(ctx, req)
	case OpMultipartSignPart:
		var req MultipartSignPartRequest
		if err := decodeInto(body, &req); err != nil {
			return nil, err
		}
		return s.handleMultipartSignPart(ctx, req)
	case OpMultipartComplete:
		var req MultipartCompleteRequest
		if err := decodeInto(body, &req); err != nil {
			return nil, err
		}
		return s.handleMultipartComplete(ctx, req)
	case OpMultipartAbort:
		var req MultipartAbortRequest
		if err := decodeInto(body, &req); err != nil {
			return nil, err
		}
		return s.handleMultipartAbort(ctx, req)
	default:
		return nil, apierr.Newf(apierr.KindValidation, "unknown op %q", op)
	}
}

// checkAuth compares the bearer token against the configured secret in
// constant time. No secret configured means no auth.
func (s *Server) checkAuth(r *http.Request) error {
	if s.authSecret == "" {
		return nil
	}

	authHeader := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok {
		return apierr.New(apierr.KindAuth, "missing bearer token")
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.authSecret)) != 1 {
		return apierr.New(apierr.KindAuth, "invalid bearer token")
	}
	return nil
}

// normalize folds lower-layer sentinel errors into the taxonomy.
func normalize(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *apierr.Error
	if errors.As(err, &apiErr) {
		return err
	}
	if errors.Is(err, signer.ErrEmptyObjectKey) {
		return apierr.Wrap(apierr.KindValidation, "object_key is required", err)
	}
	if errors.Is(err, multipart.ErrNoValidParts) {
		return apierr.Wrap(apierr.KindValidation, "at least one valid part is required", err)
	}
	var storeErr *multipart.StoreError
	if errors.As(err, &storeErr) {
		return apierr.Wrap(apierr.KindUpstream, "object store rejected the operation", err)
	}
	return apierr.Wrap(apierr.KindInternal, "internal failure", err)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error().Err(err).Msg("failed to encode response")
	}
}
