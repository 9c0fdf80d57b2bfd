// Copyright 2025 ZapSign Authors
// SPDX-License-Identifier: Apache-2.0

// Package apierr defines the typed error taxonomy surfaced by the signing
// API and its mapping to HTTP status codes.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an API error.
type Kind int

const (
	// KindInternal is any unexpected failure. The zero-ish default: errors
	// that do not carry a Kind map here.
	KindInternal Kind = iota
	// KindValidation is a missing or malformed request field. Locally
	// detected, never retried.
	KindValidation
	// KindAuth is a missing or incorrect bearer token.
	KindAuth
	// KindMethod is a wrong HTTP verb at the boundary.
	KindMethod
	// KindRateLimited means the request budget is exhausted.
	KindRateLimited
	// KindUpstream is a non-success response from the object store. Not
	// retried here; the caller decides.
	KindUpstream
)

// HTTPStatus maps a kind to its boundary status code. Upstream failures are
// deliberately 400: they are caller-actionable, not server faults.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation, KindUpstream:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindMethod:
		return http.StatusMethodNotAllowed
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindMethod:
		return "method"
	case KindRateLimited:
		return "rate_limited"
	case KindUpstream:
		return "upstream"
	default:
		return "internal"
	}
}

// Error is a classified API error.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error with a fixed message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates a classified error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies an underlying error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the kind of err, defaulting to KindInternal for
// unclassified errors.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindInternal
}
