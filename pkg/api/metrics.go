// Copyright 2025 ZapSign Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"github.com/LeeDigitalWorks/zapsign/pkg/debug"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "zapsign",
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "Signing API requests by operation and status code.",
	}, []string{"op", "code"})

	requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "zapsign",
		Subsystem: "api",
		Name:      "request_duration_seconds",
		Help:      "Signing API request latency by operation.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op"})
)

func init() {
	debug.Registry().MustRegister(requestsTotal, requestDuration)
}
