package debug

import (
	"net/http"
	"net/http/pprof"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	readyStateNotReady = 0
	readyStateReady    = 1
)

var (
	readyState atomic.Int64

	// Global registry for custom metrics
	globalRegistry = prometheus.NewRegistry()
)

func SetReady() {
	readyState.Store(readyStateReady)
}

func SetNotReady() {
	readyState.Store(readyStateNotReady)
}

func IsReady() bool {
	return readyState.Load() == readyStateReady
}

// Registry returns the Prometheus registry for registering custom metrics.
// Metrics registered here will be exported on /metrics alongside default metrics.
func Registry() prometheus.Registerer {
	return globalRegistry
}

func GetMux() *http.ServeMux {
	mux := http.NewServeMux()

	// Combine default process/go metrics with our custom registry
	gatherers := prometheus.Gatherers{
		prometheus.DefaultGatherer,
		globalRegistry,
	}
	mux.Handle("/metrics", promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{}))
	mux.Handle("/debug/", http.HandlerFunc(pprof.Index))
	mux.Handle("/debug/allocs/", pprof.Handler("allocs"))
	mux.Handle("/debug/block/", pprof.Handler("block"))
	mux.Handle("/debug/cmdline", http.HandlerFunc(pprof.Cmdline))
	mux.Handle("/debug/goroutine/", pprof.Handler("goroutine"))
	mux.Handle("/debug/heap/", pprof.Handler("heap"))
	mux.Handle("/debug/mutex/", pprof.Handler("mutex"))
	mux.Handle("/debug/profile", http.HandlerFunc(pprof.Profile))
	mux.Handle("/debug/symbol", http.HandlerFunc(pprof.Symbol))
	mux.Handle("/debug/trace", http.HandlerFunc(pprof.Trace))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if IsReady() {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	})

	return mux
}
