// Copyright 2025 ZapSign Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LeeDigitalWorks/zapsign/pkg/api"
	"github.com/LeeDigitalWorks/zapsign/pkg/debug"
	"github.com/LeeDigitalWorks/zapsign/pkg/logger"
	"github.com/LeeDigitalWorks/zapsign/pkg/multipart"
	"github.com/LeeDigitalWorks/zapsign/pkg/signer"
	"github.com/LeeDigitalWorks/zapsign/pkg/utils"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ServeOpts holds all configuration for the signing server.
type ServeOpts struct {
	// Network binding
	ListenAddr string // API address (host:port)
	DebugAddr  string // Debug/metrics HTTP address

	// Store account
	Credentials signer.Credentials

	// Inbound auth: shared bearer secret. Empty disables auth.
	AuthSecret string

	// Outbound store calls
	StoreTimeout  time.Duration
	StoreEndpoint string // override for local stores; normally empty

	// Optional request-rate cap (requests/second, 0 = unlimited)
	MaxRPS float64

	// Part size suggested to multipart_init callers that do not ask for one
	DefaultPartSize int64
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the signing server",
	Long: `Start the ZapSign server that answers JSON signing commands:
presign_put, presign_get, multipart_init, multipart_sign_part,
multipart_complete, multipart_abort.`,
	Run: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	f := serveCmd.Flags()

	// Network binding
	f.String("listen_addr", "0.0.0.0:8200", "Address to bind the signing API (host:port)")
	f.String("debug_addr", "0.0.0.0:8210", "Address to bind the debug/metrics server (host:port)")

	// Store account. Secrets are usually supplied via config file or env
	// (ACCOUNT_ID, ACCESS_KEY_ID, SECRET_ACCESS_KEY, BUCKET).
	f.String("account_id", "", "Object store account identifier. Required.")
	f.String("access_key_id", "", "Access key id used for signing. Required.")
	f.String("secret_access_key", "", "Secret access key used for signing. Required.")
	f.String("bucket", "", "Bucket all signed URLs target. Required.")
	f.String("store_domain", signer.DefaultStoreDomain, "Domain suffix of the object store")
	f.String("store_endpoint", "", "Override scheme+host for outbound store calls (local stores, tests)")

	// Inbound auth
	f.String("auth_secret", "", "Shared bearer secret for inbound requests. Empty disables auth.")

	// Tuning
	f.Duration("store_timeout", 30*time.Second, "Timeout for outbound store calls")
	f.Float64("max_rps", 0, "Maximum accepted requests per second (0 = unlimited)")
	f.String("default_part_size", "64MiB", "Part size suggested to multipart_init callers that do not request one (e.g. 32MiB, 128MB)")

	viper.BindPFlags(f)
}

func runServe(cmd *cobra.Command, args []string) {
	utils.LoadConfiguration("zapsign", false)
	opts := loadServeOpts(cmd)

	debug.SetNotReady()

	if err := opts.Credentials.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid store credentials")
	}

	sg := signer.New(opts.Credentials)
	store := multipart.NewClient(sg, multipart.Config{
		Timeout:  opts.StoreTimeout,
		Endpoint: opts.StoreEndpoint,
	})
	server := api.NewServer(sg, store, api.Config{
		AuthSecret:      opts.AuthSecret,
		MaxRPS:          opts.MaxRPS,
		DefaultPartSize: opts.DefaultPartSize,
	})

	if opts.AuthSecret == "" {
		logger.Warn().Msg("no auth_secret configured - the signing API is open to anyone who can reach it")
	}
	logger.Info().
		Str("bucket", opts.Credentials.Bucket).
		Str("host", opts.Credentials.Host()).
		Str("listen_addr", opts.ListenAddr).
		Str("default_part_size", humanize.IBytes(uint64(opts.DefaultPartSize))).
		Msg("Signing server configuration")

	mux := http.NewServeMux()
	mux.Handle("/", server)

	httpServer := startHTTPServer(mux, opts.ListenAddr)
	debugServer := startHTTPServer(debug.GetMux(), opts.DebugAddr)

	debug.SetReady()

	waitForShutdown()

	debug.SetNotReady()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	httpServer.Shutdown(shutdownCtx)
	debugServer.Shutdown(shutdownCtx)
	store.CloseIdleConnections()
}

func loadServeOpts(cmd *cobra.Command) ServeOpts {
	f := NewFlagLoader(cmd)

	return ServeOpts{
		ListenAddr: f.String("listen_addr"),
		DebugAddr:  f.String("debug_addr"),
		Credentials: signer.Credentials{
			AccountID:       f.String("account_id"),
			AccessKeyID:     f.String("access_key_id"),
			SecretAccessKey: f.String("secret_access_key"),
			Bucket:          f.String("bucket"),
			StoreDomain:     f.String("store_domain"),
		},
		AuthSecret:      f.String("auth_secret"),
		StoreTimeout:    f.Duration("store_timeout"),
		StoreEndpoint:   f.String("store_endpoint"),
		MaxRPS:          f.Float64("max_rps"),
		DefaultPartSize: parsePartSize(f.String("default_part_size")),
	}
}

// parsePartSize understands human-friendly sizes ("64MiB", "128MB", "67108864").
func parsePartSize(raw string) int64 {
	size, err := humanize.ParseBytes(raw)
	if err != nil {
		logger.Fatal().Err(err).Str("default_part_size", raw).Msg("invalid default_part_size")
	}
	return int64(size)
}

func startHTTPServer(handler http.Handler, addr string) *http.Server {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Fatal().Err(err).Str("addr", addr).Msg("failed to create HTTP listener")
	}

	httpServer := &http.Server{Handler: handler}
	go func() {
		logger.Info().Str("http_addr", addr).Msg("Starting HTTP server")
		if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("failed to start HTTP server")
		}
	}()
	return httpServer
}

func waitForShutdown() {
	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	<-stopChan
}
