package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/mohamedkhairy/commodity-dashboard/internal/api"
	"github.com/mohamedkhairy/commodity-dashboard/internal/data"
	"github.com/mohamedkhairy/commodity-dashboard/internal/wsgateway"
	"github.com/mohamedkhairy/commodity-dashboard/pkg/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard HTTP API and WebSocket notifications",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if port, _ := cmd.Flags().GetInt("port"); port > 0 {
			cfg.API.Port = port
		}
		return serve()
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "HTTP port override")
}

func serve() error {
	logger.Info("Starting dashboard service",
		logger.Int("port", cfg.API.Port),
		logger.String("source", cfg.Data.Source),
		logger.String("cache", cfg.Data.Cache),
		logger.Int("rate_limit_rps", cfg.API.RateLimitRPS),
	)

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	// Warm the tables so the first request does not pay for the load
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	tables, err := a.service.Tables(ctx)
	cancel()
	initialFingerprint := ""
	if err != nil {
		logger.Warn("Initial table load failed, retrying on first request",
			logger.ErrorField(err),
		)
	} else {
		initialFingerprint = tables.Fingerprint
	}

	// WebSocket hub
	auth := wsgateway.NewAuthManager(cfg.API.JWTSecret)
	wsConfig := cfg.WSGateway
	if wsConfig.JWTSecret == "" {
		wsConfig.JWTSecret = cfg.API.JWTSecret
	}
	hub := wsgateway.NewHub(wsConfig, nil)
	if err := hub.Start(); err != nil {
		return fmt.Errorf("failed to start WebSocket hub: %w", err)
	}
	defer hub.Stop()

	// Change watcher
	watcher := data.NewWatcher(a.loader, cfg.Data.ReloadInterval, initialFingerprint)
	watcher.OnChange(a.service.OnSourceChanged)
	watcher.OnChange(hub.NotifyReload)
	if err := watcher.Start(); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer watcher.Stop()

	// Set up router
	router := mux.NewRouter()
	api.NewDashboardHandler(a.service).RegisterRoutes(router)
	router.Handle("/ws", hub)

	// Health check endpoints
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	router.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		tables, err := a.service.Tables(r.Context())
		if err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "not ready", "error": err.Error()})
			return
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":         "ready",
			"fingerprint":    tables.Fingerprint,
			"ws_connections": hub.ConnectionCount(),
		})
	})

	router.HandleFunc("/live", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "alive"})
	})

	// Metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

	// Apply middleware
	middlewares := api.ChainMiddleware(
		api.CORSMiddleware(cfg.API.AllowedOrigins),
		api.RequestIDMiddleware(),
		api.LoggingMiddleware(),
		api.ErrorHandlingMiddleware(),
		api.AuthMiddleware(auth),
		api.RateLimitMiddleware(cfg.API.RateLimitRPS),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.API.Port),
		Handler:           middlewares(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server",
			logger.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
	case err := <-serverErr:
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	logger.Info("Shutting down dashboard service")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.API.ShutdownTimeout)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error shutting down HTTP server",
			logger.ErrorField(err),
		)
	}

	logger.Info("Dashboard service stopped")
	return nil
}
