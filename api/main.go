package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"weblog-hunter/api/internal/handlers"
	"weblog-hunter/api/internal/storage"
	"weblog-hunter/internal/alert"
	"weblog-hunter/internal/pipeline"
	"weblog-hunter/internal/utils"
)

func main() {
	var (
		configFile = flag.String("config", "", "Configuration file path (YAML or JSON)")
		input      = flag.String("input", "", "Path to the Apache access log to analyze")
		port       = flag.String("port", "5001", "API server port")
	)
	flag.Parse()

	if *input == "" {
		log.Fatal("-input is required")
	}

	// Load configuration
	config, err := utils.LoadHunterConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := utils.NewLogger(config.Logging.Level, config.Logging.Format)

	store := storage.NewStorage(logger)
	metrics := alert.NewMetrics()

	processor := pipeline.NewProcessorFromConfig(config, metrics, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := processor.Process(ctx, *input)
	if err != nil {
		logger.Fatalf("Failed to analyze %s: %v", *input, err)
	}
	store.SetRun(result)

	h := handlers.NewHandlers(store, metrics.Handler(), logger)

	router := handlers.NewRouter(h)
	router.Use(corsMiddleware)

	addr := fmt.Sprintf(":%s", *port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
	}

	logger.Infof("API server starting on port %s", *port)

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		logger.Info("Shutting down API server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("Server shutdown error: %v", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Errorf("Server failed: %v", err)
		os.Exit(1)
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		allowedOrigins := []string{
			"http://localhost:5000",
			"http://localhost:3000",
			"http://127.0.0.1:5000",
			"http://127.0.0.1:3000",
		}

		allowOrigin := "*"
		if origin != "" {
			for _, allowed := range allowedOrigins {
				if origin == allowed {
					allowOrigin = origin
					break
				}
			}
		}

		w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if allowOrigin != "*" {
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
