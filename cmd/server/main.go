// Store roster engine service.
// Process entry point.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/paiban/storeroster/internal/config"
	"github.com/paiban/storeroster/internal/database"
	"github.com/paiban/storeroster/internal/handler"
	"github.com/paiban/storeroster/internal/metrics"
	"github.com/paiban/storeroster/internal/middleware"
	"github.com/paiban/storeroster/internal/security"
	"github.com/paiban/storeroster/internal/tenant"
	"github.com/paiban/storeroster/pkg/logger"
)

// Build information, injected via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	logger.Init(logger.Config{
		Level:  os.Getenv("APP_LOG_LEVEL"),
		Format: "console",
	})

	fmt.Printf("storeroster engine v%s\n", Version)
	fmt.Printf("Build: %s (%s)\n", BuildTime, GitCommit)
	fmt.Println()

	cfg, err := config.Load()
	if err != nil {
		logger.Error().Err(err).Msg("failed to load configuration")
		os.Exit(1)
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = fmt.Sprintf("%d", cfg.App.Port)
	}

	var dbReady func(context.Context) error
	if db, err := database.New(&cfg.Database); err != nil {
		logger.Warn().Err(err).Msg("database unavailable, continuing without store-profile persistence")
	} else {
		defer db.Close()
		dbReady = db.Ready
	}

	rosterHandler := handler.NewRosterHandler()

	tenantManager := tenant.NewTenantManager()
	defaultTenant := tenant.CreateDefaultTenant()
	if err := tenantManager.Register(defaultTenant); err != nil {
		logger.Error().Err(err).Msg("failed to register default tenant")
		os.Exit(1)
	}

	keyManager := security.NewAPIKeyManager()
	devKey, err := keyManager.GenerateKey(defaultTenant.Code, "local-dev", []string{"*"}, nil)
	if err != nil {
		logger.Error().Err(err).Msg("failed to generate API key")
		os.Exit(1)
	}
	logger.Info().Str("api_key", devKey.Key).Msg("default tenant API key (send as X-API-Key)")

	authConfig := &middleware.AuthConfig{
		APIKeyManager:   keyManager,
		TenantManager:   tenantManager,
		RateLimiter:     security.NewRateLimiter(defaultTenant.Settings.APIRateLimit, time.Minute),
		EnableRateLimit: true,
	}
	authed := middleware.AuthMiddleware(authConfig)

	mux := http.NewServeMux()

	// System endpoints.

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if dbReady != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := dbReady(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]interface{}{
					"status":   "degraded",
					"service":  "storeroster",
					"database": err.Error(),
				})
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"storeroster"}`))
	})

	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"version":"%s","build_time":"%s","git_commit":"%s"}`, Version, BuildTime, GitCommit)
	})

	// API v1.

	mux.HandleFunc("/api/v1/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{
			"message": "storeroster engine API v1",
			"endpoints": {
				"roster": {
					"generate": "POST /api/v1/roster/generate",
					"validate": "POST /api/v1/roster/validate"
				}
			}
		}`))
	})

	mux.Handle("/api/v1/roster/generate", authed(http.HandlerFunc(rosterHandler.Generate)))
	mux.Handle("/api/v1/roster/validate", authed(http.HandlerFunc(rosterHandler.Validate)))

	// Monitoring.

	mux.Handle("/metrics", metrics.Handler())

	// Middleware chain: recovery -> requestID -> rateLimit -> securityHeaders -> cors -> logging -> handler.
	chained := middleware.RecoveryMiddleware(
		requestIDMiddleware(
			rateLimitMiddleware(
				middleware.SecurityHeadersMiddleware(
					corsMiddleware(loggingMiddleware(mux))))))

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      chained,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info().
			Str("port", port).
			Str("version", Version).
			Str("url", fmt.Sprintf("http://localhost:%s", port)).
			Str("api_docs", fmt.Sprintf("http://localhost:%s/api/v1/", port)).
			Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("server failed to start")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		os.Exit(1)
	}

	logger.Info().Msg("server shut down")
}

// requestIDMiddleware attaches a request ID, generating one if the caller
// didn't send one.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		w.Header().Set("X-Request-ID", requestID)

		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type requestIDKey struct{}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID, _ := r.Context().Value(requestIDKey{}).(string)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start)

		logger.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rw.statusCode).
			Dur("duration", duration).
			Msg("request handled")

		metrics.RecordRequestMetrics(r.Method, r.URL.Path, rw.statusCode, duration)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code
// written so loggingMiddleware can report it.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// RateLimiter is a simple token-bucket limiter.
type RateLimiter struct {
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens added per second
	lastRefill time.Time
	mu         sync.Mutex
}

func NewRateLimiter(requestsPerSecond float64) *RateLimiter {
	return &RateLimiter{
		tokens:     requestsPerSecond,
		maxTokens:  requestsPerSecond * 2, // allow bursts
		refillRate: requestsPerSecond,
		lastRefill: time.Now(),
	}
}

func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(rl.lastRefill).Seconds()
	rl.tokens += elapsed * rl.refillRate
	if rl.tokens > rl.maxTokens {
		rl.tokens = rl.maxTokens
	}
	rl.lastRefill = now

	if rl.tokens >= 1 {
		rl.tokens--
		return true
	}
	return false
}

var globalRateLimiter = NewRateLimiter(100)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !globalRateLimiter.Allow() {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error":   true,
				"code":    "RATE_LIMITED",
				"message": "too many requests, please retry later",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
