// Package middleware provides HTTP middleware for authentication,
// logging, and crash recovery.
package middleware

import (
	"crypto/rand"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/paiban/storeroster/internal/security"
	"github.com/paiban/storeroster/internal/tenant"
)

// AuthConfig configures AuthMiddleware.
type AuthConfig struct {
	APIKeyManager   *security.APIKeyManager
	TenantManager   *tenant.TenantManager
	RateLimiter     *security.RateLimiter
	SkipPaths       []string // path prefixes exempt from auth
	EnableRateLimit bool
}

// AuthMiddleware requires a valid API key mapped to an active tenant.
func AuthMiddleware(config *AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, path := range config.SkipPaths {
				if strings.HasPrefix(r.URL.Path, path) {
					next.ServeHTTP(w, r)
					return
				}
			}

			apiKey := security.ExtractAPIKey(r)
			if apiKey == "" {
				http.Error(w, `{"error":"missing_api_key","message":"API key not provided"}`, http.StatusUnauthorized)
				return
			}

			key, err := config.APIKeyManager.Validate(apiKey)
			if err != nil {
				log.Printf("API key validation failed: %s..., err=%v", apiKey[:min(10, len(apiKey))], err)
				http.Error(w, `{"error":"invalid_api_key","message":"invalid API key"}`, http.StatusUnauthorized)
				return
			}

			t, err := config.TenantManager.Get(key.TenantID)
			if err != nil {
				http.Error(w, `{"error":"tenant_error","message":"tenant unavailable"}`, http.StatusForbidden)
				return
			}

			if config.EnableRateLimit && config.RateLimiter != nil {
				if !config.RateLimiter.AllowScoped(key.TenantID, rateLimitScope(r.URL.Path)) {
					http.Error(w, `{"error":"rate_limit","message":"request rate exceeded"}`, http.StatusTooManyRequests)
					return
				}
			}

			ctx := tenant.WithTenant(r.Context(), t)
			r = r.WithContext(ctx)

			w.Header().Set("X-Tenant-ID", t.ID.String())

			next.ServeHTTP(w, r)
		})
	}
}

// rateLimitScope buckets a request path into the rate-limit scope its
// tenant budget is tracked under: roster_generate solves are heavier than
// roster_validate checks and must not share one counter.
func rateLimitScope(path string) string {
	switch {
	case strings.Contains(path, "/roster/generate"):
		return "roster_generate"
	case strings.Contains(path, "/roster/validate"):
		return "roster_validate"
	default:
		return "other"
	}
}

// RequireScope rejects requests whose API key lacks scope. Requests with
// no API key at all are passed through, since anonymous access is gated
// separately by AuthMiddleware.
func RequireScope(scope string, keyManager *security.APIKeyManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey := security.ExtractAPIKey(r)
			if apiKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			key, err := keyManager.Validate(apiKey)
			if err != nil {
				http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
				return
			}

			if !key.HasScope(scope) {
				http.Error(w, `{"error":"forbidden","message":"insufficient scope"}`, http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// LoggingMiddleware logs one line per request, tagged with the tenant code
// when AuthMiddleware ran first.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantInfo := "anonymous"
		if t, ok := tenant.FromContext(r.Context()); ok {
			tenantInfo = t.Code
		}

		log.Printf("[%s] %s %s - tenant=%s", r.Method, r.URL.Path, r.RemoteAddr, tenantInfo)
		next.ServeHTTP(w, r)
	})
}

// SecurityHeadersMiddleware sets standard defensive response headers.
func SecurityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		w.Header().Set("Content-Security-Policy", "default-src 'self'")

		next.ServeHTTP(w, r)
	})
}

// RecoveryMiddleware turns a panic in a downstream handler into a 500
// instead of taking down the server.
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("panic recovered: %v", err)
				http.Error(w, `{"error":"internal_error","message":"internal server error"}`, http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// RequestIDMiddleware attaches a request ID, generating one if the caller
// didn't send one.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = generateRequestID()
		}
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r)
	})
}

func generateRequestID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return fmt.Sprintf("req_%x", b[:8])
}
