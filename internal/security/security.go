// Package security provides API-key management, request signing, and
// rate limiting for the HTTP API.
package security

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"
)

var (
	ErrInvalidAPIKey     = errors.New("invalid API key")
	ErrExpiredAPIKey     = errors.New("API key expired")
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrInvalidSignature  = errors.New("invalid signature")
)

// APIKey is one issued credential.
type APIKey struct {
	Key       string     `json:"key"`
	Secret    string     `json:"-"`
	TenantID  string     `json:"tenant_id"`
	Name      string     `json:"name"`
	Scopes    []string   `json:"scopes"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Enabled   bool       `json:"enabled"`
}

// IsValid reports whether the key is enabled and unexpired.
func (k *APIKey) IsValid() bool {
	if !k.Enabled {
		return false
	}
	if k.ExpiresAt != nil && k.ExpiresAt.Before(time.Now()) {
		return false
	}
	return true
}

// HasScope reports whether the key carries scope.
func (k *APIKey) HasScope(scope string) bool {
	for _, s := range k.Scopes {
		if s == scope || s == "*" {
			return true
		}
	}
	return false
}

// APIKeyManager is an in-memory API key store.
type APIKeyManager struct {
	keys map[string]*APIKey // key -> APIKey
	mu   sync.RWMutex
}

func NewAPIKeyManager() *APIKeyManager {
	return &APIKeyManager{
		keys: make(map[string]*APIKey),
	}
}

// GenerateKey issues a new key for tenantID.
func (m *APIKeyManager) GenerateKey(tenantID, name string, scopes []string, expiresIn *time.Duration) (*APIKey, error) {
	key, err := generateRandomString(32)
	if err != nil {
		return nil, err
	}

	secret, err := generateRandomString(64)
	if err != nil {
		return nil, err
	}

	apiKey := &APIKey{
		Key:       "pk_" + key,
		Secret:    secret,
		TenantID:  tenantID,
		Name:      name,
		Scopes:    scopes,
		CreatedAt: time.Now(),
		Enabled:   true,
	}

	if expiresIn != nil {
		expiresAt := time.Now().Add(*expiresIn)
		apiKey.ExpiresAt = &expiresAt
	}

	m.mu.Lock()
	m.keys[apiKey.Key] = apiKey
	m.mu.Unlock()

	return apiKey, nil
}

// Validate looks up key and checks it is still usable.
func (m *APIKeyManager) Validate(key string) (*APIKey, error) {
	m.mu.RLock()
	apiKey, exists := m.keys[key]
	m.mu.RUnlock()

	if !exists {
		return nil, ErrInvalidAPIKey
	}

	if !apiKey.IsValid() {
		return nil, ErrExpiredAPIKey
	}

	return apiKey, nil
}

// Revoke disables a key without removing it.
func (m *APIKeyManager) Revoke(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if apiKey, exists := m.keys[key]; exists {
		apiKey.Enabled = false
	}
}

// Delete removes a key entirely.
func (m *APIKeyManager) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, key)
}

// RateLimiter is a per-key sliding-window request limiter.
type RateLimiter struct {
	requests map[string][]time.Time // key -> request timestamps
	limit    int
	window   time.Duration
	mu       sync.Mutex
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
	}

	go rl.cleanup()

	return rl
}

// AllowScoped reports whether tenantID may make another request against
// scope in the current window, where scope separates a tenant's cheap
// traffic (roster_validate, a fixed ten-check battery) from its expensive
// traffic (roster_generate, a MIP solve) so a burst of one never exhausts
// the budget the other needs.
func (rl *RateLimiter) AllowScoped(tenantID, scope string) bool {
	return rl.Allow(tenantID + ":" + scope)
}

// Allow reports whether key may make another request in the current window.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-rl.window)

	reqs := rl.requests[key]
	var validReqs []time.Time
	for _, t := range reqs {
		if t.After(windowStart) {
			validReqs = append(validReqs, t)
		}
	}

	if len(validReqs) >= rl.limit {
		return false
	}

	validReqs = append(validReqs, now)
	rl.requests[key] = validReqs

	return true
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		now := time.Now()
		windowStart := now.Add(-rl.window)

		for key, reqs := range rl.requests {
			var validReqs []time.Time
			for _, t := range reqs {
				if t.After(windowStart) {
					validReqs = append(validReqs, t)
				}
			}
			if len(validReqs) == 0 {
				delete(rl.requests, key)
			} else {
				rl.requests[key] = validReqs
			}
		}
		rl.mu.Unlock()
	}
}

// SignatureVerifier validates HMAC-signed webhook-style payloads.
type SignatureVerifier struct {
	secretKey string
}

func NewSignatureVerifier(secretKey string) *SignatureVerifier {
	return &SignatureVerifier{secretKey: secretKey}
}

// GenerateSignature computes the HMAC for payload at timestamp.
func (v *SignatureVerifier) GenerateSignature(payload string, timestamp int64) string {
	message := payload + ":" + string(rune(timestamp))
	h := hmac.New(sha256.New, []byte(v.secretKey))
	h.Write([]byte(message))
	return hex.EncodeToString(h.Sum(nil))
}

// Verify checks signature against payload and rejects stale timestamps.
func (v *SignatureVerifier) Verify(payload, signature string, timestamp int64, maxAge time.Duration) bool {
	requestTime := time.Unix(timestamp, 0)
	if time.Since(requestTime) > maxAge {
		return false
	}

	expectedSig := v.GenerateSignature(payload, timestamp)
	return hmac.Equal([]byte(signature), []byte(expectedSig))
}

// ExtractAPIKey pulls an API key from the Authorization header, the
// X-API-Key header, or the api_key query parameter, in that order.
func ExtractAPIKey(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}

	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}

	if key := r.URL.Query().Get("api_key"); key != "" {
		return key
	}

	return ""
}

func generateRandomString(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(bytes)[:length], nil
}

// HashPassword hashes password for storage.
func HashPassword(password string) string {
	h := sha256.New()
	h.Write([]byte(password))
	return hex.EncodeToString(h.Sum(nil))
}

// VerifyPassword checks password against a HashPassword digest.
func VerifyPassword(password, hash string) bool {
	return HashPassword(password) == hash
}

// SanitizeInput strips common SQL-injection control sequences from input.
func SanitizeInput(input string) string {
	input = strings.TrimSpace(input)
	dangerous := []string{"--", ";", "/*", "*/", "xp_", "@@"}
	for _, d := range dangerous {
		input = strings.ReplaceAll(input, d, "")
	}
	return input
}
