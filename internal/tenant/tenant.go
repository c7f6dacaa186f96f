// Package tenant provides multi-tenant scoping for the HTTP API: each
// registered tenant is one customer operating one or more stores against
// the roster engine.
package tenant

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrTenantNotFound = errors.New("tenant not found")
	ErrInvalidTenant  = errors.New("invalid tenant")
	ErrTenantDisabled = errors.New("tenant disabled")
)

// Tenant is one customer account.
type Tenant struct {
	ID        uuid.UUID      `json:"id"`
	Code      string         `json:"code"`
	Name      string         `json:"name"`
	Type      string         `json:"type"` // enterprise/individual
	Status    string         `json:"status"` // active/suspended/expired
	Settings  TenantSettings `json:"settings"`
	CreatedAt time.Time      `json:"created_at"`
	ExpiredAt *time.Time     `json:"expired_at,omitempty"`
}

// TenantSettings bounds what a tenant's API key may do.
type TenantSettings struct {
	MaxEmployees     int      `json:"max_employees"`
	MaxStores        int      `json:"max_stores"`
	AllowedStoreTypes []string `json:"allowed_store_types"` // retail, fast_food, ...
	Features         []string `json:"features"`             // roster_generate, roster_validate, ...
	APIRateLimit     int      `json:"api_rate_limit"`
	DataRetention    int      `json:"data_retention_days"`
}

// IsActive reports whether the tenant may currently make requests.
func (t *Tenant) IsActive() bool {
	if t.Status != "active" {
		return false
	}
	if t.ExpiredAt != nil && t.ExpiredAt.Before(time.Now()) {
		return false
	}
	return true
}

// HasFeature reports whether the tenant's plan includes feature.
func (t *Tenant) HasFeature(feature string) bool {
	for _, f := range t.Settings.Features {
		if f == feature || f == "*" {
			return true
		}
	}
	return false
}

// HasStoreType reports whether the tenant is allowed to roster a store of
// the given type (e.g. "retail", "fast_food").
func (t *Tenant) HasStoreType(storeType string) bool {
	for _, s := range t.Settings.AllowedStoreTypes {
		if s == storeType || s == "*" {
			return true
		}
	}
	return false
}

// TenantManager keeps the in-memory tenant registry the auth middleware
// consults on every request.
type TenantManager struct {
	tenants map[string]*Tenant // code -> tenant
	mu      sync.RWMutex
}

func NewTenantManager() *TenantManager {
	return &TenantManager{
		tenants: make(map[string]*Tenant),
	}
}

// Register adds or replaces a tenant.
func (m *TenantManager) Register(tenant *Tenant) error {
	if tenant == nil || tenant.Code == "" {
		return ErrInvalidTenant
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.tenants[tenant.Code] = tenant
	return nil
}

// Get fetches an active tenant by code.
func (m *TenantManager) Get(code string) (*Tenant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tenant, exists := m.tenants[code]
	if !exists {
		return nil, ErrTenantNotFound
	}

	if !tenant.IsActive() {
		return nil, ErrTenantDisabled
	}

	return tenant, nil
}

// GetByID fetches an active tenant by ID.
func (m *TenantManager) GetByID(id uuid.UUID) (*Tenant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, tenant := range m.tenants {
		if tenant.ID == id {
			if !tenant.IsActive() {
				return nil, ErrTenantDisabled
			}
			return tenant, nil
		}
	}

	return nil, ErrTenantNotFound
}

// List returns every registered tenant.
func (m *TenantManager) List() []*Tenant {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Tenant, 0, len(m.tenants))
	for _, t := range m.tenants {
		result = append(result, t)
	}
	return result
}

// Remove deletes a tenant by code.
func (m *TenantManager) Remove(code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tenants, code)
}

type tenantContextKey struct{}

// WithTenant attaches tenant to ctx.
func WithTenant(ctx context.Context, tenant *Tenant) context.Context {
	return context.WithValue(ctx, tenantContextKey{}, tenant)
}

// FromContext retrieves the tenant attached by WithTenant, if any.
func FromContext(ctx context.Context) (*Tenant, bool) {
	tenant, ok := ctx.Value(tenantContextKey{}).(*Tenant)
	return tenant, ok
}

// DefaultTenantSettings is the plan given to a newly provisioned tenant.
func DefaultTenantSettings() TenantSettings {
	return TenantSettings{
		MaxEmployees:      100,
		MaxStores:         5,
		AllowedStoreTypes: []string{"retail", "fast_food"},
		Features:          []string{"roster_generate", "roster_validate"},
		APIRateLimit:      100,
		DataRetention:     365,
	}
}

// CreateDefaultTenant builds the tenant used for local development and
// single-tenant deployments where no provisioning step has run.
func CreateDefaultTenant() *Tenant {
	return &Tenant{
		ID:        uuid.New(),
		Code:      "default",
		Name:      "Default tenant",
		Type:      "enterprise",
		Status:    "active",
		Settings:  DefaultTenantSettings(),
		CreatedAt: time.Now(),
	}
}
