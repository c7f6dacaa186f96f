package tenant

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestTenant_IsActive(t *testing.T) {
	now := time.Now()
	future := now.Add(24 * time.Hour)
	past := now.Add(-24 * time.Hour)

	tests := []struct {
		name     string
		tenant   *Tenant
		expected bool
	}{
		{
			name:     "active tenant",
			tenant:   &Tenant{Status: "active"},
			expected: true,
		},
		{
			name:     "suspended tenant",
			tenant:   &Tenant{Status: "suspended"},
			expected: false,
		},
		{
			name:     "not yet expired",
			tenant:   &Tenant{Status: "active", ExpiredAt: &future},
			expected: true,
		},
		{
			name:     "expired",
			tenant:   &Tenant{Status: "active", ExpiredAt: &past},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := tt.tenant.IsActive(); result != tt.expected {
				t.Errorf("IsActive() = %v, expected %v", result, tt.expected)
			}
		})
	}
}

func TestTenant_HasFeature(t *testing.T) {
	tenant := &Tenant{
		Settings: TenantSettings{
			Features: []string{"roster_generate", "roster_validate"},
		},
	}

	if !tenant.HasFeature("roster_generate") {
		t.Error("expected roster_generate feature")
	}
	if !tenant.HasFeature("roster_validate") {
		t.Error("expected roster_validate feature")
	}
	if tenant.HasFeature("billing") {
		t.Error("did not expect billing feature")
	}

	tenant2 := &Tenant{
		Settings: TenantSettings{
			Features: []string{"*"},
		},
	}
	if !tenant2.HasFeature("anything") {
		t.Error("wildcard should match any feature")
	}
}

func TestTenant_HasStoreType(t *testing.T) {
	tenant := &Tenant{
		Settings: TenantSettings{
			AllowedStoreTypes: []string{"retail", "fast_food"},
		},
	}

	if !tenant.HasStoreType("retail") {
		t.Error("expected retail store type")
	}
	if tenant.HasStoreType("warehouse") {
		t.Error("did not expect warehouse store type")
	}
}

func TestTenantManager_RegisterAndGet(t *testing.T) {
	manager := NewTenantManager()

	tenant := &Tenant{
		ID:     uuid.New(),
		Code:   "test",
		Name:   "Test tenant",
		Status: "active",
	}

	err := manager.Register(tenant)
	if err != nil {
		t.Errorf("Register failed: %v", err)
	}

	got, err := manager.Get("test")
	if err != nil {
		t.Errorf("Get failed: %v", err)
	}
	if got.Code != "test" {
		t.Errorf("Got wrong tenant: %v", got)
	}

	_, err = manager.Get("nonexistent")
	if err != ErrTenantNotFound {
		t.Errorf("Expected ErrTenantNotFound, got: %v", err)
	}
}

func TestTenantManager_GetByID(t *testing.T) {
	manager := NewTenantManager()
	id := uuid.New()

	tenant := &Tenant{
		ID:     id,
		Code:   "test",
		Status: "active",
	}
	manager.Register(tenant)

	got, err := manager.GetByID(id)
	if err != nil {
		t.Errorf("GetByID failed: %v", err)
	}
	if got.ID != id {
		t.Errorf("Got wrong tenant")
	}
}

func TestTenantContext(t *testing.T) {
	tenant := &Tenant{Code: "test"}
	ctx := WithTenant(context.Background(), tenant)

	got, ok := FromContext(ctx)
	if !ok {
		t.Error("FromContext should return true")
	}
	if got.Code != "test" {
		t.Error("Got wrong tenant from context")
	}

	_, ok = FromContext(context.Background())
	if ok {
		t.Error("Empty context should return false")
	}
}

func TestDefaultTenantSettings(t *testing.T) {
	settings := DefaultTenantSettings()

	if settings.MaxEmployees != 100 {
		t.Errorf("Expected MaxEmployees=100, got %d", settings.MaxEmployees)
	}
	if len(settings.AllowedStoreTypes) != 2 {
		t.Errorf("Expected 2 store types, got %d", len(settings.AllowedStoreTypes))
	}
}

func TestCreateDefaultTenant(t *testing.T) {
	tenant := CreateDefaultTenant()

	if tenant.Code != "default" {
		t.Errorf("Expected code='default', got %s", tenant.Code)
	}
	if tenant.Status != "active" {
		t.Errorf("Expected status='active', got %s", tenant.Status)
	}
}

