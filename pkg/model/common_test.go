package model

import "testing"

func TestNewBaseModel(t *testing.T) {
	base := NewBaseModel()

	if base.ID.String() == "" {
		t.Error("ID should not be empty")
	}
	if base.CreatedAt.IsZero() {
		t.Error("CreatedAt should not be zero")
	}
	if base.UpdatedAt.IsZero() {
		t.Error("UpdatedAt should not be zero")
	}
}
