package model

import (
	"time"

	"github.com/google/uuid"
)

// ConstraintCategory distinguishes hard (must-satisfy) from soft
// (best-effort) constraints in the CP model and validator.
type ConstraintCategory string

const (
	ConstraintHard ConstraintCategory = "hard"
	ConstraintSoft ConstraintCategory = "soft"
)

// BaseModel carries the identity/audit fields for persisted records (store
// profiles, archived rosters) — not used by the in-memory pipeline types.
type BaseModel struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"-" db:"deleted_at"`
}

// NewBaseModel returns a BaseModel stamped with a fresh ID and timestamps.
func NewBaseModel() BaseModel {
	now := time.Now()
	return BaseModel{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
}

// JSONMap backs the opaque demand_analysis / skill_matching maps in
// RosterResponse.
type JSONMap map[string]interface{}

// DateRange is an inclusive ISO date span.
type DateRange struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}
