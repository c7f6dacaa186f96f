// Package repository provides the persistence layer.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/paiban/storeroster/pkg/model"
)

// StoreProfileRepository persists reusable store configurations: shift-code
// catalogues and base demand numbers, keyed by the caller-chosen store_id.
type StoreProfileRepository struct {
	db DB
}

func NewStoreProfileRepository(db DB) *StoreProfileRepository {
	return &StoreProfileRepository{db: db}
}

// Create inserts a new store profile.
func (r *StoreProfileRepository) Create(ctx context.Context, profile *model.StoreProfile) error {
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	now := time.Now()
	profile.CreatedAt = now
	profile.UpdatedAt = now

	codesJSON, err := json.Marshal(profile.Codes)
	if err != nil {
		return fmt.Errorf("failed to serialize codes: %w", err)
	}
	demandJSON, err := json.Marshal(profile.BaseHeadcount)
	if err != nil {
		return fmt.Errorf("failed to serialize base_headcount: %w", err)
	}

	query := `
		INSERT INTO store_profiles (
			id, store_id, name, timezone, codes, base_headcount,
			weekend_uplift_pct, peak_uplift_pct, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = r.db.ExecContext(ctx, query,
		profile.ID, profile.StoreID, profile.Name, profile.Timezone, codesJSON, demandJSON,
		profile.WeekendUpliftPct, profile.PeakUpliftPct, profile.CreatedAt, profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create store profile: %w", err)
	}

	return nil
}

// GetByID fetches a store profile by its internal record ID.
func (r *StoreProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.StoreProfile, error) {
	query := `
		SELECT id, store_id, name, timezone, codes, base_headcount,
			weekend_uplift_pct, peak_uplift_pct, created_at, updated_at
		FROM store_profiles
		WHERE id = $1 AND deleted_at IS NULL
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// GetByStoreID fetches a store profile by its caller-facing store_id.
func (r *StoreProfileRepository) GetByStoreID(ctx context.Context, storeID string) (*model.StoreProfile, error) {
	query := `
		SELECT id, store_id, name, timezone, codes, base_headcount,
			weekend_uplift_pct, peak_uplift_pct, created_at, updated_at
		FROM store_profiles
		WHERE store_id = $1 AND deleted_at IS NULL
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, storeID))
}

func (r *StoreProfileRepository) scanOne(row *sql.Row) (*model.StoreProfile, error) {
	profile := &model.StoreProfile{}
	var codesJSON, demandJSON []byte

	err := row.Scan(
		&profile.ID, &profile.StoreID, &profile.Name, &profile.Timezone, &codesJSON, &demandJSON,
		&profile.WeekendUpliftPct, &profile.PeakUpliftPct, &profile.CreatedAt, &profile.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query store profile: %w", err)
	}

	if len(codesJSON) > 0 {
		if err := json.Unmarshal(codesJSON, &profile.Codes); err != nil {
			return nil, fmt.Errorf("failed to parse codes: %w", err)
		}
	}
	if len(demandJSON) > 0 {
		if err := json.Unmarshal(demandJSON, &profile.BaseHeadcount); err != nil {
			return nil, fmt.Errorf("failed to parse base_headcount: %w", err)
		}
	}

	return profile, nil
}

// Update overwrites an existing store profile.
func (r *StoreProfileRepository) Update(ctx context.Context, profile *model.StoreProfile) error {
	profile.UpdatedAt = time.Now()

	codesJSON, err := json.Marshal(profile.Codes)
	if err != nil {
		return fmt.Errorf("failed to serialize codes: %w", err)
	}
	demandJSON, err := json.Marshal(profile.BaseHeadcount)
	if err != nil {
		return fmt.Errorf("failed to serialize base_headcount: %w", err)
	}

	query := `
		UPDATE store_profiles
		SET name = $2, timezone = $3, codes = $4, base_headcount = $5,
			weekend_uplift_pct = $6, peak_uplift_pct = $7, updated_at = $8
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		profile.ID, profile.Name, profile.Timezone, codesJSON, demandJSON,
		profile.WeekendUpliftPct, profile.PeakUpliftPct, profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update store profile: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("store profile not found")
	}

	return nil
}

// Delete soft-deletes a store profile.
func (r *StoreProfileRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE store_profiles
		SET deleted_at = $2
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("failed to delete store profile: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("store profile not found")
	}

	return nil
}

// List returns store profiles matching filter, plus the total match count.
func (r *StoreProfileRepository) List(ctx context.Context, filter ListFilter) ([]*model.StoreProfile, int, error) {
	var conditions []string
	var args []interface{}
	argIndex := 1

	conditions = append(conditions, "deleted_at IS NULL")

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR store_id ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+filter.Search+"%")
		argIndex++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM store_profiles WHERE %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count store profiles: %w", err)
	}

	orderBy := filter.OrderBy
	if orderBy == "" {
		orderBy = "created_at"
	}
	orderDir := filter.OrderDir
	if orderDir == "" {
		orderDir = "desc"
	}

	query := fmt.Sprintf(`
		SELECT id, store_id, name, timezone, codes, base_headcount,
			weekend_uplift_pct, peak_uplift_pct, created_at, updated_at
		FROM store_profiles
		WHERE %s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, whereClause, orderBy, orderDir, argIndex, argIndex+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query store profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*model.StoreProfile
	for rows.Next() {
		profile := &model.StoreProfile{}
		var codesJSON, demandJSON []byte

		if err := rows.Scan(
			&profile.ID, &profile.StoreID, &profile.Name, &profile.Timezone, &codesJSON, &demandJSON,
			&profile.WeekendUpliftPct, &profile.PeakUpliftPct, &profile.CreatedAt, &profile.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan row: %w", err)
		}

		json.Unmarshal(codesJSON, &profile.Codes)
		json.Unmarshal(demandJSON, &profile.BaseHeadcount)

		profiles = append(profiles, profile)
	}

	return profiles, total, nil
}
