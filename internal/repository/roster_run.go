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

// RosterRunRepository archives completed pipeline runs for audit and
// later retrieval without re-solving.
type RosterRunRepository struct {
	db DB
}

func NewRosterRunRepository(db DB) *RosterRunRepository {
	return &RosterRunRepository{db: db}
}

// Create inserts a new archived run record.
func (r *RosterRunRepository) Create(ctx context.Context, run *model.RosterRun) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	now := time.Now()
	run.CreatedAt = now
	run.UpdatedAt = now

	rosterJSON, err := json.Marshal(run.Roster)
	if err != nil {
		return fmt.Errorf("failed to serialize roster: %w", err)
	}
	conflictsJSON, err := json.Marshal(run.Conflicts)
	if err != nil {
		return fmt.Errorf("failed to serialize conflicts: %w", err)
	}
	warningsJSON, err := json.Marshal(run.Warnings)
	if err != nil {
		return fmt.Errorf("failed to serialize warnings: %w", err)
	}

	query := `
		INSERT INTO roster_runs (
			id, run_id, store_id, start_date, days, status,
			roster, conflicts, warnings, duration_ms, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = r.db.ExecContext(ctx, query,
		run.ID, run.RunID, run.StoreID, run.StartDate, run.Days, run.Status,
		rosterJSON, conflictsJSON, warningsJSON, run.DurationMS, run.CreatedAt, run.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create roster run: %w", err)
	}

	return nil
}

// GetByRunID fetches the archived record for one Orchestrator run.
func (r *RosterRunRepository) GetByRunID(ctx context.Context, runID string) (*model.RosterRun, error) {
	query := `
		SELECT id, run_id, store_id, start_date, days, status,
			roster, conflicts, warnings, duration_ms, created_at, updated_at
		FROM roster_runs
		WHERE run_id = $1 AND deleted_at IS NULL
	`

	run := &model.RosterRun{}
	var rosterJSON, conflictsJSON, warningsJSON []byte

	err := r.db.QueryRowContext(ctx, query, runID).Scan(
		&run.ID, &run.RunID, &run.StoreID, &run.StartDate, &run.Days, &run.Status,
		&rosterJSON, &conflictsJSON, &warningsJSON, &run.DurationMS, &run.CreatedAt, &run.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query roster run: %w", err)
	}

	if len(rosterJSON) > 0 {
		if err := json.Unmarshal(rosterJSON, &run.Roster); err != nil {
			return nil, fmt.Errorf("failed to parse roster: %w", err)
		}
	}
	if len(conflictsJSON) > 0 {
		if err := json.Unmarshal(conflictsJSON, &run.Conflicts); err != nil {
			return nil, fmt.Errorf("failed to parse conflicts: %w", err)
		}
	}
	if len(warningsJSON) > 0 {
		if err := json.Unmarshal(warningsJSON, &run.Warnings); err != nil {
			return nil, fmt.Errorf("failed to parse warnings: %w", err)
		}
	}

	return run, nil
}

// GetLatestForStore returns the most recently archived run for storeID, or
// nil if none exists.
func (r *RosterRunRepository) GetLatestForStore(ctx context.Context, storeID string) (*model.RosterRun, error) {
	query := `
		SELECT run_id FROM roster_runs
		WHERE store_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT 1
	`
	var runID string
	err := r.db.QueryRowContext(ctx, query, storeID).Scan(&runID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest roster run: %w", err)
	}
	return r.GetByRunID(ctx, runID)
}

// Delete soft-deletes an archived run record.
func (r *RosterRunRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE roster_runs
		SET deleted_at = $2
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("failed to delete roster run: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("roster run not found")
	}

	return nil
}

// List returns archived runs matching filter, plus the total match count.
func (r *RosterRunRepository) List(ctx context.Context, filter ListFilter) ([]*model.RosterRun, int, error) {
	var conditions []string
	var args []interface{}
	argIndex := 1

	conditions = append(conditions, "deleted_at IS NULL")

	if filter.StoreID != "" {
		conditions = append(conditions, fmt.Sprintf("store_id = $%d", argIndex))
		args = append(args, filter.StoreID)
		argIndex++
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, filter.Status)
		argIndex++
	}
	if filter.StartDate != "" && filter.EndDate != "" {
		conditions = append(conditions, fmt.Sprintf("start_date BETWEEN $%d AND $%d", argIndex, argIndex+1))
		args = append(args, filter.StartDate, filter.EndDate)
		argIndex += 2
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM roster_runs WHERE %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count roster runs: %w", err)
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
		SELECT id, run_id, store_id, start_date, days, status,
			roster, conflicts, warnings, duration_ms, created_at, updated_at
		FROM roster_runs
		WHERE %s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, whereClause, orderBy, orderDir, argIndex, argIndex+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query roster runs: %w", err)
	}
	defer rows.Close()

	var runs []*model.RosterRun
	for rows.Next() {
		run := &model.RosterRun{}
		var rosterJSON, conflictsJSON, warningsJSON []byte

		if err := rows.Scan(
			&run.ID, &run.RunID, &run.StoreID, &run.StartDate, &run.Days, &run.Status,
			&rosterJSON, &conflictsJSON, &warningsJSON, &run.DurationMS, &run.CreatedAt, &run.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan row: %w", err)
		}

		json.Unmarshal(rosterJSON, &run.Roster)
		json.Unmarshal(conflictsJSON, &run.Conflicts)
		json.Unmarshal(warningsJSON, &run.Warnings)

		runs = append(runs, run)
	}

	return runs, total, nil
}
