// Package solver formulates and solves the constraint-programming model
// that assigns shift codes to employees over a horizon.
package solver

import (
	"context"
	"time"

	"github.com/paiban/storeroster/pkg/model"
	"github.com/paiban/storeroster/pkg/scheduler/matcher"
)

// Solver produces a Roster from an Input. Kept as an interface so the
// Resolver Agent can re-invoke a solve with additional fixings without
// depending on a concrete implementation.
type Solver interface {
	Solve(ctx context.Context, input Input) (*Result, error)
	Name() string
}

// Config carries the numeric knobs the hard constraints are built from.
type Config struct {
	MinRestMinutes     int
	MaxConsecutiveDays int
	MaxDailyHours      float64
	WeekendUpliftPct   float64
}

// DefaultConfig mirrors internal/config's SchedulerConfig defaults.
func DefaultConfig() Config {
	return Config{
		MinRestMinutes:     600,
		MaxConsecutiveDays: 6,
		MaxDailyHours:      10.0,
		WeekendUpliftPct:   0.20,
	}
}

// Input is everything the Scheduler needs for one solve: the horizon (with
// DemandProfile already populated by the Demand Agent), the employee and
// shift-code catalogues, the Matcher's eligibility/score tables, and
// optional fixings the Resolver uses to pin part of a previously accepted
// Roster while it repairs a local window.
type Input struct {
	Horizon   []model.Day
	Employees []model.Employee
	Codes     []model.ShiftCode
	Match     matcher.Result
	Config    Config
	TimeLimit time.Duration

	// Fixed[employeeID][date] = code pins that cell to the given code
	// instead of letting the solver choose it. Used by the Resolver to
	// freeze everything outside a repair window.
	Fixed map[string]map[string]string
}

// IsFixed reports whether (employeeID, date) is pinned, and to what code.
func (in Input) IsFixed(employeeID, date string) (string, bool) {
	if m, ok := in.Fixed[employeeID]; ok {
		if c, ok := m[date]; ok {
			return c, true
		}
	}
	return "", false
}

// Result is the decoded outcome of one solve.
type Result struct {
	Roster     *model.Roster
	Statistics *Statistics
	Feasible   bool
	Optimal    bool
}

// Statistics carries the solver's own account of the solve, reported
// upward into the workflow log and, eventually, the HTTP response.
type Statistics struct {
	Duration       time.Duration `json:"duration"`
	ObjectiveValue float64       `json:"objective_value"`
	VariableCount  int           `json:"variable_count"`
	ConstraintCount int          `json:"constraint_count"`
	Status         string        `json:"status"` // optimal/suboptimal/infeasible
}
