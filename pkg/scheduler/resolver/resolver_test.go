package resolver

import (
	"context"
	"testing"

	"github.com/paiban/storeroster/pkg/model"
	"github.com/paiban/storeroster/pkg/scheduler/solver"
	"github.com/paiban/storeroster/pkg/validator"
)

// stubSolver replays a fixed sequence of results, one per call, regardless
// of the Input it receives. Tests that care about what Fixed looked like
// capture it themselves via capture.
type stubSolver struct {
	results []*solver.Result
	calls   int
	capture []solver.Input
}

func (s *stubSolver) Solve(ctx context.Context, input solver.Input) (*solver.Result, error) {
	s.capture = append(s.capture, input)
	if s.calls >= len(s.results) {
		return s.results[len(s.results)-1], nil
	}
	r := s.results[s.calls]
	s.calls++
	return r, nil
}

func (s *stubSolver) Name() string { return "stub" }

func testHorizon(dates []string) []model.Day {
	horizon := make([]model.Day, len(dates))
	for i, d := range dates {
		horizon[i] = model.Day{
			Date: d,
			DemandProfile: map[model.Interval]int{
				model.Opening:    0,
				model.LunchPeak:  0,
				model.DinnerPeak: 0,
				model.Closing:    0,
			},
		}
	}
	return horizon
}

func baseInput(horizon []model.Day, employees []model.Employee) solver.Input {
	return solver.Input{
		Horizon:   horizon,
		Employees: employees,
		Codes:     model.DefaultShiftCodes(),
	}
}

func TestRepair_ReducesConflictsAndStops(t *testing.T) {
	dates := []string{"2026-08-03", "2026-08-04", "2026-08-05"}
	horizon := testHorizon(dates)
	emp := model.Employee{ID: "e1", Name: "e1", EmploymentType: model.FullTime, Availability: map[string]model.Availability{}}

	roster := model.NewRoster(horizon)
	for _, d := range dates {
		roster.Set(emp.ID, d, "1F")
	}

	conflicts := []model.Conflict{
		model.NewConflict(model.WeeklyHoursUnderflow, "below floor"),
	}
	conflicts[0].EmployeeID = emp.ID
	conflicts[0].Days = []string{dates[0]}

	fixedRoster := roster.Clone()
	fixedRoster.Set(emp.ID, dates[0], "2F")

	stub := &stubSolver{
		results: []*solver.Result{
			{Feasible: true, Roster: fixedRoster},
		},
	}

	v := validator.NewAgent(validator.DefaultConfig())
	agent := NewAgent(DefaultConfig(), stub, v)

	input := baseInput(horizon, []model.Employee{emp})
	outcome, err := agent.Repair(context.Background(), input, roster, conflicts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Roster != fixedRoster {
		t.Error("expected the resolver to adopt the solver's repaired roster")
	}
	if stub.calls != 1 {
		t.Errorf("expected exactly one solve call once conflicts clear, got %d", stub.calls)
	}
}

func TestRepair_RollsBackWhenNoImprovement(t *testing.T) {
	dates := []string{"2026-08-03", "2026-08-04"}
	horizon := testHorizon(dates)
	emp := model.Employee{ID: "e1", Name: "e1", EmploymentType: model.FullTime, Availability: map[string]model.Availability{}}

	roster := model.NewRoster(horizon)
	roster.Set(emp.ID, dates[0], "1F")
	roster.Set(emp.ID, dates[1], "1F")

	conflicts := []model.Conflict{
		model.NewConflict(model.WeeklyHoursUnderflow, "below floor"),
	}
	conflicts[0].EmployeeID = emp.ID
	conflicts[0].Days = []string{dates[0]}

	// The stub always returns the same unfixed roster: every re-solve is
	// feasible but validation keeps finding the identical conflict, so the
	// Resolver should give up on this conflict rather than loop on it.
	stub := &stubSolver{
		results: []*solver.Result{
			{Feasible: true, Roster: roster},
		},
	}

	v := validator.NewAgent(validator.DefaultConfig())
	agent := NewAgent(Config{MaxRounds: 3, WindowDays: 1}, stub, v)

	input := baseInput(horizon, []model.Employee{emp})
	outcome, err := agent.Repair(context.Background(), input, roster, conflicts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.FullyRepaired {
		t.Error("expected the resolver to give up rather than report full repair")
	}
	if outcome.RoundsUsed != 3 {
		t.Errorf("expected RoundsUsed to equal MaxRounds when repair exhausts its budget, got %d", outcome.RoundsUsed)
	}
}

func TestRepair_NoOpWhenNoConflicts(t *testing.T) {
	dates := []string{"2026-08-03"}
	horizon := testHorizon(dates)
	emp := model.Employee{ID: "e1", Name: "e1", EmploymentType: model.FullTime, Availability: map[string]model.Availability{}}
	roster := model.NewRoster(horizon)

	stub := &stubSolver{results: []*solver.Result{{Feasible: true, Roster: roster}}}
	v := validator.NewAgent(validator.DefaultConfig())
	agent := NewAgent(DefaultConfig(), stub, v)

	input := baseInput(horizon, []model.Employee{emp})
	outcome, err := agent.Repair(context.Background(), input, roster, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !outcome.FullyRepaired {
		t.Error("expected FullyRepaired when there were no conflicts to begin with")
	}
	if stub.calls != 0 {
		t.Errorf("expected no solve calls when there is nothing to repair, got %d", stub.calls)
	}
}

func TestFreezeExceptWindow_OpensOnlyNearConflict(t *testing.T) {
	dates := []string{"2026-08-01", "2026-08-02", "2026-08-03", "2026-08-04", "2026-08-05"}
	horizon := testHorizon(dates)
	roster := model.NewRoster(horizon)
	for _, d := range dates {
		roster.Set("e1", d, "1F")
	}

	fixed := freezeExceptWindow(roster, horizon, []string{dates[2]}, 1)

	for _, d := range []string{dates[0], dates[4]} {
		if _, ok := fixed["e1"][d]; !ok {
			t.Errorf("expected %s to stay frozen, outside the window", d)
		}
	}
	for _, d := range []string{dates[1], dates[2], dates[3]} {
		if _, ok := fixed["e1"][d]; ok {
			t.Errorf("expected %s to be left open inside the window", d)
		}
	}
}
