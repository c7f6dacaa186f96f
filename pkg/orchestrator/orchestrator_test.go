package orchestrator

import (
	"context"
	"testing"

	"github.com/paiban/storeroster/pkg/model"
	"github.com/paiban/storeroster/pkg/scheduler/demand"
	"github.com/paiban/storeroster/pkg/scheduler/solver"
)

// stubSolver hands back a pre-built roster without touching the nextmv
// backend, so the orchestrator's wiring can be exercised without a solve.
type stubSolver struct {
	roster   *model.Roster
	feasible bool
}

func (s *stubSolver) Solve(ctx context.Context, input solver.Input) (*solver.Result, error) {
	return &solver.Result{
		Roster:     s.roster,
		Feasible:   s.feasible,
		Statistics: &solver.Statistics{Status: "optimal"},
	}, nil
}

func (s *stubSolver) Name() string { return "stub" }

func managerEmployee(id string) model.Employee {
	return model.Employee{
		ID:             id,
		Name:           id,
		EmploymentType: model.FullTime,
		IsManager:      true,
		Availability:   map[string]model.Availability{},
	}
}

func TestRun_FeasibleRosterRunsAllStages(t *testing.T) {
	horizon, err := model.BuildHorizon("2026-08-03", 2)
	if err != nil {
		t.Fatalf("unexpected error building horizon: %v", err)
	}
	emp := managerEmployee("e1")

	roster := model.NewRoster(horizon)
	for _, d := range horizon {
		roster.Set(emp.ID, d.Date, "M")
	}

	stub := &stubSolver{roster: roster, feasible: true}
	o := New(DefaultConfig(), stub)

	input := RunInput{
		StoreID:   "store-1",
		Horizon:   horizon,
		Employees: []model.Employee{emp},
		Codes:     model.DefaultShiftCodes(),
		Demand:    demand.DefaultProfile(),
	}

	result, err := o.Run(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.RunID == "" {
		t.Error("expected a non-empty run ID")
	}
	if len(result.Log) == 0 {
		t.Error("expected a populated workflow log")
	}
	for _, stage := range []string{stageDemand, stageMatcher, stageScheduler, stageValidator} {
		found := false
		for _, s := range result.Stages {
			if s.Name == stage && s.Status == model.Succeeded {
				found = true
			}
		}
		if !found {
			t.Errorf("expected stage %s to report succeeded", stage)
		}
	}
}

func TestRun_NoFeasibleSolutionReturnsError(t *testing.T) {
	horizon, err := model.BuildHorizon("2026-08-03", 1)
	if err != nil {
		t.Fatalf("unexpected error building horizon: %v", err)
	}
	emp := managerEmployee("e1")

	stub := &stubSolver{roster: nil, feasible: false}
	o := New(DefaultConfig(), stub)

	input := RunInput{
		Horizon:   horizon,
		Employees: []model.Employee{emp},
		Codes:     model.DefaultShiftCodes(),
		Demand:    demand.DefaultProfile(),
	}

	_, err = o.Run(context.Background(), input)
	if err == nil {
		t.Fatal("expected an error when the scheduler cannot find a feasible roster")
	}
}

func TestRun_InvalidDemandProfileFailsFast(t *testing.T) {
	horizon, err := model.BuildHorizon("2026-08-03", 1)
	if err != nil {
		t.Fatalf("unexpected error building horizon: %v", err)
	}
	emp := managerEmployee("e1")

	stub := &stubSolver{roster: model.NewRoster(horizon), feasible: true}
	o := New(DefaultConfig(), stub)

	input := RunInput{
		Horizon:   horizon,
		Employees: []model.Employee{emp},
		Codes:     model.DefaultShiftCodes(),
		Demand:    demand.Profile{BaseHeadcount: map[model.Interval]int{model.Opening: 1}},
	}

	_, err = o.Run(context.Background(), input)
	if err == nil {
		t.Fatal("expected an error when the demand profile is missing intervals")
	}
}
