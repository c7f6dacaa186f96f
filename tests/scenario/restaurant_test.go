// Package scenario runs whole-pipeline scenario tests against realistic
// store inputs.
package scenario

import (
	"context"
	"testing"

	"github.com/paiban/storeroster/pkg/model"
	"github.com/paiban/storeroster/pkg/orchestrator"
	"github.com/paiban/storeroster/pkg/scheduler/demand"
	"github.com/paiban/storeroster/pkg/scheduler/solver"
)

func weekEmployees() []model.Employee {
	week := []string{"2026-08-03", "2026-08-04", "2026-08-05", "2026-08-06", "2026-08-07", "2026-08-08", "2026-08-09"}
	allAvailable := func() map[string]model.Availability {
		m := make(map[string]model.Availability, len(week))
		for _, d := range week {
			m[d] = model.Available
		}
		return m
	}

	return []model.Employee{
		{ID: "emp-1", Name: "Alice", EmploymentType: model.FullTime, IsManager: true, PrimaryStation: "grill", Availability: allAvailable()},
		{ID: "emp-2", Name: "Bob", EmploymentType: model.FullTime, PrimaryStation: "counter", CrossTrainedStations: []string{"grill"}, Availability: allAvailable()},
		{ID: "emp-3", Name: "Carol", EmploymentType: model.PartTime, PrimaryStation: "counter", Availability: allAvailable()},
		{ID: "emp-4", Name: "Dave", EmploymentType: model.PartTime, PrimaryStation: "grill", Availability: allAvailable()},
	}
}

// TestRestaurantBasicSchedule runs a full week for a small fast-food crew
// and checks the pipeline produces a staffed, status-reported roster.
func TestRestaurantBasicSchedule(t *testing.T) {
	horizon, err := model.BuildHorizon("2026-08-03", 7)
	if err != nil {
		t.Fatalf("failed to build horizon: %v", err)
	}

	orch := orchestrator.New(orchestrator.DefaultConfig(), solver.NewMIPSolver())
	result, err := orch.Run(context.Background(), orchestrator.RunInput{
		StoreID:   "store-restaurant-1",
		Horizon:   horizon,
		Employees: weekEmployees(),
		Codes:     model.DefaultShiftCodes(),
		Demand:    demand.DefaultProfile(),
	})
	if err != nil {
		t.Fatalf("pipeline run failed: %v", err)
	}

	t.Logf("run status: %s", result.Status)
	if result.Status == orchestrator.StatusFailed {
		t.Fatalf("expected a staffed roster, got status=failed, conflicts=%v", result.Conflicts)
	}

	empHours := make(map[string]float64)
	for emp, days := range result.Roster.Assignment {
		byCode := make(map[string]model.ShiftCode)
		for _, c := range model.DefaultShiftCodes() {
			byCode[c.Code] = c
		}
		for _, code := range days {
			empHours[emp] += byCode[code].Hours
		}
	}

	for _, emp := range weekEmployees() {
		hours := empHours[emp.ID]
		t.Logf("employee %s worked %.1f hours", emp.Name, hours)
		_, max := emp.HoursWindow()
		if hours > float64(max) {
			t.Errorf("employee %s worked %.1f hours, exceeding the %d-hour weekly cap", emp.Name, hours, max)
		}
	}
}

// TestRestaurantPeakHoursCoverage checks the Demand Agent applies the peak
// uplift to lunch and dinner intervals ahead of the solve.
func TestRestaurantPeakHoursCoverage(t *testing.T) {
	horizon, err := model.BuildHorizon("2026-08-03", 1)
	if err != nil {
		t.Fatalf("failed to build horizon: %v", err)
	}

	profile := demand.DefaultProfile()
	agent := demand.NewAgent(profile)
	computed, err := agent.Compute(horizon)
	if err != nil {
		t.Fatalf("demand computation failed: %v", err)
	}

	lunch := computed[0].DemandProfile[model.LunchPeak]
	base := profile.BaseHeadcount[model.LunchPeak]
	if lunch <= base {
		t.Errorf("expected lunch peak headcount %d to exceed base %d once uplift applies", lunch, base)
	}
}

// TestRestaurantUnderstaffedStoreReportsConflicts feeds a single part-time
// employee against a full week and expects the pipeline to surface
// coverage conflicts rather than silently under-schedule.
func TestRestaurantUnderstaffedStoreReportsConflicts(t *testing.T) {
	horizon, err := model.BuildHorizon("2026-08-03", 7)
	if err != nil {
		t.Fatalf("failed to build horizon: %v", err)
	}

	week := []string{"2026-08-03", "2026-08-04", "2026-08-05", "2026-08-06", "2026-08-07", "2026-08-08", "2026-08-09"}
	avail := make(map[string]model.Availability, len(week))
	for _, d := range week {
		avail[d] = model.Available
	}

	employees := []model.Employee{
		{ID: "emp-solo", Name: "Solo", EmploymentType: model.PartTime, PrimaryStation: "counter", Availability: avail},
	}

	orch := orchestrator.New(orchestrator.DefaultConfig(), solver.NewMIPSolver())
	result, err := orch.Run(context.Background(), orchestrator.RunInput{
		StoreID:   "store-understaffed",
		Horizon:   horizon,
		Employees: employees,
		Codes:     model.DefaultShiftCodes(),
		Demand:    demand.DefaultProfile(),
	})
	if err != nil {
		t.Fatalf("pipeline run failed: %v", err)
	}

	if len(result.Conflicts) == 0 && len(result.Warnings) == 0 {
		t.Error("expected a single part-time employee against a full-demand store to raise conflicts")
	}
}
