package stats

import (
	"testing"

	"github.com/paiban/storeroster/pkg/model"
)

func fairnessHorizon(dates []string) []model.Day {
	horizon := make([]model.Day, len(dates))
	for i, d := range dates {
		horizon[i] = model.Day{Date: d}
	}
	return horizon
}

func TestFairnessAnalyzer_Analyze(t *testing.T) {
	analyzer := NewFairnessAnalyzer()
	codes := model.DefaultShiftCodes()

	horizon := fairnessHorizon([]string{"2026-08-03", "2026-08-04"})
	roster := model.NewRoster(horizon)
	roster.Set("emp1", "2026-08-03", "1F")
	roster.Set("emp1", "2026-08-04", "1F")
	roster.Set("emp2", "2026-08-03", "1F")
	roster.Set("emp2", "2026-08-04", "/")

	employees := []model.Employee{{ID: "emp1", Name: "emp1"}, {ID: "emp2", Name: "emp2"}}

	metrics := analyzer.Analyze(roster, employees, codes)
	if metrics == nil {
		t.Fatal("expected non-nil metrics")
	}
	if metrics.WorkloadGini < 0 || metrics.WorkloadGini > 1 {
		t.Errorf("gini coefficient out of range: %f", metrics.WorkloadGini)
	}
	if len(metrics.EmployeeStats) != 2 {
		t.Errorf("expected 2 employee stats, got %d", len(metrics.EmployeeStats))
	}
}

func TestFairnessAnalyzer_EmptyInput(t *testing.T) {
	analyzer := NewFairnessAnalyzer()
	metrics := analyzer.Analyze(nil, nil, nil)
	if metrics == nil {
		t.Fatal("expected non-nil metrics for empty input")
	}
	if metrics.OverallFairnessScore != 100 {
		t.Errorf("expected a perfect score with nothing to assess, got %f", metrics.OverallFairnessScore)
	}
}

func TestFairnessAnalyzer_PerfectFairness(t *testing.T) {
	analyzer := NewFairnessAnalyzer()
	codes := model.DefaultShiftCodes()

	horizon := fairnessHorizon([]string{"2026-08-03"})
	roster := model.NewRoster(horizon)
	roster.Set("emp1", "2026-08-03", "1F")
	roster.Set("emp2", "2026-08-03", "1F")

	employees := []model.Employee{{ID: "emp1", Name: "emp1"}, {ID: "emp2", Name: "emp2"}}

	metrics := analyzer.Analyze(roster, employees, codes)
	if metrics.WorkloadGini > 0.01 {
		t.Errorf("identical workloads should have gini near 0, got %f", metrics.WorkloadGini)
	}
}

func TestFairnessAnalyzer_OverallScore(t *testing.T) {
	analyzer := NewFairnessAnalyzer()
	codes := model.DefaultShiftCodes()

	horizon := fairnessHorizon([]string{"2026-08-03"})
	roster := model.NewRoster(horizon)
	roster.Set("emp1", "2026-08-03", "1F")

	employees := []model.Employee{{ID: "emp1", Name: "emp1"}}

	metrics := analyzer.Analyze(roster, employees, codes)
	if metrics.OverallFairnessScore < 0 || metrics.OverallFairnessScore > 100 {
		t.Errorf("score out of range: %f", metrics.OverallFairnessScore)
	}
}
