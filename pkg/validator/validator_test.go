package validator

import (
	"testing"

	"github.com/paiban/storeroster/pkg/model"
	"github.com/paiban/storeroster/pkg/scheduler/matcher"
)

func testHorizon(dates []string, weekend map[string]bool) []model.Day {
	horizon := make([]model.Day, len(dates))
	for i, d := range dates {
		horizon[i] = model.Day{
			Date:      d,
			IsWeekend: weekend[d],
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

func fullTimeEmployee(id string) model.Employee {
	return model.Employee{
		ID:             id,
		Name:           id,
		EmploymentType: model.FullTime,
		Availability:   map[string]model.Availability{},
	}
}

func TestValidate_WeeklyHoursOverflow(t *testing.T) {
	dates := []string{"2026-08-03", "2026-08-04", "2026-08-05", "2026-08-06", "2026-08-07", "2026-08-08", "2026-08-09"}
	horizon := testHorizon(dates, nil)
	roster := model.NewRoster(horizon)

	emp := fullTimeEmployee("e1")
	for _, d := range dates {
		roster.Set(emp.ID, d, "1F") // 8h/day * 7 days = 56h, above the 48h full-time cap
	}

	codes := model.DefaultShiftCodes()
	agent := NewAgent(DefaultConfig())
	conflicts := agent.Validate(roster, []model.Employee{emp}, codes, matcher.Result{})

	found := false
	for _, c := range conflicts {
		if c.Kind == model.WeeklyHoursOverflow {
			found = true
		}
	}
	if !found {
		t.Error("expected WeeklyHoursOverflow conflict")
	}
}

func TestValidate_InsufficientRest(t *testing.T) {
	dates := []string{"2026-08-03", "2026-08-04"}
	horizon := testHorizon(dates, nil)
	roster := model.NewRoster(horizon)

	emp := fullTimeEmployee("e1")
	// 3F ends at 23:00, 1F starts at 06:30 the next day: 7.5h rest, below 10h.
	roster.Set(emp.ID, dates[0], "3F")
	roster.Set(emp.ID, dates[1], "1F")

	codes := model.DefaultShiftCodes()
	agent := NewAgent(DefaultConfig())
	conflicts := agent.Validate(roster, []model.Employee{emp}, codes, matcher.Result{})

	found := false
	for _, c := range conflicts {
		if c.Kind == model.InsufficientRest {
			found = true
		}
	}
	if !found {
		t.Error("expected InsufficientRest conflict")
	}
}

func TestValidate_ConsecutiveDaysExceed(t *testing.T) {
	dates := []string{"2026-08-03", "2026-08-04", "2026-08-05", "2026-08-06", "2026-08-07", "2026-08-08", "2026-08-09"}
	horizon := testHorizon(dates, nil)
	roster := model.NewRoster(horizon)

	emp := fullTimeEmployee("e1")
	for _, d := range dates {
		roster.Set(emp.ID, d, "S")
	}

	codes := model.DefaultShiftCodes()
	agent := NewAgent(DefaultConfig())
	conflicts := agent.Validate(roster, []model.Employee{emp}, codes, matcher.Result{})

	found := false
	for _, c := range conflicts {
		if c.Kind == model.ConsecutiveDaysExceed {
			found = true
		}
	}
	if !found {
		t.Error("expected ConsecutiveDaysExceed conflict for 7 consecutive working days")
	}
}

func TestValidate_NoManagerOnDuty(t *testing.T) {
	dates := []string{"2026-08-03"}
	horizon := testHorizon(dates, nil)
	roster := model.NewRoster(horizon)

	emp := fullTimeEmployee("e1")
	roster.Set(emp.ID, dates[0], "1F") // e1 is not a manager

	codes := model.DefaultShiftCodes()
	agent := NewAgent(DefaultConfig())
	conflicts := agent.Validate(roster, []model.Employee{emp}, codes, matcher.Result{})

	found := false
	for _, c := range conflicts {
		if c.Kind == model.NoManagerOnDuty {
			found = true
		}
	}
	if !found {
		t.Error("expected NoManagerOnDuty conflict when no manager is scheduled")
	}
}

func TestValidate_PreferenceIgnored(t *testing.T) {
	dates := []string{"2026-08-03"}
	horizon := testHorizon(dates, nil)
	roster := model.NewRoster(horizon)

	emp := fullTimeEmployee("e1")
	emp.Availability[dates[0]] = model.Preferred
	roster.Set(emp.ID, dates[0], model.OffCode)

	codes := model.DefaultShiftCodes()
	agent := NewAgent(DefaultConfig())
	conflicts := agent.Validate(roster, []model.Employee{emp}, codes, matcher.Result{})

	found := false
	for _, c := range conflicts {
		if c.Kind == model.PreferenceIgnored {
			found = true
		}
	}
	if !found {
		t.Error("expected PreferenceIgnored conflict")
	}
}

func TestValidate_NoConflictsOnEmptyRoster(t *testing.T) {
	dates := []string{"2026-08-03", "2026-08-04"}
	horizon := testHorizon(dates, nil)
	roster := model.NewRoster(horizon)

	codes := model.DefaultShiftCodes()
	agent := NewAgent(DefaultConfig())
	conflicts := agent.Validate(roster, nil, codes, matcher.Result{})

	for _, c := range conflicts {
		if c.Kind == model.WeeklyHoursOverflow || c.Kind == model.InsufficientRest {
			t.Errorf("unexpected conflict on empty roster: %v", c.Kind)
		}
	}
}
