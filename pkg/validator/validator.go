// Package validator runs the fixed battery of checks against a solved
// Roster and reports every violation as a model.Conflict, each carrying
// the severity its kind is fixed to.
package validator

import (
	"fmt"
	"sort"
	"time"

	"github.com/paiban/storeroster/pkg/model"
	"github.com/paiban/storeroster/pkg/scheduler/matcher"
)

// Config carries the numeric thresholds the checks are evaluated against.
// Defaults mirror the hard constraints the Scheduler itself enforces, so a
// Roster the solver calls feasible should, absent a Resolver-introduced
// patch, also pass validation.
type Config struct {
	MinRestMinutes     int
	MaxConsecutiveDays int
}

func DefaultConfig() Config {
	return Config{
		MinRestMinutes:     600,
		MaxConsecutiveDays: 6,
	}
}

// Agent is the Validator Agent: it never mutates a Roster, only reports.
type Agent struct {
	cfg Config
}

func NewAgent(cfg Config) *Agent {
	return &Agent{cfg: cfg}
}

// Validate runs all ten checks and returns every conflict found, in no
// particular order; callers sort by Severity when that matters.
func (a *Agent) Validate(roster *model.Roster, employees []model.Employee, codes []model.ShiftCode, match matcher.Result) []model.Conflict {
	byCode := make(map[string]model.ShiftCode, len(codes))
	for _, c := range codes {
		byCode[c.Code] = c
	}

	var conflicts []model.Conflict
	conflicts = append(conflicts, a.checkWeeklyHours(roster, employees, byCode)...)
	conflicts = append(conflicts, a.checkConsecutiveDays(roster, employees, byCode)...)
	conflicts = append(conflicts, a.checkRest(roster, employees, byCode)...)
	conflicts = append(conflicts, a.checkManagerCoverage(roster, employees, byCode)...)
	conflicts = append(conflicts, a.checkIntervalCoverage(roster, employees, byCode)...)
	conflicts = append(conflicts, a.checkSkillMatch(roster, employees, byCode, match)...)
	conflicts = append(conflicts, a.checkWeekendUplift(roster, employees, byCode)...)
	conflicts = append(conflicts, a.checkPreferences(roster, employees, byCode)...)
	return conflicts
}

// checkWeeklyHours raises WeeklyHoursOverflow/WeeklyHoursUnderflow for any
// employee whose Monday–Sunday weekly total falls outside their hours
// window.
func (a *Agent) checkWeeklyHours(roster *model.Roster, employees []model.Employee, byCode map[string]model.ShiftCode) []model.Conflict {
	weeks := groupIntoWeeks(roster.Horizon)
	var conflicts []model.Conflict

	for _, emp := range employees {
		minHours, maxHours := emp.HoursWindow()

		for _, week := range weeks {
			var total float64
			for _, day := range week {
				code := roster.Get(emp.ID, day.Date)
				total += byCode[code].Hours
			}

			switch {
			case total > float64(maxHours):
				c := model.NewConflict(model.WeeklyHoursOverflow,
					fmt.Sprintf("%s is scheduled %.1f hours in the week starting %s, above the %d-hour cap", emp.Name, total, week[0].Date, maxHours))
				c.EmployeeID = emp.ID
				c.Days = weekDates(week)
				conflicts = append(conflicts, c)
			case total < float64(minHours):
				c := model.NewConflict(model.WeeklyHoursUnderflow,
					fmt.Sprintf("%s is scheduled %.1f hours in the week starting %s, below the %d-hour floor", emp.Name, total, week[0].Date, minHours))
				c.EmployeeID = emp.ID
				c.Days = weekDates(week)
				conflicts = append(conflicts, c)
			}
		}
	}

	return conflicts
}

// checkConsecutiveDays raises ConsecutiveDaysExceed when an employee works
// more than MaxConsecutiveDays in a row anywhere in the horizon.
func (a *Agent) checkConsecutiveDays(roster *model.Roster, employees []model.Employee, byCode map[string]model.ShiftCode) []model.Conflict {
	var conflicts []model.Conflict

	for _, emp := range employees {
		run := 0
		runStart := ""
		longest := 0
		longestStart := ""

		for _, day := range roster.Horizon {
			code := roster.Get(emp.ID, day.Date)
			if byCode[code].IsOff() {
				run = 0
				continue
			}
			if run == 0 {
				runStart = day.Date
			}
			run++
			if run > longest {
				longest = run
				longestStart = runStart
			}
		}

		if longest > a.cfg.MaxConsecutiveDays {
			c := model.NewConflict(model.ConsecutiveDaysExceed,
				fmt.Sprintf("%s works %d consecutive days starting %s, above the %d-day cap", emp.Name, longest, longestStart, a.cfg.MaxConsecutiveDays))
			c.EmployeeID = emp.ID
			conflicts = append(conflicts, c)
		}
	}

	return conflicts
}

// checkRest raises InsufficientRest for any adjacent working-day pair whose
// rest gap falls short of MinRestMinutes.
func (a *Agent) checkRest(roster *model.Roster, employees []model.Employee, byCode map[string]model.ShiftCode) []model.Conflict {
	var conflicts []model.Conflict

	for _, emp := range employees {
		for i := 0; i+1 < len(roster.Horizon); i++ {
			today := roster.Horizon[i]
			tomorrow := roster.Horizon[i+1]

			code1 := byCode[roster.Get(emp.ID, today.Date)]
			code2 := byCode[roster.Get(emp.ID, tomorrow.Date)]
			if code1.IsOff() || code2.IsOff() {
				continue
			}

			gap := code1.RestGapMinutes(code2)
			if gap < a.cfg.MinRestMinutes {
				c := model.NewConflict(model.InsufficientRest,
					fmt.Sprintf("%s rests only %d minutes between %s and %s, below the %d-minute floor", emp.Name, gap, today.Date, tomorrow.Date, a.cfg.MinRestMinutes))
				c.EmployeeID = emp.ID
				c.Days = []string{today.Date, tomorrow.Date}
				conflicts = append(conflicts, c)
			}
		}
	}

	return conflicts
}

// checkManagerCoverage raises NoManagerOnDuty for any (day, interval) that
// no manager covers with the code they are assigned that day.
func (a *Agent) checkManagerCoverage(roster *model.Roster, employees []model.Employee, byCode map[string]model.ShiftCode) []model.Conflict {
	var conflicts []model.Conflict

	for _, day := range roster.Horizon {
		for _, interval := range model.AllIntervals {
			covered := false
			for _, emp := range employees {
				if !emp.IsManager {
					continue
				}
				code := byCode[roster.Get(emp.ID, day.Date)]
				if code.CoversInterval(interval) {
					covered = true
					break
				}
			}
			if !covered {
				c := model.NewConflict(model.NoManagerOnDuty,
					fmt.Sprintf("no manager on duty for %s on %s", interval, day.Date))
				c.Days = []string{day.Date}
				conflicts = append(conflicts, c)
			}
		}
	}

	return conflicts
}

// checkIntervalCoverage raises PeakUndercoverage or OpeningClosingUncov
// when assigned headcount for an interval falls short of its demand.
func (a *Agent) checkIntervalCoverage(roster *model.Roster, employees []model.Employee, byCode map[string]model.ShiftCode) []model.Conflict {
	var conflicts []model.Conflict

	for _, day := range roster.Horizon {
		for _, interval := range model.AllIntervals {
			required := day.DemandProfile[interval]
			assigned := 0
			for _, emp := range employees {
				code := byCode[roster.Get(emp.ID, day.Date)]
				if code.CoversInterval(interval) {
					assigned++
				}
			}
			if assigned >= required {
				continue
			}

			kind := model.PeakUndercoverage
			if interval == model.Opening || interval == model.Closing {
				kind = model.OpeningClosingUncov
			}
			c := model.NewConflict(kind,
				fmt.Sprintf("%s on %s needs %d but has %d assigned", interval, day.Date, required, assigned))
			c.Days = []string{day.Date}
			conflicts = append(conflicts, c)
		}
	}

	return conflicts
}

// checkSkillMatch raises StationSkillMismatch when an employee is assigned
// a code whose station they are not eligible for, per the Matcher.
func (a *Agent) checkSkillMatch(roster *model.Roster, employees []model.Employee, byCode map[string]model.ShiftCode, match matcher.Result) []model.Conflict {
	var conflicts []model.Conflict

	for _, emp := range employees {
		for _, day := range roster.Horizon {
			code := roster.Get(emp.ID, day.Date)
			sc := byCode[code]
			if sc.IsOff() {
				continue
			}
			if match.IsEligible(emp.ID, code) {
				continue
			}
			c := model.NewConflict(model.StationSkillMismatch,
				fmt.Sprintf("%s is assigned %s on %s but is not eligible for it", emp.Name, code, day.Date))
			c.EmployeeID = emp.ID
			c.Days = []string{day.Date}
			conflicts = append(conflicts, c)
		}
	}

	return conflicts
}

// checkWeekendUplift raises WeekendUpliftMissed when fewer employees work a
// weekend day than the sum of that day's interval demand (which already
// carries the Demand Agent's weekend uplift), i.e. the uplift was not
// reflected in staffing.
func (a *Agent) checkWeekendUplift(roster *model.Roster, employees []model.Employee, byCode map[string]model.ShiftCode) []model.Conflict {
	var conflicts []model.Conflict

	for _, day := range roster.Horizon {
		if !day.IsWeekend {
			continue
		}
		assigned := 0
		required := 0
		for _, interval := range model.AllIntervals {
			required += day.DemandProfile[interval]
		}
		seen := make(map[string]bool)
		for _, emp := range employees {
			code := byCode[roster.Get(emp.ID, day.Date)]
			if !code.IsOff() && !seen[emp.ID] {
				assigned++
				seen[emp.ID] = true
			}
		}
		if assigned < required {
			c := model.NewConflict(model.WeekendUpliftMissed,
				fmt.Sprintf("weekend day %s has %d staffed against an uplifted target near %d", day.Date, assigned, required))
			c.Days = []string{day.Date}
			conflicts = append(conflicts, c)
		}
	}

	return conflicts
}

// checkPreferences raises PreferenceIgnored when an employee marked
// Preferred for a day ends up Off in the final roster.
func (a *Agent) checkPreferences(roster *model.Roster, employees []model.Employee, byCode map[string]model.ShiftCode) []model.Conflict {
	var conflicts []model.Conflict

	for _, emp := range employees {
		for _, day := range roster.Horizon {
			if emp.AvailabilityOn(day.Date) != model.Preferred {
				continue
			}
			code := byCode[roster.Get(emp.ID, day.Date)]
			if code.IsOff() {
				c := model.NewConflict(model.PreferenceIgnored,
					fmt.Sprintf("%s preferred to work %s but is scheduled off", emp.Name, day.Date))
				c.EmployeeID = emp.ID
				c.Days = []string{day.Date}
				conflicts = append(conflicts, c)
			}
		}
	}

	return conflicts
}

// groupIntoWeeks partitions horizon into calendar Monday–Sunday weeks,
// mirroring the Scheduler's own week boundary so the two sides of the
// pipeline never disagree about what "this week" means.
func groupIntoWeeks(horizon []model.Day) [][]model.Day {
	byWeekStart := make(map[string][]model.Day)
	var order []string

	for _, day := range horizon {
		weekday := int(day.Weekday())
		offset := (weekday + 6) % 7
		weekStart := addDaysToDateString(day.Date, -offset)
		if _, ok := byWeekStart[weekStart]; !ok {
			order = append(order, weekStart)
		}
		byWeekStart[weekStart] = append(byWeekStart[weekStart], day)
	}

	sort.Strings(order)
	weeks := make([][]model.Day, 0, len(order))
	for _, ws := range order {
		weeks = append(weeks, byWeekStart[ws])
	}
	return weeks
}

func weekDates(week []model.Day) []string {
	dates := make([]string, len(week))
	for i, d := range week {
		dates[i] = d.Date
	}
	return dates
}

func addDaysToDateString(date string, delta int) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return t.AddDate(0, 0, delta).Format("2006-01-02")
}
