// Package matcher builds, for each (employee, shift code) pair, a hard
// eligibility flag and a soft compatibility score consumed by the
// Scheduler's objective.
package matcher

import "github.com/paiban/storeroster/pkg/model"

// Result is the Matcher Agent's output: eligibility and score, keyed by
// employee ID then shift code.
type Result struct {
	Eligible map[string]map[string]bool
	Score    map[string]map[string]int
}

// IsEligible reports whether employee may ever be assigned code, ignoring
// day-specific availability (the Scheduler enforces the availability gate
// itself since it is a per-day fact, not a per-(employee,code) fact).
func (r Result) IsEligible(employeeID, code string) bool {
	if m, ok := r.Eligible[employeeID]; ok {
		return m[code]
	}
	return false
}

// ScoreOf returns the base compatibility score for (employee, code).
func (r Result) ScoreOf(employeeID, code string) int {
	if m, ok := r.Score[employeeID]; ok {
		return m[code]
	}
	return 0
}

const (
	scorePrimaryStation = 10
	scoreCrossTrained   = 5
	scoreManagerBonus   = 2
	scorePreferredDay   = 3
)

// Agent matches employees against shift codes.
type Agent struct{}

func NewAgent() *Agent { return &Agent{} }

// Match builds the eligibility and score tables for every (employee, code)
// pair.
func (a *Agent) Match(employees []model.Employee, codes []model.ShiftCode) Result {
	result := Result{
		Eligible: make(map[string]map[string]bool, len(employees)),
		Score:    make(map[string]map[string]int, len(employees)),
	}

	for _, emp := range employees {
		eligRow := make(map[string]bool, len(codes))
		scoreRow := make(map[string]int, len(codes))

		for _, code := range codes {
			eligRow[code.Code] = a.eligible(emp, code)
			scoreRow[code.Code] = a.baseScore(emp, code)
		}

		result.Eligible[emp.ID] = eligRow
		result.Score[emp.ID] = scoreRow
	}

	return result
}

func (a *Agent) eligible(emp model.Employee, code model.ShiftCode) bool {
	if code.IsOff() {
		return true
	}
	if code.RequiresManager && !emp.IsManager {
		return false
	}
	if code.Station != "" && !emp.CanWorkStation(code.Station) {
		return false
	}
	return true
}

// baseScore is day-independent: primary/cross-trained station match plus a
// manager-on-manager-shift bonus. The preferred-day component is applied
// separately by ScoreOnDay since it depends on the day being scheduled.
func (a *Agent) baseScore(emp model.Employee, code model.ShiftCode) int {
	if code.IsOff() {
		return 0
	}

	score := 0
	switch {
	case code.Station != "" && code.Station == emp.PrimaryStation:
		score = scorePrimaryStation
	case code.Station != "" && emp.CanWorkStation(code.Station):
		score = scoreCrossTrained
	}

	if code.RequiresManager && emp.IsManager {
		score += scoreManagerBonus
	}
	return score
}

// ScoreOnDay adds the Preferred-availability bonus to the base score for a
// specific day; used by the Scheduler when building the skill-mismatch
// objective term.
func (r Result) ScoreOnDay(emp model.Employee, code string, date string) int {
	score := r.ScoreOf(emp.ID, code)
	if emp.AvailabilityOn(date) == model.Preferred {
		score += scorePreferredDay
	}
	return score
}
