// Package resolver repairs a Roster that failed validation by re-solving a
// small window around each conflict while freezing everything else, one
// conflict at a time, in order of urgency.
package resolver

import (
	"context"
	"sort"

	"github.com/paiban/storeroster/pkg/model"
	"github.com/paiban/storeroster/pkg/scheduler/solver"
	"github.com/paiban/storeroster/pkg/validator"
)

// Config bounds how hard the Resolver tries before giving up and returning
// whatever it has repaired so far.
type Config struct {
	MaxRounds  int
	WindowDays int
}

func DefaultConfig() Config {
	return Config{MaxRounds: 3, WindowDays: 1}
}

// Agent is the Resolver Agent.
type Agent struct {
	cfg      Config
	solver   solver.Solver
	validate *validator.Agent
}

func NewAgent(cfg Config, s solver.Solver, v *validator.Agent) *Agent {
	return &Agent{cfg: cfg, solver: s, validate: v}
}

// Outcome is what the Resolver leaves behind: the best roster it could
// produce, the conflicts still outstanding against it, and how many repair
// rounds it actually used.
type Outcome struct {
	Roster        *model.Roster
	Conflicts     []model.Conflict
	RoundsUsed    int
	FullyRepaired bool
}

// Repair runs up to Config.MaxRounds repair rounds. Each round targets the
// single most urgent remaining conflict: it freezes every (employee, date)
// cell outside a window around the conflicting days and re-invokes the
// solver to fill in just that window. A round is accepted only if it does
// not make the roster's conflict count worse; otherwise the round is
// rolled back and the next most urgent conflict is tried instead.
func (a *Agent) Repair(ctx context.Context, input solver.Input, roster *model.Roster, conflicts []model.Conflict) (*Outcome, error) {
	current := roster
	currentConflicts := conflicts
	// pending holds the conflicts still worth a repair round. A conflict
	// whose repair fails or makes things worse leaves pending but stays in
	// currentConflicts, since the roster still has it.
	pending := conflicts
	roundsUsed := 0

	for round := 0; round < a.cfg.MaxRounds; round++ {
		if len(pending) == 0 {
			break
		}
		roundsUsed++

		target := mostUrgent(pending)
		if target == nil {
			break
		}

		windowInput := input
		windowInput.Fixed = freezeExceptWindow(current, input.Horizon, target.Days, a.cfg.WindowDays)

		result, err := a.solver.Solve(ctx, windowInput)
		if err != nil {
			return nil, err
		}
		if !result.Feasible {
			pending = dropConflict(pending, target)
			continue
		}

		candidateConflicts := a.validate.Validate(result.Roster, input.Employees, input.Codes, input.Match)

		if len(candidateConflicts) < len(currentConflicts) ||
			(len(candidateConflicts) == len(currentConflicts) && !worseSeverity(candidateConflicts, currentConflicts)) {
			current = result.Roster
			currentConflicts = candidateConflicts
			pending = candidateConflicts
		} else {
			pending = dropConflict(pending, target)
		}
	}

	return &Outcome{
		Roster:        current,
		Conflicts:     currentConflicts,
		RoundsUsed:    roundsUsed,
		FullyRepaired: len(currentConflicts) == 0,
	}, nil
}

// mostUrgent returns the conflict the Resolver should attack next: the one
// with the highest severity, breaking ties by the order conflicts were
// reported in.
func mostUrgent(conflicts []model.Conflict) *model.Conflict {
	if len(conflicts) == 0 {
		return nil
	}
	sorted := make([]model.Conflict, len(conflicts))
	copy(sorted, conflicts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Severity.MoreUrgentThan(sorted[j].Severity)
	})
	return &sorted[0]
}

// dropConflict removes one occurrence of target from conflicts, used when
// a repair attempt for it failed or made things worse — the Resolver does
// not retry the same conflict twice in one run.
func dropConflict(conflicts []model.Conflict, target *model.Conflict) []model.Conflict {
	out := make([]model.Conflict, 0, len(conflicts))
	removed := false
	for _, c := range conflicts {
		if !removed && conflictKey(c) == conflictKey(*target) {
			removed = true
			continue
		}
		out = append(out, c)
	}
	return out
}

// conflictKey identifies a conflict for equality purposes without relying
// on struct comparability (Conflict.Days is a slice).
func conflictKey(c model.Conflict) string {
	days := ""
	for _, d := range c.Days {
		days += d + ","
	}
	return string(c.Kind) + "|" + c.EmployeeID + "|" + c.Description + "|" + days
}

// worseSeverity reports whether candidate's conflicts are, in aggregate,
// more urgent than current's — used as a tie-break when the count of
// conflicts before and after a repair round is equal.
func worseSeverity(candidate, current []model.Conflict) bool {
	return severityScore(candidate) > severityScore(current)
}

func severityScore(conflicts []model.Conflict) int {
	score := 0
	for _, c := range conflicts {
		switch c.Severity {
		case model.Critical:
			score += 8
		case model.High:
			score += 4
		case model.Medium:
			score += 2
		case model.Low:
			score += 1
		}
	}
	return score
}

// freezeExceptWindow builds a Fixed map pinning every (employee, date) cell
// in the current roster to its existing code, except for dates within
// windowDays of any day named in conflictDays, which are left open for the
// solver to re-decide.
func freezeExceptWindow(current *model.Roster, horizon []model.Day, conflictDays []string, windowDays int) map[string]map[string]string {
	open := openDates(horizon, conflictDays, windowDays)

	fixed := make(map[string]map[string]string, len(current.Assignment))
	for empID, days := range current.Assignment {
		for date, code := range days {
			if open[date] {
				continue
			}
			if fixed[empID] == nil {
				fixed[empID] = make(map[string]string)
			}
			fixed[empID][date] = code
		}
	}
	return fixed
}

// openDates returns the set of horizon dates within windowDays of any day
// in conflictDays. If conflictDays is empty, every date is left open (a
// conflict with no specific days, e.g. NoManagerOnDuty across the whole
// horizon, gets a full re-solve).
func openDates(horizon []model.Day, conflictDays []string, windowDays int) map[string]bool {
	open := make(map[string]bool, len(horizon))
	if len(conflictDays) == 0 {
		for _, d := range horizon {
			open[d.Date] = true
		}
		return open
	}

	index := make(map[string]int, len(horizon))
	for i, d := range horizon {
		index[d.Date] = i
	}

	for _, cd := range conflictDays {
		center, ok := index[cd]
		if !ok {
			continue
		}
		lo := center - windowDays
		hi := center + windowDays
		if lo < 0 {
			lo = 0
		}
		if hi >= len(horizon) {
			hi = len(horizon) - 1
		}
		for i := lo; i <= hi; i++ {
			open[horizon[i].Date] = true
		}
	}
	return open
}
