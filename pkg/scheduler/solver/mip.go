package solver

import (
	"context"
	"sort"
	"time"

	"github.com/nextmv-io/sdk/mip"
	nextmvmodel "github.com/nextmv-io/sdk/model"

	"github.com/paiban/storeroster/pkg/errors"
	"github.com/paiban/storeroster/pkg/logger"
	"github.com/paiban/storeroster/pkg/model"
)

// cell is one candidate decision variable: employee e assigned code c on
// date d. Only cells that pass the availability/eligibility gate are ever
// materialized into a mip.Bool — infeasible cells are simply never built,
// which is cheaper than building them and constraining them to zero.
type cell struct {
	EmployeeID string
	Date       string
	Code       string
}

// MIPSolver formulates the assignment problem as a mixed-integer program
// and solves it with HiGHS through the nextmv mip/model abstraction (the
// one concrete backend behind the abstract solver-capability set: bool
// variables, linear constraints, a minimized objective, and a deadline).
type MIPSolver struct {
	log *logger.RosterLogger
}

func NewMIPSolver() *MIPSolver {
	return &MIPSolver{log: logger.NewRosterLogger()}
}

func (s *MIPSolver) Name() string { return "MIPSolver" }

// vars wraps the materialized cell -> mip.Bool table; the map also answers
// "was this cell admitted" for combinations (employee, day, code) that later
// passes did not themselves enumerate.
type vars struct {
	byCell map[cell]mip.Bool
}

func (v vars) get(c cell) (mip.Bool, bool) {
	b, ok := v.byCell[c]
	return b, ok
}

func (s *MIPSolver) Solve(ctx context.Context, input Input) (*Result, error) {
	start := time.Now()

	if len(input.Employees) == 0 {
		return nil, errors.New(errors.CodeMalformedRequest, "no employees supplied to the solver")
	}
	if len(input.Horizon) == 0 {
		return nil, errors.New(errors.CodeMalformedRequest, "no horizon supplied to the solver")
	}

	byCode := make(map[string]model.ShiftCode, len(input.Codes))
	for _, c := range input.Codes {
		byCode[c.Code] = c
	}

	cells, byEmployeeDay := buildCells(input, byCode)

	m := mip.NewModel()
	m.Objective().SetMinimize()

	mm := nextmvmodel.NewMultiMap(
		func(...cell) mip.Bool { return m.NewBool() },
		cells,
	)
	v := vars{byCell: make(map[cell]mip.Bool, len(cells))}
	for _, c := range cells {
		v.byCell[c] = mm.Get(c)
	}

	constraintCount := 0
	constraintCount += exactlyOneConstraints(m, v, input, byEmployeeDay)
	constraintCount += weeklyHoursConstraints(m, v, input, byEmployeeDay)
	constraintCount += restConstraints(m, v, input, byCode, byEmployeeDay)
	constraintCount += consecutiveDaysConstraints(m, v, input, byCode, byEmployeeDay)
	constraintCount += managerCoverageConstraints(m, v, input)
	constraintCount += coverageConstraints(m, v, input)
	constraintCount += hoursDispersionObjective(m, v, input, byEmployeeDay)
	constraintCount += weekendEquityObjective(m, v, input, byCode, byEmployeeDay)
	preferenceObjective(m, v, input)
	tieBreakTerms(m, v, input)

	timeLimit := input.TimeLimit
	if timeLimit <= 0 {
		timeLimit = 120 * time.Second
	}

	mipSolver, err := mip.NewSolver(mip.Highs, m)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to construct MIP solver")
	}

	solveOptions := mip.SolveOptions{}
	solveOptions.Duration = timeLimit

	solution, err := mipSolver.Solve(solveOptions)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "solver invocation failed")
	}

	elapsed := time.Since(start)

	feasible := solution.HasValues() && (solution.IsOptimal() || solution.IsSubOptimal())
	if !feasible {
		return &Result{
			Feasible: false,
			Statistics: &Statistics{
				Duration: elapsed,
				Status:   "infeasible",
			},
		}, nil
	}

	roster := model.NewRoster(input.Horizon)

	for _, c := range cells {
		b, _ := v.get(c)
		if solution.Value(b) >= 0.9 {
			roster.Set(c.EmployeeID, c.Date, c.Code)
		}
	}
	for _, emp := range input.Employees {
		var total float64
		for _, day := range input.Horizon {
			code := roster.Get(emp.ID, day.Date)
			total += byCode[code].Hours
		}
		roster.TotalHours[emp.ID] = total
	}

	status := "suboptimal"
	if solution.IsOptimal() {
		status = "optimal"
	}

	return &Result{
		Roster:   roster,
		Feasible: true,
		Optimal:  solution.IsOptimal(),
		Statistics: &Statistics{
			Duration:        elapsed,
			ObjectiveValue:  solution.ObjectiveValue(),
			VariableCount:   len(cells),
			ConstraintCount: constraintCount,
			Status:          status,
		},
	}, nil
}

// buildCells enumerates every admissible (employee, date, code) triple: the
// off code is always admissible; any other code requires the Matcher's
// eligibility flag and that the employee's availability for that day is not
// Unavailable. This single enumeration step is what implements the
// availability gate and the eligibility gate — a cell that fails either
// check is never turned into a variable, so it can never be set to 1.
func buildCells(input Input, byCode map[string]model.ShiftCode) ([]cell, map[string]map[string][]cell) {
	cells := make([]cell, 0, len(input.Employees)*len(input.Horizon)*len(input.Codes))
	byEmployeeDay := make(map[string]map[string][]cell, len(input.Employees))

	for _, emp := range input.Employees {
		byEmployeeDay[emp.ID] = make(map[string][]cell, len(input.Horizon))

		for _, day := range input.Horizon {
			if fixedCode, ok := input.IsFixed(emp.ID, day.Date); ok {
				c := cell{EmployeeID: emp.ID, Date: day.Date, Code: fixedCode}
				cells = append(cells, c)
				byEmployeeDay[emp.ID][day.Date] = append(byEmployeeDay[emp.ID][day.Date], c)
				continue
			}

			avail := emp.AvailabilityOn(day.Date)

			for _, code := range input.Codes {
				if code.IsOff() {
					c := cell{EmployeeID: emp.ID, Date: day.Date, Code: code.Code}
					cells = append(cells, c)
					byEmployeeDay[emp.ID][day.Date] = append(byEmployeeDay[emp.ID][day.Date], c)
					continue
				}
				if avail == model.Unavailable {
					continue
				}
				if !input.Match.IsEligible(emp.ID, code.Code) {
					continue
				}
				c := cell{EmployeeID: emp.ID, Date: day.Date, Code: code.Code}
				cells = append(cells, c)
				byEmployeeDay[emp.ID][day.Date] = append(byEmployeeDay[emp.ID][day.Date], c)
			}
		}
	}

	return cells, byEmployeeDay
}

// exactlyOneConstraints encodes "exactly one code per (employee, day)".
// Because the off code's cell always exists, this constraint is always
// satisfiable even when every other code was excluded by the gates above.
func exactlyOneConstraints(m mip.Model, v vars, input Input, byEmployeeDay map[string]map[string][]cell) int {
	count := 0
	for _, emp := range input.Employees {
		for _, day := range input.Horizon {
			dayCells := byEmployeeDay[emp.ID][day.Date]
			if len(dayCells) == 0 {
				continue
			}
			con := m.NewConstraint(mip.Equal, 1.0)
			for _, c := range dayCells {
				b, _ := v.get(c)
				con.NewTerm(1.0, b)
			}
			count++
		}
	}
	return count
}

// weeklyHoursConstraints enforces, for each employee and each calendar
// Monday–Sunday week intersected with the horizon, min_weekly_hours <=
// sum of assigned hours <= max_weekly_hours.
func weeklyHoursConstraints(m mip.Model, v vars, input Input, byEmployeeDay map[string]map[string][]cell) int {
	weeks := groupIntoWeeks(input.Horizon)
	byCode := make(map[string]model.ShiftCode, len(input.Codes))
	for _, c := range input.Codes {
		byCode[c.Code] = c
	}

	count := 0
	for _, emp := range input.Employees {
		minHours, maxHours := emp.HoursWindow()

		for _, week := range weeks {
			lower := m.NewConstraint(mip.GreaterThanOrEqual, float64(minHours))
			upper := m.NewConstraint(mip.LessThanOrEqual, float64(maxHours))
			count += 2

			for _, day := range week {
				for _, c := range byEmployeeDay[emp.ID][day.Date] {
					hours := byCode[c.Code].Hours
					if hours == 0 {
						continue
					}
					b, _ := v.get(c)
					lower.NewTerm(hours, b)
					upper.NewTerm(hours, b)
				}
			}
		}
	}
	return count
}

// restConstraints forbids any (today, tomorrow) code pair whose rest gap
// falls short of the configured minimum, for every employee and every
// consecutive day pair in the horizon.
func restConstraints(m mip.Model, v vars, input Input, byCode map[string]model.ShiftCode, byEmployeeDay map[string]map[string][]cell) int {
	count := 0
	for _, emp := range input.Employees {
		for i := 0; i+1 < len(input.Horizon); i++ {
			today := input.Horizon[i]
			tomorrow := input.Horizon[i+1]

			for _, c1 := range byEmployeeDay[emp.ID][today.Date] {
				code1 := byCode[c1.Code]
				if code1.IsOff() {
					continue
				}
				for _, c2 := range byEmployeeDay[emp.ID][tomorrow.Date] {
					code2 := byCode[c2.Code]
					if code2.IsOff() {
						continue
					}
					if code1.RestGapMinutes(code2) < input.Config.MinRestMinutes {
						con := m.NewConstraint(mip.LessThanOrEqual, 1.0)
						b1, _ := v.get(c1)
						b2, _ := v.get(c2)
						con.NewTerm(1.0, b1)
						con.NewTerm(1.0, b2)
						count++
					}
				}
			}
		}
	}
	return count
}

// consecutiveDaysConstraints bounds working days to at most
// MaxConsecutiveDays within any sliding 7-day window of the horizon.
func consecutiveDaysConstraints(m mip.Model, v vars, input Input, byCode map[string]model.ShiftCode, byEmployeeDay map[string]map[string][]cell) int {
	windowSize := 7
	if len(input.Horizon) < windowSize {
		return 0
	}

	count := 0
	for _, emp := range input.Employees {
		for start := 0; start+windowSize <= len(input.Horizon); start++ {
			con := m.NewConstraint(mip.LessThanOrEqual, float64(input.Config.MaxConsecutiveDays))
			count++
			for _, day := range input.Horizon[start : start+windowSize] {
				for _, c := range byEmployeeDay[emp.ID][day.Date] {
					if byCode[c.Code].IsOff() {
						continue
					}
					b, _ := v.get(c)
					con.NewTerm(1.0, b)
				}
			}
		}
	}
	return count
}

// managerCoverageConstraints requires at least one manager working a code
// that covers each interval, every day, same as coverageConstraints: a
// shortfall slack absorbs the gap instead of forbidding it outright, so a
// roster with zero eligible managers for an interval still solves — the
// shortfall is penalized heavily in the objective and resurfaces downstream
// as the validator's no_manager_on_duty conflict rather than a solver error.
func managerCoverageConstraints(m mip.Model, v vars, input Input) int {
	managers := make(map[string]bool, len(input.Employees))
	for _, e := range input.Employees {
		managers[e.ID] = e.IsManager
	}

	count := 0
	for _, day := range input.Horizon {
		for _, interval := range model.AllIntervals {
			slack := m.NewFloat(0, 1.0)

			con := m.NewConstraint(mip.GreaterThanOrEqual, 1.0)
			con.NewTerm(1.0, slack)
			count++
			for _, emp := range input.Employees {
				if !managers[emp.ID] {
					continue
				}
				for _, code := range input.Codes {
					if code.IsOff() || !code.CoversInterval(interval) {
						continue
					}
					c := cell{EmployeeID: emp.ID, Date: day.Date, Code: code.Code}
					b, ok := v.get(c)
					if !ok {
						continue
					}
					con.NewTerm(1.0, b)
				}
			}

			m.Objective().NewTerm(500.0, slack)
		}
	}
	return count
}

// coverageConstraints adds, for each (day, interval), a slacked coverage
// constraint: assigned headcount plus shortfall slack meets the demand.
// The slack is penalized in the objective rather than forbidden outright.
func coverageConstraints(m mip.Model, v vars, input Input) int {
	count := 0
	for _, day := range input.Horizon {
		for _, interval := range model.AllIntervals {
			required := day.DemandProfile[interval]
			u := m.NewFloat(0, float64(required))

			con := m.NewConstraint(mip.GreaterThanOrEqual, float64(required))
			con.NewTerm(1.0, u)
			count++

			for _, emp := range input.Employees {
				for _, code := range input.Codes {
					if code.IsOff() || !code.CoversInterval(interval) {
						continue
					}
					c := cell{EmployeeID: emp.ID, Date: day.Date, Code: code.Code}
					b, ok := v.get(c)
					if !ok {
						continue
					}
					con.NewTerm(1.0, b)
				}
			}

			weight := 40.0
			if interval == model.Opening || interval == model.Closing ||
				interval == model.LunchPeak || interval == model.DinnerPeak {
				weight = 100.0
			}
			m.Objective().NewTerm(weight, u)
		}
	}
	return count
}

// hoursDispersionObjective penalizes, per employee and per week, the
// absolute deviation of assigned hours from the midpoint of that
// employee's weekly-hours window at weight 2, linearized against an
// auxiliary non-negative deviation variable.
func hoursDispersionObjective(m mip.Model, v vars, input Input, byEmployeeDay map[string]map[string][]cell) int {
	weeks := groupIntoWeeks(input.Horizon)
	byCode := make(map[string]model.ShiftCode, len(input.Codes))
	for _, c := range input.Codes {
		byCode[c.Code] = c
	}

	count := 0
	for _, emp := range input.Employees {
		minHours, maxHours := emp.HoursWindow()
		midpoint := float64(minHours+maxHours) / 2.0

		for _, week := range weeks {
			dev := m.NewFloat(0, float64(maxHours))

			above := m.NewConstraint(mip.GreaterThanOrEqual, -midpoint)
			above.NewTerm(1.0, dev)
			below := m.NewConstraint(mip.GreaterThanOrEqual, midpoint)
			below.NewTerm(1.0, dev)
			count += 2

			for _, day := range week {
				for _, c := range byEmployeeDay[emp.ID][day.Date] {
					hours := byCode[c.Code].Hours
					if hours == 0 {
						continue
					}
					b, _ := v.get(c)
					above.NewTerm(-hours, b)
					below.NewTerm(hours, b)
				}
			}

			m.Objective().NewTerm(2.0, dev)
		}
	}
	return count
}

// weekendEquityObjective penalizes the spread of weekend-shift counts
// across employees via pairwise non-negative difference variables at
// weight 1.
func weekendEquityObjective(m mip.Model, v vars, input Input, byCode map[string]model.ShiftCode, byEmployeeDay map[string]map[string][]cell) int {
	count := 0
	weekendCount := make(map[string]mip.Float, len(input.Employees))

	for _, emp := range input.Employees {
		wc := m.NewFloat(0, float64(len(input.Horizon)))
		weekendCount[emp.ID] = wc

		con := m.NewConstraint(mip.Equal, 0.0)
		con.NewTerm(1.0, wc)
		count++
		for _, day := range input.Horizon {
			if !day.IsWeekend {
				continue
			}
			for _, c := range byEmployeeDay[emp.ID][day.Date] {
				if byCode[c.Code].IsOff() {
					continue
				}
				b, _ := v.get(c)
				con.NewTerm(-1.0, b)
			}
		}
	}

	for i := 0; i < len(input.Employees); i++ {
		for j := i + 1; j < len(input.Employees); j++ {
			e1, e2 := input.Employees[i], input.Employees[j]
			diff := m.NewFloat(0, float64(len(input.Horizon)))

			c1 := m.NewConstraint(mip.GreaterThanOrEqual, 0.0)
			c1.NewTerm(1.0, diff)
			c1.NewTerm(-1.0, weekendCount[e1.ID])
			c1.NewTerm(1.0, weekendCount[e2.ID])

			c2 := m.NewConstraint(mip.GreaterThanOrEqual, 0.0)
			c2.NewTerm(1.0, diff)
			c2.NewTerm(1.0, weekendCount[e1.ID])
			c2.NewTerm(-1.0, weekendCount[e2.ID])
			count += 2

			m.Objective().NewTerm(1.0, diff)
		}
	}
	return count
}

// preferenceObjective folds in the Matcher's skill/compatibility score
// (coefficient -1, so a higher score lowers the objective) and the
// separate -2 preferred-day bonus.
func preferenceObjective(m mip.Model, v vars, input Input) {
	for _, emp := range input.Employees {
		for _, day := range input.Horizon {
			avail := emp.AvailabilityOn(day.Date)

			for _, code := range input.Codes {
				if code.IsOff() {
					continue
				}
				c := cell{EmployeeID: emp.ID, Date: day.Date, Code: code.Code}
				b, ok := v.get(c)
				if !ok {
					continue
				}

				score := input.Match.ScoreOnDay(emp, code.Code, day.Date)
				if score != 0 {
					m.Objective().NewTerm(-1.0*float64(score), b)
				}
				if avail == model.Preferred {
					m.Objective().NewTerm(-2.0, b)
				}
			}
		}
	}
}

// tieBreakTerms adds vanishingly small objective terms so that among
// otherwise-equal solutions the solver prefers fewer weekend assignments
// to any one employee, more Preferred-day placements, and (as the final
// tiebreaker) lexicographically smaller employee-id ordering.
func tieBreakTerms(m mip.Model, v vars, input Input) {
	ids := make([]string, len(input.Employees))
	for i, e := range input.Employees {
		ids[i] = e.ID
	}
	sort.Strings(ids)
	rank := make(map[string]int, len(ids))
	for i, id := range ids {
		rank[id] = i
	}

	for _, emp := range input.Employees {
		lexWeight := float64(rank[emp.ID]) * 1e-6

		for _, day := range input.Horizon {
			for _, code := range input.Codes {
				if code.IsOff() {
					continue
				}
				c := cell{EmployeeID: emp.ID, Date: day.Date, Code: code.Code}
				b, ok := v.get(c)
				if !ok {
					continue
				}
				if day.IsWeekend {
					m.Objective().NewTerm(1e-3, b)
				}
				if emp.AvailabilityOn(day.Date) == model.Preferred {
					m.Objective().NewTerm(-1e-4, b)
				}
				m.Objective().NewTerm(lexWeight, b)
			}
		}
	}
}

// groupIntoWeeks partitions horizon into calendar Monday–Sunday weeks,
// clipped to the days actually present in horizon.
func groupIntoWeeks(horizon []model.Day) [][]model.Day {
	byWeekStart := make(map[string][]model.Day)
	var order []string

	for _, day := range horizon {
		weekday := int(day.Weekday())
		// Go's time.Weekday: Sunday=0 ... Saturday=6. Convert to a
		// Monday-start offset.
		offset := (weekday + 6) % 7
		weekStart := addDaysToDateString(day.Date, -offset)
		if _, ok := byWeekStart[weekStart]; !ok {
			order = append(order, weekStart)
		}
		byWeekStart[weekStart] = append(byWeekStart[weekStart], day)
	}

	weeks := make([][]model.Day, 0, len(order))
	for _, ws := range order {
		weeks = append(weeks, byWeekStart[ws])
	}
	return weeks
}

func addDaysToDateString(date string, delta int) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return t.AddDate(0, 0, delta).Format("2006-01-02")
}
