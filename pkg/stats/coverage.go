package stats

import "github.com/paiban/storeroster/pkg/model"

// CoverageMetrics is the interval-by-interval demand-satisfaction report
// the roster response attaches for every solved horizon.
type CoverageMetrics struct {
	TotalIntervals    int     `json:"total_intervals"`
	CoveredIntervals  int     `json:"covered_intervals"`
	OverallCoverage   float64 `json:"overall_coverage"` // %

	DailyCoverage    map[string]DayCoverage `json:"daily_coverage"`
	IntervalCoverage map[string]float64     `json:"interval_coverage"` // interval -> %
	StationCoverage  map[string]float64     `json:"station_coverage"`  // station -> % eligible match

	DemandSatisfaction float64 `json:"demand_satisfaction"` // %

	UncoveredIntervals []UncoveredInterval `json:"uncovered_intervals,omitempty"`
}

// DayCoverage is one horizon day's aggregate demand satisfaction.
type DayCoverage struct {
	Date         string  `json:"date"`
	Required     int     `json:"required"`
	Assigned     int     `json:"assigned"`
	CoverageRate float64 `json:"coverage_rate"`
}

// UncoveredInterval names an (day, interval) cell staffed below demand.
type UncoveredInterval struct {
	Date     string `json:"date"`
	Interval string `json:"interval"`
	Required int    `json:"required"`
	Assigned int    `json:"assigned"`
	Shortage int    `json:"shortage"`
}

// CoverageAnalyzer reports how well a solved Roster satisfies the Demand
// Agent's per-interval headcount targets.
type CoverageAnalyzer struct{}

func NewCoverageAnalyzer() *CoverageAnalyzer {
	return &CoverageAnalyzer{}
}

// Analyze reports demand satisfaction across every (day, interval) cell in
// the roster's horizon.
func (c *CoverageAnalyzer) Analyze(roster *model.Roster, employees []model.Employee, codes []model.ShiftCode) *CoverageMetrics {
	if roster == nil || len(roster.Horizon) == 0 {
		return &CoverageMetrics{
			DailyCoverage:      make(map[string]DayCoverage),
			IntervalCoverage:   make(map[string]float64),
			StationCoverage:    make(map[string]float64),
			OverallCoverage:    100,
			DemandSatisfaction: 100,
		}
	}

	byCode := make(map[string]model.ShiftCode, len(codes))
	for _, cd := range codes {
		byCode[cd.Code] = cd
	}

	dailyCoverage := make(map[string]DayCoverage, len(roster.Horizon))
	intervalRequired := make(map[model.Interval]int)
	intervalAssigned := make(map[model.Interval]int)
	stationRequired := make(map[string]int)
	stationMatched := make(map[string]int)
	var uncovered []UncoveredInterval

	totalRequired := 0
	totalSatisfied := 0
	totalIntervals := 0
	coveredIntervals := 0

	for _, day := range roster.Horizon {
		dayRequired := 0
		dayAssigned := 0

		for _, interval := range model.AllIntervals {
			required := day.DemandProfile[interval]
			assigned := c.assignedForInterval(roster, employees, byCode, day.Date, interval)

			intervalRequired[interval] += required
			intervalAssigned[interval] += assigned
			dayRequired += required
			dayAssigned += assigned

			// Surplus in one interval does not make up for a shortfall in
			// another.
			satisfied := assigned
			if satisfied > required {
				satisfied = required
			}
			totalSatisfied += satisfied

			totalIntervals++
			if assigned >= required {
				coveredIntervals++
			} else {
				uncovered = append(uncovered, UncoveredInterval{
					Date:     day.Date,
					Interval: string(interval),
					Required: required,
					Assigned: assigned,
					Shortage: required - assigned,
				})
			}
		}

		rate := 100.0
		if dayRequired > 0 {
			rate = float64(dayAssigned) / float64(dayRequired) * 100
		}
		dailyCoverage[day.Date] = DayCoverage{
			Date:         day.Date,
			Required:     dayRequired,
			Assigned:     dayAssigned,
			CoverageRate: rate,
		}

		totalRequired += dayRequired

		for _, emp := range employees {
			code := byCode[roster.Get(emp.ID, day.Date)]
			if code.IsOff() || code.Station == "" {
				continue
			}
			stationRequired[code.Station]++
			if emp.CanWorkStation(code.Station) {
				stationMatched[code.Station]++
			}
		}
	}

	intervalCoverage := make(map[string]float64, len(model.AllIntervals))
	for _, interval := range model.AllIntervals {
		req := intervalRequired[interval]
		if req == 0 {
			intervalCoverage[string(interval)] = 100
			continue
		}
		assigned := intervalAssigned[interval]
		if assigned > req {
			assigned = req
		}
		intervalCoverage[string(interval)] = float64(assigned) / float64(req) * 100
	}

	stationCoverage := make(map[string]float64, len(stationRequired))
	for station, req := range stationRequired {
		if req == 0 {
			continue
		}
		stationCoverage[station] = float64(stationMatched[station]) / float64(req) * 100
	}

	overallCoverage := 100.0
	if totalIntervals > 0 {
		overallCoverage = float64(coveredIntervals) / float64(totalIntervals) * 100
	}

	demandSatisfaction := c.calculateDemandSatisfaction(totalRequired, totalSatisfied)

	return &CoverageMetrics{
		TotalIntervals:     totalIntervals,
		CoveredIntervals:   coveredIntervals,
		OverallCoverage:    overallCoverage,
		DailyCoverage:      dailyCoverage,
		IntervalCoverage:   intervalCoverage,
		StationCoverage:    stationCoverage,
		DemandSatisfaction: demandSatisfaction,
		UncoveredIntervals: uncovered,
	}
}

// assignedForInterval counts employees whose assigned code on date covers
// interval.
func (c *CoverageAnalyzer) assignedForInterval(roster *model.Roster, employees []model.Employee, byCode map[string]model.ShiftCode, date string, interval model.Interval) int {
	count := 0
	for _, emp := range employees {
		code := byCode[roster.Get(emp.ID, date)]
		if code.CoversInterval(interval) {
			count++
		}
	}
	return count
}

func (c *CoverageAnalyzer) calculateDemandSatisfaction(totalRequired, totalAssigned int) float64 {
	if totalRequired == 0 {
		return 100
	}
	satisfied := totalAssigned
	if satisfied > totalRequired {
		satisfied = totalRequired
	}
	return float64(satisfied) / float64(totalRequired) * 100
}
