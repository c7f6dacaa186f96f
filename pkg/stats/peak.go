package stats

import "github.com/paiban/storeroster/pkg/model"

// PeakCoverageMetrics reports whether the roster actually covers the four
// named peak/boundary intervals — opening, closing, lunch peak, dinner
// peak — per day and in aggregate, plus whether weekend staffing came in
// uplifted relative to weekdays by at least the configured target.
type PeakCoverageMetrics struct {
	DailyPeaks map[string]DayPeak `json:"daily_peaks"`

	LunchPeakMet   bool `json:"lunch_peak_met"`
	DinnerPeakMet  bool `json:"dinner_peak_met"`
	OpeningCovered bool `json:"opening_covered"`
	ClosingCovered bool `json:"closing_covered"`

	WeekendVsWeekdayIncreasePct float64 `json:"weekend_vs_weekday_increase"`
	WeekendUpliftTargetPct      float64 `json:"weekend_uplift_target"`
	MeetsWeekendTarget          bool    `json:"meets_weekend_target"`
}

// DayPeak is one horizon day's boundary-interval coverage.
type DayPeak struct {
	Date           string `json:"date"`
	LunchPeakMet   bool   `json:"lunch_peak_met"`
	DinnerPeakMet  bool   `json:"dinner_peak_met"`
	OpeningCovered bool   `json:"opening_covered"`
	ClosingCovered bool   `json:"closing_covered"`
}

// PeakAnalyzer reports boundary-interval coverage and the weekend staffing
// uplift actually achieved against the Demand Agent's configured target.
type PeakAnalyzer struct{}

func NewPeakAnalyzer() *PeakAnalyzer {
	return &PeakAnalyzer{}
}

// Analyze walks roster.Horizon, checking each day's lunch/dinner peak and
// opening/closing coverage against that day's DemandProfile, then compares
// average weekend assigned headcount to average weekday assigned
// headcount across the four boundary intervals.
func (p *PeakAnalyzer) Analyze(roster *model.Roster, employees []model.Employee, codes []model.ShiftCode, weekendUpliftTargetPct float64) *PeakCoverageMetrics {
	out := &PeakCoverageMetrics{
		DailyPeaks:             make(map[string]DayPeak),
		WeekendUpliftTargetPct: weekendUpliftTargetPct * 100,
	}
	if roster == nil || len(roster.Horizon) == 0 {
		out.LunchPeakMet = true
		out.DinnerPeakMet = true
		out.OpeningCovered = true
		out.ClosingCovered = true
		out.MeetsWeekendTarget = true
		return out
	}

	byCode := make(map[string]model.ShiftCode, len(codes))
	for _, c := range codes {
		byCode[c.Code] = c
	}

	lunchMet, dinnerMet, openingMet, closingMet := true, true, true, true
	var weekdayTotal, weekdayCount, weekendTotal, weekendCount int

	for _, day := range roster.Horizon {
		lunch := p.met(roster, employees, byCode, day, model.LunchPeak)
		dinner := p.met(roster, employees, byCode, day, model.DinnerPeak)
		opening := p.met(roster, employees, byCode, day, model.Opening)
		closing := p.met(roster, employees, byCode, day, model.Closing)

		out.DailyPeaks[day.Date] = DayPeak{
			Date:           day.Date,
			LunchPeakMet:   lunch,
			DinnerPeakMet:  dinner,
			OpeningCovered: opening,
			ClosingCovered: closing,
		}
		lunchMet = lunchMet && lunch
		dinnerMet = dinnerMet && dinner
		openingMet = openingMet && opening
		closingMet = closingMet && closing

		boundary := p.assigned(roster, employees, byCode, day.Date, model.Opening) +
			p.assigned(roster, employees, byCode, day.Date, model.LunchPeak) +
			p.assigned(roster, employees, byCode, day.Date, model.DinnerPeak) +
			p.assigned(roster, employees, byCode, day.Date, model.Closing)

		if day.IsWeekend {
			weekendTotal += boundary
			weekendCount++
		} else {
			weekdayTotal += boundary
			weekdayCount++
		}
	}

	out.LunchPeakMet = lunchMet
	out.DinnerPeakMet = dinnerMet
	out.OpeningCovered = openingMet
	out.ClosingCovered = closingMet

	if weekdayCount > 0 && weekendCount > 0 {
		weekdayAvg := float64(weekdayTotal) / float64(weekdayCount)
		weekendAvg := float64(weekendTotal) / float64(weekendCount)
		if weekdayAvg > 0 {
			out.WeekendVsWeekdayIncreasePct = (weekendAvg - weekdayAvg) / weekdayAvg * 100
		}
	}
	out.MeetsWeekendTarget = out.WeekendVsWeekdayIncreasePct >= out.WeekendUpliftTargetPct

	return out
}

func (p *PeakAnalyzer) met(roster *model.Roster, employees []model.Employee, byCode map[string]model.ShiftCode, day model.Day, interval model.Interval) bool {
	required := day.DemandProfile[interval]
	if required == 0 {
		return true
	}
	return p.assigned(roster, employees, byCode, day.Date, interval) >= required
}

func (p *PeakAnalyzer) assigned(roster *model.Roster, employees []model.Employee, byCode map[string]model.ShiftCode, date string, interval model.Interval) int {
	count := 0
	for _, emp := range employees {
		code := byCode[roster.Get(emp.ID, date)]
		if code.CoversInterval(interval) {
			count++
		}
	}
	return count
}
