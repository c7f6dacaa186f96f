// Package stats computes the coverage and fairness reports attached to a
// roster-generate response.
package stats

import (
	"math"
	"sort"

	"github.com/paiban/storeroster/pkg/model"
)

// FairnessMetrics is the weekend-equity and hours-dispersion report the
// roster response attaches alongside the conflict list.
type FairnessMetrics struct {
	WorkloadGini        float64 `json:"workload_gini"` // 0 = perfectly even, 1 = maximally uneven
	WorkloadVariance    float64 `json:"workload_variance"`
	WorkloadStdDev      float64 `json:"workload_std_dev"`
	AvgHoursPerEmployee float64 `json:"avg_hours_per_employee"`
	MaxHours            float64 `json:"max_hours"`
	MinHours            float64 `json:"min_hours"`
	HoursRange          float64 `json:"hours_range"`

	ShiftCodeDistribution map[string]float64 `json:"shift_code_distribution"` // code -> % of all assigned shifts
	WeekendShiftGini      float64            `json:"weekend_shift_gini"`

	EmployeeStats []EmployeeStat `json:"employee_stats"`

	OverallFairnessScore float64 `json:"overall_fairness_score"` // 0-100
}

// EmployeeStat is one employee's row in the fairness report.
type EmployeeStat struct {
	EmployeeID    string  `json:"employee_id"`
	EmployeeName  string  `json:"employee_name"`
	TotalHours    float64 `json:"total_hours"`
	ShiftCount    int     `json:"shift_count"`
	WeekendShifts int     `json:"weekend_shifts"`
	Deviation     float64 `json:"deviation"` // % deviation from AvgHoursPerEmployee
}

// FairnessAnalyzer computes FairnessMetrics for a solved Roster.
type FairnessAnalyzer struct{}

func NewFairnessAnalyzer() *FairnessAnalyzer {
	return &FairnessAnalyzer{}
}

// Analyze reports workload and weekend-shift dispersion across employees
// for the given roster.
func (f *FairnessAnalyzer) Analyze(roster *model.Roster, employees []model.Employee, codes []model.ShiftCode) *FairnessMetrics {
	if roster == nil || len(employees) == 0 {
		return &FairnessMetrics{
			ShiftCodeDistribution: make(map[string]float64),
			OverallFairnessScore:  100,
		}
	}

	byCode := make(map[string]model.ShiftCode, len(codes))
	for _, c := range codes {
		byCode[c.Code] = c
	}

	employeeStats := f.calculateEmployeeStats(roster, employees, byCode)

	hours := make([]float64, len(employeeStats))
	weekendShifts := make([]float64, len(employeeStats))
	for i, stat := range employeeStats {
		hours[i] = stat.TotalHours
		weekendShifts[i] = float64(stat.WeekendShifts)
	}

	avgHours := f.calculateMean(hours)
	variance := f.calculateVariance(hours, avgHours)
	stdDev := math.Sqrt(variance)
	maxHours, minHours := f.calculateRange(hours)

	for i := range employeeStats {
		if avgHours > 0 {
			employeeStats[i].Deviation = (employeeStats[i].TotalHours - avgHours) / avgHours * 100
		}
	}

	workloadGini := f.calculateGini(hours)
	weekendGini := f.calculateGini(weekendShifts)
	codeDist := f.calculateShiftCodeDistribution(roster, employees, byCode)
	overallScore := f.calculateOverallScore(workloadGini, weekendGini, stdDev, avgHours)

	return &FairnessMetrics{
		WorkloadGini:          workloadGini,
		WorkloadVariance:      variance,
		WorkloadStdDev:        stdDev,
		AvgHoursPerEmployee:   avgHours,
		MaxHours:              maxHours,
		MinHours:              minHours,
		HoursRange:            maxHours - minHours,
		ShiftCodeDistribution: codeDist,
		WeekendShiftGini:      weekendGini,
		EmployeeStats:         employeeStats,
		OverallFairnessScore:  overallScore,
	}
}

func (f *FairnessAnalyzer) calculateEmployeeStats(roster *model.Roster, employees []model.Employee, byCode map[string]model.ShiftCode) []EmployeeStat {
	stats := make([]EmployeeStat, 0, len(employees))

	for _, emp := range employees {
		stat := EmployeeStat{EmployeeID: emp.ID, EmployeeName: emp.Name}

		for _, day := range roster.Horizon {
			code := byCode[roster.Get(emp.ID, day.Date)]
			if code.IsOff() {
				continue
			}
			stat.TotalHours += code.Hours
			stat.ShiftCount++
			if day.IsWeekend {
				stat.WeekendShifts++
			}
		}

		stats = append(stats, stat)
	}

	sort.Slice(stats, func(i, j int) bool {
		return stats[i].TotalHours > stats[j].TotalHours
	})

	return stats
}

func (f *FairnessAnalyzer) calculateMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func (f *FairnessAnalyzer) calculateVariance(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sumSquares := 0.0
	for _, v := range values {
		diff := v - mean
		sumSquares += diff * diff
	}
	return sumSquares / float64(len(values))
}

func (f *FairnessAnalyzer) calculateRange(values []float64) (max, min float64) {
	if len(values) == 0 {
		return 0, 0
	}
	max, min = values[0], values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
		if v < min {
			min = v
		}
	}
	return
}

// calculateGini returns the Gini coefficient of values via the sorted
// cumulative-sum formula.
func (f *FairnessAnalyzer) calculateGini(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	if sum == 0 {
		return 0
	}

	gini := 0.0
	for i, v := range sorted {
		gini += (2*float64(i+1) - float64(n) - 1) * v
	}

	gini = gini / (float64(n) * sum)
	return math.Max(0, math.Min(1, gini))
}

func (f *FairnessAnalyzer) calculateShiftCodeDistribution(roster *model.Roster, employees []model.Employee, byCode map[string]model.ShiftCode) map[string]float64 {
	counts := make(map[string]int)
	total := 0

	for _, emp := range employees {
		for _, day := range roster.Horizon {
			code := byCode[roster.Get(emp.ID, day.Date)]
			if code.IsOff() {
				continue
			}
			counts[code.Code]++
			total++
		}
	}

	dist := make(map[string]float64, len(counts))
	if total > 0 {
		for code, count := range counts {
			dist[code] = float64(count) / float64(total) * 100
		}
	}
	return dist
}

// calculateOverallScore combines workload and weekend-shift dispersion with
// the coefficient of variation into one 0-100 fairness score.
func (f *FairnessAnalyzer) calculateOverallScore(workloadGini, weekendGini, stdDev, avgHours float64) float64 {
	const (
		workloadWeight = 0.55
		weekendWeight  = 0.3
		stdDevWeight   = 0.15
	)

	workloadScore := (1 - workloadGini) * 100
	weekendScore := (1 - weekendGini) * 100

	cvScore := 100.0
	if avgHours > 0 {
		cv := stdDev / avgHours
		cvScore = math.Max(0, 100-cv*200)
	}

	score := workloadWeight*workloadScore +
		weekendWeight*weekendScore +
		stdDevWeight*cvScore

	return math.Max(0, math.Min(100, score))
}

// CompareSchedules reports the fairness delta between two solved rosters
// over the same employee set (roster2 minus roster1). The Resolver does not
// call it; its rounds are judged by conflict count and severity.
func (f *FairnessAnalyzer) CompareSchedules(roster1, roster2 *model.Roster, employees []model.Employee, codes []model.ShiftCode) map[string]float64 {
	metrics1 := f.Analyze(roster1, employees, codes)
	metrics2 := f.Analyze(roster2, employees, codes)

	return map[string]float64{
		"workload_gini_diff":      metrics2.WorkloadGini - metrics1.WorkloadGini,
		"weekend_gini_diff":       metrics2.WeekendShiftGini - metrics1.WeekendShiftGini,
		"overall_score_diff":      metrics2.OverallFairnessScore - metrics1.OverallFairnessScore,
		"schedule1_overall_score": metrics1.OverallFairnessScore,
		"schedule2_overall_score": metrics2.OverallFairnessScore,
	}
}
