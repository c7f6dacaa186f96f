// Package handler provides the HTTP request handlers.
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/paiban/storeroster/internal/metrics"
	"github.com/paiban/storeroster/pkg/errors"
	"github.com/paiban/storeroster/pkg/model"
	"github.com/paiban/storeroster/pkg/orchestrator"
	"github.com/paiban/storeroster/pkg/scheduler/demand"
	"github.com/paiban/storeroster/pkg/scheduler/matcher"
	"github.com/paiban/storeroster/pkg/scheduler/solver"
	"github.com/paiban/storeroster/pkg/stats"
	"github.com/paiban/storeroster/pkg/validator"
)

// RosterHandler serves roster generation and standalone validation.
type RosterHandler struct {
	orch *orchestrator.Orchestrator
}

// NewRosterHandler builds a handler backed by the MIP solver.
func NewRosterHandler() *RosterHandler {
	return &RosterHandler{orch: orchestrator.New(orchestrator.DefaultConfig(), solver.NewMIPSolver())}
}

// EmployeeInput is one employee record in a GenerateRequest/ValidateRequest.
type EmployeeInput struct {
	ID                   string            `json:"id"`
	Name                 string            `json:"name"`
	EmploymentType       string            `json:"employment_type"` // full_time/part_time/casual
	IsManager            bool              `json:"is_manager"`
	PrimaryStation       string            `json:"primary_station,omitempty"`
	CrossTrainedStations []string          `json:"cross_trained_stations,omitempty"`
	MaxWeeklyHours       int               `json:"max_weekly_hours,omitempty"`
	MinWeeklyHours       int               `json:"min_weekly_hours,omitempty"`
	Availability         map[string]string `json:"availability"` // date -> unavailable/available/preferred
}

func (e EmployeeInput) toModel() model.Employee {
	avail := make(map[string]model.Availability, len(e.Availability))
	for date, a := range e.Availability {
		avail[date] = model.Availability(a)
	}
	return model.Employee{
		ID:                   e.ID,
		Name:                 e.Name,
		EmploymentType:       model.EmploymentType(e.EmploymentType),
		IsManager:            e.IsManager,
		PrimaryStation:       e.PrimaryStation,
		CrossTrainedStations: e.CrossTrainedStations,
		MaxWeeklyHours:       e.MaxWeeklyHours,
		MinWeeklyHours:       e.MinWeeklyHours,
		Availability:         avail,
	}
}

// ShiftCodeInput is one shift-code catalogue entry. Omit Codes in the
// request body to fall back to model.DefaultShiftCodes().
type ShiftCodeInput struct {
	Code            string  `json:"code"`
	Name            string  `json:"name"`
	Hours           float64 `json:"hours"`
	Station         string  `json:"station,omitempty"`
	StartMinute     int     `json:"start_minute"`
	EndMinute       int     `json:"end_minute"`
	RequiresManager bool    `json:"requires_manager,omitempty"`
	IsPeakCovering  bool    `json:"is_peak_covering,omitempty"`
}

func (s ShiftCodeInput) toModel() model.ShiftCode {
	return model.ShiftCode{
		Code:            s.Code,
		Name:            s.Name,
		Hours:           s.Hours,
		Station:         s.Station,
		Window:          model.ClockWindow{StartMinute: s.StartMinute, EndMinute: s.EndMinute},
		RequiresManager: s.RequiresManager,
		IsPeakCovering:  s.IsPeakCovering,
	}
}

// DemandInput configures the Demand Agent's base profile. Zero value uses
// demand.DefaultProfile() defaults for any field left unset.
type DemandInput struct {
	BaseHeadcount    map[string]int `json:"base_headcount,omitempty"`
	WeekendUpliftPct float64        `json:"weekend_uplift_pct,omitempty"`
	PeakUpliftPct    float64        `json:"peak_uplift_pct,omitempty"`
}

// GenerateRequest is the body of POST /api/v1/roster/generate.
type GenerateRequest struct {
	StoreID          string           `json:"store_id"`
	StartDate        string           `json:"start_date"`
	Days             int              `json:"days"`
	Employees        []EmployeeInput  `json:"employees"`
	Codes            []ShiftCodeInput `json:"codes,omitempty"`
	Demand           *DemandInput     `json:"demand,omitempty"`
	TimeLimitSeconds int              `json:"time_limit_seconds,omitempty"`
}

// GenerateResponse is the body returned by POST /api/v1/roster/generate.
type GenerateResponse struct {
	RunID                 string                     `json:"run_id"`
	Status                string                     `json:"status"`
	Roster                []model.EmployeeSchedule   `json:"roster"`
	Days                  []string                   `json:"days"`
	TotalEmployees        int                        `json:"total_employees"`
	GenerationTimeSeconds float64                    `json:"generation_time_seconds"`
	WorkflowLog           []model.WorkflowStep       `json:"workflow_log"`
	Conflicts             []model.Conflict           `json:"conflicts"`
	Warnings              []model.Conflict           `json:"warnings"`
	Coverage              *stats.CoverageMetrics     `json:"coverage"`
	Fairness              *stats.FairnessMetrics     `json:"fairness"`
	PeakCoverage          *stats.PeakCoverageMetrics `json:"peak_coverage"`
	DemandAnalysis        model.JSONMap              `json:"demand_analysis"`
	SkillMatching         model.JSONMap              `json:"skill_matching"`
	Statistics            *solver.Statistics         `json:"statistics"`
	Stages                []model.AgentState         `json:"stages"`
	DurationMS            int64                      `json:"duration_ms"`
}

// Generate runs the full five-stage pipeline and returns the resulting
// roster, its conflicts, and coverage/fairness reports.
func (h *RosterHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "only POST is supported"))
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "failed to parse request body"))
		return
	}

	if err := validateGenerateRequest(&req); err != nil {
		respondError(w, err)
		return
	}

	horizon, err := model.BuildHorizon(req.StartDate, req.Days)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeHorizonMisaligned, "invalid horizon"))
		return
	}

	employees := make([]model.Employee, len(req.Employees))
	for i, e := range req.Employees {
		employees[i] = e.toModel()
	}

	codes := model.DefaultShiftCodes()
	if len(req.Codes) > 0 {
		codes = make([]model.ShiftCode, len(req.Codes))
		for i, c := range req.Codes {
			codes[i] = c.toModel()
		}
	}

	profile := demand.DefaultProfile()
	if req.Demand != nil {
		if len(req.Demand.BaseHeadcount) > 0 {
			base := make(map[model.Interval]int, len(req.Demand.BaseHeadcount))
			for k, v := range req.Demand.BaseHeadcount {
				base[model.Interval(k)] = v
			}
			profile.BaseHeadcount = base
		}
		if req.Demand.WeekendUpliftPct > 0 {
			profile.WeekendUpliftPct = req.Demand.WeekendUpliftPct
		}
		if req.Demand.PeakUpliftPct > 0 {
			profile.PeakUpliftPct = req.Demand.PeakUpliftPct
		}
	}

	orch := h.orch
	if req.TimeLimitSeconds > 0 {
		cfg := orchestrator.DefaultConfig()
		cfg.SchedulerTimeLimit = time.Duration(req.TimeLimitSeconds) * time.Second
		orch = orchestrator.New(cfg, solver.NewMIPSolver())
	}

	result, err := orch.Run(r.Context(), orchestrator.RunInput{
		StoreID:   req.StoreID,
		Horizon:   horizon,
		Employees: employees,
		Codes:     codes,
		Demand:    profile,
	})
	if err != nil {
		metrics.RecordRosterGeneration(req.StoreID, false, 0)
		respondError(w, toAppError(err))
		return
	}

	coverage := stats.NewCoverageAnalyzer().Analyze(result.Roster, employees, codes)
	fairness := stats.NewFairnessAnalyzer().Analyze(result.Roster, employees, codes)
	peak := stats.NewPeakAnalyzer().Analyze(result.Roster, employees, codes, profile.WeekendUpliftPct)
	match := matcher.NewAgent().Match(employees, codes)

	metrics.RecordRosterGeneration(req.StoreID, result.Status != orchestrator.StatusPartial, result.Duration)
	metrics.SetCoverageRate(req.StoreID, coverage.OverallCoverage)
	metrics.SetFairnessGini(req.StoreID, fairness.WorkloadGini)

	days := make([]string, len(result.Roster.Horizon))
	for i, day := range result.Roster.Horizon {
		days[i] = day.Date
	}

	resp := GenerateResponse{
		RunID:                 result.RunID,
		Status:                result.Status,
		Roster:                result.Roster.EmployeeSchedules(employees, codes),
		Days:                  days,
		TotalEmployees:        len(employees),
		GenerationTimeSeconds: result.Duration.Seconds(),
		WorkflowLog:           result.Log,
		Conflicts:             result.Conflicts,
		Warnings:              result.Warnings,
		Coverage:              coverage,
		Fairness:              fairness,
		PeakCoverage:          peak,
		DemandAnalysis:        buildDemandAnalysis(coverage),
		SkillMatching:         buildSkillMatching(employees, codes, match),
		Statistics:            result.Stats,
		Stages:                result.Stages,
		DurationMS:            result.Duration.Milliseconds(),
	}

	respondJSON(w, http.StatusOK, resp)
}

// ValidateRequest is the body of POST /api/v1/roster/validate: an existing
// roster assignment the caller wants checked without re-solving.
type ValidateRequest struct {
	StartDate string                       `json:"start_date"`
	Days      int                          `json:"days"`
	Employees []EmployeeInput              `json:"employees"`
	Codes     []ShiftCodeInput             `json:"codes,omitempty"`
	Roster    map[string]map[string]string `json:"roster"` // employee_id -> date -> code
}

// ValidateResponse is the body returned by POST /api/v1/roster/validate.
type ValidateResponse struct {
	Valid     bool              `json:"valid"`
	Conflicts []model.Conflict  `json:"conflicts"`
	Warnings  []model.Conflict  `json:"warnings"`
}

// Validate runs the fixed ten-check battery against a caller-supplied
// roster without invoking the Scheduler or Resolver.
func (h *RosterHandler) Validate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "only POST is supported"))
		return
	}

	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "failed to parse request body"))
		return
	}

	horizon, err := model.BuildHorizon(req.StartDate, req.Days)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeHorizonMisaligned, "invalid horizon"))
		return
	}

	employees := make([]model.Employee, len(req.Employees))
	for i, e := range req.Employees {
		employees[i] = e.toModel()
	}

	codes := model.DefaultShiftCodes()
	if len(req.Codes) > 0 {
		codes = make([]model.ShiftCode, len(req.Codes))
		for i, c := range req.Codes {
			codes[i] = c.toModel()
		}
	}

	roster := model.NewRoster(horizon)
	for empID, days := range req.Roster {
		for date, code := range days {
			roster.Set(empID, date, code)
		}
	}

	match := matcher.NewAgent().Match(employees, codes)
	conflicts := validator.NewAgent(validator.DefaultConfig()).Validate(roster, employees, codes, match)

	var blocking, warnings []model.Conflict
	for _, c := range conflicts {
		if c.IsWarning() {
			warnings = append(warnings, c)
		} else {
			blocking = append(blocking, c)
		}
	}

	respondJSON(w, http.StatusOK, ValidateResponse{
		Valid:     len(blocking) == 0,
		Conflicts: blocking,
		Warnings:  warnings,
	})
}

func validateGenerateRequest(req *GenerateRequest) *errors.AppError {
	ve := &errors.ValidationErrors{}

	if req.StoreID == "" {
		ve.Add("store_id", "store_id is required")
	}
	if req.StartDate == "" {
		ve.Add("start_date", "start_date is required")
	} else if _, err := time.Parse("2006-01-02", req.StartDate); err != nil {
		ve.Add("start_date", "start_date must be an ISO date (YYYY-MM-DD)")
	}
	if req.Days <= 0 {
		ve.Add("days", "days must be positive")
	}
	if len(req.Employees) == 0 {
		ve.Add("employees", "employees must not be empty")
	}

	if ve.HasErrors() {
		return ve.ToAppError()
	}
	return nil
}

// toAppError normalizes an error returned from the pipeline into the
// *errors.AppError shape respondError expects, wrapping anything that
// isn't already one.
func toAppError(err error) *errors.AppError {
	if appErr, ok := err.(*errors.AppError); ok {
		return appErr
	}
	return errors.Wrap(err, errors.CodeInternal, "roster pipeline failed")
}

// buildDemandAnalysis adapts a CoverageMetrics report into the opaque map
// RosterResponse.demand_analysis names but does not shape: per-interval
// shortfall counts and per-station fill rate, for a caller who wants more
// than the pass/fail coverage summary without a second endpoint.
func buildDemandAnalysis(coverage *stats.CoverageMetrics) model.JSONMap {
	shortfall := make(map[string]int, len(coverage.UncoveredIntervals))
	for _, u := range coverage.UncoveredIntervals {
		shortfall[u.Interval] += u.Shortage
	}
	return model.JSONMap{
		"demand_satisfaction_pct": coverage.DemandSatisfaction,
		"interval_coverage_pct":   coverage.IntervalCoverage,
		"station_fill_rate_pct":   coverage.StationCoverage,
		"interval_shortfall":      shortfall,
	}
}

// buildSkillMatching adapts the Matcher Agent's eligibility table into the
// opaque map RosterResponse.skill_matching names: eligible and unmatched
// (employee, station) pair counts, by station.
func buildSkillMatching(employees []model.Employee, codes []model.ShiftCode, match matcher.Result) model.JSONMap {
	eligibleByStation := make(map[string]int)
	unmatchedByStation := make(map[string]int)

	for _, emp := range employees {
		for _, code := range codes {
			if code.IsOff() || code.Station == "" {
				continue
			}
			if match.IsEligible(emp.ID, code.Code) {
				eligibleByStation[code.Station]++
			} else {
				unmatchedByStation[code.Station]++
			}
		}
	}

	return model.JSONMap{
		"eligible_pairs_by_station":  eligibleByStation,
		"unmatched_pairs_by_station": unmatchedByStation,
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, err *errors.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.HTTPStatus)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":   true,
		"code":    err.Code,
		"message": err.Message,
		"details": err.Details,
	})
}
