package model

import "time"

// ShiftInfo is the decoded shift placed on one (employee, day) cell.
type ShiftInfo struct {
	Code    string  `json:"code"`
	Name    string  `json:"name"`
	Hours   float64 `json:"hours"`
	Station string  `json:"station,omitempty"`
}

// EmployeeSchedule is the per-employee view of a Roster, as shipped in
// RosterResponse.roster.
type EmployeeSchedule struct {
	EmployeeID     string               `json:"employee_id"`
	Name           string               `json:"name"`
	EmploymentType EmploymentType       `json:"type"`
	IsManager      bool                 `json:"is_manager"`
	PrimaryStation string               `json:"primary_station"`
	Shifts         map[string]ShiftInfo `json:"shifts"` // date -> ShiftInfo
	TotalHours     float64              `json:"total_hours"`
}

// Roster is the assignment produced by the Scheduler, mutated only by the
// Resolver, and frozen once the pipeline exits.
type Roster struct {
	Horizon []Day

	// Assignment[employeeID][date] = shift code. A total function: every
	// employee has an entry for every day in Horizon.
	Assignment map[string]map[string]string

	// TotalHours[employeeID] = sum of assigned shift hours.
	TotalHours map[string]float64
}

// NewRoster returns an empty Roster over the given horizon.
func NewRoster(horizon []Day) *Roster {
	return &Roster{
		Horizon:    horizon,
		Assignment: make(map[string]map[string]string),
		TotalHours: make(map[string]float64),
	}
}

// Set records employeeID's assigned code on date.
func (r *Roster) Set(employeeID, date, code string) {
	if r.Assignment[employeeID] == nil {
		r.Assignment[employeeID] = make(map[string]string)
	}
	r.Assignment[employeeID][date] = code
}

// Get returns the code assigned to employeeID on date, or OffCode if unset.
func (r *Roster) Get(employeeID, date string) string {
	if m, ok := r.Assignment[employeeID]; ok {
		if c, ok := m[date]; ok {
			return c
		}
	}
	return OffCode
}

// EmployeeSchedules decodes the roster into one EmployeeSchedule per
// employee, the shape the HTTP response ships to callers.
func (r *Roster) EmployeeSchedules(employees []Employee, codes []ShiftCode) []EmployeeSchedule {
	byCode := make(map[string]ShiftCode, len(codes))
	for _, c := range codes {
		byCode[c.Code] = c
	}

	out := make([]EmployeeSchedule, 0, len(employees))
	for _, emp := range employees {
		shifts := make(map[string]ShiftInfo, len(r.Horizon))
		var total float64
		for _, day := range r.Horizon {
			code := byCode[r.Get(emp.ID, day.Date)]
			shifts[day.Date] = ShiftInfo{
				Code:    code.Code,
				Name:    code.Name,
				Hours:   code.Hours,
				Station: code.Station,
			}
			total += code.Hours
		}
		out = append(out, EmployeeSchedule{
			EmployeeID:     emp.ID,
			Name:           emp.Name,
			EmploymentType: emp.EmploymentType,
			IsManager:      emp.IsManager,
			PrimaryStation: emp.PrimaryStation,
			Shifts:         shifts,
			TotalHours:     total,
		})
	}
	return out
}

// Clone produces a deep copy, used by the Resolver so a rejected patch can
// be rolled back without mutating the accepted roster.
func (r *Roster) Clone() *Roster {
	clone := NewRoster(r.Horizon)
	for emp, days := range r.Assignment {
		copied := make(map[string]string, len(days))
		for d, c := range days {
			copied[d] = c
		}
		clone.Assignment[emp] = copied
	}
	for emp, h := range r.TotalHours {
		clone.TotalHours[emp] = h
	}
	return clone
}

// Severity orders how urgently a Conflict must be addressed; Critical
// conflicts prevent status=success.
type Severity string

const (
	Critical Severity = "critical"
	High     Severity = "high"
	Medium   Severity = "medium"
	Low      Severity = "low"
)

// rank gives the repair-priority ordering used by the Resolver: lower value
// means more urgent.
func (s Severity) rank() int {
	switch s {
	case Critical:
		return 0
	case High:
		return 1
	case Medium:
		return 2
	case Low:
		return 3
	default:
		return 4
	}
}

// MoreUrgentThan reports whether s should be repaired before other.
func (s Severity) MoreUrgentThan(other Severity) bool {
	return s.rank() < other.rank()
}

// ConflictKind enumerates the Validator's ten checks.
type ConflictKind string

const (
	WeeklyHoursOverflow   ConflictKind = "weekly_hours_overflow"
	WeeklyHoursUnderflow  ConflictKind = "weekly_hours_underflow"
	ConsecutiveDaysExceed ConflictKind = "consecutive_days_exceeded"
	InsufficientRest      ConflictKind = "insufficient_rest"
	NoManagerOnDuty       ConflictKind = "no_manager_on_duty"
	PeakUndercoverage     ConflictKind = "peak_undercoverage"
	OpeningClosingUncov   ConflictKind = "opening_or_closing_uncovered"
	StationSkillMismatch  ConflictKind = "station_skill_mismatch"
	WeekendUpliftMissed   ConflictKind = "weekend_uplift_missed"
	PreferenceIgnored     ConflictKind = "preference_ignored"
)

// kindSeverity is the fixed (kind -> severity) table.
var kindSeverity = map[ConflictKind]Severity{
	WeeklyHoursOverflow:   Critical,
	WeeklyHoursUnderflow:  High,
	ConsecutiveDaysExceed: Critical,
	InsufficientRest:      Critical,
	NoManagerOnDuty:       Critical,
	PeakUndercoverage:     High,
	OpeningClosingUncov:   High,
	StationSkillMismatch:  Medium,
	WeekendUpliftMissed:   Low,
	PreferenceIgnored:     Low,
}

// SeverityOf returns the fixed severity for a conflict kind.
func SeverityOf(kind ConflictKind) Severity { return kindSeverity[kind] }

// Conflict is a single constraint violation raised by the Validator.
type Conflict struct {
	Kind        ConflictKind `json:"kind"`
	Severity    Severity     `json:"severity"`
	Description string       `json:"description"`
	EmployeeID  string       `json:"employee_id,omitempty"`
	Days        []string     `json:"days,omitempty"`
}

// NewConflict builds a Conflict with its severity looked up from Kind.
func NewConflict(kind ConflictKind, description string) Conflict {
	return Conflict{Kind: kind, Severity: SeverityOf(kind), Description: description}
}

// IsWarning reports whether the conflict belongs in RosterResponse.warnings
// (severity Medium or Low).
func (c Conflict) IsWarning() bool {
	return c.Severity == Medium || c.Severity == Low
}

// AgentStatus is the lifecycle state of one pipeline stage.
type AgentStatus string

const (
	Idle      AgentStatus = "idle"
	Running   AgentStatus = "running"
	Succeeded AgentStatus = "succeeded"
	Failed    AgentStatus = "failed"
)

// AgentState is the Orchestrator's view of one stage's progress.
type AgentState struct {
	Name       string                 `json:"name"`
	Status     AgentStatus            `json:"status"`
	LastAction string                 `json:"last_action"`
	Context    map[string]interface{} `json:"context,omitempty"`
}

// WorkflowStep is one append-only entry in the Orchestrator's run log.
type WorkflowStep struct {
	Timestamp time.Time `json:"timestamp"`
	Step      string    `json:"step"`
	Message   string    `json:"message"`
}
