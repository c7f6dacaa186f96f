// Package model defines the core data types shared across the roster
// engine: employees, shift codes, days, the assembled roster, and the
// conflicts the validator raises against it.
package model

// EmploymentType bounds an employee's weekly-hours window.
type EmploymentType string

const (
	FullTime EmploymentType = "full_time"
	PartTime EmploymentType = "part_time"
	Casual   EmploymentType = "casual"
)

// DefaultHoursWindow returns the (min, max) weekly hours for an employment
// type, used when an Employee record leaves its own window at zero.
func (t EmploymentType) DefaultHoursWindow() (min, max int) {
	switch t {
	case FullTime:
		return 38, 48
	case PartTime:
		return 15, 38
	case Casual:
		return 0, 38
	default:
		return 0, 38
	}
}

// Availability is the per-day state of an employee's willingness to work.
type Availability string

const (
	Unavailable Availability = "unavailable"
	Available   Availability = "available"
	Preferred   Availability = "preferred"
)

// Employee is a read-only input for one scheduling run.
type Employee struct {
	ID                   string
	Name                 string
	EmploymentType       EmploymentType
	IsManager            bool
	PrimaryStation       string
	CrossTrainedStations []string
	MaxWeeklyHours       int
	MinWeeklyHours       int

	// Availability is keyed by the ISO date string of each day in the
	// horizon. The invariant that every day in the horizon has an entry is
	// checked once at input validation time, not re-derived here.
	Availability map[string]Availability
}

// HoursWindow resolves the effective weekly-hours window, falling back to
// the employment type's default when the employee record leaves a bound
// unset (zero).
func (e *Employee) HoursWindow() (min, max int) {
	defMin, defMax := e.EmploymentType.DefaultHoursWindow()
	min, max = e.MinWeeklyHours, e.MaxWeeklyHours
	if max <= 0 {
		max = defMax
	}
	if min <= 0 && defMin > 0 {
		min = defMin
	}
	return min, max
}

// CanWorkStation reports whether station is the employee's primary station
// or one they are cross-trained on. A code with no station requirement
// (station == "") is always satisfied.
func (e *Employee) CanWorkStation(station string) bool {
	if station == "" {
		return true
	}
	if e.PrimaryStation == station {
		return true
	}
	for _, s := range e.CrossTrainedStations {
		if s == station {
			return true
		}
	}
	return false
}

// AvailabilityOn returns the employee's availability on date.
func (e *Employee) AvailabilityOn(date string) Availability {
	if a, ok := e.Availability[date]; ok {
		return a
	}
	return Unavailable
}
