package model

import (
	"fmt"
	"time"
)

// Interval names the named coverage windows the demand profile and manager
// coverage constraint are evaluated against.
type Interval string

const (
	Opening    Interval = "opening"
	LunchPeak  Interval = "lunch_peak"
	DinnerPeak Interval = "dinner_peak"
	Closing    Interval = "closing"
)

// AllIntervals is the fixed evaluation order used throughout the engine.
var AllIntervals = []Interval{Opening, LunchPeak, DinnerPeak, Closing}

// ClockWindow is a local clock-time span, e.g. 06:30-14:30. Minutes are
// counted from local midnight; no timezone conversion happens inside the
// core.
type ClockWindow struct {
	StartMinute int
	EndMinute   int
}

// Overlaps reports whether the window overlaps [startMinute, endMinute).
func (w ClockWindow) Overlaps(startMinute, endMinute int) bool {
	return w.StartMinute < endMinute && startMinute < w.EndMinute
}

// Covers reports whether the window is active at the given minute-of-day.
func (w ClockWindow) Covers(minute int) bool {
	return w.StartMinute <= minute && minute < w.EndMinute
}

func clock(hour, minute int) int { return hour*60 + minute }

// intervalWindows gives the clock span of each named interval. Opening and
// Closing are the 30-minute windows bracketing trading hours; Lunch/Dinner
// are the peak meal windows.
var intervalWindows = map[Interval]ClockWindow{
	Opening:    {StartMinute: clock(6, 30), EndMinute: clock(7, 0)},
	LunchPeak:  {StartMinute: clock(11, 0), EndMinute: clock(14, 0)},
	DinnerPeak: {StartMinute: clock(17, 0), EndMinute: clock(21, 0)},
	Closing:    {StartMinute: clock(22, 30), EndMinute: clock(23, 0)},
}

// IntervalWindow returns the clock window for a named interval.
func IntervalWindow(i Interval) ClockWindow { return intervalWindows[i] }

// ShiftCode is a canonical (station, hours, clock window, manager-required)
// tuple selected by a short symbol. "/" is the reserved off-code.
type ShiftCode struct {
	Code            string
	Name            string
	Hours           float64
	Station         string // empty = no station requirement
	Window          ClockWindow
	RequiresManager bool
	IsPeakCovering  bool
}

// OffCode is the canonical off-duty shift code: "/" means off.
const OffCode = "/"

// IsOff reports whether this code represents a day off.
func (s ShiftCode) IsOff() bool { return s.Code == OffCode }

// CoversInterval reports whether the shift's clock window overlaps the
// named interval's window.
func (s ShiftCode) CoversInterval(i Interval) bool {
	if s.IsOff() {
		return false
	}
	w := IntervalWindow(i)
	return s.Window.Overlaps(w.StartMinute, w.EndMinute)
}

// RestGapMinutes returns the rest gap, in minutes, between the end of this
// shift and the start of next on the following calendar day. A negative
// result means the shifts on consecutive days overlap across midnight.
func (s ShiftCode) RestGapMinutes(next ShiftCode) int {
	const minutesPerDay = 24 * 60
	return (next.Window.StartMinute + minutesPerDay) - s.Window.EndMinute
}

// DefaultShiftCodes returns the canonical shift-code catalogue from:
// off, short, first/second/third full shift, shift-lead, manager day.
func DefaultShiftCodes() []ShiftCode {
	return []ShiftCode{
		{Code: OffCode, Name: "Off", Hours: 0},
		{Code: "S", Name: "Short", Hours: 4, Window: ClockWindow{StartMinute: clock(11, 0), EndMinute: clock(15, 0)}, IsPeakCovering: true},
		{Code: "1F", Name: "First Full", Hours: 8, Window: ClockWindow{StartMinute: clock(6, 30), EndMinute: clock(14, 30)}, IsPeakCovering: true},
		{Code: "2F", Name: "Second Full", Hours: 8, Window: ClockWindow{StartMinute: clock(11, 0), EndMinute: clock(19, 0)}, IsPeakCovering: true},
		{Code: "3F", Name: "Third Full", Hours: 8, Window: ClockWindow{StartMinute: clock(15, 0), EndMinute: clock(23, 0)}, IsPeakCovering: true},
		{Code: "SC", Name: "Shift Lead", Hours: 8, Window: ClockWindow{StartMinute: clock(6, 30), EndMinute: clock(14, 30)}, RequiresManager: true, IsPeakCovering: true},
		{Code: "M", Name: "Manager Day", Hours: 8, Window: ClockWindow{StartMinute: clock(9, 0), EndMinute: clock(17, 0)}, RequiresManager: true, IsPeakCovering: true},
	}
}

// Day is one calendar day of the planning horizon.
type Day struct {
	Date      string // ISO (2006-01-02)
	IsWeekend bool
	// DemandProfile maps each named interval to the required headcount.
	DemandProfile map[Interval]int
}

// Weekday returns the Go time.Weekday for the day's ISO date.
func (d Day) Weekday() time.Weekday {
	t, err := time.Parse("2006-01-02", d.Date)
	if err != nil {
		return time.Sunday
	}
	return t.Weekday()
}

// BuildHorizon lays out numDays consecutive calendar days starting at
// startDate (ISO, 2006-01-02), marking Saturday/Sunday as weekend. The
// DemandProfile on each Day is left nil for the Demand Agent to populate.
func BuildHorizon(startDate string, numDays int) ([]Day, error) {
	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return nil, fmt.Errorf("model: invalid start date %q: %w", startDate, err)
	}
	if numDays <= 0 {
		return nil, fmt.Errorf("model: horizon length must be positive, got %d", numDays)
	}

	horizon := make([]Day, numDays)
	for i := 0; i < numDays; i++ {
		t := start.AddDate(0, 0, i)
		weekday := t.Weekday()
		horizon[i] = Day{
			Date:      t.Format("2006-01-02"),
			IsWeekend: weekday == time.Saturday || weekday == time.Sunday,
		}
	}
	return horizon, nil
}
