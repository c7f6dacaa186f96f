// Package demand derives per-day, per-interval staffing requirements from a
// store's base headcount profile, applying weekday/weekend and meal-peak
// uplifts before the Scheduler ever sees a demand number.
package demand

import (
	"fmt"
	"math"

	"github.com/paiban/storeroster/pkg/model"
)

// Profile is the store-level input: base headcount at each interval before
// any weekend or peak uplift is applied.
type Profile struct {
	BaseHeadcount map[model.Interval]int

	// WeekendUpliftPct is the fractional increase applied on weekend days
	// (default 0.20).
	WeekendUpliftPct float64

	// PeakUpliftPct is an additional fractional increase applied to
	// LunchPeak and DinnerPeak on top of the weekday/weekend multiplier
	// (default 0.25 — the source leaves this uplift's exact size
	// unspecified beyond "apply peak uplift").
	PeakUpliftPct float64
}

// DefaultProfile returns a minimal single-manager, single-crew store
// profile with the standard uplift knobs.
func DefaultProfile() Profile {
	return Profile{
		BaseHeadcount: map[model.Interval]int{
			model.Opening:    1,
			model.LunchPeak:  2,
			model.DinnerPeak: 2,
			model.Closing:    1,
		},
		WeekendUpliftPct: 0.20,
		PeakUpliftPct:    0.25,
	}
}

// Agent computes required headcount tables over a horizon.
type Agent struct {
	profile Profile
}

func NewAgent(profile Profile) *Agent {
	return &Agent{profile: profile}
}

// Compute populates DemandProfile on each Day of horizon and returns the
// same slice (mutated in place) so callers can keep using horizon
// directly. Fails only on malformed input: a profile with no base
// headcount configured for a named interval.
func (a *Agent) Compute(horizon []model.Day) ([]model.Day, error) {
	for _, interval := range model.AllIntervals {
		if _, ok := a.profile.BaseHeadcount[interval]; !ok {
			return nil, fmt.Errorf("demand: no base headcount configured for interval %s", interval)
		}
	}

	for i := range horizon {
		day := &horizon[i]
		day.DemandProfile = a.requiredForDay(*day)
	}
	return horizon, nil
}

func (a *Agent) requiredForDay(day model.Day) map[model.Interval]int {
	out := make(map[model.Interval]int, len(model.AllIntervals))
	for _, interval := range model.AllIntervals {
		base := float64(a.profile.BaseHeadcount[interval])

		multiplier := 1.0
		if day.IsWeekend {
			multiplier += a.profile.WeekendUpliftPct
		}
		if interval == model.LunchPeak || interval == model.DinnerPeak {
			multiplier += a.profile.PeakUpliftPct
		}

		required := int(math.Ceil(base * multiplier))

		// Opening and Closing always need at least one person scheduled,
		// regardless of how small the base headcount is configured.
		if (interval == model.Opening || interval == model.Closing) && required < 1 {
			required = 1
		}
		out[interval] = required
	}
	return out
}

// WeekendUpliftPct exposes the configured weekend uplift fraction. Nothing
// in the tree calls it: the HTTP handler passes the profile's
// WeekendUpliftPct to PeakAnalyzer directly.
func (a *Agent) WeekendUpliftPct() float64 { return a.profile.WeekendUpliftPct }
