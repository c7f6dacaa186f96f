package model

// StoreProfile is a persisted, reusable store configuration: its shift-code
// catalogue and base demand numbers, so a caller doesn't have to resend
// them on every generate request.
type StoreProfile struct {
	BaseModel

	StoreID  string `json:"store_id" db:"store_id"`
	Name     string `json:"name" db:"name"`
	Timezone string `json:"timezone" db:"timezone"`

	Codes []ShiftCode `json:"codes" db:"codes"`

	BaseHeadcount    map[Interval]int `json:"base_headcount" db:"base_headcount"`
	WeekendUpliftPct float64          `json:"weekend_uplift_pct" db:"weekend_uplift_pct"`
	PeakUpliftPct    float64          `json:"peak_uplift_pct" db:"peak_uplift_pct"`
}

// RosterRun is an archived record of one completed pipeline run, kept for
// audit and so a caller can fetch a prior result without re-solving.
type RosterRun struct {
	BaseModel

	RunID     string `json:"run_id" db:"run_id"`
	StoreID   string `json:"store_id" db:"store_id"`
	StartDate string `json:"start_date" db:"start_date"`
	Days      int    `json:"days" db:"days"`

	Status     string     `json:"status" db:"status"`
	Roster     *Roster    `json:"roster" db:"roster"`
	Conflicts  []Conflict `json:"conflicts" db:"conflicts"`
	Warnings   []Conflict `json:"warnings" db:"warnings"`
	DurationMS int64      `json:"duration_ms" db:"duration_ms"`
}
