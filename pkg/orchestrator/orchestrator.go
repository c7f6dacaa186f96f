// Package orchestrator drives the five-stage roster pipeline — Demand,
// Matcher, Scheduler, Validator, Resolver — as a single FSM run, keeping an
// append-only workflow log and a per-stage AgentState for the caller to
// inspect after the run completes.
package orchestrator

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/paiban/storeroster/pkg/errors"
	"github.com/paiban/storeroster/pkg/logger"
	"github.com/paiban/storeroster/pkg/model"
	"github.com/paiban/storeroster/pkg/scheduler/demand"
	"github.com/paiban/storeroster/pkg/scheduler/matcher"
	"github.com/paiban/storeroster/pkg/scheduler/resolver"
	"github.com/paiban/storeroster/pkg/scheduler/solver"
	"github.com/paiban/storeroster/pkg/validator"
)

const (
	stageDemand    = "demand"
	stageMatcher   = "matcher"
	stageScheduler = "scheduler"
	stageValidator = "validator"
	stageResolver  = "resolver"
)

// Run status values reported in the final RunResult. Run does not report
// StatusFailed: when the Scheduler finds no feasible roster, Run returns an
// error instead of a RunResult.
const (
	StatusSuccess      = "success"
	StatusWithWarnings = "success_with_warnings"
	StatusPartial      = "partial"
	StatusFailed       = "failed"
)

// Config bounds the whole run: the wall-clock budget the Orchestrator
// enforces between stages, on top of the Scheduler's own per-solve
// deadline.
type Config struct {
	MaxTimeLimit       time.Duration
	SchedulerTimeLimit time.Duration
	ResolverConfig     resolver.Config
	SchedulerConfig    solver.Config
}

// DefaultConfig mirrors internal/config's SchedulerConfig defaults.
func DefaultConfig() Config {
	return Config{
		MaxTimeLimit:       180 * time.Second,
		SchedulerTimeLimit: 120 * time.Second,
		ResolverConfig:     resolver.DefaultConfig(),
		SchedulerConfig:    solver.DefaultConfig(),
	}
}

// RunInput is everything one roster-generation run needs.
type RunInput struct {
	StoreID   string
	Horizon   []model.Day
	Employees []model.Employee
	Codes     []model.ShiftCode
	Demand    demand.Profile
}

// RunResult is the full account of one pipeline run: the final roster, its
// outstanding conflicts split into blocking and advisory, the workflow
// log, and per-stage AgentState snapshots.
type RunResult struct {
	RunID     string
	Status    string
	Roster    *model.Roster
	Conflicts []model.Conflict
	Warnings  []model.Conflict
	Stages    []model.AgentState
	Log       []model.WorkflowStep
	Stats     *solver.Statistics
	Duration  time.Duration
}

// Orchestrator wires the five agents into one FSM run.
type Orchestrator struct {
	cfg      Config
	matcher  *matcher.Agent
	solver   solver.Solver
	validate *validator.Agent
	resolve  *resolver.Agent

	log []model.WorkflowStep
	rl  *logger.RosterLogger
}

// New builds an Orchestrator. s is the Scheduler backend (normally
// solver.NewMIPSolver()); it is accepted as an interface so tests can
// substitute a stub.
func New(cfg Config, s solver.Solver) *Orchestrator {
	v := validator.NewAgent(validator.DefaultConfig())
	return &Orchestrator{
		cfg:      cfg,
		matcher:  matcher.NewAgent(),
		solver:   s,
		validate: v,
		resolve:  resolver.NewAgent(cfg.ResolverConfig, s, v),
		rl:       logger.NewRosterLogger(),
	}
}

func (o *Orchestrator) note(step, message string) {
	o.log = append(o.log, model.WorkflowStep{Timestamp: time.Now(), Step: step, Message: message})
}

// Run drives the full pipeline once. Whenever the Scheduler finds a
// feasible roster it returns a RunResult, whatever conflicts remain. It
// returns an error and no RunResult when the context is cancelled before
// the demand stage, the demand profile is malformed, the wall-clock budget
// runs out before the matcher or scheduler stage, the solver or the
// Resolver fails, or the Scheduler finds no feasible roster.
func (o *Orchestrator) Run(ctx context.Context, input RunInput) (*RunResult, error) {
	start := time.Now()
	runID := uuid.New().String()
	// Each run appends to its own copy, so concurrent runs on one
	// Orchestrator never share a workflow log.
	run := *o
	o = &run
	o.log = nil

	stages := []model.AgentState{
		{Name: stageDemand, Status: model.Idle},
		{Name: stageMatcher, Status: model.Idle},
		{Name: stageScheduler, Status: model.Idle},
		{Name: stageValidator, Status: model.Idle},
		{Name: stageResolver, Status: model.Idle},
	}
	setStage := func(name string, status model.AgentStatus, action string) {
		for i := range stages {
			if stages[i].Name == name {
				stages[i].Status = status
				stages[i].LastAction = action
			}
		}
	}

	budgetExceeded := func() bool {
		return time.Since(start) > o.cfg.MaxTimeLimit
	}

	fail := func(stage string, err error) (*RunResult, error) {
		o.rl.StageFailed(runID, stage, err)
		setStage(stage, model.Failed, err.Error())
		o.note(stage, "failed: "+err.Error())
		return nil, err
	}

	// Demand
	o.rl.StageStarted(runID, stageDemand)
	stageStart := time.Now()
	if err := ctx.Err(); err != nil {
		return fail(stageDemand, errors.Wrap(err, errors.CodeCancelled, "run cancelled before demand stage"))
	}
	demandAgent := demand.NewAgent(input.Demand)
	horizon, err := demandAgent.Compute(input.Horizon)
	if err != nil {
		return fail(stageDemand, errors.Wrap(err, errors.CodeMalformedRequest, "demand computation failed"))
	}
	setStage(stageDemand, model.Succeeded, "computed demand profile")
	o.note(stageDemand, "computed per-interval demand over the horizon")
	o.rl.StageSucceeded(runID, stageDemand, time.Since(stageStart))

	// Matcher
	o.rl.StageStarted(runID, stageMatcher)
	stageStart = time.Now()
	if budgetExceeded() {
		return fail(stageMatcher, errors.New(errors.CodeTimeout, "wall-clock budget exceeded before matcher stage"))
	}
	match := o.matcher.Match(input.Employees, input.Codes)
	setStage(stageMatcher, model.Succeeded, "built eligibility and score tables")
	o.note(stageMatcher, "matched employees against shift codes")
	o.rl.StageSucceeded(runID, stageMatcher, time.Since(stageStart))

	// Scheduler
	o.rl.StageStarted(runID, stageScheduler)
	stageStart = time.Now()
	if budgetExceeded() {
		return fail(stageScheduler, errors.New(errors.CodeTimeout, "wall-clock budget exceeded before scheduler stage"))
	}
	solveInput := solver.Input{
		Horizon:   horizon,
		Employees: input.Employees,
		Codes:     input.Codes,
		Match:     match,
		Config:    o.cfg.SchedulerConfig,
		TimeLimit: o.cfg.SchedulerTimeLimit,
	}
	result, err := o.solver.Solve(ctx, solveInput)
	if err != nil {
		return fail(stageScheduler, errors.Wrap(err, errors.CodeInternal, "scheduler solve failed"))
	}
	if !result.Feasible {
		err := errors.New(errors.CodeNoFeasibleSolution, "scheduler found no feasible roster for the given horizon")
		return fail(stageScheduler, err)
	}
	setStage(stageScheduler, model.Succeeded, "solved roster")
	o.note(stageScheduler, "scheduler produced a feasible roster")
	o.rl.StageSucceeded(runID, stageScheduler, time.Since(stageStart))

	// Validator
	o.rl.StageStarted(runID, stageValidator)
	stageStart = time.Now()
	conflicts := o.validate.Validate(result.Roster, input.Employees, input.Codes, match)
	for _, c := range conflicts {
		o.rl.ConflictRecorded(runID, string(c.Kind), string(c.Severity))
	}
	setStage(stageValidator, model.Succeeded, "ran the fixed check battery")
	o.note(stageValidator, "validator found conflicts")
	o.rl.StageSucceeded(runID, stageValidator, time.Since(stageStart))

	finalRoster := result.Roster
	finalConflicts := conflicts

	// Resolver — only invoked when there is a Critical conflict to repair.
	if hasCritical(conflicts) {
		o.rl.StageStarted(runID, stageResolver)
		stageStart = time.Now()
		if budgetExceeded() {
			setStage(stageResolver, model.Failed, "skipped: wall-clock budget exhausted")
			o.note(stageResolver, "skipped repair, out of budget")
		} else {
			outcome, err := o.resolve.Repair(ctx, solveInput, result.Roster, conflicts)
			if err != nil {
				return fail(stageResolver, errors.Wrap(err, errors.CodeInternal, "resolver failed"))
			}
			finalRoster = outcome.Roster
			finalConflicts = outcome.Conflicts
			setStage(stageResolver, model.Succeeded, "ran repair rounds")
			o.note(stageResolver, "resolver finished its repair budget")
			o.rl.StageSucceeded(runID, stageResolver, time.Since(stageStart))
		}
	} else {
		setStage(stageResolver, model.Idle, "not needed")
	}

	status := StatusSuccess
	var blocking, warnings []model.Conflict
	for _, c := range finalConflicts {
		if c.IsWarning() {
			warnings = append(warnings, c)
		} else {
			blocking = append(blocking, c)
		}
	}
	switch {
	case hasCritical(finalConflicts):
		status = StatusPartial
	case len(finalConflicts) > 0:
		status = StatusWithWarnings
	}

	elapsed := time.Since(start)
	o.rl.RunComplete(runID, status, elapsed, len(finalConflicts))

	return &RunResult{
		RunID:     runID,
		Status:    status,
		Roster:    finalRoster,
		Conflicts: blocking,
		Warnings:  warnings,
		Stages:    stages,
		Log:       o.log,
		Stats:     result.Statistics,
		Duration:  elapsed,
	}, nil
}

func hasCritical(conflicts []model.Conflict) bool {
	for _, c := range conflicts {
		if c.Severity == model.Critical {
			return true
		}
	}
	return false
}
