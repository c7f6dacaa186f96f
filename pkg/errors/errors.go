// Package errors provides the application-wide error taxonomy: Fatal input
// errors, solver failures, and cancellation. The Orchestrator stops at the
// first stage error of any class and returns it; soft violations are never
// raised as errors — they flow through the Validator/Resolver as
// model.Conflict values instead.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Code identifies an error class.
type Code string

const (
	CodeUnknown      Code = "UNKNOWN"
	CodeInternal     Code = "INTERNAL_ERROR"
	CodeInvalidInput Code = "INVALID_INPUT"
	CodeNotFound     Code = "NOT_FOUND"
	CodeTimeout      Code = "TIMEOUT"
	CodeRateLimited  Code = "RATE_LIMITED"

	// Fatal input errors: malformed GenerateRequest or dataset —
	// no roster is produced.
	CodeMissingAvailability Code = "MISSING_AVAILABILITY"
	CodeUnknownStation      Code = "UNKNOWN_STATION"
	CodeHorizonMisaligned   Code = "HORIZON_MISALIGNED"
	CodeMalformedRequest    Code = "MALFORMED_REQUEST"

	// Solver failures: returned as an error with no roster and no
	// diagnostic Conflict.
	CodeNoFeasibleSolution Code = "NO_FEASIBLE_SOLUTION"
	CodeSolveTimeout       Code = "SOLVE_TIMEOUT"

	// Cancellation: terminal, returned as an error with no partial result.
	CodeCancelled Code = "CANCELLED"

	CodeDatabaseError  Code = "DATABASE_ERROR"
	CodeValidationFail Code = "VALIDATION_FAILED"
)

// Class groups codes into three buckets (plus ClassOther). The Orchestrator
// does not branch on it.
type Class string

const (
	ClassFatal        Class = "fatal"
	ClassSolverFailed Class = "solver_failed"
	ClassCancelled    Class = "cancelled"
	ClassOther        Class = "other"
)

var codeClass = map[Code]Class{
	CodeMissingAvailability: ClassFatal,
	CodeUnknownStation:      ClassFatal,
	CodeHorizonMisaligned:   ClassFatal,
	CodeMalformedRequest:    ClassFatal,
	CodeNoFeasibleSolution:  ClassSolverFailed,
	CodeSolveTimeout:        ClassSolverFailed,
	CodeCancelled:           ClassCancelled,
}

// ClassOf reports which of the three buckets a code belongs to.
func ClassOf(code Code) Class {
	if c, ok := codeClass[code]; ok {
		return c
	}
	return ClassOther
}

// AppError is the structured error type carried through the pipeline.
type AppError struct {
	Code       Code                   `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	HTTPStatus int                    `json:"-"`
	Cause      error                  `json:"-"`
	Fields     map[string]interface{} `json:"fields,omitempty"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// Class reports which bucket this error belongs to.
func (e *AppError) Class() Class { return ClassOf(e.Code) }

// IsFatal reports whether this error is in the Fatal input class.
func (e *AppError) IsFatal() bool { return e.Class() == ClassFatal }

func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

func (e *AppError) WithField(key string, value interface{}) *AppError {
	if e.Fields == nil {
		e.Fields = make(map[string]interface{})
	}
	e.Fields[key] = value
	return e
}

// New creates an AppError from a code and message.
func New(code Code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: codeToHTTPStatus(code)}
}

// Wrap attaches a code/message to an underlying cause.
func Wrap(err error, code Code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: codeToHTTPStatus(code), Cause: err}
}

func codeToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidInput, CodeValidationFail, CodeMalformedRequest,
		CodeMissingAvailability, CodeUnknownStation, CodeHorizonMisaligned:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeTimeout, CodeSolveTimeout:
		return http.StatusGatewayTimeout
	case CodeNoFeasibleSolution:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Is reports whether err is an AppError with the given code.
func Is(err error, code Code) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// GetCode extracts the Code from err, or CodeUnknown.
func GetCode(err error) Code {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// GetHTTPStatus extracts the HTTP status equivalent for err.
func GetHTTPStatus(err error) int {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// Constructors for the Fatal-input class.

// MissingAvailability reports that employeeID has no availability entry for
// date, violating the "availability defined for every day" invariant.
func MissingAvailability(employeeID, date string) *AppError {
	return New(CodeMissingAvailability,
		fmt.Sprintf("employee %s has no availability entry for %s", employeeID, date)).
		WithField("employee_id", employeeID).WithField("date", date)
}

// UnknownStation reports that a shift code references a station no
// employee or store profile declares.
func UnknownStation(code, station string) *AppError {
	return New(CodeUnknownStation,
		fmt.Sprintf("shift code %s references unknown station %s", code, station)).
		WithField("code", code).WithField("station", station)
}

// HorizonMisaligned reports that the requested horizon does not align with
// the dataset (e.g. weeks not in {1,2,4}, or start_date unparsable).
func HorizonMisaligned(reason string) *AppError {
	return New(CodeHorizonMisaligned, reason)
}

// NoFeasibleSolution reports solver infeasibility with the tightest-violated
// constraint class as diagnostic detail.
func NoFeasibleSolution(reason string) *AppError {
	return New(CodeNoFeasibleSolution, reason)
}

// SolveTimeout reports the solver exhausted its deadline with no feasible
// solution at all.
func SolveTimeout(elapsed string) *AppError {
	return New(CodeSolveTimeout, fmt.Sprintf("solver exhausted its deadline after %s with no feasible solution", elapsed))
}

// Cancelled reports a cooperative cancellation at a stage's safe point.
func Cancelled(stage string) *AppError {
	return New(CodeCancelled, fmt.Sprintf("run cancelled during stage %s", stage))
}

// ValidationErrors collects request-boundary field errors.
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (ve *ValidationErrors) Error() string {
	if len(ve.Errors) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s - %s", ve.Errors[0].Field, ve.Errors[0].Message)
}

func (ve *ValidationErrors) Add(field, message string) {
	ve.Errors = append(ve.Errors, ValidationError{Field: field, Message: message})
}

func (ve *ValidationErrors) HasErrors() bool { return len(ve.Errors) > 0 }

func (ve *ValidationErrors) ToAppError() *AppError {
	err := New(CodeMalformedRequest, "validation failed")
	err.Fields = make(map[string]interface{})
	for _, e := range ve.Errors {
		err.Fields[e.Field] = e.Message
	}
	return err
}
