// Package logger provides the process-wide structured logger.
package logger

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	once   sync.Once
	logger zerolog.Logger
)

type Level = zerolog.Level

const (
	DebugLevel = zerolog.DebugLevel
	InfoLevel  = zerolog.InfoLevel
	WarnLevel  = zerolog.WarnLevel
	ErrorLevel = zerolog.ErrorLevel
	FatalLevel = zerolog.FatalLevel
)

// Config controls the global logger's level, format and destination.
type Config struct {
	Level      string `json:"level"`
	Format     string `json:"format"` // json/console
	Output     string `json:"output"` // stdout/stderr/file
	FilePath   string `json:"file_path,omitempty"`
	TimeFormat string `json:"time_format,omitempty"`
}

func DefaultConfig() Config {
	return Config{Level: "info", Format: "console", Output: "stdout", TimeFormat: time.RFC3339}
}

// Init configures the global logger. Safe to call once; later calls are
// no-ops.
func Init(cfg Config) {
	once.Do(func() {
		zerolog.SetGlobalLevel(parseLevel(cfg.Level))

		var output io.Writer
		switch cfg.Output {
		case "stderr":
			output = os.Stderr
		case "file":
			if cfg.FilePath != "" {
				f, err := os.OpenFile(cfg.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
				if err == nil {
					output = f
				} else {
					output = os.Stdout
				}
			} else {
				output = os.Stdout
			}
		default:
			output = os.Stdout
		}

		if cfg.Format == "console" {
			output = zerolog.ConsoleWriter{Out: output, TimeFormat: cfg.TimeFormat}
		}

		logger = zerolog.New(output).With().Timestamp().Logger()
	})
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// Get returns the global logger, lazily initializing it with defaults.
func Get() *zerolog.Logger {
	Init(DefaultConfig()) // no-op once Init has run
	return &logger
}

type ctxKey string

// WithContext attaches request-scoped fields (run ID, store ID) carried on
// ctx to a logger instance.
func WithContext(ctx context.Context) *zerolog.Logger {
	l := Get().With().Logger()
	if runID, ok := ctx.Value(ctxKey("run_id")).(string); ok {
		l = l.With().Str("run_id", runID).Logger()
	}
	if storeID, ok := ctx.Value(ctxKey("store_id")).(string); ok {
		l = l.With().Str("store_id", storeID).Logger()
	}
	return &l
}

func Debug() *zerolog.Event { return Get().Debug() }
func Info() *zerolog.Event  { return Get().Info() }
func Warn() *zerolog.Event  { return Get().Warn() }
func Error() *zerolog.Event { return Get().Error() }
func Fatal() *zerolog.Event { return Get().Fatal() }

func WithError(err error) *zerolog.Event {
	return Get().Error().Err(err)
}

func WithField(key string, value interface{}) *zerolog.Logger {
	l := Get().With().Interface(key, value).Logger()
	return &l
}

func WithFields(fields map[string]interface{}) *zerolog.Logger {
	ctx := Get().With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	l := ctx.Logger()
	return &l
}

// RosterLogger is the roster-engine-specific wrapper: one method per
// pipeline stage event so call sites never hand-format log lines.
type RosterLogger struct {
	base *zerolog.Logger
}

func NewRosterLogger() *RosterLogger {
	l := Get().With().Str("component", "roster_engine").Logger()
	return &RosterLogger{base: &l}
}

// StageStarted logs the Orchestrator entering a pipeline stage.
func (l *RosterLogger) StageStarted(runID, stage string) {
	l.base.Info().Str("run_id", runID).Str("stage", stage).Msg("stage started")
}

// StageSucceeded logs a pipeline stage completing without a Fatal error.
func (l *RosterLogger) StageSucceeded(runID, stage string, elapsed time.Duration) {
	l.base.Info().Str("run_id", runID).Str("stage", stage).Dur("elapsed", elapsed).Msg("stage succeeded")
}

// StageFailed logs a stage error short-circuiting the Orchestrator.
func (l *RosterLogger) StageFailed(runID, stage string, err error) {
	l.base.Error().Str("run_id", runID).Str("stage", stage).Err(err).Msg("stage failed")
}

// ConflictRecorded logs one Validator/Resolver conflict at a level matched
// to its severity.
func (l *RosterLogger) ConflictRecorded(runID string, kind string, severity string) {
	ev := l.base.Warn()
	if severity == "critical" {
		ev = l.base.Error()
	}
	ev.Str("run_id", runID).Str("kind", kind).Str("severity", severity).Msg("conflict recorded")
}

// RunComplete logs the final pipeline outcome.
func (l *RosterLogger) RunComplete(runID, status string, elapsed time.Duration, conflicts int) {
	l.base.Info().
		Str("run_id", runID).
		Str("status", status).
		Dur("elapsed", elapsed).
		Int("conflicts", conflicts).
		Msg("run complete")
}
