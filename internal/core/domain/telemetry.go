package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// Phase names one pass of a frame.
type Phase string

const (
	// PhasePullStatic copies static inport values and detects rewiring.
	PhasePullStatic Phase = "pull_static"
	// PhaseCompile rebuilds stale compiled artifacts.
	PhaseCompile Phase = "compile"
	// PhaseExecuteStatic re-executes stale static outports.
	PhaseExecuteStatic Phase = "execute_static"
	// PhasePullDynamic copies dynamic inport values.
	PhasePullDynamic Phase = "pull_dynamic"
	// PhaseExecuteDynamic executes every dynamic outport.
	PhaseExecuteDynamic Phase = "execute_dynamic"
)

// Outcome is the result of one port operation inside a pass.
type Outcome string

const (
	// OutcomeRan indicates the operation was invoked and succeeded.
	OutcomeRan Outcome = "ran"
	// OutcomeSkipped indicates the cached entry was still fresh.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeFailed indicates the operation returned an error.
	OutcomeFailed Outcome = "failed"
)

// FrameKind names the entry point that drove a frame.
type FrameKind string

const (
	// FrameCompile is a frame driven by CompileFrame.
	FrameCompile FrameKind = "compile"
	// FrameExecute is a frame driven by ExecuteFrame.
	FrameExecute FrameKind = "execute"
	// FrameFull is a frame driven by RunFrame.
	FrameFull FrameKind = "full"
)

// LogLevel represents the severity of a log message, mirroring the standard slog levels.
type LogLevel int

const (
	// LogLevelDebug represents debug-level verbosity.
	LogLevelDebug LogLevel = -4
	// LogLevelInfo represents informational verbosity.
	LogLevelInfo LogLevel = 0
	// LogLevelWarn represents warning verbosity.
	LogLevelWarn LogLevel = 4
	// LogLevelError represents error verbosity.
	LogLevelError LogLevel = 8
)

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// ParseLogLevel converts a case-insensitive level name to a LogLevel.
// The empty string parses as LogLevelInfo.
func ParseLogLevel(s string) (LogLevel, error) {
	switch strings.ToLower(s) {
	case "debug":
		return LogLevelDebug, nil
	case "", "info":
		return LogLevelInfo, nil
	case "warn", "warning":
		return LogLevelWarn, nil
	case "error":
		return LogLevelError, nil
	default:
		return LogLevelInfo, zerr.With(ErrInvalidEngineConfig, "log_level", s)
	}
}
