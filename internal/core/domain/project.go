package domain

import (
	"runtime"

	"go.trai.ch/zerr"
)

// DefaultFrames is the number of frames a run drives when none is configured.
const DefaultFrames = 1

// EngineConfig holds the settings that drive frames.
type EngineConfig struct {
	Parallel    bool
	Parallelism int
	Frames      int
	Force       bool
	LogLevel    LogLevel
	JSONLogs    bool
	MetricsAddr string
	StoreDir    string
}

// DefaultEngineConfig returns the settings used when a project file leaves them out.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Parallelism: runtime.NumCPU(),
		Frames:      DefaultFrames,
		LogLevel:    LogLevelInfo,
		StoreDir:    DefaultStorePath(),
	}
}

// Validate checks that the settings are in range.
func (c EngineConfig) Validate() error {
	if c.Parallelism < 1 {
		return zerr.With(ErrInvalidEngineConfig, "parallelism", c.Parallelism)
	}
	if c.Frames < 0 {
		return zerr.With(ErrInvalidEngineConfig, "frames", c.Frames)
	}
	return nil
}

// Project is a loaded project file.
type Project struct {
	// Root is the directory holding the project file.
	Root   string
	Path   string
	Engine EngineConfig
	Graph  *Graph
}
