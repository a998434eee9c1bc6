package config

import "fmt"

// ExplorationConfig tunes the staged exploration pipeline.
type ExplorationConfig struct {
	MaxDepth      int `hcl:"max_depth,optional"`
	StepsPerDepth int `hcl:"steps_per_depth,optional"`
	MaxSteps      int `hcl:"max_steps,optional"`
	StressSteps   int `hcl:"stress_steps,optional"`

	// StageTimeoutMins caps how long a single agent stage may run. Zero
	// leaves stages uncapped.
	StageTimeoutMins int `hcl:"stage_timeout_minutes,optional"`

	CancelPollSecs int `hcl:"cancel_poll_seconds,optional"`
	LogFlushSecs   int `hcl:"log_flush_seconds,optional"`
}

func (e *ExplorationConfig) Defaults() {
	if e.MaxDepth == 0 {
		e.MaxDepth = 6
	}
	if e.StepsPerDepth == 0 {
		e.StepsPerDepth = 30
	}
	if e.MaxSteps == 0 {
		e.MaxSteps = 200
	}
	if e.StressSteps == 0 {
		e.StressSteps = 100
	}
	if e.CancelPollSecs == 0 {
		e.CancelPollSecs = 2
	}
	if e.LogFlushSecs == 0 {
		e.LogFlushSecs = 3
	}
}

func (e *ExplorationConfig) Validate() error {
	if e.MaxDepth < 1 || e.MaxDepth > 20 {
		return fmt.Errorf("max_depth must be between 1 and 20, got %d", e.MaxDepth)
	}
	if e.MaxSteps < 1 {
		return fmt.Errorf("max_steps must be positive, got %d", e.MaxSteps)
	}
	if e.StressSteps < 1 {
		return fmt.Errorf("stress_steps must be positive, got %d", e.StressSteps)
	}
	if e.StageTimeoutMins < 0 {
		return fmt.Errorf("stage_timeout_minutes must not be negative, got %d", e.StageTimeoutMins)
	}
	return nil
}
