// Package explore drives the four-stage exploration pipeline: basic
// exploration, persona analysis, stress testing, and final synthesis.
package explore

import (
	"errors"
	"fmt"
)

// Exploration statuses. Transitions are monotonic: running moves to exactly
// one of completed, failed, or stopped.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusStopped   = "stopped"
)

// Stage statuses. Stages never reach "stopped": a stage interrupted mid-run
// records as failed while the exploration itself records stopped.
const (
	StagePending   = "pending"
	StageRunning   = "running"
	StageCompleted = "completed"
	StageFailed    = "failed"
)

// ErrStopped marks a run cut short by a stop request rather than a failure.
var ErrStopped = errors.New("exploration stopped")

// StageError reports which stage broke the pipeline.
type StageError struct {
	Stage   int
	Message string
	Err     error
}

func (e *StageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("stage %d: %s: %v", e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("stage %d: %s", e.Stage, e.Message)
}

func (e *StageError) Unwrap() error { return e.Err }

// Params are the inputs for one exploration run.
type Params struct {
	AppName          string
	Category         string
	Persona          string
	CustomNavigation string
	MaxDepth         int
	SaveToMemory     bool
}

// Outcome is the terminal state of a run. UXScore and ComplexityScore are
// only meaningful when Status is completed.
type Outcome struct {
	ExplorationID   string
	Status          string
	UXScore         float64
	ComplexityScore float64
}

// personaSlugs maps display names to prompt template slugs.
var personaSlugs = map[string]string{
	"UX Designer":     "ux_designer",
	"QA Engineer":     "qa_engineer",
	"Product Manager": "product_manager",
}

// PersonaSlug returns the template slug for a persona display name. Unknown
// personas fall back to the UX designer templates.
func PersonaSlug(persona string) string {
	if slug, ok := personaSlugs[persona]; ok {
		return slug
	}
	return "ux_designer"
}

// Personas lists the supported persona display names.
func Personas() []string {
	return []string{"UX Designer", "QA Engineer", "Product Manager"}
}
