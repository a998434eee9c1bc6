// Package agent defines the boundary to the UI-exploring agent. The agent
// itself (device connection, screen reading, action planning) lives behind
// the Explorer interface; the pipeline only hands it a goal and a step budget
// and collects what comes back.
package agent

import "context"

// Result is what one exploration pass returns. Success reflects whether the
// agent believes it achieved the goal; Reason is its free-text explanation;
// FinalAnswer carries the report text the goal asked for, when the agent
// produced one.
type Result struct {
	Success     bool   `json:"success"`
	Reason      string `json:"reason"`
	FinalAnswer string `json:"finalAnswer,omitempty"`
}

// DiagnosticSink receives the agent's incidental narration (step logs, tool
// chatter). It is decoupled from the structured Result; implementations must
// be safe for concurrent use and must never block the agent for long.
type DiagnosticSink interface {
	Write(text string)
}

// Explorer runs one bounded exploration pass. Implementations must honor ctx
// cancellation and may write narration to sink throughout the run. sink may
// be nil.
type Explorer interface {
	Run(ctx context.Context, goal string, stepBudget int, sink DiagnosticSink) (*Result, error)
}

// SinkFunc adapts a function to a DiagnosticSink.
type SinkFunc func(text string)

func (f SinkFunc) Write(text string) { f(text) }
