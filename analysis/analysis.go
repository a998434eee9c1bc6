// Package analysis turns the raw per-stage exploration text into a single
// normalized UX report by way of one synthesis call to the model.
package analysis

import "fmt"

// Report is the synthesized UX analysis document. It stays a generic JSON
// object because the schema is dictated by the synthesis prompt and models
// routinely add fields beyond it; Normalize guarantees the required ones.
type Report map[string]any

// Synthesis bundles the normalized report with the headline scores pulled
// out of it for storage and display.
type Synthesis struct {
	Report       Report
	RawJSON      []byte
	UXConfidence float64
	Complexity   float64
}

// SynthesisError wraps failures in the synthesis step with enough of the
// model output to debug a bad response.
type SynthesisError struct {
	Op  string
	Raw string
	Err error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesis %s: %v", e.Op, e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }

// Snippet returns the leading portion of the raw model output for log lines.
func (e *SynthesisError) Snippet() string {
	const max = 200
	if len(e.Raw) <= max {
		return e.Raw
	}
	return e.Raw[:max] + "..."
}
