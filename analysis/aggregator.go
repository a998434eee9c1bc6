package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"

	"uxscope/llm"
	"uxscope/prompt"
)

// StageText is the collected output of one completed exploration stage.
type StageText struct {
	Number  int
	Name    string
	Content string
}

// Aggregator concatenates stage outputs and asks the model for one combined
// UX report.
type Aggregator struct {
	Client  *llm.Client
	Prompts *prompt.Store
	Logger  hclog.Logger
}

func NewAggregator(client *llm.Client, prompts *prompt.Store, logger hclog.Logger) *Aggregator {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Aggregator{Client: client, Prompts: prompts, Logger: logger}
}

// Aggregate runs the full synthesis step: combine stage texts in stage order,
// make a single completion call, parse the JSON it returns, and normalize
// the result. Parse and completion failures come back as *SynthesisError.
func (a *Aggregator) Aggregate(ctx context.Context, appName, category, persona string, stages []StageText) (*Synthesis, error) {
	combined := CombineStages(stages)

	promptText, err := a.Prompts.GetAndRender("final_analysis", prompt.Vars{
		"app_name":         appName,
		"category":         category,
		"persona":          persona,
		"combined_content": combined,
	})
	if err != nil {
		return nil, fmt.Errorf("building synthesis prompt: %w", err)
	}

	a.Logger.Info("sending combined stage data for final analysis",
		"stages", len(stages), "chars", len(combined))

	raw, err := a.Client.Complete(ctx, promptText)
	if err != nil {
		return nil, &SynthesisError{Op: "completion", Err: err}
	}

	cleaned := StripFences(strings.TrimSpace(raw))

	var report Report
	if err := json.Unmarshal([]byte(cleaned), &report); err != nil {
		return nil, &SynthesisError{Op: "parse", Raw: cleaned, Err: err}
	}

	report = Normalize(report, persona)

	encoded, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, &SynthesisError{Op: "encode", Err: err}
	}

	return &Synthesis{
		Report:       report,
		RawJSON:      encoded,
		UXConfidence: UXConfidence(report),
		Complexity:   Complexity(report),
	}, nil
}

// CombineStages joins stage texts in ascending stage order, each under a
// banner naming the stage.
func CombineStages(stages []StageText) string {
	ordered := make([]StageText, len(stages))
	copy(ordered, stages)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Number < ordered[j].Number })

	var b strings.Builder
	for _, st := range ordered {
		fmt.Fprintf(&b, "\n\n=== STAGE %d: %s ===\n\n", st.Number, st.Name)
		b.WriteString(st.Content)
	}
	return b.String()
}

// StripFences removes a leading markdown code fence, with or without a json
// language tag, from a model response. Text that is not fenced passes
// through untouched.
func StripFences(text string) string {
	if strings.HasPrefix(text, "```json") {
		rest := strings.TrimPrefix(text, "```json")
		if idx := strings.Index(rest, "```"); idx >= 0 {
			rest = rest[:idx]
		}
		return strings.TrimSpace(rest)
	}
	if strings.HasPrefix(text, "```") {
		rest := strings.TrimPrefix(text, "```")
		if idx := strings.Index(rest, "```"); idx >= 0 {
			rest = rest[:idx]
		}
		return strings.TrimSpace(rest)
	}
	return text
}
