package explore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"uxscope/analysis"
	"uxscope/config"
	"uxscope/store"
	"uxscope/streamers"
)

// Progress percentages reported at each pipeline milestone. A failed run
// reports -1.
const (
	progressStage1 = 5
	progressStage2 = 25
	progressStage3 = 50
	progressStage4 = 75
	progressSaving = 95
	progressDone   = 100
)

// Runner executes the full four-stage pipeline for one exploration.
type Runner struct {
	Store      store.ExplorationStore
	Prompts    *PromptBuilder
	Invoker    *Invoker
	Aggregator *analysis.Aggregator
	Handler    streamers.ExplorationHandler
	Cfg        *config.ExplorationConfig
	Logger     hclog.Logger
}

func NewRunner(st store.ExplorationStore, prompts *PromptBuilder, invoker *Invoker,
	aggregator *analysis.Aggregator, handler streamers.ExplorationHandler,
	cfg *config.ExplorationConfig, logger hclog.Logger) *Runner {
	if handler == nil {
		handler = streamers.Null{}
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Runner{
		Store:      st,
		Prompts:    prompts,
		Invoker:    invoker,
		Aggregator: aggregator,
		Handler:    handler,
		Cfg:        cfg,
		Logger:     logger,
	}
}

// Run drives all four stages. A stop request yields Outcome.Status stopped
// with a nil error; a stage failure yields status failed and a *StageError.
func (r *Runner) Run(ctx context.Context, p Params) (*Outcome, error) {
	if p.MaxDepth <= 0 {
		p.MaxDepth = r.Cfg.MaxDepth
	}
	if p.Persona == "" {
		p.Persona = "UX Designer"
	}

	id, err := r.Store.CreateExploration(store.NewExploration{
		AppName:          p.AppName,
		Category:         p.Category,
		Persona:          p.Persona,
		CustomNavigation: p.CustomNavigation,
		SaveToMemory:     p.SaveToMemory,
	})
	if err != nil {
		return nil, fmt.Errorf("create exploration: %w", err)
	}

	r.Handler.RunStarted(id, p.AppName, p.Persona)
	r.log("info", fmt.Sprintf("Created exploration #%s", id))

	stageTexts := make(map[int]string)

	agentStages := []struct {
		number   int
		percent  int
		startMsg string
		doneMsg  string
		goal     func() (string, error)
		budget   int
	}{
		{
			number:   1,
			percent:  progressStage1,
			startMsg: "Starting basic exploration...",
			doneMsg:  "Basic exploration complete",
			goal:     func() (string, error) { return r.Prompts.BasicExploration(p.AppName, p.Category) },
			budget:   r.Cfg.MaxSteps,
		},
		{
			number:   2,
			percent:  progressStage2,
			startMsg: fmt.Sprintf("Starting %s analysis...", p.Persona),
			doneMsg:  fmt.Sprintf("%s analysis complete", p.Persona),
			goal: func() (string, error) {
				return r.Prompts.PersonaAnalysis(p.AppName, p.Category, p.Persona, p.MaxDepth, p.CustomNavigation)
			},
			budget: r.personaBudget(p.MaxDepth),
		},
		{
			number:   3,
			percent:  progressStage3,
			startMsg: "Starting stress testing...",
			doneMsg:  "Stress testing complete",
			goal:     func() (string, error) { return r.Prompts.StressTest(p.AppName, p.Category, p.CustomNavigation) },
			budget:   r.Cfg.StressSteps,
		},
	}

	for _, st := range agentStages {
		if ctx.Err() != nil {
			return r.stopExploration(id)
		}
		content, err := r.runAgentStage(ctx, id, st.number, st.percent, st.startMsg, st.doneMsg, st.goal, st.budget)
		if err != nil {
			if errors.Is(err, ErrStopped) {
				return r.stopExploration(id)
			}
			return r.failExploration(id, st.number, err)
		}
		stageTexts[st.number] = content
	}

	if ctx.Err() != nil {
		return r.stopExploration(id)
	}

	synthesis, err := r.runSynthesisStage(ctx, id, p, stageTexts)
	if err != nil {
		if errors.Is(err, ErrStopped) {
			return r.stopExploration(id)
		}
		return r.failExploration(id, 4, err)
	}

	r.log("info", "Saving results to database...")
	r.Handler.Progress("Saving results to database...", progressSaving)

	if err := r.saveResult(id, synthesis); err != nil {
		return r.failExploration(id, 4, &StageError{Stage: 4, Message: "save results", Err: err})
	}

	if p.SaveToMemory {
		// Snapshots are best-effort; a failure here never fails the run.
		if _, err := r.Store.CreateSnapshot(id, ""); err != nil {
			r.log("warning", fmt.Sprintf("Comparison snapshot not saved: %v", err))
		}
	}

	if err := r.Store.UpdateExplorationStatus(id, StatusCompleted, nil, ""); err != nil {
		r.Logger.Error("mark exploration completed", "error", err)
	}
	r.Handler.Progress("Exploration completed successfully!", progressDone)
	r.log("success", "All stages completed successfully!")
	r.Handler.RunCompleted(id, StatusCompleted)

	return &Outcome{
		ExplorationID:   id,
		Status:          StatusCompleted,
		UXScore:         synthesis.UXConfidence,
		ComplexityScore: synthesis.Complexity,
	}, nil
}

// personaBudget scales the stage 2 step budget with exploration depth,
// capped at the global maximum.
func (r *Runner) personaBudget(maxDepth int) int {
	budget := maxDepth * r.Cfg.StepsPerDepth
	if budget <= 0 || budget > r.Cfg.MaxSteps {
		return r.Cfg.MaxSteps
	}
	return budget
}

func (r *Runner) runAgentStage(ctx context.Context, id string, number, percent int,
	startMsg, doneMsg string, buildGoal func() (string, error), budget int) (string, error) {

	name := store.StageNames[number]
	r.log("info", fmt.Sprintf("Starting Stage %d: %s", number, name))
	r.beginStage(id, number, startMsg, fmt.Sprintf("Stage %d: %s", number, name), percent)

	goal, err := buildGoal()
	if err != nil {
		wrapped := &StageError{Stage: number, Message: "build goal", Err: err}
		r.finishStageFailed(id, number, wrapped.Error(), "Failed to build stage goal")
		return "", wrapped
	}

	result, err := r.Invoker.Invoke(ctx, goal, budget, r.Handler.Log)
	if err != nil {
		if errors.Is(err, ErrStopped) {
			r.finishStageFailed(id, number, "Stopped by user", "Stopped by user")
			return "", ErrStopped
		}
		wrapped := &StageError{Stage: number, Message: "agent execution failed", Err: err}
		r.finishStageFailed(id, number, wrapped.Error(), "Agent failed")
		return "", wrapped
	}

	if !result.Success {
		wrapped := &StageError{Stage: number, Message: "agent execution failed"}
		if result.Reason != "" {
			wrapped.Message = result.Reason
		}
		r.finishStageFailed(id, number, "Agent execution failed", "Agent failed")
		return "", wrapped
	}

	content := result.FinalAnswer
	if content == "" {
		content = result.Reason
	}
	if content == "" {
		wrapped := &StageError{Stage: number, Message: "no markdown output generated"}
		r.finishStageFailed(id, number, "No markdown output generated", "No output generated")
		return "", wrapped
	}

	if err := r.Store.FinishStage(id, number, StageCompleted, content, ""); err != nil {
		r.Logger.Error("persist stage", "stage", number, "error", err)
	}
	r.Handler.StageChanged(number, StageCompleted, doneMsg)
	r.log("success", fmt.Sprintf("Stage %d completed successfully", number))
	return content, nil
}

func (r *Runner) runSynthesisStage(ctx context.Context, id string, p Params, stageTexts map[int]string) (*analysis.Synthesis, error) {
	const number = 4
	r.log("info", "Starting Stage 4: Final Analysis")
	r.beginStage(id, number, "Generating final analysis...", "Stage 4: Final Analysis", progressStage4)

	var stages []analysis.StageText
	for n, text := range stageTexts {
		stages = append(stages, analysis.StageText{Number: n, Name: store.StageNames[n], Content: text})
	}
	if len(stages) < 3 {
		r.log("warning", "Warning: Not all stages have data")
	}

	r.log("info", "Sending data to LLM for final analysis...")
	synthesis, err := r.Aggregator.Aggregate(ctx, p.AppName, p.Category, p.Persona, stages)
	if err != nil {
		if ctx.Err() != nil {
			r.finishStageFailed(id, number, "Stopped by user", "Stopped by user")
			return nil, ErrStopped
		}
		var synthErr *analysis.SynthesisError
		if errors.As(err, &synthErr) && synthErr.Op == "parse" {
			r.log("error", fmt.Sprintf("Stage 4 JSON error: %v", synthErr.Err))
			r.finishStageFailed(id, number, fmt.Sprintf("JSON parse error: %v", synthErr.Err), "Failed to parse analysis")
		} else {
			r.finishStageFailed(id, number, err.Error(), "Final analysis failed")
		}
		return nil, &StageError{Stage: number, Message: "final analysis", Err: err}
	}

	if err := r.Store.FinishStage(id, number, StageCompleted, string(synthesis.RawJSON), ""); err != nil {
		r.Logger.Error("persist stage", "stage", number, "error", err)
	}
	r.Handler.StageChanged(number, StageCompleted, "Final analysis complete")
	r.log("success", "Stage 4 completed successfully")
	return synthesis, nil
}

func (r *Runner) saveResult(id string, synthesis *analysis.Synthesis) error {
	report := synthesis.Report

	summary, _ := report["summary"].(string)
	metrics := map[string]any{
		"exploration_coverage": report["exploration_coverage"],
		"navigation_metrics":   report["navigation_metrics"],
		"interaction_feedback": report["interaction_feedback"],
		"visual_hierarchy":     report["visual_hierarchy"],
		"consistency":          report["consistency"],
		"error_handling":       report["error_handling"],
		"ux_confidence_score":  report["ux_confidence_score"],
		"complexity_score":     report["complexity_score"],
	}

	result := &store.Result{
		ExplorationID:   id,
		Summary:         summary,
		Positive:        marshalField(report["positive"]),
		Issues:          marshalField(report["issues"]),
		Recommendations: marshalField(report["recommendations"]),
		Metrics:         marshalField(metrics),
		UXScore:         synthesis.UXConfidence,
		ComplexityScore: synthesis.Complexity,
		FullJSON:        synthesis.RawJSON,
	}
	return r.Store.SaveResult(result)
}

func marshalField(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}

func (r *Runner) beginStage(id string, number int, startMsg, progressMsg string, percent int) {
	stage := number
	if err := r.Store.UpdateExplorationStatus(id, StatusRunning, &stage, ""); err != nil {
		r.Logger.Error("update exploration stage", "stage", number, "error", err)
	}
	if err := r.Store.MarkStageRunning(id, number); err != nil {
		r.Logger.Error("mark stage running", "stage", number, "error", err)
	}
	r.Handler.StageChanged(number, StageRunning, startMsg)
	r.Handler.Progress(progressMsg, percent)
}

func (r *Runner) finishStageFailed(id string, number int, errMsg, handlerMsg string) {
	if err := r.Store.FinishStage(id, number, StageFailed, "", errMsg); err != nil {
		r.Logger.Error("persist failed stage", "stage", number, "error", err)
	}
	r.Handler.StageChanged(number, StageFailed, handlerMsg)
}

func (r *Runner) failExploration(id string, stage int, cause error) (*Outcome, error) {
	var stageErr *StageError
	if !errors.As(cause, &stageErr) {
		stageErr = &StageError{Stage: stage, Message: "failed", Err: cause}
		cause = stageErr
	}

	// The exploration keeps the first failure's reason.
	reason := stageErr.Message
	if stageErr.Err != nil {
		reason = fmt.Sprintf("%s: %v", stageErr.Message, stageErr.Err)
	}

	msg := fmt.Sprintf("Stage %d failed", stage)
	if err := r.Store.UpdateExplorationStatus(id, StatusFailed, nil, reason); err != nil {
		r.Logger.Error("mark exploration failed", "error", err)
	}
	r.log("error", fmt.Sprintf("Exploration failed: %s", msg))
	r.Handler.Progress(fmt.Sprintf("Failed: %s", msg), -1)
	r.Handler.RunCompleted(id, StatusFailed)

	return &Outcome{ExplorationID: id, Status: StatusFailed}, cause
}

func (r *Runner) stopExploration(id string) (*Outcome, error) {
	if err := r.Store.UpdateExplorationStatus(id, StatusStopped, nil, "Stopped by user"); err != nil {
		r.Logger.Error("mark exploration stopped", "error", err)
	}
	r.log("warning", "Exploration stopped by user")
	r.Handler.Progress("Stopped by user", -1)
	r.Handler.RunCompleted(id, StatusStopped)
	return &Outcome{ExplorationID: id, Status: StatusStopped}, nil
}

func (r *Runner) log(level, message string) {
	r.Handler.Log(level, message)
	switch level {
	case "error":
		r.Logger.Error(message)
	case "warning":
		r.Logger.Warn(message)
	default:
		r.Logger.Info(message)
	}
}
