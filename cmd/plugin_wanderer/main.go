// The wanderer plugin is a demo explorer: it wanders a pretend app and
// writes up what it saw. It exists so the pipeline can be exercised end to
// end without a device attached.
package main

import (
	"context"
	"sync"
	"time"

	"uxscope/agent"
	"uxscope/agent/pluginhost"
)

// WandererExplorer implements the plugin explorer contract around the
// in-process simulated explorer.
type WandererExplorer struct {
	mu     sync.Mutex
	lines  []string
	cancel context.CancelFunc
}

func (w *WandererExplorer) Explore(goal string, stepBudget int) (agent.Result, error) {
	ctx, cancel := context.WithCancel(context.Background())
	w.mu.Lock()
	w.cancel = cancel
	w.mu.Unlock()
	defer cancel()

	explorer := &agent.SimulatedExplorer{
		AppName:   "wanderer target",
		StepDelay: 200 * time.Millisecond,
	}

	result, err := explorer.Run(ctx, goal, stepBudget, agent.SinkFunc(w.record))
	if err != nil {
		if ctx.Err() != nil {
			return agent.Result{Success: false, Reason: "Stopped by user"}, nil
		}
		return agent.Result{}, err
	}
	return *result, nil
}

func (w *WandererExplorer) record(text string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lines = append(w.lines, text)
}

func (w *WandererExplorer) Narration() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	lines := w.lines
	w.lines = nil
	return lines
}

func (w *WandererExplorer) Abort() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		w.cancel()
	}
}

func main() {
	pluginhost.Serve(&WandererExplorer{})
}
