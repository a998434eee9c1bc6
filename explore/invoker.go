package explore

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"

	"uxscope/agent"
)

const (
	defaultPollInterval  = 2 * time.Second
	defaultFlushInterval = 3 * time.Second
)

// Invoker runs one exploration goal on an explorer under supervision: agent
// diagnostics are batched into the emit callback, and the run is torn down
// when the context is cancelled or the stop check trips.
type Invoker struct {
	Explorer agent.Explorer
	Logger   hclog.Logger

	// Stop is polled on PollInterval while the explorer runs. Optional.
	Stop func() bool

	// StageTimeout caps one invocation. Zero means no cap.
	StageTimeout time.Duration

	PollInterval  time.Duration
	FlushInterval time.Duration
}

func NewInvoker(explorer agent.Explorer, logger hclog.Logger) *Invoker {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Invoker{
		Explorer:      explorer,
		Logger:        logger,
		PollInterval:  defaultPollInterval,
		FlushInterval: defaultFlushInterval,
	}
}

// Invoke runs the goal to completion. Returns ErrStopped when the run was
// cancelled before the explorer finished on its own; a run that outlives
// StageTimeout is torn down and reported as an error, not a stop.
func (inv *Invoker) Invoke(ctx context.Context, goal string, stepBudget int, emit func(level, message string)) (*agent.Result, error) {
	sink := NewLogBatcher("info", inv.flushInterval(), emit, inv.Logger)
	defer sink.Close()

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type exploreReturn struct {
		result *agent.Result
		err    error
	}
	done := make(chan exploreReturn, 1)
	go func() {
		result, err := inv.Explorer.Run(runCtx, goal, stepBudget, sink)
		done <- exploreReturn{result: result, err: err}
	}()

	ticker := time.NewTicker(inv.pollInterval())
	defer ticker.Stop()

	var timeout <-chan time.Time
	if inv.StageTimeout > 0 {
		timer := time.NewTimer(inv.StageTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	abort := func() (*agent.Result, error) {
		inv.Logger.Warn("stop requested, cancelling agent")
		cancel()
		<-done
		return nil, ErrStopped
	}

	for {
		select {
		case ret := <-done:
			if ret.err != nil {
				if ctx.Err() != nil {
					return nil, ErrStopped
				}
				return nil, ret.err
			}
			return ret.result, nil
		case <-ticker.C:
			if inv.Stop != nil && inv.Stop() {
				return abort()
			}
		case <-timeout:
			inv.Logger.Warn("stage timed out, cancelling agent", "timeout", inv.StageTimeout)
			cancel()
			<-done
			return nil, fmt.Errorf("stage timed out after %s", inv.StageTimeout)
		case <-ctx.Done():
			return abort()
		}
	}
}

func (inv *Invoker) pollInterval() time.Duration {
	if inv.PollInterval > 0 {
		return inv.PollInterval
	}
	return defaultPollInterval
}

func (inv *Invoker) flushInterval() time.Duration {
	if inv.FlushInterval > 0 {
		return inv.FlushInterval
	}
	return defaultFlushInterval
}
