package wsbridge

import (
	"context"
	"errors"
	"fmt"

	"uxscope/explore"
	"uxscope/store"
	"uxscope/streamers"
)

func (c *Client) registerHandlers() {
	c.handlers[TypeStartExploration] = c.handleStartExploration
	c.handlers[TypeStopExploration] = c.handleStopExploration
	c.handlers[TypeListExplorations] = c.handleListExplorations
	c.handlers[TypeGetResult] = c.handleGetResult
}

func (c *Client) handleStartExploration(env *Envelope) (*Envelope, error) {
	var p StartExplorationPayload
	if err := DecodePayload(env, &p); err != nil {
		return NewError(env.RequestID, "bad_payload", err.Error())
	}
	if c.newRunner == nil {
		return NewResponse(env.RequestID, TypeStartExplorationAck, &StartExplorationAckPayload{
			Accepted: false,
			Reason:   "this instance does not accept remote explorations",
		})
	}
	if p.AppName == "" {
		return NewResponse(env.RequestID, TypeStartExplorationAck, &StartExplorationAckPayload{
			Accepted: false,
			Reason:   "app_name is required",
		})
	}

	streamer := NewStreamer(c)
	runner, cleanup, err := c.newRunner(streamer)
	if err != nil {
		return NewResponse(env.RequestID, TypeStartExplorationAck, &StartExplorationAckPayload{
			Accepted: false,
			Reason:   err.Error(),
		})
	}

	params := explore.Params{
		AppName:          p.AppName,
		Category:         p.Category,
		Persona:          p.Persona,
		CustomNavigation: p.CustomNavigation,
		MaxDepth:         p.MaxDepth,
		SaveToMemory:     p.SaveToMemory,
	}

	runCtx, cancel := context.WithCancel(c.ctx)

	// The runner reports its exploration ID through the streamer once the
	// record exists; track the cancel func from there. The hook must be in
	// place before the runner starts or a fast run can fire RunStarted
	// without ever being tracked.
	streamer.onStarted = func(explorationID string) {
		c.trackRun(explorationID, cancel)
	}

	go func() {
		defer cancel()
		if cleanup != nil {
			defer cleanup()
		}
		outcome, err := runner.Run(runCtx, params)
		if outcome != nil {
			c.untrackRun(outcome.ExplorationID)
		}
		if err != nil {
			c.logger.Error("exploration failed", "error", err)
		}
	}()

	return NewResponse(env.RequestID, TypeStartExplorationAck, &StartExplorationAckPayload{
		Accepted: true,
	})
}

func (c *Client) handleStopExploration(env *Envelope) (*Envelope, error) {
	var p StopExplorationPayload
	if err := DecodePayload(env, &p); err != nil {
		return NewError(env.RequestID, "bad_payload", err.Error())
	}

	c.runsMu.Lock()
	cancel, ok := c.runs[p.ExplorationID]
	c.runsMu.Unlock()

	if !ok {
		return NewResponse(env.RequestID, TypeStopExplorationAck, &StopExplorationAckPayload{
			Stopped: false,
			Reason:  fmt.Sprintf("no active exploration %s", p.ExplorationID),
		})
	}

	cancel()
	return NewResponse(env.RequestID, TypeStopExplorationAck, &StopExplorationAckPayload{
		Stopped: true,
	})
}

func (c *Client) handleListExplorations(env *Envelope) (*Envelope, error) {
	var p ListExplorationsPayload
	if err := DecodePayload(env, &p); err != nil {
		return NewError(env.RequestID, "bad_payload", err.Error())
	}

	explorations, err := c.st.ListExplorations(store.ListFilter{
		Category: p.Category,
		Persona:  p.Persona,
		Limit:    p.Limit,
	})
	if err != nil {
		return NewError(env.RequestID, "store_error", err.Error())
	}

	return NewResponse(env.RequestID, TypeExplorationList, &ExplorationListPayload{
		Explorations: explorations,
	})
}

func (c *Client) handleGetResult(env *Envelope) (*Envelope, error) {
	var p GetResultPayload
	if err := DecodePayload(env, &p); err != nil {
		return NewError(env.RequestID, "bad_payload", err.Error())
	}

	result, err := c.st.GetResult(p.ExplorationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return NewError(env.RequestID, "not_found", fmt.Sprintf("no result for exploration %s", p.ExplorationID))
		}
		return NewError(env.RequestID, "store_error", err.Error())
	}

	return NewResponse(env.RequestID, TypeResult, &ResultPayload{Result: result})
}

func (c *Client) trackRun(explorationID string, cancel context.CancelFunc) {
	c.runsMu.Lock()
	c.runs[explorationID] = cancel
	c.runsMu.Unlock()
}

func (c *Client) untrackRun(explorationID string) {
	c.runsMu.Lock()
	delete(c.runs, explorationID)
	c.runsMu.Unlock()
}

var _ streamers.ExplorationHandler = (*Streamer)(nil)
