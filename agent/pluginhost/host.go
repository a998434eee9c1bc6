package pluginhost

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/hashicorp/go-hclog"
	goplugin "github.com/hashicorp/go-plugin"

	"uxscope/agent"
)

const narrationPollInterval = time.Second

// Host wraps a dispensed plugin behind the in-process Explorer contract. It
// owns the plugin subprocess and must be closed when the host is done with it.
type Host struct {
	client *goplugin.Client
	remote RemoteExplorer
	logger hclog.Logger
}

// LoadExplorer launches the plugin binary at path and dispenses its explorer.
func LoadExplorer(path string, logger hclog.Logger) (*Host, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	client := goplugin.NewClient(&goplugin.ClientConfig{
		HandshakeConfig: Handshake,
		Plugins:         PluginMap,
		Cmd:             exec.Command(path),
		Logger:          logger.Named("plugin"),
	})

	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("connecting to plugin %s: %w", path, err)
	}

	raw, err := rpcClient.Dispense("explorer")
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("dispensing explorer from %s: %w", path, err)
	}

	remote, ok := raw.(RemoteExplorer)
	if !ok {
		client.Kill()
		return nil, fmt.Errorf("plugin %s does not implement the explorer contract", path)
	}

	return &Host{client: client, remote: remote, logger: logger}, nil
}

// Run drives one exploration pass on the plugin. The blocking Explore call
// runs in a goroutine while the host polls narration into the sink; on
// context cancellation the host tells the plugin to abort and waits for the
// in-flight call to return.
func (h *Host) Run(ctx context.Context, goal string, stepBudget int, sink agent.DiagnosticSink) (*agent.Result, error) {
	type exploreReturn struct {
		result agent.Result
		err    error
	}

	done := make(chan exploreReturn, 1)
	go func() {
		result, err := h.remote.Explore(goal, stepBudget)
		done <- exploreReturn{result: result, err: err}
	}()

	ticker := time.NewTicker(narrationPollInterval)
	defer ticker.Stop()

	drain := func() {
		if sink == nil {
			return
		}
		for _, line := range h.remote.Narration() {
			sink.Write(line)
		}
	}

	for {
		select {
		case ret := <-done:
			drain()
			if ret.err != nil {
				return nil, fmt.Errorf("plugin exploration: %w", ret.err)
			}
			result := ret.result
			return &result, nil
		case <-ticker.C:
			drain()
		case <-ctx.Done():
			h.remote.Abort()
			ret := <-done
			drain()
			if ret.err == nil {
				result := ret.result
				return &result, ctx.Err()
			}
			return nil, ctx.Err()
		}
	}
}

// Close kills the plugin subprocess.
func (h *Host) Close() {
	h.client.Kill()
}
