package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"

	"uxscope/agent"
	"uxscope/agent/pluginhost"
	"uxscope/analysis"
	"uxscope/config"
	"uxscope/explore"
	"uxscope/llm"
	"uxscope/prompt"
	"uxscope/store"
	"uxscope/streamers"
)

var debugMode bool

func newLogger() hclog.Logger {
	level := hclog.Warn
	if debugMode {
		level = hclog.Debug
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   "uxscope",
		Output: os.Stderr,
		Level:  level,
	})
}

// buildExplorer resolves the configured agent kind to an Explorer. The
// returned closer is non-nil for plugin explorers and must be called when
// the run finishes.
func buildExplorer(cfg *config.Config, logger hclog.Logger) (agent.Explorer, func(), error) {
	switch cfg.Agent.Kind {
	case "simulated":
		return &agent.SimulatedExplorer{StepDelay: 50 * time.Millisecond}, nil, nil
	case "plugin":
		path := cfg.Agent.PluginPath
		if path == "" {
			resolved, err := pluginhost.EnsureExplorer(cfg.Agent.PluginSource, cfg.Agent.PluginVersion)
			if err != nil {
				return nil, nil, fmt.Errorf("fetching explorer plugin: %w", err)
			}
			path = resolved
		}
		host, err := pluginhost.LoadExplorer(path, logger)
		if err != nil {
			return nil, nil, err
		}
		return host, host.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown agent kind %q", cfg.Agent.Kind)
	}
}

// buildRunner assembles the full pipeline for one run. The returned cleanup
// releases any plugin subprocess.
func buildRunner(ctx context.Context, cfg *config.Config, st store.ExplorationStore,
	handler streamers.ExplorationHandler, logger hclog.Logger) (*explore.Runner, func(), error) {

	provider, err := llm.NewProvider(ctx, string(cfg.Model.Provider), cfg.Model.ResolveAPIKey(), cfg.Model.BaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("creating model provider: %w", err)
	}
	client := &llm.Client{
		Provider:    provider,
		Model:       cfg.Model.Name,
		Temperature: cfg.Model.Temperature,
		MaxTokens:   cfg.Model.MaxTokens,
	}

	promptStore := &prompt.Store{}
	if cfg.Prompts != nil {
		promptStore.Dir = cfg.Prompts.Dir
	}

	explorer, closer, err := buildExplorer(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	invoker := explore.NewInvoker(explorer, logger)
	invoker.PollInterval = time.Duration(cfg.Exploration.CancelPollSecs) * time.Second
	invoker.FlushInterval = time.Duration(cfg.Exploration.LogFlushSecs) * time.Second
	invoker.StageTimeout = time.Duration(cfg.Exploration.StageTimeoutMins) * time.Minute

	aggregator := analysis.NewAggregator(client, promptStore, logger)
	builder := &explore.PromptBuilder{Store: promptStore}

	runner := explore.NewRunner(st, builder, invoker, aggregator, handler, cfg.Exploration, logger)
	if closer == nil {
		closer = func() {}
	}
	return runner, closer, nil
}

func loadConfig() (*config.Config, error) {
	if configPath == "" {
		cfg := config.Default()
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return config.LoadAndValidate(configPath)
}
