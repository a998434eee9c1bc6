package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"uxscope/explore"
	"uxscope/store"
	"uxscope/streamers"
	"uxscope/streamers/cli"
	"uxscope/wsbridge"
)

var (
	runAppName   string
	runCategory  string
	runPersona   string
	runCustomNav string
	runMaxDepth  int
	runSave      bool
	runShowLogs  bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a full four-stage exploration",
	Long: `Execute the exploration pipeline against a target app: basic exploration,
persona analysis, stress testing, and final analysis. Progress streams to the
terminal and the structured report is saved to the configured store.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		logger := newLogger()

		st, err := store.New(cfg.Storage)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
			os.Exit(1)
		}
		defer st.Close()

		var handler streamers.ExplorationHandler = cli.NewHandler(runShowLogs)

		// Stream events to the bridge as well when one is configured.
		var bridgeClient *wsbridge.Client
		if cfg.Bridge.Enabled() {
			bridgeClient = wsbridge.NewClient(cfg, st, nil, Version, logger)
			if err := bridgeClient.Connect(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: bridge unavailable: %v\n", err)
			} else {
				defer bridgeClient.Close()
				handler = streamers.Multi{handler, wsbridge.NewStreamer(bridgeClient)}
			}
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Ctrl-C requests a graceful stop; the run records stopped status.
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sig
			fmt.Fprintln(os.Stderr, "\nStopping exploration...")
			cancel()
		}()

		runner, cleanup, err := buildRunner(ctx, cfg, st, handler, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()

		outcome, err := runner.Run(ctx, explore.Params{
			AppName:          runAppName,
			Category:         runCategory,
			Persona:          runPersona,
			CustomNavigation: runCustomNav,
			MaxDepth:         runMaxDepth,
			SaveToMemory:     runSave,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "\nExploration failed: %v\n", err)
			os.Exit(1)
		}
		if outcome.Status != explore.StatusCompleted {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file or directory")
	runCmd.Flags().StringVarP(&runAppName, "app", "a", "", "Name of the app to explore (required)")
	runCmd.Flags().StringVar(&runCategory, "category", "", "App category, e.g. 'social', 'finance'")
	runCmd.Flags().StringVarP(&runPersona, "persona", "p", "", "Analysis persona: 'UX Designer', 'QA Engineer', or 'Product Manager'")
	runCmd.Flags().StringVar(&runCustomNav, "custom-nav", "", "Custom navigation instructions for stages 2 and 3")
	runCmd.Flags().IntVar(&runMaxDepth, "max-depth", 0, "Maximum navigation depth (default from config)")
	runCmd.Flags().BoolVar(&runSave, "save", false, "Snapshot the app to memory after a successful run")
	runCmd.Flags().BoolVar(&runShowLogs, "logs", false, "Show agent log output while running")
	runCmd.Flags().BoolVarP(&debugMode, "debug", "d", false, "Enable debug logging")
	runCmd.MarkFlagRequired("app")
}
