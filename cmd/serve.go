package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"uxscope/explore"
	"uxscope/store"
	"uxscope/streamers"
	"uxscope/wsbridge"
)

var serveReconnect bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Connect to a bridge server and serve explorations",
	Long: `Start a long-running process that connects to a bridge server via WebSocket.
The instance registers with the server, allowing a remote UI to start and stop
explorations, browse history, and fetch reports.

Requires a "bridge" block in the config with a url.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		if !cfg.Bridge.Enabled() {
			fmt.Fprintln(os.Stderr, "Error: no bridge block in config. Add a bridge block with a url.")
			os.Exit(1)
		}

		logger := newLogger()

		st, err := store.New(cfg.Storage)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
			os.Exit(1)
		}
		defer st.Close()

		// Each remote start request gets its own pipeline wired to the
		// requesting bridge's event streamer.
		factory := func(handler streamers.ExplorationHandler) (*explore.Runner, func(), error) {
			return buildRunner(context.Background(), cfg, st, handler, logger)
		}

		client := wsbridge.NewClient(cfg, st, factory, Version, logger)

		if err := connectWithRetry(client); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Connected to bridge at %s (instance: %s)\n", cfg.Bridge.URL, client.InstanceID())

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

		go func() {
			if err := client.Run(); err != nil {
				log.Printf("Connection lost: %v", err)
				if serveReconnect {
					log.Println("Attempting to reconnect...")
					if err := connectWithRetry(client); err != nil {
						log.Printf("Reconnect failed: %v", err)
						stop <- syscall.SIGTERM
					}
				} else {
					stop <- syscall.SIGTERM
				}
			}
		}()

		<-stop
		fmt.Println("\nShutting down...")
		client.Close()
	},
}

func connectWithRetry(client *wsbridge.Client) error {
	maxAttempts := 1
	if serveReconnect {
		maxAttempts = 10
	}
	const interval = 5 * time.Second

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := client.Connect()
		if err == nil {
			return nil
		}
		if attempt == maxAttempts {
			return fmt.Errorf("failed to connect after %d attempts: %w", maxAttempts, err)
		}
		log.Printf("Connection attempt %d/%d failed: %v. Retrying in %v...", attempt, maxAttempts, err, interval)
		time.Sleep(interval)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file or directory")
	serveCmd.Flags().BoolVar(&serveReconnect, "reconnect", true, "Reconnect automatically when the connection drops")
	serveCmd.Flags().BoolVarP(&debugMode, "debug", "d", false, "Enable debug logging")
}
