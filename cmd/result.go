package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"uxscope/store"
	"uxscope/streamers/cli"
)

var resultJSON bool

var resultCmd = &cobra.Command{
	Use:   "result [exploration_id]",
	Short: "Show a stored UX report",
	Long:  `Render the final analysis for an exploration. With no ID, shows the most recent result.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		st, err := store.New(cfg.Storage)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
			os.Exit(1)
		}
		defer st.Close()

		var result *store.Result
		if len(args) == 1 {
			result, err = st.GetResult(args[0])
		} else {
			result, err = st.LatestResult()
		}
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				fmt.Fprintln(os.Stderr, "No result found.")
			} else {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
			os.Exit(1)
		}

		if resultJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		}

		renderer := cli.NewReportRenderer()
		if err := renderer.Render(result); err != nil {
			fmt.Fprintf(os.Stderr, "Error rendering report: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(resultCmd)
	resultCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file or directory")
	resultCmd.Flags().BoolVar(&resultJSON, "json", false, "Print the raw result as JSON")
}
