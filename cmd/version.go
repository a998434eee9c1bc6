package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("{{.Version}}\n")
	rootCmd.Long = fmt.Sprintf(`uxscope %s

Staged UX exploration pipeline for mobile apps.

Runs a four-stage exploration (basic, persona, stress, final analysis)
against a target app, streams live progress, and stores structured
UX reports.

Get started:
  uxscope run --app "My App"   Run a full exploration
  uxscope history              List past explorations
  uxscope result <id>          Show a stored UX report
  uxscope snapshots            List saved comparison snapshots
  uxscope serve                Connect to a bridge server`, Version)
}
