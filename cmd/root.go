package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "uxscope",
	Short: "Staged UX exploration for mobile apps",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Welcome to uxscope! Use --help to see available commands.")
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
