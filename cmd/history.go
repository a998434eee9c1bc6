package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"uxscope/store"
)

var (
	historyCategory string
	historyPersona  string
	historyLimit    int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past explorations",
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

		explorations, err := st.ListExplorations(store.ListFilter{
			Category: historyCategory,
			Persona:  historyPersona,
			Limit:    historyLimit,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if len(explorations) == 0 {
			fmt.Println("No explorations found.")
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tAPP\tPERSONA\tSTATUS\tUX\tCOMPLEXITY\tCREATED")
		for _, e := range explorations {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				e.ID, e.AppName, e.Persona, e.Status,
				scoreCell(e.UXScore), scoreCell(e.ComplexityScore),
				e.CreatedAt.Format("2006-01-02 15:04"))
		}
		w.Flush()
	},
}

func scoreCell(score *float64) string {
	if score == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *score)
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file or directory")
	historyCmd.Flags().StringVar(&historyCategory, "category", "", "Filter by app category")
	historyCmd.Flags().StringVar(&historyPersona, "persona", "", "Filter by persona")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "Maximum rows to show (default 50)")
}
