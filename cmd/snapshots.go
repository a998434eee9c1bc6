package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"uxscope/store"
)

var (
	snapshotsCategory string
	snapshotsPersona  string
)

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "List saved comparison snapshots",
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

		snapshots, err := st.ListSnapshots(snapshotsCategory, snapshotsPersona)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if len(snapshots) == 0 {
			fmt.Println("No snapshots found. Run an exploration with --save to create one.")
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tAPP\tCATEGORY\tPERSONA\tUX\tCOMPLEXITY\tCREATED")
		for _, s := range snapshots {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.1f\t%.1f\t%s\n",
				s.Name, s.AppName, s.Category, s.Persona,
				s.UXScore, s.ComplexityScore,
				s.CreatedAt.Format("2006-01-02 15:04"))
		}
		w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(snapshotsCmd)
	snapshotsCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file or directory")
	snapshotsCmd.Flags().StringVar(&snapshotsCategory, "category", "", "Filter by app category")
	snapshotsCmd.Flags().StringVar(&snapshotsPersona, "persona", "", "Filter by persona")
}
