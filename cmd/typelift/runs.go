package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded normalization runs",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		s := loadSettings()
		store, err := s.initStore()
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer store.Close()

		runs, err := store.ListRuns(cmd.Context(), runsLimit)
		if err != nil {
			log.Fatalf("Failed to list runs: %v", err)
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded.")
			return
		}
		for _, r := range runs {
			fmt.Printf("%s  %s  %-10s +%-3d -%-3d %s\n",
				r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04:05"), r.Mode, r.Added, r.Removed, r.Source)
		}
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one run: stages, changes and resulting hierarchy",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		s := loadSettings()
		store, err := s.initStore()
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer store.Close()

		run, err := store.LoadRun(cmd.Context(), args[0])
		if err != nil {
			log.Fatalf("Failed to load run: %v", err)
		}

		fmt.Printf("Run %s\n", run.ID)
		fmt.Printf("  source:  %s\n", run.Source)
		fmt.Printf("  mode:    %s\n", run.Mode)
		fmt.Printf("  created: %s\n", run.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Println("\nStages:")
		printStages(os.Stdout, run.Stages)
		fmt.Println("\nChanges:")
		printDiff(os.Stdout, run.Diff)
		fmt.Println("\nTypes:")
		for _, t := range run.Types {
			name := t.Name
			if t.Sealed {
				name += " (sealed)"
			}
			if len(t.Supertypes) > 0 {
				fmt.Printf("  %s : %v\n", name, t.Supertypes)
			} else {
				fmt.Printf("  %s\n", name)
			}
			for _, f := range t.Features {
				fmt.Printf("    %s\n", f)
			}
		}
	},
}

func init() {
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "Maximum number of runs to list (0 for all)")
	runsCmd.AddCommand(runsShowCmd)
}
