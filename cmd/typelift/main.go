package main

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"typelift/internal/config"
	"typelift/internal/logging"
	"typelift/internal/metamodel"
	"typelift/internal/pipeline"
	"typelift/internal/storage"

	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "typelift",
		Short: "Normalize class hierarchies by lifting shared features into supertypes",
	}
	configPath string
	dbPath     string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "typelift.yaml", "Path to the configuration file")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Path to the run history database (SQLite); overrides storage.db")

	rootCmd.AddCommand(normalizeCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(watchCmd)
}

// settings is the resolved configuration shared by every command.
type settings struct {
	cfg    *config.Config
	mode   metamodel.IndexMode
	logger *slog.Logger
}

func loadSettings() *settings {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if dbPath != "" {
		cfg.Storage.DB = dbPath
	}

	logger, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("Invalid log settings: %v", err)
	}
	slog.SetDefault(logger)

	mode, err := metamodel.ParseIndexMode(cfg.Hierarchy.SupertypeIndex)
	if err != nil {
		log.Fatalf("Invalid hierarchy settings: %v", err)
	}

	return &settings{cfg: cfg, mode: mode, logger: logger}
}

// initStore opens the run history database.
func (s *settings) initStore() (*storage.SQLiteStore, error) {
	return storage.NewSQLiteStore(s.cfg.Storage.DB)
}

func (s *settings) pipelineOptions() pipeline.Options {
	return pipeline.Options{Logger: s.logger}
}

func printStages(w io.Writer, stages []pipeline.StageResult) {
	for _, st := range stages {
		status := "✅"
		if st.Err != nil {
			status = "❌"
		}
		fmt.Fprintf(w, "  %s %-7s +%d -%d features %d -> %d (%v)\n",
			status, st.Pass, st.Stats.Added, st.Stats.Removed, st.FeaturesBefore, st.FeaturesAfter, st.Duration)
	}
}

func printDiff(w io.Writer, diff []pipeline.TypeChange) {
	if len(diff) == 0 {
		fmt.Fprintln(w, "✅ Hierarchy already normalized.")
		return
	}
	for _, ch := range diff {
		fmt.Fprintf(w, "  %s\n", ch.Type)
		for _, k := range ch.Added {
			fmt.Fprintf(w, "    + %s\n", k)
		}
		for _, k := range ch.Removed {
			fmt.Fprintf(w, "    - %s\n", k)
		}
	}
}
