package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"typelift/internal/document"
	"typelift/internal/pipeline"
	"typelift/internal/storage"

	"github.com/spf13/cobra"
)

var (
	outputPath   string
	outputFormat string
	noStore      bool
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize <file>",
	Short: "Normalize a hierarchy document and write the result",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		s := loadSettings()
		format, err := document.ParseFormat(outputFormat)
		if err != nil {
			log.Fatalf("Invalid output format: %v", err)
		}
		if err := s.normalizeFile(cmd.Context(), args[0], format); err != nil {
			log.Fatalf("Normalize failed: %v", err)
		}
	},
}

func init() {
	normalizeCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the normalized document here instead of stdout")
	normalizeCmd.Flags().StringVar(&outputFormat, "format", "yaml", "Output format (yaml or json)")
	normalizeCmd.Flags().BoolVar(&noStore, "no-store", false, "Do not record the run in the history database")
	watchCmd.Flags().AddFlagSet(normalizeCmd.Flags())
}

// normalizeFile loads, normalizes and writes one document, recording the
// run unless disabled.
func (s *settings) normalizeFile(ctx context.Context, path string, format document.Format) error {
	fmt.Fprintf(os.Stderr, "📄 Loading %s\n", path)
	reg, err := document.Load(path, s.mode)
	if err != nil {
		return err
	}

	start := time.Now()
	res, err := pipeline.Normalize(reg, s.pipelineOptions())
	if res != nil {
		printStages(os.Stderr, res.Stages)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "✅ Normalized %d types in %v: +%d -%d features\n", reg.Len(), time.Since(start), res.Added(), res.Removed())

	out, err := document.Encode(reg, format)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if outputPath == "" {
		os.Stdout.Write(out)
	} else {
		if err := os.WriteFile(outputPath, out, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", outputPath, err)
		}
		fmt.Fprintf(os.Stderr, "💾 Wrote %s\n", outputPath)
	}

	if noStore {
		return nil
	}
	store, err := s.initStore()
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()

	run := storage.NewRun(path, reg, res)
	if err := store.SaveRun(ctx, run); err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	fmt.Fprintf(os.Stderr, "🗂  Recorded run %s\n", run.ID)
	return nil
}
