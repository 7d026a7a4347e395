package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"typelift/internal/analysis"
	"typelift/internal/crawler"
	"typelift/internal/extractor"
	"typelift/internal/git"
	"typelift/internal/index"
	"typelift/internal/pipeline"
	"typelift/internal/storage"

	"github.com/spf13/cobra"
)

var sinceRef string

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Extract struct hierarchies from Go sources and report what normalization would change",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		s := loadSettings()

		path := s.cfg.Project.Root
		if len(args) > 0 {
			path = args[0]
		}
		absPath, err := filepath.Abs(path)
		if err != nil {
			log.Fatalf("Failed to resolve %s: %v", path, err)
		}

		fmt.Printf("📂 Scanning directory: %s\n", absPath)

		// 1. Setup Extractor & Indexer
		ext, err := extractor.NewExtractor("go")
		if err != nil {
			log.Fatalf("Failed to create extractor: %v", err)
		}
		cr := crawler.NewCrawler(ext, s.cfg.Scan.Ignored, s.logger)
		idx := index.NewIndexer(cr, s.mode, s.cfg.Hierarchy.Sealed, s.logger)

		// 2. Build Registry
		fmt.Println("🚀 Building type hierarchy...")
		start := time.Now()
		reg, err := idx.BuildRegistry(absPath)
		if err != nil {
			log.Fatalf("Build failed: %v", err)
		}
		fmt.Printf("✅ Hierarchy built in %v. Found %d types, %d features.\n", time.Since(start), reg.Len(), reg.FeatureCount())

		// 3. Narrow the report to what changed since a git ref
		var impact *analysis.ImpactReport
		if sinceRef != "" {
			top, err := git.TopLevel(cmd.Context(), absPath)
			if err != nil {
				log.Fatalf("Failed to locate repository: %v", err)
			}
			changes, err := git.ChangedFiles(cmd.Context(), absPath, sinceRef)
			if err != nil {
				log.Fatalf("Failed to get git changes: %v", err)
			}
			impact = analysis.NewAnalyzer(reg, top).AnalyzeImpact(changes)
			fmt.Printf("🔎 %d files changed since %s: %d types changed, %d related.\n",
				len(changes), sinceRef, len(impact.Changed), len(impact.Related))
		}

		// 4. Normalize
		res, err := pipeline.Normalize(reg, s.pipelineOptions())
		if res != nil {
			printStages(os.Stdout, res.Stages)
		}
		if err != nil {
			log.Fatalf("Normalize failed: %v", err)
		}
		diff := res.Diff
		if impact != nil {
			diff = filterDiff(diff, impact)
		}
		printDiff(os.Stdout, diff)

		if noStore {
			return
		}

		// 5. Save to DB
		store, err := s.initStore()
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer store.Close()

		run := storage.NewRun(absPath, reg, res)
		if err := store.SaveRun(cmd.Context(), run); err != nil {
			log.Fatalf("Failed to record run: %v", err)
		}
		fmt.Printf("🎉 Scan complete! Run %s recorded in %s\n", run.ID, s.cfg.Storage.DB)
	},
}

func init() {
	scanCmd.Flags().BoolVar(&noStore, "no-store", false, "Do not record the run in the history database")
	scanCmd.Flags().StringVar(&sinceRef, "since", "", "Only report types affected by changes since this git ref")
}

// filterDiff keeps the changes of types in the impact report.
func filterDiff(diff []pipeline.TypeChange, impact *analysis.ImpactReport) []pipeline.TypeChange {
	keep := impact.Names()
	var out []pipeline.TypeChange
	for _, ch := range diff {
		if keep.Contains(ch.Type) {
			out = append(out, ch)
		}
	}
	return out
}
