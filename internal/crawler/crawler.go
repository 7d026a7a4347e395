package crawler

import (
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"typelift/internal/extractor"
)

// Crawler scans a directory for source files.
type Crawler struct {
	extractor *extractor.Extractor
	ignored   []string
	logger    *slog.Logger
}

// NewCrawler creates a new crawler instance. A nil ignored list uses the
// usual vendor and VCS directories.
func NewCrawler(ext *extractor.Extractor, ignored []string, logger *slog.Logger) *Crawler {
	if ignored == nil {
		ignored = []string{".git", "vendor", "node_modules", "testdata"}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Crawler{
		extractor: ext,
		ignored:   ignored,
		logger:    logger.With("component", "crawler"),
	}
}

// ScanProject walks root and streams every extracted type to onUnit.
// Unparseable files are logged and skipped.
func (c *Crawler) ScanProject(root string, onUnit func(*extractor.TypeUnit)) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path != root && slices.Contains(c.ignored, d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		if !strings.HasSuffix(d.Name(), ".go") || strings.HasSuffix(d.Name(), "_test.go") {
			return nil
		}

		units, err := c.extractor.ExtractFromFile(path)
		if err != nil {
			c.logger.Warn("skipping file", "path", path, "error", err)
			return nil
		}

		for _, unit := range units {
			onUnit(unit)
		}
		return nil
	})
}
