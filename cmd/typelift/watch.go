package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"typelift/internal/document"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

const watchDebounce = 200 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Re-normalize a hierarchy document every time it changes",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		s := loadSettings()
		format, err := document.ParseFormat(outputFormat)
		if err != nil {
			log.Fatalf("Invalid output format: %v", err)
		}

		path, err := filepath.Abs(args[0])
		if err != nil {
			log.Fatalf("Failed to resolve %s: %v", args[0], err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := s.watch(ctx, path, format); err != nil {
			log.Fatalf("Watch failed: %v", err)
		}
	},
}

// watch normalizes path once, then again after each write. The parent
// directory is watched so editors that replace the file are still seen.
func (s *settings) watch(ctx context.Context, path string, format document.Format) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(path)); err != nil {
		return err
	}

	run := func() {
		if err := s.normalizeFile(ctx, path, format); err != nil {
			fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		}
	}

	run()
	fmt.Fprintf(os.Stderr, "👀 Watching %s (Ctrl+C to stop)\n", path)

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			s.logger.Debug("change detected", "path", ev.Name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
			} else {
				timer.Reset(watchDebounce)
			}
			pending = timer.C
		case <-pending:
			pending = nil
			run()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("watcher error", "error", err)
		}
	}
}
