package cmd

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnolang/tgrit/formatter"
	"github.com/gnolang/tgrit/rewrite"
	"github.com/gnolang/tgrit/scanner"
)

const defaultDebounce = 100 * time.Millisecond

func newWatchCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [paths...]",
		Short: "Search files again whenever they change",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			e, reg, err := root.newEngine()
			if err != nil {
				return err
			}
			defer root.writeMetrics(reg)

			w := &watcher{
				engine:   e,
				logger:   root.logger,
				out:      cmd.OutOrStdout(),
				debounce: defaultDebounce,
			}
			return w.run(ctx, args)
		},
	}
}

type watcher struct {
	engine   rewrite.RewriteEngine
	logger   *zap.Logger
	out      io.Writer
	debounce time.Duration
	// ready, when set, is closed once every directory is watched
	ready chan struct{}
}

// run watches the directories of paths until ctx is done. Writes to
// target files are collected for one debounce interval and then searched.
func (w *watcher) run(ctx context.Context, paths []string) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	for _, path := range paths {
		if err := addWatchDirs(fsw, path); err != nil {
			return fmt.Errorf("error adding directory to watcher: %w", err)
		}
	}
	if w.ready != nil {
		close(w.ready)
	}

	target := scanner.New("", scanner.DefaultExtensions...)
	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
				if err := addWatchDirs(fsw, event.Name); err != nil {
					w.logger.Warn("Error watching directory", zap.String("path", event.Name), zap.Error(err))
				}
				continue
			}
			if !target.IsTarget(event.Name) {
				continue
			}
			pending[event.Name] = struct{}{}
			timer.Reset(w.debounce)
		case <-timer.C:
			for path := range pending {
				w.search(ctx, path)
			}
			clear(pending)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Watcher error", zap.Error(err))
		}
	}
}

func (w *watcher) search(ctx context.Context, path string) {
	report, err := w.engine.Search(ctx, path)
	if err != nil {
		w.logger.Error("Error processing file", zap.String("file", path), zap.Error(err))
		return
	}
	if report.MatchCount() == 0 {
		fmt.Fprintf(w.out, "no matches in %s\n", path)
		return
	}
	fmt.Fprint(w.out, formatter.FormatReport(report))
	fmt.Fprint(w.out, formatter.Summary([]*rewrite.FileReport{report}))
}

func addWatchDirs(fsw *fsnotify.Watcher, root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fsw.Add(filepath.Dir(root))
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return fsw.Add(path)
	})
}
