package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newWatchCmd creates the "watch" subcommand for re-synthesizing on changes.
func newWatchCmd(g *globalOptions) *cobra.Command {
	var (
		flags        synthFlags
		debounce     time.Duration
		outputFormat string
		outputFile   string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-synthesize when manifests or context change",
		Long: `Watch monitors the manifest directory and the context file and
synthesizes the stack again after every change.

The watch command:
- Watches .yaml, .yml and .json files under the manifest directory
- Watches the context file
- Debounces rapid changes into one synthesis

Examples:
    wetwire-eks watch
    wetwire-eks watch -o template.json
    wetwire-eks watch --debounce 1s`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runWatch(ctx, cmd.OutOrStdout(), watchOptions{
				debounce: debounce,
				paths:    []string{flags.manifestsDir, flags.contextFile},
				synth: func(w io.Writer) error {
					tmpl, err := synthTemplate(cmd, &flags, g)
					if err != nil {
						return err
					}
					if outputFile == "" {
						fmt.Fprintf(w, "Synthesized %d resources\n", len(tmpl.Resources))
						return nil
					}
					if err := writeTemplate(w, tmpl, outputFormat, outputFile); err != nil {
						return err
					}
					fmt.Fprintf(w, "Synthesized %d resources, wrote %s\n", len(tmpl.Resources), outputFile)
					return nil
				},
				log: g.log(),
			})
		},
	}

	flags.register(cmd)
	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "Debounce duration for rapid changes")
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "Output format: json or yaml")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: only report a summary)")

	return cmd
}

type watchOptions struct {
	debounce time.Duration
	paths    []string
	synth    func(w io.Writer) error
	log      *zap.Logger
}

// runWatch synthesizes once, then again after each debounced change, until
// ctx is done.
func runWatch(ctx context.Context, w io.Writer, opts watchOptions) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	for _, path := range opts.paths {
		if path == "" {
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			opts.log.Warn("not watching", zap.String("path", path), zap.Error(err))
			continue
		}
		if info.IsDir() {
			err = addDirRecursive(watcher, path)
		} else {
			err = watcher.Add(path)
		}
		if err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		fmt.Fprintf(w, "Watching: %s\n", path)
	}

	resynth := func() {
		if err := opts.synth(w); err != nil {
			fmt.Fprintf(w, "Synth failed: %v\n", err)
		}
	}

	fmt.Fprintln(w, "Running initial synth...")
	resynth()

	var debounceTimer *time.Timer
	rebuild := make(chan struct{}, 1)

	fmt.Fprintln(w, "\nWatching for changes... (Ctrl+C to stop)")

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isWatchedEvent(event) {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = addDirRecursive(watcher, event.Name)
				}
			}
			opts.log.Debug("change detected", zap.String("file", event.Name), zap.String("op", event.Op.String()))

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(opts.debounce, func() {
				select {
				case rebuild <- struct{}{}:
				default:
				}
			})

		case <-rebuild:
			fmt.Fprintf(w, "\n[%s] Change detected, synthesizing...\n", time.Now().Format("15:04:05"))
			resynth()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			opts.log.Warn("watch error", zap.Error(err))

		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			fmt.Fprintln(w, "\nStopping watch...")
			return nil
		}
	}
}

// isWatchedEvent reports whether event is a content change to a template,
// values or context file. Directory creation passes too so that new
// directories get watched.
func isWatchedEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return false
	}
	switch strings.ToLower(filepath.Ext(base)) {
	case ".yaml", ".yml", ".json":
		return true
	case "":
		return event.Op&fsnotify.Create != 0
	}
	return false
}

// addDirRecursive adds a directory and all subdirectories to the watcher.
func addDirRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path != dir {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}
