package main

import (
	"context"
	"fmt"
	"time"

	"github.com/radovskyb/watcher"
	"github.com/spf13/cobra"

	"github.com/esm-dev/esbundle/bundle"
	"github.com/esm-dev/esbundle/vfs"
)

// newServeCommand implements the watch-and-rebuild loop, grounded on
// nagyist-airplanedev.cli's filewatcher.AppWatcher: a recursive
// radovskyb/watcher poll loop whose callback triggers one rebuild per batch
// of changes, the CLI counterpart to the programmatic rebuild(ctx) surface
// (spec.md §4.G, §6).
func newServeCommand() *cobra.Command {
	var (
		entry        string
		root         string
		cdn          string
		platform     string
		cache        string
		pollInterval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Rebuild on file changes under --root and report notices",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := bundle.DefaultConfig()
			if entry != "" {
				cfg.EntryPoints = []string{entry}
			}
			if cdn != "" {
				cfg.CDN = cdn
			}
			if platform != "" {
				cfg.Esbuild.Platform = platform
			}
			cfg.DiskCachePath = cache

			fsys, err := vfs.NewDiskFS(root)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			session, err := bundle.CreateContext(ctx, cfg, fsys, nil, nil)
			if err != nil {
				return err
			}
			defer session.Dispose(ctx)

			session.Events().AddEventListener(bundle.TopicBuildEnd, func(payload any) {
				fmt.Fprintln(cmd.OutOrStdout(), "build succeeded")
			})
			session.Events().AddEventListener(bundle.TopicBuildError, func(payload any) {
				fmt.Fprintf(cmd.ErrOrStderr(), "build failed: %v\n", payload)
			})

			rebuild := func() {
				if _, err := session.Rebuild(ctx); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "rebuild error: %v\n", err)
				}
			}
			rebuild()

			w := watcher.New()
			w.SetMaxEvents(1)
			w.IgnoreHiddenFiles(true)
			if err := w.AddRecursive(root); err != nil {
				return err
			}

			go func() {
				for {
					select {
					case <-w.Event:
						rebuild()
					case err := <-w.Error:
						fmt.Fprintf(cmd.ErrOrStderr(), "watch error: %v\n", err)
					case <-w.Closed:
						return
					}
				}
			}()

			fmt.Fprintf(cmd.OutOrStdout(), "watching %s for changes...\n", root)
			return w.Start(pollInterval)
		},
	}

	cmd.Flags().StringVar(&entry, "entry", "", "entry point path within --root")
	cmd.Flags().StringVar(&root, "root", ".", "project root backing the virtual filesystem")
	cmd.Flags().StringVar(&cdn, "cdn", "", "CDN shorthand or host")
	cmd.Flags().StringVar(&platform, "platform", "", "browser|node|neutral")
	cmd.Flags().StringVar(&cache, "cache", "", "path to a persistent manifest cache file, reused across rebuilds")
	cmd.Flags().DurationVar(&pollInterval, "poll", 200*time.Millisecond, "filesystem poll interval")

	return cmd
}
