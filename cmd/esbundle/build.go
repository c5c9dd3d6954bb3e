package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/esm-dev/esbundle/bundle"
	"github.com/esm-dev/esbundle/vfs"
)

func newBuildCommand() *cobra.Command {
	var (
		entry    string
		root     string
		out      string
		cdn      string
		platform string
		format   string
		target   string
		minify   bool
		polyfill bool
		config   string
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Bundle a single entry point and write the output to disk",
		RunE: func(cmd *cobra.Command, args []string) error {
			fileCfg, err := bundle.LoadConfigFile(config)
			if err != nil {
				return err
			}

			cfg := fileCfg
			if entry != "" {
				cfg.EntryPoints = []string{entry}
			}
			if cdn != "" {
				cfg.CDN = cdn
			}
			if platform != "" {
				cfg.Esbuild.Platform = platform
			}
			if format != "" {
				cfg.Esbuild.Format = format
			}
			if target != "" {
				cfg.Esbuild.Target = []string{target}
			}
			cfg.Polyfill = polyfill
			if cmd.Flags().Changed("minify") {
				cfg.Esbuild.Minify = minify
			}

			fsys, err := vfs.NewDiskFS(root)
			if err != nil {
				return err
			}

			result, err := bundle.Build(context.Background(), cfg, fsys)
			if err != nil {
				return err
			}

			if err := os.MkdirAll(out, 0755); err != nil {
				return err
			}
			for path, contents := range result.Contents {
				dest := filepath.Join(out, filepath.FromSlash(strings.TrimPrefix(path, "/")))
				if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
					return err
				}
				if err := os.WriteFile(dest, contents, 0644); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", dest, len(contents))
			}
			for _, size := range result.PackageSizeArr {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s: %d bytes\n", size.Name, size.Bytes)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&entry, "entry", "", "entry point path within --root (overrides config file)")
	cmd.Flags().StringVar(&root, "root", ".", "project root backing the virtual filesystem")
	cmd.Flags().StringVar(&out, "out", "./dist", "output directory")
	cmd.Flags().StringVar(&cdn, "cdn", "", "CDN shorthand or host (unpkg, jsdelivr, esm.sh, skypack, jspm, esm.run)")
	cmd.Flags().StringVar(&platform, "platform", "", "browser|node|neutral")
	cmd.Flags().StringVar(&format, "format", "", "esm|cjs|iife")
	cmd.Flags().StringVar(&target, "target", "", "esnext|es2015|...|es2022")
	cmd.Flags().BoolVar(&minify, "minify", true, "minify output")
	cmd.Flags().BoolVar(&polyfill, "polyfill", false, "polyfill unsupported Node builtins for the browser target")
	cmd.Flags().StringVar(&config, "config", "esbundle.yaml", "path to a YAML config file")

	return cmd
}
