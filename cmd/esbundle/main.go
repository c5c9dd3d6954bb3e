// Command esbundle is a thin CLI wrapper over the bundle package, grounded
// on the pack's cobra-based CLI shape (nagyist-airplanedev.cli's
// cmd/airplane/main.go + root.go).
package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/esm-dev/esbundle/bundle"
)

var version = "<dev>"

func main() {
	cmd := newRootCommand()
	cmd.Version = version

	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "esbundle: unexpected panic: %v\n%s\n", r, debug.Stack())
			os.Exit(1)
		}
	}()

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, bundle.Notice{Severity: bundle.SeverityError, Text: err.Error()}.Format(bundle.AnsiColor))
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "esbundle <command>",
		Short: "Bundle ES modules with CDN-backed npm resolution",
	}
	cmd.AddCommand(newBuildCommand())
	cmd.AddCommand(newServeCommand())
	return cmd
}
