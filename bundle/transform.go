package bundle

import (
	esbuild "github.com/evanw/esbuild/pkg/api"
)

// TransformOptions are the engine options accepted by Transform (spec.md §6).
type TransformOptions struct {
	Loader    string
	Target    []string
	Minify    bool
	Sourcemap bool
}

// TransformResult is the output of a single-file transform, with no module
// resolution involved (source maps and tree-shaking internals are non-goals
// per spec.md §1, so this wraps esbuild.Transform directly rather than
// reimplementing it).
type TransformResult struct {
	Code     []byte
	Map      []byte
	Warnings []Notice
}

// Transform implements the public Transform operation (spec.md §6):
// single-file, no resolution, grounded on the teacher's minify() helper in
// server/js.go which calls esbuild.Transform the same way.
func Transform(input string, opts TransformOptions) (*TransformResult, error) {
	result := esbuild.Transform(input, esbuild.TransformOptions{
		Loader:    esbuildLoader(opts.Loader),
		Target:    esbuildTarget(opts.Target),
		Format:    esbuild.FormatESModule,
		Platform:  esbuild.PlatformBrowser,
		Sourcemap: sourcemapSetting(opts.Sourcemap),
		MinifyWhitespace:  opts.Minify,
		MinifyIdentifiers: opts.Minify,
		MinifySyntax:      opts.Minify,
	})
	if len(result.Errors) > 0 {
		notices := make([]Notice, len(result.Errors))
		for i, e := range result.Errors {
			notices[i] = Notice{Severity: SeverityError, Text: e.Text}
		}
		return nil, &ErrBuildFailed{Notices: notices}
	}
	warnings := make([]Notice, len(result.Warnings))
	for i, w := range result.Warnings {
		warnings[i] = Notice{Severity: SeverityWarning, Text: w.Text}
	}
	return &TransformResult{Code: result.Code, Map: result.Map, Warnings: warnings}, nil
}

func sourcemapSetting(enabled bool) esbuild.SourceMap {
	if enabled {
		return esbuild.SourceMapInline
	}
	return esbuild.SourceMapNone
}
