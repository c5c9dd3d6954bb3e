// Package builtin implements the Runtime-Builtin Registry: a closed, static
// table of Node.js builtin module names, generalized from the teacher's
// scattered builtInNodeModules / polyfilledBuiltInNodeModules /
// denoNextUnspportedNodeModules maps (server/build.go) into one table with
// an explicit per-runtime support matrix.
package builtin

import "strings"

// Category classifies how a builtin should be treated by the resolver.
type Category string

const (
	CategoryCore         Category = "core"
	CategoryWorker       Category = "worker"
	CategoryDeprecated   Category = "deprecated"
	CategoryExperimental Category = "experimental"
	CategoryInternal     Category = "internal"
)

// Support describes whether a runtime implements a builtin natively, not at
// all, or only a subset of its surface ("partial").
type Support string

const (
	SupportYes     Support = "yes"
	SupportNo      Support = "no"
	SupportPartial Support = "partial"
)

// Info is one entry of the registry.
type Info struct {
	Name        string
	Category    Category
	Polyfill    string // npm package name, or "" if unpolyfillable
	HasSubpaths bool
	Subpaths    []string
	Node        Support
	Deno        Support
	Bun         Support
}

// table is the closed registry. Names are bare (no "node:" prefix).
var table = []Info{
	{Name: "assert", Category: CategoryCore, Polyfill: "assert", Node: SupportYes, Deno: SupportYes, Bun: SupportYes},
	{Name: "assert/strict", Category: CategoryCore, Node: SupportYes, Deno: SupportYes, Bun: SupportYes},
	{Name: "async_hooks", Category: CategoryCore, Node: SupportYes, Deno: SupportPartial, Bun: SupportPartial},
	{Name: "buffer", Category: CategoryCore, Polyfill: "buffer", Node: SupportYes, Deno: SupportYes, Bun: SupportYes},
	{Name: "child_process", Category: CategoryCore, Node: SupportYes, Deno: SupportNo, Bun: SupportPartial},
	{Name: "cluster", Category: CategoryCore, Node: SupportYes, Deno: SupportNo, Bun: SupportNo},
	{Name: "console", Category: CategoryCore, Node: SupportYes, Deno: SupportYes, Bun: SupportYes},
	{Name: "constants", Category: CategoryInternal, Node: SupportYes, Deno: SupportYes, Bun: SupportYes},
	{Name: "crypto", Category: CategoryCore, Polyfill: "crypto-browserify", Node: SupportYes, Deno: SupportYes, Bun: SupportYes},
	{Name: "dgram", Category: CategoryCore, Node: SupportYes, Deno: SupportNo, Bun: SupportPartial},
	{Name: "diagnostics_channel", Category: CategoryExperimental, Node: SupportYes, Deno: SupportNo, Bun: SupportNo},
	{Name: "dns", Category: CategoryCore, Node: SupportYes, Deno: SupportPartial, Bun: SupportPartial},
	{Name: "dns/promises", Category: CategoryCore, Node: SupportYes, Deno: SupportPartial, Bun: SupportPartial},
	{Name: "domain", Category: CategoryDeprecated, Node: SupportYes, Deno: SupportNo, Bun: SupportNo},
	{Name: "events", Category: CategoryCore, Polyfill: "events", Node: SupportYes, Deno: SupportYes, Bun: SupportYes},
	{Name: "fs", Category: CategoryCore, Polyfill: "browserify-fs", HasSubpaths: true, Subpaths: []string{"promises"}, Node: SupportYes, Deno: SupportPartial, Bun: SupportYes},
	{Name: "fs/promises", Category: CategoryCore, Node: SupportYes, Deno: SupportPartial, Bun: SupportYes},
	{Name: "http", Category: CategoryCore, Polyfill: "stream-http", Node: SupportYes, Deno: SupportYes, Bun: SupportYes},
	{Name: "http2", Category: CategoryCore, Node: SupportYes, Deno: SupportNo, Bun: SupportPartial},
	{Name: "https", Category: CategoryCore, Polyfill: "https-browserify", Node: SupportYes, Deno: SupportYes, Bun: SupportYes},
	{Name: "inspector", Category: CategoryInternal, Node: SupportYes, Deno: SupportNo, Bun: SupportNo},
	{Name: "module", Category: CategoryInternal, Node: SupportYes, Deno: SupportPartial, Bun: SupportPartial},
	{Name: "net", Category: CategoryCore, Node: SupportYes, Deno: SupportPartial, Bun: SupportPartial},
	{Name: "os", Category: CategoryCore, Polyfill: "os-browserify", Node: SupportYes, Deno: SupportYes, Bun: SupportYes},
	{Name: "path", Category: CategoryCore, Polyfill: "path-browserify", HasSubpaths: true, Subpaths: []string{"posix", "win32"}, Node: SupportYes, Deno: SupportYes, Bun: SupportYes},
	{Name: "path/posix", Category: CategoryCore, Node: SupportYes, Deno: SupportYes, Bun: SupportYes},
	{Name: "path/win32", Category: CategoryCore, Node: SupportYes, Deno: SupportYes, Bun: SupportYes},
	{Name: "perf_hooks", Category: CategoryCore, Node: SupportYes, Deno: SupportPartial, Bun: SupportPartial},
	{Name: "process", Category: CategoryCore, Polyfill: "process", Node: SupportYes, Deno: SupportYes, Bun: SupportYes},
	{Name: "punycode", Category: CategoryDeprecated, Polyfill: "punycode", Node: SupportYes, Deno: SupportYes, Bun: SupportYes},
	{Name: "querystring", Category: CategoryDeprecated, Polyfill: "querystring-es3", Node: SupportYes, Deno: SupportYes, Bun: SupportYes},
	{Name: "readline", Category: CategoryCore, Node: SupportYes, Deno: SupportPartial, Bun: SupportPartial},
	{Name: "readline/promises", Category: CategoryCore, Node: SupportYes, Deno: SupportPartial, Bun: SupportPartial},
	{Name: "repl", Category: CategoryInternal, Node: SupportYes, Deno: SupportNo, Bun: SupportNo},
	{Name: "stream", Category: CategoryCore, Polyfill: "stream-browserify", HasSubpaths: true, Subpaths: []string{"web", "promises", "consumers"}, Node: SupportYes, Deno: SupportYes, Bun: SupportYes},
	{Name: "stream/web", Category: CategoryCore, Node: SupportYes, Deno: SupportYes, Bun: SupportYes},
	{Name: "stream/promises", Category: CategoryCore, Node: SupportYes, Deno: SupportYes, Bun: SupportYes},
	{Name: "stream/consumers", Category: CategoryCore, Node: SupportYes, Deno: SupportYes, Bun: SupportYes},
	{Name: "string_decoder", Category: CategoryCore, Polyfill: "string_decoder", Node: SupportYes, Deno: SupportYes, Bun: SupportYes},
	{Name: "sys", Category: CategoryDeprecated, Node: SupportYes, Deno: SupportNo, Bun: SupportPartial},
	{Name: "timers", Category: CategoryCore, Polyfill: "timers-browserify", HasSubpaths: true, Subpaths: []string{"promises"}, Node: SupportYes, Deno: SupportYes, Bun: SupportYes},
	{Name: "timers/promises", Category: CategoryCore, Node: SupportYes, Deno: SupportYes, Bun: SupportYes},
	{Name: "tls", Category: CategoryCore, Node: SupportYes, Deno: SupportPartial, Bun: SupportPartial},
	{Name: "trace_events", Category: CategoryExperimental, Node: SupportYes, Deno: SupportNo, Bun: SupportNo},
	{Name: "tty", Category: CategoryCore, Polyfill: "tty-browserify", Node: SupportYes, Deno: SupportYes, Bun: SupportYes},
	{Name: "url", Category: CategoryCore, Polyfill: "url", Node: SupportYes, Deno: SupportYes, Bun: SupportYes},
	{Name: "util", Category: CategoryCore, Polyfill: "util", HasSubpaths: true, Subpaths: []string{"types"}, Node: SupportYes, Deno: SupportYes, Bun: SupportYes},
	{Name: "util/types", Category: CategoryCore, Node: SupportYes, Deno: SupportYes, Bun: SupportYes},
	{Name: "v8", Category: CategoryInternal, Node: SupportYes, Deno: SupportNo, Bun: SupportPartial},
	{Name: "vm", Category: CategoryCore, Node: SupportYes, Deno: SupportPartial, Bun: SupportPartial},
	{Name: "wasi", Category: CategoryExperimental, Node: SupportYes, Deno: SupportNo, Bun: SupportNo},
	{Name: "worker_threads", Category: CategoryWorker, Node: SupportYes, Deno: SupportPartial, Bun: SupportYes},
	{Name: "zlib", Category: CategoryCore, Polyfill: "browserify-zlib", Node: SupportYes, Deno: SupportYes, Bun: SupportYes},
}

var byName map[string]Info

func init() {
	byName = make(map[string]Info, len(table))
	for _, e := range table {
		byName[e.Name] = e
	}
}

// stripNodePrefix removes an optional "node:" prefix.
func stripNodePrefix(spec string) string {
	return strings.TrimPrefix(spec, "node:")
}

// baseName strips a leading subpath not itself registered with HasSubpaths,
// leaving just the builtin's root name for lookup (e.g. "fs/promises" stays
// whole since it's a registered entry, but an arbitrary "stream/unknown/x"
// collapses to "stream").
func baseName(spec string) string {
	if _, ok := byName[spec]; ok {
		return spec
	}
	if i := strings.IndexByte(spec, '/'); i >= 0 {
		return spec[:i]
	}
	return spec
}

// IsBuiltin reports whether spec (optionally "node:"-prefixed, optionally
// with a subpath) names a registered builtin.
func IsBuiltin(spec string) bool {
	spec = stripNodePrefix(spec)
	if _, ok := byName[spec]; ok {
		return true
	}
	_, ok := byName[baseName(spec)]
	return ok
}

// GetBuiltinInfo returns the registry entry for spec, or nil if spec is not
// a builtin.
func GetBuiltinInfo(spec string) *Info {
	spec = stripNodePrefix(spec)
	if e, ok := byName[spec]; ok {
		c := e
		return &c
	}
	if e, ok := byName[baseName(spec)]; ok {
		c := e
		return &c
	}
	return nil
}

// Normalize rewrites spec to its canonical "node:"-prefixed form if it names
// a builtin; non-builtins are returned unchanged.
func Normalize(spec string) string {
	bare := stripNodePrefix(spec)
	if IsBuiltin(bare) {
		return "node:" + bare
	}
	return spec
}

// GetPolyfill returns the npm package name polyfilling spec, or "" if spec
// is not a builtin or has no polyfill.
func GetPolyfill(spec string) string {
	info := GetBuiltinInfo(spec)
	if info == nil {
		return ""
	}
	return info.Polyfill
}

// ExternalPatternsOptions configures GetExternalPatterns.
type ExternalPatternsOptions struct {
	Runtime              string // "node", "deno", "bun"
	IncludeDeprecated    bool
	IncludeExperimental  bool
	IncludePolyfillable  bool
	IncludeSubpaths      bool
}

func supportFor(e Info, runtime string) Support {
	switch runtime {
	case "deno":
		return e.Deno
	case "bun":
		return e.Bun
	default:
		return e.Node
	}
}

// GetExternalPatterns returns, in table order, the specifier patterns that
// should be treated as external (left to the runtime) under opts.
func GetExternalPatterns(opts ExternalPatternsOptions) []string {
	var out []string
	for _, e := range table {
		if !opts.IncludeDeprecated && e.Category == CategoryDeprecated {
			continue
		}
		if !opts.IncludeExperimental && e.Category == CategoryExperimental {
			continue
		}
		support := supportFor(e, opts.Runtime)
		if support == SupportNo {
			if !opts.IncludePolyfillable || e.Polyfill == "" {
				continue
			}
		}
		out = append(out, e.Name)
		if opts.IncludeSubpaths && e.HasSubpaths {
			for _, sp := range e.Subpaths {
				out = append(out, e.Name+"/"+sp)
			}
		}
	}
	return out
}

// PolyfillProfile selects how aggressively GetPolyfillMap maps builtins to
// polyfill packages.
type PolyfillProfile string

const (
	ProfileConservative PolyfillProfile = "conservative"
	ProfileAggressive   PolyfillProfile = "aggressive"
	ProfileMaximal      PolyfillProfile = "maximal"
)

// GetPolyfillMap returns a builtin-name -> npm-package-name mapping for the
// given profile. Conservative only maps entries with a Core category and a
// polyfill; aggressive adds worker/internal; maximal adds every entry that
// has a polyfill regardless of category.
func GetPolyfillMap(profile PolyfillProfile) map[string]string {
	out := make(map[string]string)
	for _, e := range table {
		if e.Polyfill == "" {
			continue
		}
		switch profile {
		case ProfileConservative:
			if e.Category != CategoryCore {
				continue
			}
		case ProfileAggressive:
			if e.Category == CategoryDeprecated || e.Category == CategoryExperimental {
				continue
			}
		case ProfileMaximal:
			// include everything with a polyfill
		}
		out[e.Name] = e.Polyfill
	}
	return out
}
