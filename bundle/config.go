package bundle

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/esm-dev/esbundle/cdn"
)

// Platform is the engine-init target (spec.md §3 BuildConfig.init.target).
type Platform string

const (
	PlatformBrowser Platform = "browser"
	PlatformWasm    Platform = "wasm"
	PlatformDeno    Platform = "deno"
	PlatformNode    Platform = "node"
	PlatformBun     Platform = "bun"
	PlatformWorkerd Platform = "workerd"
	PlatformAuto    Platform = "auto"
)

// InitConfig configures Engine Bootstrap (§4.I).
type InitConfig struct {
	Target   Platform
	Version  string
	WasmURL  string
	WorkerURL string
	Worker   bool
}

// EsbuildOptions are the opaque engine options forwarded verbatim to the
// esbuild API (spec.md §3 BuildConfig.esbuild).
type EsbuildOptions struct {
	LogLevel     string
	Target       []string
	Format       string
	Platform     string
	Minify       bool
	Define       map[string]string
	Loader       map[string]string
	JSX          string
	GlobalName   string
	Color        bool
	Sourcemap    bool
	Bundle       bool
	TreeShaking  bool
	Splitting    bool
}

// BuildConfig is the full engine configuration (spec.md §3, §6).
type BuildConfig struct {
	EntryPoints []string
	CDN         string
	Polyfill    bool
	Esbuild     EsbuildOptions
	Init        InitConfig
	Ansi        AnsiMode

	// External and Alias are supplemented configuration (SPEC_FULL.md §10.3),
	// grounded on the teacher's BuildArgs.external/BuildArgs.alias fields
	// (server/build.go), consumed by the External and Alias resolver stages.
	External []string
	Alias    map[string]string

	// DiskCachePath, if set, backs the Package Metadata Cache with a
	// persistent bolt.DB file (registry.DiskCache) that survives process
	// restarts — used by the CLI's `serve` command so a long-running watch
	// session reuses manifests across rebuilds without re-hitting the
	// registry each time the Build Session is recreated.
	DiskCachePath string
}

// DefaultConfig returns the bit-exact defaults spec.md §6 requires.
func DefaultConfig() BuildConfig {
	return BuildConfig{
		EntryPoints: []string{"/index.tsx"},
		CDN:         "unpkg",
		Polyfill:    false,
		Esbuild: EsbuildOptions{
			LogLevel:    "info",
			Target:      []string{"esnext"},
			Format:      "esm",
			Bundle:      true,
			Minify:      true,
			TreeShaking: true,
			Platform:    "node",
			JSX:         "transform",
			GlobalName:  "BundledCode",
			Sourcemap:   false,
			Color:       true,
			Loader: map[string]string{
				".png":  "file",
				".jpeg": "file",
				".ttf":  "file",
				".svg":  "text",
				".html": "text",
				".scss": "css",
			},
			Define: map[string]string{
				"__NODE__":            "false",
				"process.env.NODE_ENV": `"production"`,
			},
		},
		Init: InitConfig{Target: PlatformAuto},
		Ansi: AnsiColor,
	}
}

// Merge overlays non-zero fields of override onto the receiver's defaults,
// the way the teacher's flag-parsing in server.go overlays CLI flags onto
// baked-in defaults.
func (c BuildConfig) Merge(override BuildConfig) BuildConfig {
	merged := c
	if len(override.EntryPoints) > 0 {
		merged.EntryPoints = override.EntryPoints
	}
	if override.CDN != "" {
		merged.CDN = override.CDN
	}
	merged.Polyfill = override.Polyfill
	if override.Esbuild.Target != nil {
		merged.Esbuild.Target = override.Esbuild.Target
	}
	if override.Esbuild.Format != "" {
		merged.Esbuild.Format = override.Esbuild.Format
	}
	if override.Esbuild.Platform != "" {
		merged.Esbuild.Platform = override.Esbuild.Platform
	}
	if override.Init.Target != "" {
		merged.Init = override.Init
	}
	if override.Ansi != "" {
		merged.Ansi = override.Ansi
	}
	if len(override.External) > 0 {
		merged.External = override.External
	}
	if override.Alias != nil {
		merged.Alias = override.Alias
	}
	if override.DiskCachePath != "" {
		merged.DiskCachePath = override.DiskCachePath
	}
	return merged
}

// Validate rejects an unrecognized CDN shorthand/URL or malformed config,
// returning ErrConfigInvalid (spec.md §7).
func (c BuildConfig) Validate() error {
	if len(c.EntryPoints) == 0 {
		return &ErrConfigInvalid{Reason: "entryPoints must not be empty"}
	}
	if _, err := cdn.Parse(c.CDN); err != nil {
		return &ErrConfigInvalid{Reason: "cdn: " + err.Error()}
	}
	switch c.Ansi {
	case AnsiColor, AnsiHTML, AnsiNone:
	default:
		return &ErrConfigInvalid{Reason: "ansi must be one of ansi|html|none"}
	}
	return nil
}

// fileConfig is the YAML-on-disk shape for the cmd/esbundle CLI (loaded via
// gopkg.in/yaml.v3, matching the pack's config-file convention —
// nagyist-airplanedev.cli and tinyland-inc-pp both load layered YAML config
// this way rather than hand-rolling a parser).
type fileConfig struct {
	EntryPoints []string          `yaml:"entryPoints"`
	CDN         string            `yaml:"cdn"`
	Polyfill    bool              `yaml:"polyfill"`
	Platform    string            `yaml:"platform"`
	Target      string            `yaml:"target"`
	Ansi        string            `yaml:"ansi"`
	External    []string          `yaml:"external"`
	Alias       map[string]string `yaml:"alias"`
}

// LoadConfigFile reads a BuildConfig override from a YAML file, returning
// the zero BuildConfig (a no-op Merge) if path does not exist.
func LoadConfigFile(path string) (BuildConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return BuildConfig{}, nil
		}
		return BuildConfig{}, err
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return BuildConfig{}, &ErrConfigInvalid{Reason: "yaml: " + err.Error()}
	}
	cfg := BuildConfig{
		EntryPoints: fc.EntryPoints,
		CDN:         fc.CDN,
		Polyfill:    fc.Polyfill,
		Ansi:        AnsiMode(fc.Ansi),
		External:    fc.External,
		Alias:       fc.Alias,
	}
	if fc.Platform != "" {
		cfg.Esbuild.Platform = fc.Platform
	}
	if fc.Target != "" {
		cfg.Esbuild.Target = []string{fc.Target}
	}
	return cfg, nil
}
