package bundle

import (
	"context"
	"fmt"
	"strings"
	"sync"

	esbuild "github.com/evanw/esbuild/pkg/api"

	"github.com/esm-dev/esbundle/registry"
	"github.com/esm-dev/esbundle/tarball"
	"github.com/esm-dev/esbundle/vfs"
)

// State is the Build Session's lifecycle state machine (spec.md §4.G).
type State string

const (
	StateUninitialized State = "uninitialized"
	StateInitializing  State = "initializing"
	StateIdle          State = "idle"
	StateBuilding      State = "building"
	StateDisposed      State = "disposed"
)

// BuildResult is the outcome of a (re)build (spec.md §4.G).
type BuildResult struct {
	Outputs          map[string][]byte
	Contents         map[string][]byte // Outputs minus sourcemaps/binary artifacts
	PackageSizeArr   []PackageSize
	TotalInstallSize int64
	Errors           []Notice
	Warnings         []Notice
}

// PackageSize pairs a package name with its installed size taken from the
// manifest's dist.unpackedSize. Bytes is the raw byte count; no
// human-readable formatting is applied.
type PackageSize struct {
	Name  string
	Bytes int64
}

// Session is the Build Session (§4.G): configure → build/context → rebuild
// → cancel → dispose.
type Session struct {
	mu    sync.Mutex
	state State

	config BuildConfig
	fs     vfs.FileSystem
	state_ *LocalState // LocalState, named to avoid clashing with State type
	events *EventBus
	chain  *Chain
	engine *Engine

	mountIndex *mountIndex

	cancelling   bool
	inflightCtx  context.Context
	inflightStop context.CancelFunc
}

// CreateContext implements spec.md §4.G createContext: parse config,
// construct LocalState, initialize the Engine, register the Resolver
// Chain, create a long-lived session.
func CreateContext(ctx context.Context, cfg BuildConfig, fsys vfs.FileSystem, fetcher registry.Fetcher, tarballFetcher tarball.Fetcher) (*Session, error) {
	merged := DefaultConfig().Merge(cfg)
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	if fsys == nil {
		fsys = vfs.NewMemoryFS()
	}

	s := &Session{state: StateInitializing, config: merged, fs: fsys, events: NewEventBus()}
	s.events.DispatchEvent(TopicInitLoading, nil)

	engine, err := Bootstrap(ctx, merged.Init)
	if err != nil {
		return nil, &ErrEngineInitFailed{Cause: err}
	}
	s.engine = engine

	localState, err := NewLocalState(merged, fsys, fetcher, tarballFetcher)
	if err != nil {
		return nil, err
	}
	s.state_ = localState
	s.mountIndex = newMountIndex()
	s.chain = s.buildChain()

	s.state = StateIdle
	s.events.DispatchEvent(TopicInitReady, nil)
	return s, nil
}

func (s *Session) buildChain() *Chain {
	platform := s.config.Esbuild.Platform
	conditions := registry.ConditionsForPlatform(platform)
	runtime := platform
	if runtime == "" {
		runtime = "node"
	}
	return NewChain(
		&AliasStage{UserAliases: s.config.Alias},
		&ExternalStage{Runtime: runtime, Polyfill: s.config.Polyfill, External: s.config.External},
		&VFSStage{FS: s.fs},
		&TarballStage{FS: s.fs, State: s.state_, Conditions: conditions, MountIndex: s.mountIndex},
		&HTTPStage{FS: s.fs, State: s.state_, Fetcher: defaultHTTPFetcher{}},
		&CDNStage{
			State:      s.state_,
			MountIndex: s.mountIndex,
			Conditions: conditions,
			DependencyRange: func(importer, name string) string { return s.dependencyRangeFor(importer, name) },
			Deprecation: func(name, version, reason string) {
				s.logWarnf("%s@%s is deprecated: %s", name, version, reason)
			},
		},
	)
}

// dependencyRangeFor looks up the semver range the importing package
// declares for name, defaulting to "latest" (spec.md §4.F.6.2). The
// importer's own mounted manifest (found via mountIndex by matching its
// mountRoot prefix) is consulted; user code at the VFS root has no
// package.json, so it always defaults to latest.
func (s *Session) dependencyRangeFor(importer, name string) string {
	if !strings.HasPrefix(importer, "/node_modules/") {
		return "latest"
	}
	for _, pkgName := range s.mountIndex.names() {
		root, manifest, ok := s.mountIndex.lookup(pkgName)
		if !ok || !strings.HasPrefix(importer, root+"/") {
			continue
		}
		if r, ok := manifest.Dependencies[name]; ok {
			return r
		}
		if r, ok := manifest.PeerDependencies[name]; ok {
			return r
		}
	}
	return "latest"
}

// Config returns the session's merged, validated configuration.
func (s *Session) Config() BuildConfig { return s.config }

// Events returns the session's event bus.
func (s *Session) Events() *EventBus { return s.events }

// Build implements spec.md §6 build(config): one-shot create, run, dispose.
func Build(ctx context.Context, cfg BuildConfig, fsys vfs.FileSystem) (*BuildResult, error) {
	session, err := CreateContext(ctx, cfg, fsys, nil, nil)
	if err != nil {
		return nil, err
	}
	defer session.Dispose(ctx)
	return session.Rebuild(ctx)
}

// Rebuild implements spec.md §4.G rebuild(ctx): invalidates per-build
// caches but preserves tarballMounts/packageManifests/versions/VFS,
// replacing any in-flight rebuild (policy: replace — the older call is
// cancelled and rejected with ErrSuperseded).
func (s *Session) Rebuild(ctx context.Context) (*BuildResult, error) {
	s.mu.Lock()
	if s.state == StateDisposed {
		s.mu.Unlock()
		return nil, ErrDisposed
	}
	if s.inflightStop != nil {
		s.inflightStop() // supersede the older in-flight rebuild
	}
	buildCtx, cancel := context.WithCancel(ctx)
	s.inflightCtx, s.inflightStop = buildCtx, cancel
	s.state = StateBuilding
	s.cancelling = false
	s.mu.Unlock()

	s.state_.ResetPerBuildCaches()
	s.events.DispatchEvent(TopicBuildStart, nil)

	result, err := s.runEngineBuild(buildCtx)

	s.mu.Lock()
	if err == ErrBuildCancelled && s.inflightCtx != buildCtx {
		// A newer Rebuild replaced this call's context.
		err = ErrSuperseded
	}
	if s.state != StateDisposed {
		s.state = StateIdle
	}
	s.mu.Unlock()

	if err != nil {
		s.events.DispatchEvent(TopicBuildError, err)
		return nil, err
	}
	s.events.DispatchEvent(TopicBuildEnd, result)
	return result, nil
}

func (s *Session) runEngineBuild(ctx context.Context) (*BuildResult, error) {
	entryPoints := append([]string(nil), s.config.EntryPoints...)
	opts := esbuild.BuildOptions{
		EntryPoints:       entryPoints,
		Bundle:            s.config.Esbuild.Bundle,
		Target:            esbuildTarget(s.config.Esbuild.Target),
		Format:            esbuildFormat(s.config.Esbuild.Format),
		Platform:          esbuildPlatform(s.config.Esbuild.Platform),
		MinifyWhitespace:  s.config.Esbuild.Minify,
		MinifyIdentifiers: s.config.Esbuild.Minify,
		MinifySyntax:      s.config.Esbuild.Minify,
		TreeShaking:       treeShakingSetting(s.config.Esbuild.TreeShaking),
		GlobalName:        s.config.Esbuild.GlobalName,
		Sourcemap:         sourcemapSetting(s.config.Esbuild.Sourcemap),
		Write:             false,
		Outdir:            "/esbuild-out",
		Plugins:           []esbuild.Plugin{s.asEsbuildPlugin()},
	}
	for k, v := range s.config.Esbuild.Define {
		if opts.Define == nil {
			opts.Define = make(map[string]string)
		}
		opts.Define[k] = v
	}
	if !s.config.Esbuild.Minify {
		// SPEC_FULL.md §10.4: non-minified builds get a one-line identifying
		// banner, grounded on the teacher's "/* esm.sh - esbuild bundle(...) */"
		// convention (server/build.go).
		opts.Banner = map[string]string{
			"js": fmt.Sprintf("/* esbundle - bundle(%s) %s */\n", strings.Join(entryPoints, ","), s.config.Esbuild.Platform),
		}
	}

	if ctx.Err() != nil {
		return nil, ErrBuildCancelled
	}

	ret := esbuild.Build(opts)

	select {
	case <-ctx.Done():
		return nil, ErrBuildCancelled
	default:
	}

	if len(ret.Errors) > 0 {
		notices := make([]Notice, len(ret.Errors))
		for i, e := range ret.Errors {
			notices[i] = Notice{Severity: SeverityError, Text: e.Text}
		}
		return nil, &ErrBuildFailed{Notices: notices}
	}

	warnings := make([]Notice, len(ret.Warnings))
	for i, w := range ret.Warnings {
		warnings[i] = Notice{Severity: SeverityWarning, Text: w.Text}
	}

	outputs := make(map[string][]byte, len(ret.OutputFiles))
	contents := make(map[string][]byte)
	for _, f := range ret.OutputFiles {
		outputs[f.Path] = f.Contents
		if !strings.HasSuffix(f.Path, ".map") && loaderForPath(f.Path, s.config.Esbuild.Loader) != "file" {
			contents[f.Path] = f.Contents
		}
	}
	for path, data := range s.state_.Assets() {
		if _, ok := outputs[path]; ok {
			continue
		}
		outputs[path] = data
	}

	sizes, total := s.packageSizes()
	return &BuildResult{
		Outputs:          outputs,
		Contents:         contents,
		PackageSizeArr:   sizes,
		TotalInstallSize: total,
		Warnings:         warnings,
	}, nil
}

func (s *Session) packageSizes() ([]PackageSize, int64) {
	var sizes []PackageSize
	var total int64
	for _, name := range s.mountIndex.names() {
		_, manifest, ok := s.mountIndex.lookup(name)
		if !ok {
			continue
		}
		b := manifest.Dist.UnpackedSize
		sizes = append(sizes, PackageSize{Name: manifest.Name, Bytes: b})
		total += b
	}
	return sizes, total
}

func treeShakingSetting(enabled bool) esbuild.TreeShaking {
	if enabled {
		return esbuild.TreeShakingTrue
	}
	return esbuild.TreeShakingFalse
}

// Cancel implements spec.md §4.G cancel(ctx): idempotent request to abort
// any in-flight build.
func (s *Session) Cancel(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateDisposed {
		return ErrDisposed
	}
	s.cancelling = true
	if s.inflightStop != nil {
		s.inflightStop()
	}
	return nil
}

// Dispose implements spec.md §4.G dispose(ctx): cancels any in-flight
// build, closes the registry's disk cache if one is open, and transitions
// to disposed. The in-memory caches are not cleared.
func (s *Session) Dispose(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateDisposed {
		return ErrDisposed
	}
	if s.inflightStop != nil {
		s.inflightStop()
	}
	if s.state_ != nil && s.state_.Registry.Disk != nil {
		_ = s.state_.Registry.Disk.Close()
	}
	s.state = StateDisposed
	return nil
}
