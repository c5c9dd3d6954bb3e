package bundle

import (
	"sync"

	"github.com/esm-dev/esbundle/cdn"
	"github.com/esm-dev/esbundle/registry"
	"github.com/esm-dev/esbundle/tarball"
	"github.com/esm-dev/esbundle/vfs"
)

// LocalState is the per-build-session state bag (spec.md §3). Per-build
// caches (assets, failedExtensionChecks, sideEffectsMatchersCache) are
// cleared by rebuild(); versions, packageManifests, and tarballMounts live
// inside registry.Client and tarball.Mounter respectively and are NOT
// cleared by rebuild — those two components own that storage, so
// LocalState just holds handles to them rather than duplicating it.
type LocalState struct {
	FS     vfs.FileSystem
	Config BuildConfig
	Host   cdn.Spec

	Registry *registry.Client
	Mounter  *tarball.Mounter

	mu                   sync.Mutex
	assets               map[string][]byte
	failedExtensionChecks map[string]bool
	sideEffectsMatchers  map[string]*sideEffectsMatcher
}

// NewLocalState constructs the state bag for one Build Session.
func NewLocalState(cfg BuildConfig, fsys vfs.FileSystem, fetcher registry.Fetcher, tarballFetcher tarball.Fetcher) (*LocalState, error) {
	host, err := cdn.Parse(cfg.CDN)
	if err != nil {
		return nil, &ErrConfigInvalid{Reason: err.Error()}
	}
	client := registry.NewClient(fetcher)
	if cfg.DiskCachePath != "" {
		disk, err := registry.OpenDiskCache(cfg.DiskCachePath)
		if err != nil {
			return nil, &ErrConfigInvalid{Reason: "diskCachePath: " + err.Error()}
		}
		client.Disk = disk
	}
	return &LocalState{
		FS:                    fsys,
		Config:                cfg,
		Host:                  host,
		Registry:              client,
		Mounter:               tarball.NewMounter(fsys, tarballFetcher),
		assets:                make(map[string][]byte),
		failedExtensionChecks: make(map[string]bool),
		sideEffectsMatchers:   make(map[string]*sideEffectsMatcher),
	}, nil
}

// ResetPerBuildCaches clears assets, failedExtensionChecks, and
// sideEffectsMatchersCache (spec.md §4.G rebuild()'s invalidation list) and
// delegates the registry's failedManifestUrls reset to Registry, while
// leaving Registry's versions/packageManifests and Mounter's mounted set
// untouched, preserving them across the rebuild exactly as spec.md §3/§4.G
// require.
func (s *LocalState) ResetPerBuildCaches() {
	s.mu.Lock()
	s.assets = make(map[string][]byte)
	s.failedExtensionChecks = make(map[string]bool)
	s.sideEffectsMatchers = make(map[string]*sideEffectsMatcher)
	s.mu.Unlock()
	s.Registry.ResetPerBuildCaches()
}

func (s *LocalState) probeExtensionFailed(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failedExtensionChecks[key]
}

func (s *LocalState) markExtensionFailed(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failedExtensionChecks[key] = true
}

func (s *LocalState) putAsset(path string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assets[path] = data
}

// Assets returns a snapshot of the per-build asset set.
func (s *LocalState) Assets() map[string][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string][]byte, len(s.assets))
	for k, v := range s.assets {
		out[k] = v
	}
	return out
}

// sideEffectsMatcher is built once per package from package.json#sideEffects
// (bool or glob list) and cached in sideEffectsMatchersCache.
type sideEffectsMatcher struct {
	allFalse bool
	globs    []string
}

func newSideEffectsMatcher(declaration any) *sideEffectsMatcher {
	switch v := declaration.(type) {
	case bool:
		return &sideEffectsMatcher{allFalse: !v}
	case []any:
		globs := make([]string, 0, len(v))
		for _, g := range v {
			if s, ok := g.(string); ok {
				globs = append(globs, s)
			}
		}
		return &sideEffectsMatcher{globs: globs}
	default:
		return &sideEffectsMatcher{}
	}
}

// HasSideEffects reports whether relPath (relative to the package root)
// must be retained by the engine's tree-shaker.
func (m *sideEffectsMatcher) HasSideEffects(relPath string) bool {
	if m.allFalse {
		return false
	}
	if len(m.globs) == 0 {
		return true
	}
	for _, g := range m.globs {
		if globMatch(g, relPath) {
			return true
		}
	}
	return false
}

func (s *LocalState) sideEffectsMatcherFor(pkgKey string, declaration any) *sideEffectsMatcher {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.sideEffectsMatchers[pkgKey]; ok {
		return m
	}
	m := newSideEffectsMatcher(declaration)
	s.sideEffectsMatchers[pkgKey] = m
	return m
}
