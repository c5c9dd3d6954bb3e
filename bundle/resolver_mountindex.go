package bundle

import (
	"sync"

	"github.com/esm-dev/esbundle/registry"
)

// mountIndex tracks, per package name, which exact version is currently
// mounted in this session — shared between the CDN stage (which populates
// it after a successful mount) and the Tarball stage (which consults it
// before ever touching the network), implementing spec.md §4.F.4's "if
// name@version is already mounted" check and the §3 invariant that a
// second resolve for the same name@exactVersion reuses the same mountRoot.
type mountIndex struct {
	mu      sync.RWMutex
	byName  map[string]mountEntry
}

type mountEntry struct {
	version   string
	mountRoot string
	manifest  *registry.Manifest
}

func newMountIndex() *mountIndex {
	return &mountIndex{byName: make(map[string]mountEntry)}
}

func (idx *mountIndex) record(name, version, mountRoot string, manifest *registry.Manifest) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.byName[name] = mountEntry{version: version, mountRoot: mountRoot, manifest: manifest}
}

func (idx *mountIndex) lookup(name string) (mountRoot string, manifest *registry.Manifest, ok bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	e, ok := idx.byName[name]
	if !ok {
		return "", nil, false
	}
	return e.mountRoot, e.manifest, true
}

// names returns every package name currently recorded, for size reporting
// and dependency-range lookups.
func (idx *mountIndex) names() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make([]string, 0, len(idx.byName))
	for name := range idx.byName {
		out = append(out, name)
	}
	return out
}
