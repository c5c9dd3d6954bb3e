package bundle

import (
	"context"
	"fmt"

	"github.com/esm-dev/esbundle/registry"
	"github.com/esm-dev/esbundle/vfs"
)

// CDNStage implements spec.md §4.F.6: resolving a bare specifier not
// already handled by Tarball against the registry, mounting its tarball if
// needed, and recording it in packageManifests / the mountIndex.
type CDNStage struct {
	State      *LocalState
	MountIndex *mountIndex
	Conditions []string
	// DependencyRange looks up the semver range an importer's package.json
	// declares for a dependency name, defaulting to "latest" (spec.md
	// §4.F.6.2) when the importer isn't itself an npm package (e.g. user
	// code at the VFS root).
	DependencyRange func(importer, name string) string
	// Deprecation is called when a resolved manifest carries a non-empty
	// "deprecated" field (SPEC_FULL.md §10.2); nil disables the warning.
	Deprecation func(name, version, reason string)
}

func (s *CDNStage) Name() string { return "cdn" }

func (s *CDNStage) Resolve(args *ResolveArgs) (*ResolveResult, error) {
	if !isBareSpecifier(args.Specifier) {
		return nil, nil
	}
	// If name were already mounted, the Tarball stage (earlier in the
	// chain) would have claimed this specifier already, so reaching here
	// means this package has not been resolved in this session yet.
	name, subpath := parseBareSpecifier(args.Specifier)

	rangeOrTag := "latest"
	if s.DependencyRange != nil {
		if r := s.DependencyRange(args.Importer, name); r != "" {
			rangeOrTag = r
		}
	}

	ctx := context.Background()
	version, err := s.State.Registry.ResolveVersion(ctx, name, rangeOrTag)
	if err != nil {
		return nil, err
	}
	manifest, err := s.State.Registry.GetManifest(ctx, name, version)
	if err != nil {
		return nil, err
	}

	mountRoot := fmt.Sprintf("/node_modules/%s@%s", name, version)
	if !s.State.Mounter.IsMounted(mountRoot) {
		if _, err := s.State.Mounter.Mount(ctx, mountRoot, manifest.Dist.Tarball, manifest.Dist.Shasum); err != nil {
			return nil, err
		}
	}

	if manifest.Deprecated != "" && s.Deprecation != nil {
		s.Deprecation(name, version, manifest.Deprecated)
	}

	s.MountIndex.record(name, version, mountRoot, manifest)

	entry, err := registry.ResolveEntry(manifest, subpath, s.Conditions)
	if err != nil {
		return nil, err
	}
	path, err := vfs.Join(mountRoot, entry.File)
	if err != nil {
		return nil, err
	}
	sideEffects := s.State.sideEffectsMatcherFor(mountRoot, entry.SideEffects).HasSideEffects(entry.File)
	return &ResolveResult{Path: path, Namespace: NamespaceVFS, SideEffects: &sideEffects}, nil
}
