package bundle

import (
	"strings"

	"github.com/esm-dev/esbundle/registry"
	"github.com/esm-dev/esbundle/vfs"
)

// parseBareSpecifier splits a bare npm specifier into (name, subpath) using
// npm's rule: an optional "@scope/" prefix, then the package name segment,
// then everything after as the subpath. Grounded on the teacher's
// parsePkgNameInfo (server/pkg.go), generalized from parsing a CDN URL
// pathname to parsing a bare import specifier directly.
func parseBareSpecifier(spec string) (name, subpath string) {
	s := spec
	scope := ""
	if strings.HasPrefix(s, "@") {
		idx := strings.IndexByte(s, '/')
		if idx < 0 {
			return s, ""
		}
		scope = s[:idx+1]
		s = s[idx+1:]
	}
	idx := strings.IndexByte(s, '/')
	if idx < 0 {
		return scope + s, ""
	}
	return scope + s[:idx], s[idx+1:]
}

func isBareSpecifier(spec string) bool {
	return !isRelativeOrAbsoluteSpecifier(spec) && !strings.HasPrefix(spec, "http://") && !strings.HasPrefix(spec, "https://")
}

// TarballStage implements spec.md §4.F.4: if the bare specifier's
// name@version is already mounted, resolve the subpath against the
// manifest without touching the network.
type TarballStage struct {
	FS         vfs.FileSystem
	State      *LocalState
	Conditions []string
	// MountIndex resolves a package name to its currently-mounted
	// name@version mountRoot, if any (populated by the CDN stage as it
	// mounts packages — see mountIndex in resolver_mountindex.go).
	MountIndex *mountIndex
}

func (s *TarballStage) Name() string { return "tarball" }

func (s *TarballStage) Resolve(args *ResolveArgs) (*ResolveResult, error) {
	if !isBareSpecifier(args.Specifier) {
		return nil, nil
	}
	name, subpath := parseBareSpecifier(args.Specifier)
	mountRoot, manifest, ok := s.MountIndex.lookup(name)
	if !ok {
		return nil, nil
	}
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
