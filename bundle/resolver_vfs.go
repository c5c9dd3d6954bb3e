package bundle

import (
	"strings"

	"github.com/esm-dev/esbundle/vfs"
)

// NamespaceVFS is the loader namespace every VFS-backed resolution claims
// (spec.md §4.F.3, §4.F.4).
const NamespaceVFS = "vfs"

// vfsProbeExtensions is the extension-probing order spec.md §4.F.3
// specifies, tried in this order after an exact match.
var vfsProbeExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs", ".json"}

// VFSStage implements spec.md §4.F.3: relative/absolute specifiers joined
// with resolveDir against the VFS, with extension probing and an
// index.<ext> fallback.
type VFSStage struct {
	FS vfs.FileSystem
}

func (s *VFSStage) Name() string { return "vfs" }

func (s *VFSStage) Resolve(args *ResolveArgs) (*ResolveResult, error) {
	if !isRelativeOrAbsoluteSpecifier(args.Specifier) {
		return nil, nil
	}
	joined, err := vfs.Join(args.ResolveDir, args.Specifier)
	if err != nil {
		return nil, nil // malformed path: let later stages try, then ModuleNotFound
	}

	if path, ok := s.probe(joined); ok {
		return &ResolveResult{Path: path, Namespace: NamespaceVFS}, nil
	}
	return nil, nil
}

// probe tries path exactly, then each probe extension, then
// path/index.<ext> — "exact match first, then in the listed order"
// (spec.md §4.F.3 tie-break rule).
func (s *VFSStage) probe(path string) (string, bool) {
	if s.FS.Exists(path) {
		return path, true
	}
	for _, ext := range vfsProbeExtensions {
		if s.FS.Exists(path + ext) {
			return path + ext, true
		}
	}
	for _, ext := range vfsProbeExtensions {
		indexPath := strings.TrimSuffix(path, "/") + "/index" + ext
		if s.FS.Exists(indexPath) {
			return indexPath, true
		}
	}
	return "", false
}

func isRelativeOrAbsoluteSpecifier(spec string) bool {
	return strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../") || strings.HasPrefix(spec, "/")
}

// loaderForPath picks the loader for a VFS-namespace path: the config's
// loader map takes priority, falling back to the extension defaults the
// engine itself understands (spec.md §4.F.3: "loader inferred from
// extension (loader table from config, defaults per extension)").
func loaderForPath(path string, loaderMap map[string]string) string {
	ext := vfs.Ext(path)
	if l, ok := loaderMap[ext]; ok {
		return l
	}
	switch ext {
	case ".ts":
		return "ts"
	case ".tsx":
		return "tsx"
	case ".jsx":
		return "jsx"
	case ".json":
		return "json"
	case ".css":
		return "css"
	default:
		return "js"
	}
}
