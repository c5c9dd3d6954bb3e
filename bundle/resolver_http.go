package bundle

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/esm-dev/esbundle/vfs"
)

// NamespaceHTTP is the loader namespace HTTP-sourced modules are claimed
// under (spec.md §4.F.5), mirroring the teacher's "http" namespace in
// server/js.go's bundleRemoteModule plugin.
const NamespaceHTTP = "http"

// HTTPFetcher is the injected fetch adapter for remote-URL imports.
type HTTPFetcher interface {
	Fetch(ctx context.Context, url string) (*http.Response, error)
}

// HTTPStage implements spec.md §4.F.5: absolute http(s) specifiers, or any
// specifier whose importer is already in the http namespace, are resolved
// against the importer's URL and fetched into the VFS, with negative
// caching of failed extension probes via LocalState.failedExtensionChecks.
type HTTPStage struct {
	FS      vfs.FileSystem
	State   *LocalState
	Fetcher HTTPFetcher
}

func (s *HTTPStage) Name() string { return "http" }

func (s *HTTPStage) Resolve(args *ResolveArgs) (*ResolveResult, error) {
	resolved := args.Specifier
	if isRelativeOrAbsoluteSpecifier(args.Specifier) && isHTTPSpecifier(args.Importer) {
		importerURL, err := url.Parse(args.Importer)
		if err == nil {
			resolved = importerURL.ResolveReference(&url.URL{Path: args.Specifier}).String()
		}
	}
	if !isHTTPSpecifier(resolved) {
		return nil, nil
	}

	if s.State.probeExtensionFailed(resolved) {
		return nil, &ErrModuleNotFound{Specifier: args.Specifier, Importer: args.Importer}
	}

	vfsPath := vfsPathForURL(resolved)
	if s.FS.Exists(vfsPath) {
		return &ResolveResult{Path: vfsPath, Namespace: NamespaceHTTP}, nil
	}

	resp, err := s.Fetcher.Fetch(context.Background(), resolved)
	if err != nil {
		s.State.markExtensionFailed(resolved)
		return nil, &ErrBuildError{Cause: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		s.State.markExtensionFailed(resolved)
		return nil, &ErrModuleNotFound{Specifier: args.Specifier, Importer: args.Importer}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ErrBuildError{Cause: err}
	}
	if err := s.FS.Write(vfsPath, body); err != nil {
		return nil, &ErrBuildError{Cause: err}
	}
	return &ResolveResult{Path: vfsPath, Namespace: NamespaceHTTP}, nil
}

func isHTTPSpecifier(spec string) bool {
	return strings.HasPrefix(spec, "http://") || strings.HasPrefix(spec, "https://")
}

// vfsPathForURL derives a stable VFS path from a remote URL (host + path),
// the way the resolved HTTP module's bytes are stored for reuse across
// resolve calls within the same session.
func vfsPathForURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "/_http/" + strings.ReplaceAll(rawURL, "/", "_")
	}
	return "/_http/" + u.Host + u.Path
}
