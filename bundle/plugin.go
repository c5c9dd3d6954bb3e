package bundle

import (
	"context"
	"fmt"
	"net/http"

	esbuild "github.com/evanw/esbuild/pkg/api"

	"github.com/esm-dev/esbundle/vfs"
)

// defaultHTTPFetcher is the stdlib-backed HTTPFetcher used when a session
// is not given a test double; production callers embedding this library in
// a browser/worker/wasm host normally inject their own Fetcher bound to the
// host's fetch() (spec.md §4.C "fetch adapter injected for testability").
type defaultHTTPFetcher struct{}

func (defaultHTTPFetcher) Fetch(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return http.DefaultClient.Do(req)
}

// asEsbuildPlugin wires the Resolver Chain into the engine's OnResolve/
// OnLoad plugin interface, the same shape the teacher's BuildTask.build
// (server/build.go) and bundleRemoteModule (server/js.go) register their
// own plugins with.
func (s *Session) asEsbuildPlugin() esbuild.Plugin {
	return esbuild.Plugin{
		Name: "esbundle-resolver-chain",
		Setup: func(build esbuild.PluginBuild) {
			build.OnResolve(esbuild.OnResolveOptions{Filter: ".*"}, func(args esbuild.OnResolveArgs) (esbuild.OnResolveResult, error) {
				result, err := s.chain.Resolve(ResolveArgs{
					Specifier:  args.Path,
					Importer:   args.Importer,
					ResolveDir: args.ResolveDir,
					Kind:       ResolveKind(fmt.Sprintf("%v", args.Kind)),
				})
				if err != nil {
					return esbuild.OnResolveResult{}, err
				}
				resolved := esbuild.OnResolveResult{
					Path:      result.Path,
					Namespace: result.Namespace,
					External:  result.External,
				}
				if result.SideEffects != nil && !*result.SideEffects {
					resolved.SideEffects = esbuild.SideEffectsFalse
				}
				return resolved, nil
			})

			build.OnLoad(esbuild.OnLoadOptions{Filter: ".*", Namespace: NamespaceVFS}, func(args esbuild.OnLoadArgs) (esbuild.OnLoadResult, error) {
				return s.loadFromVFS(args.Path)
			})
			build.OnLoad(esbuild.OnLoadOptions{Filter: ".*", Namespace: NamespaceHTTP}, func(args esbuild.OnLoadArgs) (esbuild.OnLoadResult, error) {
				return s.loadFromVFS(args.Path)
			})
		},
	}
}

func (s *Session) loadFromVFS(path string) (esbuild.OnLoadResult, error) {
	data, err := s.fs.Read(path)
	if err != nil {
		if err == vfs.ErrNotFound {
			return esbuild.OnLoadResult{}, &ErrModuleNotFound{Specifier: path}
		}
		return esbuild.OnLoadResult{}, &ErrBuildError{Cause: err}
	}
	loaderName := loaderForPath(path, s.config.Esbuild.Loader)
	if loaderName == "file" {
		// spec.md §3 LocalState.assets: "additional output artifacts
		// produced by resolver stages (e.g. raw binary files copied
		// through)" — recorded here rather than left to esbuild's own
		// file-loader output so BuildResult.Outputs reflects every raw
		// asset a resolver stage claimed, even ones esbuild itself never
		// reaches (e.g. a package.json asset field copied through without
		// being imported by any bundled module).
		s.state_.putAsset(path, data)
	}
	code := string(data)
	loader := esbuildLoader(loaderName)
	return esbuild.OnLoadResult{Contents: &code, Loader: loader}, nil
}
