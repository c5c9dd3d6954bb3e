package bundle

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/esm-dev/esbundle/vfs"
)

func TestBuildSimpleReexport(t *testing.T) {
	resetBootstrapForTest()
	fsys := vfs.NewMemoryFS()
	fsys.Write("/a.tsx", []byte(`export * from "/b.tsx"`))
	fsys.Write("/b.tsx", []byte(`export const x = 1`))

	cfg := DefaultConfig()
	cfg.EntryPoints = []string{"/a.tsx"}
	cfg.Esbuild.Platform = "browser"
	cfg.Esbuild.Format = "esm"
	cfg.Esbuild.Minify = false

	result, err := Build(context.Background(), cfg, fsys)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Contents) != 1 {
		t.Fatalf("expected exactly one output, got %d", len(result.Contents))
	}
	var code string
	for _, c := range result.Contents {
		code = string(c)
	}
	if !strings.Contains(code, "const x = 1") {
		t.Errorf("expected output to contain %q, got %q", "const x = 1", code)
	}
}

func TestBuildDeterministic(t *testing.T) {
	resetBootstrapForTest()
	fsys := vfs.NewMemoryFS()
	fsys.Write("/index.tsx", []byte(`export const y = 2`))

	cfg := DefaultConfig()
	cfg.EntryPoints = []string{"/index.tsx"}
	cfg.Esbuild.Minify = false

	r1, err := Build(context.Background(), cfg, fsys)
	if err != nil {
		t.Fatal(err)
	}
	r2, err := Build(context.Background(), cfg, fsys)
	if err != nil {
		t.Fatal(err)
	}
	if len(r1.Contents) != len(r2.Contents) {
		t.Fatalf("output count differs between builds")
	}
	for path, c1 := range r1.Contents {
		c2, ok := r2.Contents[path]
		if !ok || string(c1) != string(c2) {
			t.Errorf("output for %q differs between independent builds", path)
		}
	}
}

func TestNonMinifiedBuildGetsBanner(t *testing.T) {
	resetBootstrapForTest()
	fsys := vfs.NewMemoryFS()
	fsys.Write("/index.tsx", []byte(`export const banner = 1`))

	cfg := DefaultConfig()
	cfg.EntryPoints = []string{"/index.tsx"}
	cfg.Esbuild.Minify = false

	result, err := Build(context.Background(), cfg, fsys)
	if err != nil {
		t.Fatal(err)
	}
	var code string
	for _, c := range result.Contents {
		code = string(c)
	}
	if !strings.HasPrefix(code, "/* esbundle - bundle(/index.tsx)") {
		t.Errorf("expected non-minified output to start with an identifying banner, got %q", code)
	}
}

func TestMinifiedBuildHasNoBanner(t *testing.T) {
	resetBootstrapForTest()
	fsys := vfs.NewMemoryFS()
	fsys.Write("/index.tsx", []byte(`export const banner = 1`))

	cfg := DefaultConfig()
	cfg.EntryPoints = []string{"/index.tsx"}
	cfg.Esbuild.Minify = true

	result, err := Build(context.Background(), cfg, fsys)
	if err != nil {
		t.Fatal(err)
	}
	var code string
	for _, c := range result.Contents {
		code = string(c)
	}
	if strings.Contains(code, "esbundle - bundle(") {
		t.Errorf("expected minified output to omit the banner, got %q", code)
	}
}

func TestRebuildPreservesMemoizationCaches(t *testing.T) {
	resetBootstrapForTest()
	fsys := vfs.NewMemoryFS()
	fsys.Write("/index.tsx", []byte(`export const z = 3`))

	cfg := DefaultConfig()
	cfg.EntryPoints = []string{"/index.tsx"}

	session, err := CreateContext(context.Background(), cfg, fsys, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer session.Dispose(context.Background())

	if _, err := session.Rebuild(context.Background()); err != nil {
		t.Fatal(err)
	}
	versionsBefore, manifestsBefore, _ := session.state_.Registry.Sizes()
	mountsBefore := session.state_.Mounter.Count()

	if _, err := session.Rebuild(context.Background()); err != nil {
		t.Fatal(err)
	}
	versionsAfter, manifestsAfter, failedAfter := session.state_.Registry.Sizes()
	mountsAfter := session.state_.Mounter.Count()

	if versionsAfter < versionsBefore || manifestsAfter < manifestsBefore || mountsAfter < mountsBefore {
		t.Error("expected memoization caches to be preserved (>=) across rebuild")
	}
	if failedAfter != 0 {
		t.Errorf("expected failedManifestUrls cleared after rebuild, got %d", failedAfter)
	}
}

func TestCancelThenRebuildSucceeds(t *testing.T) {
	resetBootstrapForTest()
	fsys := vfs.NewMemoryFS()
	fsys.Write("/index.tsx", []byte(`export const w = 4`))

	cfg := DefaultConfig()
	cfg.EntryPoints = []string{"/index.tsx"}

	session, err := CreateContext(context.Background(), cfg, fsys, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer session.Dispose(context.Background())

	if err := session.Cancel(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := session.Rebuild(context.Background()); err != nil {
		t.Fatalf("expected rebuild after cancel to succeed, got %v", err)
	}
}

func TestCreateContextWithDiskCachePath(t *testing.T) {
	resetBootstrapForTest()
	fsys := vfs.NewMemoryFS()
	fsys.Write("/index.tsx", []byte(`export const q = 6`))
	cfg := DefaultConfig()
	cfg.EntryPoints = []string{"/index.tsx"}
	cfg.DiskCachePath = filepath.Join(t.TempDir(), "manifests.db")

	session, err := CreateContext(context.Background(), cfg, fsys, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer session.Dispose(context.Background())
	if session.state_.Registry.Disk == nil {
		t.Error("expected the disk cache to be wired into the session's registry client")
	}
}

func TestDisposeThenRebuildFails(t *testing.T) {
	resetBootstrapForTest()
	fsys := vfs.NewMemoryFS()
	fsys.Write("/index.tsx", []byte(`export const v = 5`))
	cfg := DefaultConfig()
	cfg.EntryPoints = []string{"/index.tsx"}

	session, err := CreateContext(context.Background(), cfg, fsys, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := session.Dispose(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := session.Rebuild(context.Background()); err != ErrDisposed {
		t.Errorf("expected ErrDisposed, got %v", err)
	}
}
