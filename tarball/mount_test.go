package tarball

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/esm-dev/esbundle/vfs"
)

func buildFixtureTarball(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	files := map[string]string{
		"package/index.js":      "module.exports = 1;",
		"package/package.json":  `{"name":"fixture","version":"1.0.0","main":"index.js"}`,
	}
	for name, body := range files {
		hdr := &tar.Header{Name: name, Mode: 0644, Size: int64(len(body)), Typeflag: tar.TypeReg}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	tw.Close()
	gz.Close()
	return buf.Bytes()
}

type countingFetcher struct {
	data  []byte
	calls int32
}

func (c *countingFetcher) Fetch(ctx context.Context, url string) (*http.Response, error) {
	atomic.AddInt32(&c.calls, 1)
	return &http.Response{StatusCode: 200, Body: readCloser{bytes.NewReader(c.data)}}, nil
}

type readCloser struct{ *bytes.Reader }

func (readCloser) Close() error { return nil }

func TestExtractStripsPackagePrefix(t *testing.T) {
	data := buildFixtureTarball(t)
	fsys := vfs.NewMemoryFS()
	n, err := Extract(bytes.NewReader(data), "/node_modules/fixture@1.0.0", fsys)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("extracted %d entries, want 2", n)
	}
	if !fsys.Exists("/node_modules/fixture@1.0.0/index.js") {
		t.Error("expected index.js mounted without package/ prefix")
	}
}

func TestMountSingleFlight(t *testing.T) {
	data := buildFixtureTarball(t)
	fetcher := &countingFetcher{data: data}
	fsys := vfs.NewMemoryFS()
	m := NewMounter(fsys, fetcher)

	const n = 16
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := m.Mount(context.Background(), "/node_modules/fixture@1.0.0", "https://example.invalid/fixture.tgz", "")
			errs[i] = err
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			t.Fatal(err)
		}
	}
	if fetcher.calls != 1 {
		t.Errorf("expected exactly one network fetch for %d concurrent mounts, got %d", n, fetcher.calls)
	}
	if m.Count() != 1 {
		t.Errorf("expected one completed mount, got %d", m.Count())
	}
	if !fsys.Exists("/node_modules/fixture@1.0.0/index.js") {
		t.Error("expected mounted file visible after Mount returns")
	}
}

func TestMountIdempotentAfterCompletion(t *testing.T) {
	data := buildFixtureTarball(t)
	fetcher := &countingFetcher{data: data}
	fsys := vfs.NewMemoryFS()
	m := NewMounter(fsys, fetcher)

	if _, err := m.Mount(context.Background(), "/node_modules/fixture@1.0.0", "u", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Mount(context.Background(), "/node_modules/fixture@1.0.0", "u", ""); err != nil {
		t.Fatal(err)
	}
	if fetcher.calls != 1 {
		t.Errorf("expected second Mount call to be a no-op, got %d fetches", fetcher.calls)
	}
}

func TestMountVerifiesSHA1(t *testing.T) {
	data := buildFixtureTarball(t)
	sum := sha1.Sum(data)
	expected := hex.EncodeToString(sum[:])

	fsys := vfs.NewMemoryFS()
	m := NewMounter(fsys, &countingFetcher{data: data})
	if _, err := m.Mount(context.Background(), "/node_modules/fixture@1.0.0", "u", expected); err != nil {
		t.Fatalf("expected matching sha1 to mount successfully, got %v", err)
	}
	if !fsys.Exists("/node_modules/fixture@1.0.0/index.js") {
		t.Error("expected mounted file present")
	}
}

func TestMountRejectsSHA1Mismatch(t *testing.T) {
	data := buildFixtureTarball(t)
	fsys := vfs.NewMemoryFS()
	m := NewMounter(fsys, &countingFetcher{data: data})
	_, err := m.Mount(context.Background(), "/node_modules/fixture@1.0.0", "u", "0000000000000000000000000000000000000000")
	if _, ok := err.(*ErrCorrupt); !ok {
		t.Fatalf("expected ErrCorrupt on sha1 mismatch, got %v", err)
	}
	if m.IsMounted("/node_modules/fixture@1.0.0") {
		t.Error("expected mount to not be marked complete after a checksum failure")
	}
}
