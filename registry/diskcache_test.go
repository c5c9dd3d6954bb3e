package registry

import (
	"context"
	"path/filepath"
	"testing"
)

func TestDiskCachePutGetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifests.db")
	cache, err := OpenDiskCache(path)
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()

	m := &Manifest{Name: "left-pad", Version: "1.3.0", Main: "index.js"}
	if err := cache.Put("left-pad@1.3.0", m); err != nil {
		t.Fatal(err)
	}

	got, ok := cache.Get("left-pad@1.3.0")
	if !ok {
		t.Fatal("expected cached manifest to be found")
	}
	if got.Name != "left-pad" || got.Version != "1.3.0" {
		t.Errorf("expected round-tripped manifest, got %+v", got)
	}
}

func TestDiskCacheMissReturnsFalse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifests.db")
	cache, err := OpenDiskCache(path)
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()

	if _, ok := cache.Get("does-not-exist@1.0.0"); ok {
		t.Error("expected miss for unknown cache key")
	}
}

func TestClientUsesDiskCacheBeforeFetching(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifests.db")
	cache, err := OpenDiskCache(path)
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()

	preseeded := &Manifest{Name: "left-pad", Version: "1.3.0", Main: "index.js"}
	if err := cache.Put("left-pad@1.3.0", preseeded); err != nil {
		t.Fatal(err)
	}

	fetcher := &mockFetcher{responses: map[string]string{}}
	client := NewClient(fetcher)
	client.Disk = cache

	m, err := client.GetManifest(context.Background(), "left-pad", "1.3.0")
	if err != nil {
		t.Fatal(err)
	}
	if m.Name != "left-pad" {
		t.Errorf("expected manifest served from disk cache, got %+v", m)
	}
	if fetcher.calls != 0 {
		t.Errorf("expected no network fetch when disk cache has the manifest, got %d calls", fetcher.calls)
	}
}
