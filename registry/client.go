package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Fetcher is the injected HTTP adapter, grounded on the teacher's
// package-level httpClient in server/query.go (custom dial timeout +
// response-header timeout) but expressed as an interface so tests can swap
// in an httptest.Server-backed or purely in-memory implementation — the
// "fetch adapter injected for testability" spec.md §4.C calls for.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*http.Response, error)
}

// HTTPFetcher is the default Fetcher, using a client tuned the way the
// teacher's query.go dial function is: a bounded connect timeout and a
// bounded response-header wait, so a dead registry mirror fails fast rather
// than hanging a build.
type HTTPFetcher struct {
	Client *http.Client
}

// NewHTTPFetcher returns a Fetcher with the teacher's timeout shape.
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{
		Client: &http.Client{
			Transport: &http.Transport{
				ResponseHeaderTimeout: 60 * time.Second,
			},
			Timeout: 60 * time.Second,
		},
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return f.Client.Do(req)
}

// Client is the Package Metadata Cache (§4.D): resolveVersion, getManifest,
// and resolveEntry, each memoized per session — versions and
// packageManifests survive a rebuild (spec.md §4.G), so they live as long
// as the Client does, one per Build Session. Both are LRU caches of 1024
// entries: past that size the least recently used entry is evicted and is
// fetched again on its next use.
type Client struct {
	Origin  string // registry base, e.g. "https://registry.npmjs.org"
	Fetcher Fetcher

	versions         *lru.Cache[string, string]   // "name@range" -> exact version
	packageManifests *lru.Cache[string, *Manifest] // "name@version" -> manifest

	// Disk, if set, backs packageManifests with a persistent cross-process
	// store (see DiskCache) so a long-running host (the CLI's `serve`
	// command) doesn't re-fetch a manifest it already saw in a prior
	// session.
	Disk *DiskCache

	mu                sync.Mutex
	failedManifestURLs map[string]error
}

// NewClient constructs a Client with the default npm registry origin and
// HTTP fetcher, and caches sized generously for a single build session's
// lifetime (a session rarely touches more than a few hundred distinct
// package/version pairs).
func NewClient(fetcher Fetcher) *Client {
	if fetcher == nil {
		fetcher = NewHTTPFetcher()
	}
	versions, _ := lru.New[string, string](1024)
	manifests, _ := lru.New[string, *Manifest](1024)
	return &Client{
		Origin:             "https://registry.npmjs.org",
		Fetcher:            fetcher,
		versions:           versions,
		packageManifests:   manifests,
		failedManifestURLs: make(map[string]error),
	}
}

func (c *Client) docURL(name string) string {
	return c.Origin + "/" + name
}

func (c *Client) probeFailed(url string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failedManifestURLs[url]
}

func (c *Client) markFailed(url string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failedManifestURLs[url] = err
}

// ResetPerBuildCaches clears only the caches spec.md §4.G marks as per-build
// (none, for the metadata cache itself — versions/packageManifests are
// explicitly preserved across rebuilds). failedManifestURLs IS a per-build
// cache (§4.G lists it alongside assets/failedExtensionChecks) and is
// cleared here.
func (c *Client) ResetPerBuildCaches() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failedManifestURLs = make(map[string]error)
}

// Sizes reports the current size of each memoized cache, for the
// memoization testable property (spec.md §8.4).
func (c *Client) Sizes() (versions, manifests, failedURLs int) {
	c.mu.Lock()
	failedURLs = len(c.failedManifestURLs)
	c.mu.Unlock()
	return c.versions.Len(), c.packageManifests.Len(), failedURLs
}

func (c *Client) fetchDoc(ctx context.Context, name string) (*VersionsDocument, error) {
	url := c.docURL(name)
	if err := c.probeFailed(url); err != nil {
		return nil, err
	}
	resp, err := c.Fetcher.Fetch(ctx, url)
	if err != nil {
		wrapped := &ErrManifestUnavailable{URL: url, Cause: err}
		c.markFailed(url, wrapped)
		return nil, wrapped
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode >= 500 {
		wrapped := &ErrManifestUnavailable{URL: url, Cause: fmt.Errorf("status %d", resp.StatusCode)}
		c.markFailed(url, wrapped)
		return nil, wrapped
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ErrManifestUnavailable{URL: url, Cause: err}
	}
	var doc VersionsDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, &ErrManifestMalformed{URL: url, Cause: err}
	}
	return &doc, nil
}

// ResolveVersion implements §4.D resolveVersion.
func (c *Client) ResolveVersion(ctx context.Context, name, rangeOrTag string) (string, error) {
	cacheKey := name + "@" + rangeOrTag
	if v, ok := c.versions.Get(cacheKey); ok {
		return v, nil
	}
	if v, err := semverExact(rangeOrTag); err == nil {
		c.versions.Add(cacheKey, v)
		return v, nil
	}
	doc, err := c.fetchDoc(ctx, name)
	if err != nil {
		return "", err
	}
	v, err := resolveVersionFromDoc(doc, rangeOrTag)
	if err != nil {
		return "", err
	}
	c.versions.Add(cacheKey, v)
	// Keep the resolved version's manifest from the document already in
	// hand, so a following GetManifest for it needs no second fetch.
	if m, ok := doc.Versions[v]; ok {
		c.packageManifests.Add(name+"@"+v, &m)
		if c.Disk != nil {
			_ = c.Disk.Put(name+"@"+v, &m)
		}
	}
	return v, nil
}

// GetManifest implements §4.D getManifest: fetches (or reuses, from
// fetchDoc's per-name document, or from Disk if configured) the per-version
// manifest.
func (c *Client) GetManifest(ctx context.Context, name, exactVersion string) (*Manifest, error) {
	cacheKey := name + "@" + exactVersion
	if m, ok := c.packageManifests.Get(cacheKey); ok {
		return m, nil
	}
	if c.Disk != nil {
		if m, ok := c.Disk.Get(cacheKey); ok {
			c.packageManifests.Add(cacheKey, m)
			return m, nil
		}
	}
	doc, err := c.fetchDoc(ctx, name)
	if err != nil {
		return nil, err
	}
	m, ok := doc.Versions[exactVersion]
	if !ok {
		return nil, &ErrManifestMalformed{URL: c.docURL(name), Cause: fmt.Errorf("version %s missing from registry document", exactVersion)}
	}
	c.packageManifests.Add(cacheKey, &m)
	if c.Disk != nil {
		_ = c.Disk.Put(cacheKey, &m)
	}
	return &m, nil
}
