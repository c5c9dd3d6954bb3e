package tarball

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/esm-dev/esbundle/vfs"
)

// Mounter is the Tarball Mount Service: at-most-one concurrent download per
// mountRoot (spec.md §4.E, §5, §8.3), using golang.org/x/sync/singleflight
// as the Go-native stand-in for the spec's "map<key, future<result>>"
// idiom (see SPEC_FULL.md §5). Once a mountRoot has completed, it is
// recorded in `mounted` (the spec's tarballMounts) and never re-fetched —
// this cache survives rebuild (spec.md §4.G).
type Mounter struct {
	FS      vfs.FileSystem
	Fetcher Fetcher

	group singleflight.Group
	mu    sync.Mutex
	mounted map[string]bool
}

// NewMounter constructs a Mounter writing into fsys via fetcher. A nil
// fetcher uses the default HTTP fetcher.
func NewMounter(fsys vfs.FileSystem, fetcher Fetcher) *Mounter {
	if fetcher == nil {
		fetcher = NewHTTPFetcher()
	}
	return &Mounter{FS: fsys, Fetcher: fetcher, mounted: make(map[string]bool)}
}

// IsMounted reports whether mountRoot has already been fully mounted.
func (m *Mounter) IsMounted(mountRoot string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mounted[mountRoot]
}

// Count returns the number of completed mounts (tarballMounts.size).
func (m *Mounter) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.mounted)
}

// Mount ensures mountRoot is mounted from tarballURL, downloading and
// extracting at most once even under concurrent callers for the same
// mountRoot (spec.md §8.3). On failure the mountRoot is never marked
// mounted, so a subsequent call retries (spec.md §4.E step 5: not
// negatively cached at this layer). Partial mounts are never exposed:
// Extract only returns success after every entry has been written, and a
// failed Extract leaves whatever partial writes occurred only under
// mountRoot, which callers must treat as not-mounted since mounted stays
// false.
func (m *Mounter) Mount(ctx context.Context, mountRoot, tarballURL, expectedSHA1 string) (int, error) {
	if m.IsMounted(mountRoot) {
		return 0, nil
	}
	v, err, _ := m.group.Do(mountRoot, func() (any, error) {
		body, err := Open(ctx, m.Fetcher, tarballURL)
		if err != nil {
			return nil, err
		}
		defer body.Close()

		// Hash the bytes as they stream through Extract rather than
		// buffering the whole tarball first (spec.md §9: "Untar-over-gzip
		// must be streamed ... to keep peak memory bounded"). gzip/tar may
		// not pull every trailing byte of body through the tee (e.g. the
		// gzip footer past tar's own end-of-archive markers), so any
		// remainder is drained into the hash after Extract returns,
		// verify-after-extract per spec.md §4.E step 5/§7.
		h := sha1.New()
		var r io.Reader = body
		if expectedSHA1 != "" {
			r = io.TeeReader(body, h)
		}
		count, err := Extract(r, mountRoot, m.FS)
		if err != nil {
			return nil, err
		}
		if expectedSHA1 != "" {
			if _, err := io.Copy(h, body); err != nil {
				return nil, &ErrFetchFailed{URL: tarballURL, Cause: err}
			}
			if got := hex.EncodeToString(h.Sum(nil)); got != expectedSHA1 {
				return nil, &ErrCorrupt{Cause: fmt.Errorf("sha1 mismatch: got %s, want %s", got, expectedSHA1)}
			}
		}
		m.mu.Lock()
		m.mounted[mountRoot] = true
		m.mu.Unlock()
		return count, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}
