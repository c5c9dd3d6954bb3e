package tarball

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// ErrFetchFailed wraps a network-layer failure fetching the tarball itself
// (spec.md §7 TarballFetchFailed). Unlike ManifestUnavailable, this is never
// negatively cached (spec.md §7): a later rebuild may retry.
type ErrFetchFailed struct {
	URL   string
	Cause error
}

func (e *ErrFetchFailed) Error() string {
	return fmt.Sprintf("tarball: fetch failed for %s: %v", e.URL, e.Cause)
}
func (e *ErrFetchFailed) Unwrap() error { return e.Cause }

// Fetcher is the injected HTTP adapter for tarball downloads, the same
// seam spec.md §4.C requires of the CDN model.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*http.Response, error)
}

// HTTPFetcher is the default Fetcher.
type HTTPFetcher struct{ Client *http.Client }

func NewHTTPFetcher() *HTTPFetcher { return &HTTPFetcher{Client: http.DefaultClient} }

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/octet-stream, application/tar+gzip")
	return f.Client.Do(req)
}

// Open issues the GET for url and returns the live response body for the
// caller to stream straight into the gzip/tar decoder (spec.md §9 Design
// Notes: "Untar-over-gzip must be streamed (no whole-response buffering) to
// keep peak memory bounded"). The caller owns closing the returned body.
// Grounded on other_examples/a-h-depot npm/download/download.go's
// streaming-download shape, adapted to hand the live stream straight to
// Extract instead of writing it to a temp file first.
func Open(ctx context.Context, fetcher Fetcher, url string) (io.ReadCloser, error) {
	resp, err := fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, &ErrFetchFailed{URL: url, Cause: err}
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &ErrFetchFailed{URL: url, Cause: fmt.Errorf("status %d", resp.StatusCode)}
	}
	return resp.Body, nil
}
