package jwks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// maxDocumentSize bounds the JWKS response body. Real key sets are a few KB.
const maxDocumentSize = 1 << 20

// Fetcher retrieves the provider's signing keys from a JWKS endpoint.
// Implementations perform a single attempt and never touch the cache.
type Fetcher interface {
	Fetch(ctx context.Context, endpoint string) ([]SigningKey, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, endpoint string) ([]SigningKey, error)

// Fetch calls f(ctx, endpoint).
func (f FetcherFunc) Fetch(ctx context.Context, endpoint string) ([]SigningKey, error) {
	return f(ctx, endpoint)
}

// FetchError reports a failed key set fetch: transport error, timeout,
// non-200 status or a document without usable keys.
type FetchError struct {
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("jwks: fetch %s: unexpected status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("jwks: fetch %s: %v", e.Endpoint, e.Err)
}

// Unwrap returns the underlying error.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the fetch failed because it ran out of time.
func (e *FetchError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// HTTPFetcher fetches JWKS documents over HTTP(S).
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher builds an HTTPFetcher. Without WithHTTPClient a client with
// a 30s timeout is used.
func NewHTTPFetcher(opts ...FetcherOption) (*HTTPFetcher, error) {
	f := &HTTPFetcher{
		client: &http.Client{Timeout: 30 * time.Second},
	}

	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	return f, nil
}

// Fetch performs one GET against endpoint and parses the key set.
func (f *HTTPFetcher) Fetch(ctx context.Context, endpoint string) ([]SigningKey, error) {
	doc, err := f.FetchDocument(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	keys, err := ParseKeySet(doc)
	if err != nil {
		return nil, &FetchError{Endpoint: endpoint, Err: err}
	}

	return keys, nil
}

// FetchDocument performs one GET against endpoint and returns the raw body.
func (f *HTTPFetcher) FetchDocument(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &FetchError{Endpoint: endpoint, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDocumentSize))
		return nil, &FetchError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("request returned status %d, expected 200", resp.StatusCode),
		}
	}

	doc, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, &FetchError{Endpoint: endpoint, Err: fmt.Errorf("failed to read body: %w", err)}
	}

	return doc, nil
}

type forcedRefreshKey struct{}

// withForcedRefresh marks ctx as belonging to a refresh triggered by an
// unknown kid, so shared caches in front of the provider are bypassed.
func withForcedRefresh(ctx context.Context) context.Context {
	return context.WithValue(ctx, forcedRefreshKey{}, true)
}

// IsForcedRefresh reports whether the fetch was triggered by an unknown kid.
// Fetchers that keep their own copy of the document must go to the provider
// when it returns true.
func IsForcedRefresh(ctx context.Context) bool {
	forced, _ := ctx.Value(forcedRefreshKey{}).(bool)
	return forced
}
