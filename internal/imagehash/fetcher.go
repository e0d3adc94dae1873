package imagehash

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/walfie-raid/petronel/internal/model"
)

// ImageHasher fetches the image at a URL and computes its perceptual
// hash. It is a capability interface (§9 design notes): the worker
// never names a concrete implementation.
type ImageHasher interface {
	Hash(ctx context.Context, url string) (model.ImageHash, error)
}

// HTTPImageHasher is the production ImageHasher: it fetches the image
// body over HTTP, retrying transient failures, then hashes it per
// §4.3. A fetch that exhausts its retries, or whose body doesn't
// decode as an image, surfaces as an error and is recorded as Failure
// by the worker; it does not panic and does not itself retry further
// (the worker's next request for the same boss triggers a fresh fetch).
type HTTPImageHasher struct {
	client *retryablehttp.Client
}

// NewHTTPImageHasher builds an HTTPImageHasher with the given overall
// per-fetch timeout. Retries use the retryablehttp client's default
// exponential back-off, bounded to retryMax retries after the first
// attempt.
func NewHTTPImageHasher(timeout time.Duration, retryMax int) *HTTPImageHasher {
	client := retryablehttp.NewClient()
	client.RetryMax = retryMax
	client.Logger = nil // the worker logs outcomes itself; avoid double logging
	client.HTTPClient.Timeout = timeout

	return &HTTPImageHasher{client: client}
}

// Hash implements ImageHasher.
func (h *HTTPImageHasher) Hash(ctx context.Context, url string) (model.ImageHash, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("imagehash: building request: %w", err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("imagehash: fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("imagehash: fetching %s: status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("imagehash: reading body of %s: %w", url, err)
	}

	hash, err := Hash(body)
	if err != nil {
		return 0, fmt.Errorf("imagehash: decoding image from %s: %w", url, err)
	}
	return hash, nil
}
