package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	apperrors "go-skin-inspector/internal/errors"
)

// ImageSource opens the bytes behind an image reference
type ImageSource interface {
	Open(ctx context.Context, ref *url.URL) (io.ReadCloser, error)
}

const (
	defaultFetchAttempts = 3
	defaultFetchBackoff  = time.Second
	defaultFetchTimeout  = 30 * time.Second
)

// HTTPFetcherOptions tune the HTTP image fetcher
type HTTPFetcherOptions struct {
	Timeout time.Duration
	// Backoff is multiplied by the attempt number between retries.
	Backoff     time.Duration
	MaxAttempts int
}

// HTTPImageFetcher downloads images over http(s), retrying transient
// failures.
type HTTPImageFetcher struct {
	client      *http.Client
	backoff     time.Duration
	maxAttempts int
}

// NewHTTPImageFetcher creates an HTTP image fetcher
func NewHTTPImageFetcher(opts HTTPFetcherOptions) *HTTPImageFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultFetchTimeout
	}
	if opts.Backoff <= 0 {
		opts.Backoff = defaultFetchBackoff
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultFetchAttempts
	}

	transport := &http.Transport{
		// Connection pooling sized for single image downloads
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,

		TLSHandshakeTimeout:    10 * time.Second,
		ResponseHeaderTimeout:  10 * time.Second,
		ExpectContinueTimeout:  1 * time.Second,
		MaxResponseHeaderBytes: 4096,
	}

	return &HTTPImageFetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
		backoff:     opts.Backoff,
		maxAttempts: opts.MaxAttempts,
	}
}

// Open fetches the reference and returns the response body on success.
// Network errors and 5xx responses are retried; 4xx responses are not.
func (h *HTTPImageFetcher) Open(ctx context.Context, ref *url.URL) (io.ReadCloser, error) {
	var lastErr error
	notFound := false

	for attempt := 0; attempt < h.maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, apperrors.NewTimeoutError("image download cancelled", ctx.Err())
			case <-time.After(time.Duration(attempt) * h.backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref.String(), nil)
		if err != nil {
			return nil, apperrors.NewValidationError("invalid image URL", err)
		}
		req.Header.Set("Accept", "image/jpeg, image/png, image/webp, image/gif, */*")
		req.Header.Set("User-Agent", "Go-Skin-Inspector/1.0")

		resp, err := h.client.Do(req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return nil, apperrors.NewTimeoutError("image download cancelled", ctx.Err())
			}
			continue
		}
		if resp.StatusCode == http.StatusOK {
			return resp.Body, nil
		}

		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()

		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			lastErr = fmt.Errorf("client error: status code %d", resp.StatusCode)
			notFound = resp.StatusCode == http.StatusNotFound
			break
		}
		lastErr = fmt.Errorf("server error: status code %d", resp.StatusCode)
	}

	if notFound {
		return nil, apperrors.NewNotFoundError("image not found", lastErr)
	}
	return nil, apperrors.NewExternalServiceError(
		fmt.Sprintf("failed to fetch image after %d attempts", h.maxAttempts), lastErr)
}
