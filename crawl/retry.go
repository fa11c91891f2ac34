package crawl

import (
	"context"
	"time"

	"github.com/fwojciec/rufus"
)

// FetchFunc is the signature for a fetch function.
type FetchFunc func(ctx context.Context, url string) (*rufus.FetchResult, error)

// LogFunc is the signature for a logging function.
type LogFunc func(format string, args ...any)

// DefaultRetryDelays returns the backoff delays for fetch retries: 1s, 2s, 4s.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
}

// FetchWithRetryDelays fetches url, retrying failures after each of delays
// in turn. A nil or empty delays slice means a single attempt. The logger,
// if provided, is called for each retry attempt.
// Encoding errors are returned immediately since the same bytes come back.
func FetchWithRetryDelays(ctx context.Context, url string, fetch FetchFunc, logger LogFunc, delays []time.Duration) (*rufus.FetchResult, error) {
	maxAttempts := len(delays) + 1 // 1 initial + N retries

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		result, err := fetch(ctx, url)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if rufus.ErrorCode(err) == rufus.EENCODING {
			break
		}

		// Don't retry after the last attempt
		if attempt >= maxAttempts-1 {
			break
		}

		// Check context before sleeping
		select {
		case <-ctx.Done():
			return nil, rufus.Errorf(rufus.ETRANSPORT, "fetching %s: %v", url, ctx.Err())
		default:
		}

		if logger != nil {
			logger("retry %s (attempt %d): %v", url, attempt+2, err)
		}

		select {
		case <-ctx.Done():
			return nil, rufus.Errorf(rufus.ETRANSPORT, "fetching %s: %v", url, ctx.Err())
		case <-time.After(delays[attempt]):
		}
	}

	return nil, lastErr
}
