package extract

import (
	"context"
	"net/http"
	"time"
)

// DefaultMinPortraitBytes separates portrait photographs from business
// logos; logos observed in the wild sit well under 15 KiB.
const DefaultMinPortraitBytes = 15360

// ImageChecker decides whether a scraped image URL is a plausible portrait
// using a header-only probe.
type ImageChecker struct {
	client   *http.Client
	minBytes int64
}

// NewImageChecker wires a client; zero minBytes selects the default threshold.
func NewImageChecker(client *http.Client, minBytes int64) *ImageChecker {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if minBytes <= 0 {
		minBytes = DefaultMinPortraitBytes
	}
	return &ImageChecker{client: client, minBytes: minBytes}
}

// IsPortrait probes Content-Length. Failed probes reject; a missing or
// unreported length accepts, since "cannot determine" is not evidence of a
// logo.
func (c *ImageChecker) IsPortrait(ctx context.Context, rawURL string) bool {
	if rawURL == "" {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return false
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}

	if resp.ContentLength <= 0 {
		return true
	}
	return resp.ContentLength >= c.minBytes
}
