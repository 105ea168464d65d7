package adapter

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"ObituaryScanner/internal/domain"
)

const maxBodyBytes = 4 << 20

// Fetcher performs polite HTTP reads shared by all adapter families. Every
// request carries the configured user-agent and Accept-Language, and waits
// out the source's minimum inter-request interval first.
type Fetcher struct {
	client     *http.Client
	userAgent  string
	acceptLang string
	throttle   *Throttle
}

// NewFetcher wires an HTTP client; a nil client gets a sane timeout default.
func NewFetcher(client *http.Client, userAgent, acceptLang string) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if userAgent == "" {
		userAgent = "ObituaryScanner/1.0"
	}
	return &Fetcher{
		client:     client,
		userAgent:  userAgent,
		acceptLang: acceptLang,
		throttle:   NewThrottle(),
	}
}

// Document fetches a page and parses it into a goquery document. Non-2xx
// statuses are errors; the body read is capped.
func (f *Fetcher) Document(ctx context.Context, pageURL string, source domain.Source) (*goquery.Document, error) {
	body, _, err := f.Get(ctx, pageURL, source)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

// Get fetches a page body after honoring the source's politeness interval.
// It returns the body and its size so callers can log zero-card diagnostics.
func (f *Fetcher) Get(ctx context.Context, pageURL string, source domain.Source) (string, int, error) {
	if err := f.throttle.Wait(ctx, source.Slug, source.MinInterval); err != nil {
		return "", 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	if f.acceptLang != "" {
		req.Header.Set("Accept-Language", f.acceptLang)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("request %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", 0, fmt.Errorf("%s returned %s", pageURL, resp.Status)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", 0, fmt.Errorf("read %s: %w", pageURL, err)
	}

	return string(raw), len(raw), nil
}

// Head issues a header-only request, used by the portrait-size heuristic.
func (f *Fetcher) Head(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("head %s: %w", rawURL, err)
	}
	resp.Body.Close()
	return resp, nil
}

// Throttle serializes fetches per source and enforces the configured
// minimum interval between them. This is a politeness contract toward the
// third-party sites, not a performance knob.
type Throttle struct {
	mu   sync.Mutex
	last map[string]time.Time
}

// NewThrottle builds an empty throttle.
func NewThrottle() *Throttle {
	return &Throttle{last: map[string]time.Time{}}
}

// Wait sleeps until the source's interval since its previous fetch has
// elapsed, or the context is cancelled.
func (t *Throttle) Wait(ctx context.Context, slug string, interval time.Duration) error {
	if interval <= 0 {
		return nil
	}

	t.mu.Lock()
	now := time.Now()
	due := t.last[slug].Add(interval)
	wait := due.Sub(now)
	if wait < 0 {
		wait = 0
	}
	t.last[slug] = now.Add(wait)
	t.mu.Unlock()

	if wait == 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
