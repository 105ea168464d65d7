package parser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ObituaryScanner/internal/adapter"
	"ObituaryScanner/internal/domain"
)

const pressListingHTML = `
<html><body>
<ul class="notices">
  <li class="notice">
    <h3>GAGNON, Marie</h3>
    <span class="notice-dates">Published January 12, 2026</span>
    <span class="notice-home">Co-operative Funeral Home</span>
    <p class="notice-excerpt">Marie passed away on January 11, 2026 at the age of 88, surrounded by family, in Timmins, Ontario.</p>
    <a href="/obits/gagnon-marie">Read more</a>
  </li>
</ul>
</body></html>`

func TestPressListingOnly(t *testing.T) {
	t.Parallel()

	var detailFetches int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/obits/") {
			detailFetches++
		}
		_, _ = w.Write([]byte(pressListingHTML))
	}))
	defer server.Close()

	a := NewPressAdapter(adapter.NewFetcher(server.Client(), "test-agent", "en-CA"))
	source := domain.Source{
		Slug:       "northern-press",
		Family:     "press",
		BaseURL:    server.URL + "/obituaries",
		PageBudget: 1,
	}

	doc, err := a.FetchListing(context.Background(), source.BaseURL, source)
	if err != nil {
		t.Fatalf("FetchListing error: %v", err)
	}

	cards := a.ExtractCards(doc, source)
	if len(cards) != 1 {
		t.Fatalf("expected 1 card, got %d", len(cards))
	}

	// This family never fetches detail pages.
	detail, err := a.FetchDetail(context.Background(), cards[0], source)
	if err != nil || detail != nil {
		t.Fatalf("expected nil detail, got %v, %v", detail, err)
	}
	if detailFetches != 0 {
		t.Fatalf("expected zero detail fetches, got %d", detailFetches)
	}

	rec := a.Normalize(cards[0], source)
	if rec.DateOfDeath.Format("2006-01-02") != "2026-01-11" {
		t.Fatalf("published date must not win over the death sentence, got %v", rec.DateOfDeath)
	}
	if rec.Age != 88 {
		t.Fatalf("expected gated age 88, got %d", rec.Age)
	}
	if rec.City != "Timmins" {
		t.Fatalf("unexpected city: %q", rec.City)
	}
}

func TestPressPublishedDateNeverBecomesDeathDate(t *testing.T) {
	t.Parallel()

	a := NewPressAdapter(nil)
	source := domain.Source{
		Slug:    "northern-press",
		Family:  "press",
		BaseURL: "https://press.example.org/obituaries",
	}

	// The description carries a death keyword but no date of its own; the
	// only date in sight is the listing's published stamp.
	card := domain.Card{
		Name:        "TREMBLAY, Luc",
		RawDate:     "Published February 20, 2026",
		Description: "Luc passed away peacefully at home, surrounded by his family.",
	}

	rec := a.Normalize(card, source)
	if !rec.DateOfDeath.IsZero() {
		t.Fatalf("published date promoted to death date: %v", rec.DateOfDeath)
	}
	if rec.Provenance != "" {
		t.Fatalf("provenance set without a death date: %q", rec.Provenance)
	}
}

func TestPressDiscoverIncludesWindow(t *testing.T) {
	t.Parallel()

	a := NewPressAdapter(nil)
	source := domain.Source{Slug: "northern-press", BaseURL: "https://press.example.org/obituaries", PageBudget: 2}

	urls := a.DiscoverListingURLs(source, 7)
	if len(urls) != 2 {
		t.Fatalf("expected 2 urls, got %d", len(urls))
	}
	for _, u := range urls {
		if !strings.Contains(u, "days=7") {
			t.Fatalf("expected days window in %q", u)
		}
	}
}
