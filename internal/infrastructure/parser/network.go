package parser

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"ObituaryScanner/internal/adapter"
	"ObituaryScanner/internal/domain"
)

// NetworkAdapter handles the aggregator-network family: regional obituary
// portals with paginated card listings and per-notice detail pages.
type NetworkAdapter struct {
	base
}

var _ adapter.Adapter = (*NetworkAdapter)(nil)

// NewNetworkAdapter wires the shared fetcher.
func NewNetworkAdapter(fetcher *adapter.Fetcher) *NetworkAdapter {
	return &NetworkAdapter{base: base{fetcher: fetcher}}
}

// Family identifies the adapter inside the registry.
func (a *NetworkAdapter) Family() string {
	return "network"
}

// DiscoverListingURLs pages through the browse endpoint up to the source's
// page budget. A tight age window needs fewer pages: the portal lists
// newest first.
func (a *NetworkAdapter) DiscoverListingURLs(source domain.Source, maxAgeDays int) []string {
	pages := source.PageBudget
	if maxAgeDays > 0 && maxAgeDays < 7 && pages > 2 {
		pages = 2
	}

	urls := make([]string, 0, pages)
	for page := 1; page <= pages; page++ {
		urls = append(urls, pageURL(source.BaseURL, "page", page))
	}
	return urls
}

// FetchListing reads one listing page through the throttled fetcher.
func (a *NetworkAdapter) FetchListing(ctx context.Context, url string, source domain.Source) (*goquery.Document, error) {
	return a.fetcher.Document(ctx, url, source)
}

var networkCardSelectors = []string{
	"div.obit-card",
	"article.obituary",
	"div.listing-item",
}

// ExtractCards walks the card cascade and keeps entries within the age
// window.
func (a *NetworkAdapter) ExtractCards(doc *goquery.Document, source domain.Source) []domain.Card {
	var cards []domain.Card

	selectEach(doc, networkCardSelectors, func(_ int, sel *goquery.Selection) {
		card := domain.Card{
			Name:        firstText(sel, "h2 a", "h3 a", "h2", ".obit-name"),
			RawDate:     firstText(sel, ".obit-dates", ".dates", "time"),
			RawLocation: firstText(sel, ".obit-location", ".location"),
			FuneralHome: firstText(sel, ".funeral-home", ".provided-by"),
			Description: firstText(sel, ".obit-snippet", "p"),
			DetailURL:   absoluteURL(firstAttr(sel, "href", "h2 a", "h3 a", "a"), source.BaseURL),
			ImageURL:    absoluteURL(firstAttr(sel, "src", "img"), source.BaseURL),
		}
		if card.Name == "" {
			return
		}
		cards = append(cards, card)
	})

	return cards
}

var networkDetailSelectors = []string{
	"div.obit-text",
	"div.obituary-content",
	"article.obituary-full",
}

// FetchDetail pulls the notice's own page for a fuller excerpt, a better
// funeral-home name and the full-size image.
func (a *NetworkAdapter) FetchDetail(ctx context.Context, card domain.Card, source domain.Source) (*adapter.Detail, error) {
	if card.DetailURL == "" {
		return nil, nil
	}

	doc, err := a.fetcher.Document(ctx, card.DetailURL, source)
	if err != nil {
		return nil, err
	}

	detail := &adapter.Detail{}
	for _, sel := range networkDetailSelectors {
		if node := doc.Find(sel).First(); node.Length() > 0 {
			detail.Description = strings.TrimSpace(node.Text())
			break
		}
	}
	detail.FuneralHome = firstText(doc.Selection, ".funeral-home", ".provided-by", ".arrangements a")
	detail.ImageURL = absoluteURL(firstAttr(doc.Selection, "src", ".obit-photo img", "figure img"), card.DetailURL)

	if detail.Description == "" && detail.FuneralHome == "" && detail.ImageURL == "" {
		return nil, nil
	}
	return detail, nil
}

// Normalize applies the shared fact-extraction core.
func (a *NetworkAdapter) Normalize(card domain.Card, source domain.Source) domain.Obituary {
	return a.normalize(card, source, "network")
}
