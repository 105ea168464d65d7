package parser

import (
	"context"

	"github.com/PuerkitoBio/goquery"

	"ObituaryScanner/internal/adapter"
	"ObituaryScanner/internal/domain"
)

// GenericAdapter is the fallback family for one-off sites nothing else
// recognizes. It tries a wide cascade of common obituary markup and works
// from the listing alone.
type GenericAdapter struct {
	base
}

var _ adapter.Adapter = (*GenericAdapter)(nil)

// NewGenericAdapter wires the shared fetcher.
func NewGenericAdapter(fetcher *adapter.Fetcher) *GenericAdapter {
	return &GenericAdapter{base: base{fetcher: fetcher}}
}

// Family identifies the adapter inside the registry.
func (a *GenericAdapter) Family() string {
	return "generic"
}

// DiscoverListingURLs visits the base URL only: unknown sites get no
// pagination guesses.
func (a *GenericAdapter) DiscoverListingURLs(source domain.Source, maxAgeDays int) []string {
	return []string{source.BaseURL}
}

// FetchListing reads one listing page through the throttled fetcher.
func (a *GenericAdapter) FetchListing(ctx context.Context, url string, source domain.Source) (*goquery.Document, error) {
	return a.fetcher.Document(ctx, url, source)
}

// genericCardSelectors is ordered from most to least specific; the tail
// entries are coarse enough to catch hand-rolled sites.
var genericCardSelectors = []string{
	"div.obituary",
	"article.obituary",
	"div.obit",
	"li.obituary-item",
	"div[class*=obit]",
	"article",
}

// ExtractCards applies the wide cascade.
func (a *GenericAdapter) ExtractCards(doc *goquery.Document, source domain.Source) []domain.Card {
	var cards []domain.Card

	selectEach(doc, genericCardSelectors, func(_ int, sel *goquery.Selection) {
		card := domain.Card{
			Name:        firstText(sel, "h1", "h2", "h3", "a"),
			RawDate:     firstText(sel, "time", ".date", ".dates"),
			RawLocation: firstText(sel, ".location", ".city"),
			Description: firstText(sel, "p"),
			DetailURL:   absoluteURL(firstAttr(sel, "href", "a"), source.BaseURL),
		}
		if card.Name == "" {
			return
		}
		cards = append(cards, card)
	})

	return cards
}

// FetchDetail is skipped for unknown sites.
func (a *GenericAdapter) FetchDetail(ctx context.Context, card domain.Card, source domain.Source) (*adapter.Detail, error) {
	return nil, nil
}

// Normalize applies the shared fact-extraction core.
func (a *GenericAdapter) Normalize(card domain.Card, source domain.Source) domain.Obituary {
	return a.normalize(card, source, "generic")
}
