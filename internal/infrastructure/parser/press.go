package parser

import (
	"context"

	"github.com/PuerkitoBio/goquery"

	"ObituaryScanner/internal/adapter"
	"ObituaryScanner/internal/domain"
)

// PressAdapter handles the newspaper-aggregator family. It works from the
// listing alone and deliberately never fetches notice pages: newspaper
// prose is third-party copyright, so only the short listing excerpt is
// retained.
type PressAdapter struct {
	base
}

var _ adapter.Adapter = (*PressAdapter)(nil)

// NewPressAdapter wires the shared fetcher.
func NewPressAdapter(fetcher *adapter.Fetcher) *PressAdapter {
	return &PressAdapter{base: base{fetcher: fetcher}}
}

// Family identifies the adapter inside the registry.
func (a *PressAdapter) Family() string {
	return "press"
}

// DiscoverListingURLs asks the archive for the recent window and pages
// through it.
func (a *PressAdapter) DiscoverListingURLs(source domain.Source, maxAgeDays int) []string {
	listing := source.BaseURL
	if maxAgeDays > 0 {
		listing = pageURL(listing, "days", maxAgeDays)
	}

	urls := make([]string, 0, source.PageBudget)
	for page := 1; page <= source.PageBudget; page++ {
		urls = append(urls, pageURL(listing, "page", page))
	}
	return urls
}

// FetchListing reads one listing page through the throttled fetcher.
func (a *PressAdapter) FetchListing(ctx context.Context, url string, source domain.Source) (*goquery.Document, error) {
	return a.fetcher.Document(ctx, url, source)
}

var pressCardSelectors = []string{
	"div.obit-listing div.result",
	"ul.notices li.notice",
	"div.classified-obits article",
}

// ExtractCards keeps the listing snippet only.
func (a *PressAdapter) ExtractCards(doc *goquery.Document, source domain.Source) []domain.Card {
	var cards []domain.Card

	selectEach(doc, pressCardSelectors, func(_ int, sel *goquery.Selection) {
		card := domain.Card{
			Name:        firstText(sel, "h3", "h4", ".notice-name", "a"),
			RawDate:     firstText(sel, ".notice-dates", "time", ".published"),
			RawLocation: firstText(sel, ".notice-city", ".region"),
			FuneralHome: firstText(sel, ".notice-home", ".arranged-by"),
			Description: firstText(sel, ".notice-excerpt", "p"),
			DetailURL:   absoluteURL(firstAttr(sel, "href", "a"), source.BaseURL),
		}
		if card.Name == "" {
			return
		}
		cards = append(cards, card)
	})

	return cards
}

// FetchDetail never fetches: listing data is all this family keeps.
func (a *PressAdapter) FetchDetail(ctx context.Context, card domain.Card, source domain.Source) (*adapter.Detail, error) {
	return nil, nil
}

// Normalize applies the shared fact-extraction core.
func (a *PressAdapter) Normalize(card domain.Card, source domain.Source) domain.Obituary {
	return a.normalize(card, source, "press")
}
