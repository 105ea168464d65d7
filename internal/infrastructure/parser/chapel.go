package parser

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"ObituaryScanner/internal/adapter"
	"ObituaryScanner/internal/domain"
)

// ChapelAdapter handles the funeral-home-platform family: individual
// chapel sites running the common hosting software, with a recent-notices
// listing and rich per-notice detail pages.
type ChapelAdapter struct {
	base
}

var _ adapter.Adapter = (*ChapelAdapter)(nil)

// NewChapelAdapter wires the shared fetcher.
func NewChapelAdapter(fetcher *adapter.Fetcher) *ChapelAdapter {
	return &ChapelAdapter{base: base{fetcher: fetcher}}
}

// Family identifies the adapter inside the registry.
func (a *ChapelAdapter) Family() string {
	return "chapel"
}

// DiscoverListingURLs visits the recent-notices pages. Chapel sites publish
// a handful of notices per week, so one page usually covers any age window.
func (a *ChapelAdapter) DiscoverListingURLs(source domain.Source, maxAgeDays int) []string {
	pages := source.PageBudget
	if maxAgeDays > 0 && maxAgeDays <= 14 {
		pages = 1
	}

	urls := make([]string, 0, pages)
	for page := 1; page <= pages; page++ {
		urls = append(urls, pageURL(source.BaseURL, "p", page))
	}
	return urls
}

// FetchListing reads one listing page through the throttled fetcher.
func (a *ChapelAdapter) FetchListing(ctx context.Context, url string, source domain.Source) (*goquery.Document, error) {
	return a.fetcher.Document(ctx, url, source)
}

var chapelCardSelectors = []string{
	"div.obituaries div.entry",
	"div.recent-obituaries li",
	"div.tribute-list article",
}

// ExtractCards walks the platform's listing markup.
func (a *ChapelAdapter) ExtractCards(doc *goquery.Document, source domain.Source) []domain.Card {
	var cards []domain.Card

	selectEach(doc, chapelCardSelectors, func(_ int, sel *goquery.Selection) {
		card := domain.Card{
			Name:        firstText(sel, "a.name", "h3 a", "h4 a", "a"),
			RawDate:     firstText(sel, ".entry-dates", ".dates", "span.date"),
			RawLocation: firstText(sel, ".entry-city", ".city"),
			Description: firstText(sel, ".entry-excerpt", "p"),
			DetailURL:   absoluteURL(firstAttr(sel, "href", "a.name", "h3 a", "h4 a", "a"), source.BaseURL),
			ImageURL:    absoluteURL(firstAttr(sel, "src", "img"), source.BaseURL),
		}
		if card.Name == "" {
			return
		}
		// The chapel itself is the funeral home.
		card.FuneralHome = chapelName(source)
		cards = append(cards, card)
	})

	return cards
}

var chapelDetailSelectors = []string{
	"div#obituary div.content",
	"div.tribute-content",
	"div.obituary-text",
}

// FetchDetail pulls the notice page for the full text and portrait.
func (a *ChapelAdapter) FetchDetail(ctx context.Context, card domain.Card, source domain.Source) (*adapter.Detail, error) {
	if card.DetailURL == "" {
		return nil, nil
	}

	doc, err := a.fetcher.Document(ctx, card.DetailURL, source)
	if err != nil {
		return nil, err
	}

	detail := &adapter.Detail{}
	for _, sel := range chapelDetailSelectors {
		if node := doc.Find(sel).First(); node.Length() > 0 {
			detail.Description = strings.TrimSpace(node.Text())
			break
		}
	}
	detail.ImageURL = absoluteURL(firstAttr(doc.Selection, "src", "div.tribute-photo img", "img.portrait"), card.DetailURL)

	if detail.Description == "" && detail.ImageURL == "" {
		return nil, nil
	}
	return detail, nil
}

// Normalize applies the shared fact-extraction core.
func (a *ChapelAdapter) Normalize(card domain.Card, source domain.Source) domain.Obituary {
	return a.normalize(card, source, "chapel")
}

// chapelName derives a display name for the funeral home from its slug,
// e.g. "lougheed-chapel" becomes "Lougheed Chapel".
func chapelName(source domain.Source) string {
	words := strings.Split(source.Slug, "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
