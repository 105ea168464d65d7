package adapter

import (
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"ObituaryScanner/internal/domain"
)

// Detail carries optional enrichment fetched from an entity's own page.
type Detail struct {
	Description string
	FuneralHome string
	ImageURL    string
}

// Adapter is the per-source-family contract: discover listing pages,
// fetch them, extract raw cards, optionally enrich from detail pages and
// normalize into the canonical record. Implementations are stateless per
// invocation.
type Adapter interface {
	Family() string

	// DiscoverListingURLs returns the ordered listing pages to visit this
	// run, bounded by the source's page budget. Deterministic for the same
	// inputs.
	DiscoverListingURLs(source domain.Source, maxAgeDays int) []string

	// FetchListing performs one bounded, rate-limited read of a listing page.
	FetchListing(ctx context.Context, url string, source domain.Source) (*goquery.Document, error)

	// ExtractCards parses candidate containers via an ordered selector
	// cascade. An unrecognized structure yields an empty slice, not an error.
	ExtractCards(doc *goquery.Document, source domain.Source) []domain.Card

	// FetchDetail optionally enriches a card from its own page. Returning
	// (nil, nil) means the listing data is sufficient; some families never
	// fetch detail pages and only keep short factual excerpts.
	FetchDetail(ctx context.Context, card domain.Card, source domain.Source) (*Detail, error)

	// Normalize converts a raw or enriched card into the canonical record,
	// applying all fact-extraction heuristics and field fallbacks.
	Normalize(card domain.Card, source domain.Source) domain.Obituary
}

// Registry keeps a mapping from family names to adapter implementations.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: map[string]Adapter{}}
}

// Register adds or replaces an adapter implementation.
func (r *Registry) Register(a Adapter) {
	if r.adapters == nil {
		r.adapters = map[string]Adapter{}
	}
	r.adapters[a.Family()] = a
}

// Resolve returns an adapter by family or an error if it is absent.
func (r *Registry) Resolve(family string) (Adapter, error) {
	if a, ok := r.adapters[family]; ok {
		return a, nil
	}
	return nil, fmt.Errorf("adapter family %s is not registered", family)
}
