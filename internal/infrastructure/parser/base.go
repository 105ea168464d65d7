package parser

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"ObituaryScanner/internal/adapter"
	"ObituaryScanner/internal/domain"
	"ObituaryScanner/internal/extract"
)

const maxExcerptLen = 600

// base bundles the helpers every adapter family composes: the shared
// fetcher, selector cascades and the normalization core.
type base struct {
	fetcher *adapter.Fetcher
}

// selectEach runs an ordered selector cascade and applies fn to the first
// selector that yields at least one node. Sources change markup over time;
// the later selectors are the fallbacks that keep an adapter alive.
func selectEach(doc *goquery.Document, selectors []string, fn func(int, *goquery.Selection)) int {
	for _, sel := range selectors {
		nodes := doc.Find(sel)
		if nodes.Length() == 0 {
			continue
		}
		nodes.Each(fn)
		return nodes.Length()
	}
	return 0
}

// firstText returns the trimmed text of the first selector that matches.
func firstText(s *goquery.Selection, selectors ...string) string {
	for _, sel := range selectors {
		if node := s.Find(sel).First(); node.Length() > 0 {
			if text := strings.TrimSpace(node.Text()); text != "" {
				return text
			}
		}
	}
	return ""
}

// firstAttr returns the named attribute of the first matching selector.
func firstAttr(s *goquery.Selection, attr string, selectors ...string) string {
	for _, sel := range selectors {
		if v, ok := s.Find(sel).First().Attr(attr); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// absoluteURL resolves href against the source base.
func absoluteURL(href, baseURL string) string {
	if href == "" || strings.HasPrefix(href, "http") {
		return href
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// pageURL appends a page query parameter, shared by the paginated families.
func pageURL(baseURL, param string, page int) string {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return baseURL
	}
	query := parsed.Query()
	query.Set(param, strconv.Itoa(page))
	parsed.RawQuery = query.Encode()
	return parsed.String()
}

func domainOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return parsed.Hostname()
}

// normalize is the shared fact-extraction core behind every family's
// Normalize. It is pure: network-dependent vetting (the portrait probe)
// happens in the collector. Ambiguous facts are dropped, never guessed.
func (b base) normalize(card domain.Card, source domain.Source, sourceType string) domain.Obituary {
	// RawDate is often a listing "published" date. It stays in its own
	// sentence so keyword gating cannot pair it with a death phrase from
	// the description; only an explicit range inside it can yield dates.
	text := card.Description
	if raw := strings.TrimSpace(card.RawDate); raw != "" {
		text = raw + ". " + card.Description
	}

	rec := domain.Obituary{
		Name:         strings.TrimSpace(card.Name),
		FuneralHome:  strings.TrimSpace(card.FuneralHome),
		ImageURL:     strings.TrimSpace(card.ImageURL),
		Description:  extract.Excerpt(card.Description, maxExcerptLen),
		SourceURL:    card.DetailURL,
		SourceDomain: domainOf(source.BaseURL),
		SourceType:   sourceType,
	}
	if rec.SourceURL == "" {
		rec.SourceURL = source.BaseURL
	}

	if death, _, ok := extract.DeathDate(text); ok {
		rec.DateOfDeath = death
	}
	if birth, death, ok := extract.DateRange(text); ok {
		rec.DateOfBirth = birth
		if rec.DateOfDeath.IsZero() {
			rec.DateOfDeath = death
		}
	}

	rec.Age = extract.Age(text)
	if rec.Age == 0 && !rec.DateOfBirth.IsZero() && !rec.DateOfDeath.IsZero() {
		rec.Age = extract.AgeFromDates(rec.DateOfBirth, rec.DateOfDeath)
	}
	if rec.Age == 0 {
		// Year-only ranges give an approximate age, off by up to one year.
		if by, dy, ok := extract.YearRange(text); ok {
			rec.Age = extract.AgeFromYears(by, dy)
		}
	}

	if loc, ok := extract.CanonicalCity(card.RawLocation); ok {
		rec.Location = loc
	} else {
		rec.Location = extract.Location(card.Description)
	}
	rec.City = rec.Location
	if rec.City == "" {
		rec.City = source.CityHint
	}

	if !rec.DateOfDeath.IsZero() {
		rec.Provenance = extract.ProvenanceHash(rec.Name, rec.DateOfDeath)
	}

	return rec
}
