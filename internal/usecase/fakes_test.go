package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"ObituaryScanner/internal/adapter"
	"ObituaryScanner/internal/domain"
	"ObituaryScanner/internal/extract"
)

type memoryRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   []domain.PersistedObituary
}

func (r *memoryRepo) Insert(_ context.Context, obit domain.Obituary) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, row := range r.rows {
		if row.Name == obit.Name &&
			row.DateOfDeath.Equal(obit.DateOfDeath) &&
			row.FuneralHome == obit.FuneralHome {
			return false, nil
		}
	}

	r.nextID++
	r.rows = append(r.rows, domain.PersistedObituary{
		ID:        r.nextID,
		Obituary:  obit,
		Status:    domain.StatusPending,
		CreatedAt: time.Now(),
	})
	return true, nil
}

func (r *memoryRepo) FindByDeathDate(_ context.Context, day time.Time) ([]domain.PersistedObituary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.PersistedObituary
	for _, row := range r.rows {
		if row.SuppressedAt == nil && sameDay(row.DateOfDeath, day) {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *memoryRepo) FindByDeathWindow(_ context.Context, center time.Time, windowDays int) ([]domain.PersistedObituary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	window := time.Duration(windowDays) * 24 * time.Hour
	var out []domain.PersistedObituary
	for _, row := range r.rows {
		diff := row.DateOfDeath.Sub(center)
		if diff < 0 {
			diff = -diff
		}
		if row.SuppressedAt == nil && diff <= window {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *memoryRepo) UpdateFields(_ context.Context, id int64, fields map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.rows {
		if r.rows[i].ID != id {
			continue
		}
		for col, val := range fields {
			switch col {
			case "funeral_home":
				r.rows[i].FuneralHome = val.(string)
			case "location":
				r.rows[i].Location = val.(string)
			case "city":
				r.rows[i].City = val.(string)
			case "date_of_birth":
				r.rows[i].DateOfBirth = val.(time.Time)
			case "age":
				r.rows[i].Age = val.(int)
			case "description":
				r.rows[i].Description = val.(string)
			case "image_url":
				r.rows[i].ImageURL = val.(string)
			default:
				return fmt.Errorf("unexpected column %s", col)
			}
		}
		return nil
	}
	return fmt.Errorf("no row with id %d", id)
}

func (r *memoryRepo) all() []domain.PersistedObituary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.PersistedObituary(nil), r.rows...)
}

func sameDay(a, b time.Time) bool {
	return a.Format("2006-01-02") == b.Format("2006-01-02")
}

type memorySuppression struct {
	hashes map[string]bool
}

func (s *memorySuppression) IsSuppressed(_ context.Context, provenance string) (bool, error) {
	return s.hashes[provenance], nil
}

type memoryHealth struct {
	mu     sync.Mutex
	states map[string]domain.SourceHealth
}

func newMemoryHealth() *memoryHealth {
	return &memoryHealth{states: map[string]domain.SourceHealth{}}
}

func (h *memoryHealth) Load(context.Context) (map[string]domain.SourceHealth, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make(map[string]domain.SourceHealth, len(h.states))
	for slug, st := range h.states {
		out[slug] = st
	}
	return out, nil
}

func (h *memoryHealth) RecordSuccess(_ context.Context, slug string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	st := h.states[slug]
	st.Slug = slug
	st.Failures = 0
	st.LastSuccess = time.Now()
	st.UpdatedAt = time.Now()
	h.states[slug] = st
	return nil
}

func (h *memoryHealth) RecordFailure(_ context.Context, slug, message string, disableAfter int) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	st := h.states[slug]
	st.Slug = slug
	st.Failures++
	st.LastError = message
	st.UpdatedAt = time.Now()
	if disableAfter > 0 && st.Failures >= disableAfter {
		st.Disabled = true
	}
	h.states[slug] = st
	return st.Disabled, nil
}

// stubAdapter serves canned cards per source and looks up the normalized
// record by card name.
type stubAdapter struct {
	mu      sync.Mutex
	family  string
	cards   map[string][]domain.Card
	records map[string]domain.Obituary
	fetches int
	fail    bool
}

func (s *stubAdapter) Family() string { return s.family }

func (s *stubAdapter) DiscoverListingURLs(source domain.Source, _ int) []string {
	return []string{source.BaseURL}
}

func (s *stubAdapter) FetchListing(_ context.Context, _ string, _ domain.Source) (*goquery.Document, error) {
	s.mu.Lock()
	s.fetches++
	fail := s.fail
	s.mu.Unlock()

	if fail {
		return nil, fmt.Errorf("listing fetch: status 503")
	}
	return goquery.NewDocumentFromReader(strings.NewReader("<html><body>stub</body></html>"))
}

func (s *stubAdapter) ExtractCards(_ *goquery.Document, source domain.Source) []domain.Card {
	return s.cards[source.Slug]
}

func (s *stubAdapter) FetchDetail(context.Context, domain.Card, domain.Source) (*adapter.Detail, error) {
	return nil, nil
}

func (s *stubAdapter) Normalize(card domain.Card, source domain.Source) domain.Obituary {
	rec := s.records[card.Name]
	rec.SourceDomain = source.Slug
	if rec.Provenance == "" && !rec.DateOfDeath.IsZero() {
		rec.Provenance = extract.ProvenanceHash(rec.Name, rec.DateOfDeath)
	}
	return rec
}

func (s *stubAdapter) fetchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches
}
