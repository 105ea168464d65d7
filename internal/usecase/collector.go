package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"ObituaryScanner/internal/adapter"
	"ObituaryScanner/internal/domain"
	"ObituaryScanner/internal/extract"
	"ObituaryScanner/internal/ports"
)

const earliestPlausibleYear = 2000

// placeholderDates are sentinel values some platforms emit when the real
// date is missing; they must never persist.
var placeholderDates = map[string]bool{
	"1900-01-01": true,
	"0001-01-01": true,
}

// Options tunes one collection run.
type Options struct {
	BanPatterns          []string
	ListingOnly          bool
	RunBudget            time.Duration
	MaxAgeDays           int
	NameOnlyWindowDays   int
	DisableAfterFailures int
	MaxConcurrentSources int
}

// CollectorDeps wires all driven adapters into the orchestrator.
type CollectorDeps struct {
	Registry    *adapter.Registry
	Sources     []domain.Source
	Health      ports.SourceHealthStore
	Repository  ports.ObituaryRepository
	Suppression ports.SuppressionList
	Images      *extract.ImageChecker
	Rewriter    ports.Rewriter
	Notifier    ports.Notifier
	Logger      *slog.Logger
	Options     Options
}

// Collector drives the per-source discover→fetch→extract→normalize→merge
// cycle. Sources run concurrently up to a bound, but each source's own
// fetch sequence stays serialized and throttled.
type Collector struct {
	registry *adapter.Registry
	sources  []domain.Source
	health   ports.SourceHealthStore
	merge    *MergeEngine
	images   *extract.ImageChecker
	rewriter ports.Rewriter
	notifier ports.Notifier
	logger   *slog.Logger
	opts     Options
}

// NewCollector constructs the orchestration component.
func NewCollector(deps CollectorDeps) *Collector {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Options.MaxConcurrentSources <= 0 {
		deps.Options.MaxConcurrentSources = 1
	}
	return &Collector{
		registry: deps.Registry,
		sources:  deps.Sources,
		health:   deps.Health,
		merge: NewMergeEngine(deps.Repository, deps.Suppression,
			deps.Options.NameOnlyWindowDays, logger.With("component", "merge")),
		images:   deps.Images,
		rewriter: deps.Rewriter,
		notifier: deps.Notifier,
		logger:   logger,
		opts:     deps.Options,
	}
}

// Collect runs the whole registry: every enabled, non-banned,
// non-circuit-broken source.
func (c *Collector) Collect(ctx context.Context) (*domain.RunReport, error) {
	return c.run(ctx, c.sources)
}

// CollectSource runs a single source on demand.
func (c *Collector) CollectSource(ctx context.Context, slug string) (*domain.RunReport, error) {
	for _, source := range c.sources {
		if source.Slug == slug {
			return c.run(ctx, []domain.Source{source})
		}
	}
	return nil, fmt.Errorf("source %s is not configured", slug)
}

func (c *Collector) run(ctx context.Context, sources []domain.Source) (*domain.RunReport, error) {
	report := &domain.RunReport{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}

	// Health writes and end-of-run dispatch outlive the budget, so they run
	// on the caller's context rather than the budget-limited one.
	baseCtx := ctx
	if c.opts.RunBudget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.RunBudget)
		defer cancel()
	}

	healthBySlug := map[string]domain.SourceHealth{}
	if c.health != nil {
		loaded, err := c.health.Load(baseCtx)
		if err != nil {
			return nil, fmt.Errorf("load source health: %w", err)
		}
		healthBySlug = loaded
	}

	var (
		mu     sync.Mutex
		digest []domain.Obituary
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(c.opts.MaxConcurrentSources)

	for _, source := range sources {
		if !source.Enabled || healthBySlug[source.Slug].Disabled {
			c.logger.Debug("source inactive", "source", source.Slug)
			continue
		}

		if matchesBan(source.Slug, c.opts.BanPatterns) {
			c.logger.Info("source banned", "source", source.Slug)
			mu.Lock()
			report.SourcesSkipped++
			report.Sources = append(report.Sources, domain.SourceReport{Slug: source.Slug, Skipped: true})
			mu.Unlock()
			continue
		}

		ad, err := c.registry.Resolve(source.Family)
		if err != nil {
			c.logger.Warn("no adapter for source", "source", source.Slug, "family", source.Family)
			mu.Lock()
			report.SourcesSkipped++
			report.Sources = append(report.Sources, domain.SourceReport{
				Slug: source.Slug, Skipped: true, Errors: []string{err.Error()},
			})
			mu.Unlock()
			continue
		}

		source := source
		group.Go(func() error {
			srcReport, added := c.processSource(groupCtx, ad, source)
			c.recordHealth(baseCtx, source.Slug, srcReport)

			mu.Lock()
			report.SourcesProcessed++
			report.Sources = append(report.Sources, srcReport)
			report.Errors = append(report.Errors, srcReport.Errors...)
			digest = append(digest, added...)
			mu.Unlock()
			return nil
		})
	}

	_ = group.Wait()
	report.FinishedAt = time.Now()

	c.logger.Info("run finished",
		"run_id", report.RunID,
		"processed", report.SourcesProcessed,
		"skipped", report.SourcesSkipped,
		"found", report.TotalFound(),
		"added", report.TotalAdded(),
		"errors", len(report.Errors))

	c.dispatch(baseCtx, report, digest)
	return report, nil
}

// processSource is the per-source boundary: whatever goes wrong inside, the
// run continues with the next source.
func (c *Collector) processSource(ctx context.Context, ad adapter.Adapter, source domain.Source) (rep domain.SourceReport, added []domain.Obituary) {
	rep.Slug = source.Slug
	logger := c.logger.With("source", source.Slug)

	defer func() {
		if r := recover(); r != nil {
			rep.Errors = append(rep.Errors, fmt.Sprintf("panic: %v", r))
			logger.Error("source processing panicked", "panic", r)
		}
	}()

	for _, listingURL := range ad.DiscoverListingURLs(source, c.opts.MaxAgeDays) {
		if ctx.Err() != nil {
			// Budget exhausted: abandon cleanly, nothing partial to undo.
			// A deferral is not a source failure and must not feed the
			// circuit breaker.
			rep.Deferred = true
			logger.Warn("abandoning source, run budget exceeded")
			return rep, added
		}

		doc, err := ad.FetchListing(ctx, listingURL, source)
		if err != nil {
			rep.Errors = append(rep.Errors, err.Error())
			logger.Warn("listing fetch failed", "url", listingURL, "error", err)
			continue
		}
		rep.Pages++

		cards := ad.ExtractCards(doc, source)
		if len(cards) == 0 {
			// Markup drift, not a transient condition: log enough to diagnose.
			html, _ := doc.Html()
			logger.Warn("zero cards from fetched page",
				"url", listingURL,
				"bytes", len(html),
				"snippet", extract.Excerpt(html, 200))
			continue
		}

		for _, card := range cards {
			if !c.opts.ListingOnly {
				detail, dErr := ad.FetchDetail(ctx, card, source)
				if dErr != nil {
					logger.Debug("detail fetch failed, using listing data", "url", card.DetailURL, "error", dErr)
				}
				applyDetail(&card, detail)
			}

			rec := ad.Normalize(card, source)
			rep.Found++

			if err := validateRecord(rec); err != nil {
				logger.Debug("candidate rejected", "name", rec.Name, "reason", err)
				continue
			}

			rec.ImageURL = c.vetImage(ctx, rec.ImageURL, source)

			outcome, mErr := c.merge.Apply(ctx, rec)
			if mErr != nil {
				rep.Errors = append(rep.Errors, mErr.Error())
				continue
			}
			switch outcome {
			case OutcomeInserted:
				rep.Added++
				added = append(added, rec)
			case OutcomeMerged:
				rep.Merged++
			}
		}
	}

	logger.Info("source done", "pages", rep.Pages, "found", rep.Found, "added", rep.Added, "merged", rep.Merged)
	return rep, added
}

func (c *Collector) recordHealth(ctx context.Context, slug string, rep domain.SourceReport) {
	if c.health == nil {
		return
	}

	// A budget deferral leaves the streak untouched either way: the source
	// neither completed nor failed.
	if rep.Deferred && len(rep.Errors) == 0 {
		return
	}

	if len(rep.Errors) == 0 {
		if err := c.health.RecordSuccess(ctx, slug); err != nil {
			c.logger.Warn("record success failed", "source", slug, "error", err)
		}
		return
	}

	disabled, err := c.health.RecordFailure(ctx, slug, rep.Errors[0], c.opts.DisableAfterFailures)
	if err != nil {
		c.logger.Warn("record failure failed", "source", slug, "error", err)
		return
	}
	if disabled {
		c.logger.Error("source auto-disabled by circuit breaker", "source", slug)
	}
}

// vetImage applies the portrait heuristic; trusted sources skip the probe.
func (c *Collector) vetImage(ctx context.Context, imageURL string, source domain.Source) string {
	if imageURL == "" || source.TrustImages {
		return imageURL
	}
	if c.images == nil || !c.images.IsPortrait(ctx, imageURL) {
		return ""
	}
	return imageURL
}

// dispatch hands newly added records to the rewrite step and publishes the
// run summary. Both collaborators are optional and best-effort.
func (c *Collector) dispatch(ctx context.Context, report *domain.RunReport, digest []domain.Obituary) {
	if c.rewriter != nil && len(digest) > 0 {
		payload, err := json.Marshal(digest)
		if err != nil {
			c.logger.Warn("marshal rewrite payload", "error", err)
		} else if err := c.rewriter.SubmitPending(ctx, payload); err != nil {
			c.logger.Warn("submit pending to rewriter", "error", err)
		}
	}

	if c.notifier != nil {
		if err := c.notifier.PublishSummary(ctx, buildSummary(report)); err != nil {
			c.logger.Warn("publish run summary", "error", err)
		}
	}
}

func buildSummary(report *domain.RunReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s: %d sources, %d skipped, %d found, %d added, %d errors\n",
		report.RunID, report.SourcesProcessed, report.SourcesSkipped,
		report.TotalFound(), report.TotalAdded(), len(report.Errors))
	for _, s := range report.Sources {
		switch {
		case s.Skipped:
			fmt.Fprintf(&b, "- %s: skipped\n", s.Slug)
		case s.Deferred:
			fmt.Fprintf(&b, "- %s: deferred (run budget)\n", s.Slug)
		default:
			fmt.Fprintf(&b, "- %s: pages=%d found=%d added=%d merged=%d errors=%d\n",
				s.Slug, s.Pages, s.Found, s.Added, s.Merged, len(s.Errors))
		}
	}
	return b.String()
}

// validateRecord is the gate in front of persistence: no name, no date, a
// placeholder date, an implausibly old date or death on/before birth all
// reject the candidate outright.
func validateRecord(rec domain.Obituary) error {
	if strings.TrimSpace(rec.Name) == "" {
		return fmt.Errorf("empty name")
	}
	if rec.DateOfDeath.IsZero() {
		return fmt.Errorf("no death date extracted")
	}
	if placeholderDates[rec.DateOfDeath.Format("2006-01-02")] {
		return fmt.Errorf("placeholder death date")
	}
	if rec.DateOfDeath.Year() < earliestPlausibleYear {
		return fmt.Errorf("death date %s predates %d", rec.DateOfDeath.Format("2006-01-02"), earliestPlausibleYear)
	}
	if !rec.DateOfBirth.IsZero() && !rec.DateOfDeath.After(rec.DateOfBirth) {
		return fmt.Errorf("death date on or before birth date")
	}
	return nil
}

// matchesBan checks a slug against ban patterns: exact, "*suffix" wildcard
// or plain substring.
func matchesBan(slug string, patterns []string) bool {
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if p == slug {
			return true
		}
		if strings.HasPrefix(p, "*") && strings.HasSuffix(slug, strings.TrimPrefix(p, "*")) {
			return true
		}
		if strings.Contains(slug, p) {
			return true
		}
	}
	return false
}

func applyDetail(card *domain.Card, detail *adapter.Detail) {
	if detail == nil {
		return
	}
	if len(detail.Description) > len(card.Description) {
		card.Description = detail.Description
	}
	if detail.FuneralHome != "" {
		card.FuneralHome = detail.FuneralHome
	}
	if detail.ImageURL != "" {
		card.ImageURL = detail.ImageURL
	}
}
