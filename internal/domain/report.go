package domain

import "time"

// SourceReport summarizes one source's outcome within a run. Deferred means
// the run budget expired mid-source; the source is healthy and simply waits
// for the next scheduled run.
type SourceReport struct {
	Slug     string
	Pages    int
	Found    int
	Added    int
	Merged   int
	Skipped  bool
	Deferred bool
	Errors   []string
}

// RunReport aggregates per-source outcomes for the observability sink.
type RunReport struct {
	RunID            string
	StartedAt        time.Time
	FinishedAt       time.Time
	SourcesProcessed int
	SourcesSkipped   int
	Sources          []SourceReport
	Errors           []string
}

// TotalAdded sums inserts across all sources.
func (r *RunReport) TotalAdded() int {
	total := 0
	for _, s := range r.Sources {
		total += s.Added
	}
	return total
}

// TotalFound sums extracted candidates across all sources.
func (r *RunReport) TotalFound() int {
	total := 0
	for _, s := range r.Sources {
		total += s.Found
	}
	return total
}
