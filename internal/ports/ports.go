package ports

import (
	"context"
	"time"

	"ObituaryScanner/internal/domain"
)

// ObituaryRepository persists deduplicated obituaries.
//
// Insert is insert-if-absent: a uniqueness-constraint conflict on
// (name, date_of_death, funeral_home) is a silent no-op reported via the
// bool, not an error.
type ObituaryRepository interface {
	Insert(ctx context.Context, obit domain.Obituary) (inserted bool, err error)
	FindByDeathDate(ctx context.Context, day time.Time) ([]domain.PersistedObituary, error)
	FindByDeathWindow(ctx context.Context, center time.Time, windowDays int) ([]domain.PersistedObituary, error)
	UpdateFields(ctx context.Context, id int64, fields map[string]any) error
}

// SuppressionList blocks re-publication of previously suppressed entities.
type SuppressionList interface {
	IsSuppressed(ctx context.Context, provenance string) (bool, error)
}

// SourceHealthStore keeps per-source circuit-breaker counters.
type SourceHealthStore interface {
	Load(ctx context.Context) (map[string]domain.SourceHealth, error)
	RecordSuccess(ctx context.Context, slug string) error
	// RecordFailure increments the failure streak and reports whether the
	// source crossed disableAfter and was auto-disabled.
	RecordFailure(ctx context.Context, slug, message string, disableAfter int) (disabled bool, err error)
}

// Rewriter hands pending records to the external AI-rewrite step.
type Rewriter interface {
	SubmitPending(ctx context.Context, payload []byte) error
}

// Notifier streams run summaries to Telegram or other channels.
type Notifier interface {
	PublishSummary(ctx context.Context, summary string) error
}

// Scheduler controls when collection runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
