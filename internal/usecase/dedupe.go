package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"ObituaryScanner/internal/domain"
	"ObituaryScanner/internal/extract"
	"ObituaryScanner/internal/ports"
)

// minNameMatchLen guards the containment half of the fuzzy name match:
// short normalized names only merge on exact equality.
const minNameMatchLen = 10

// MergeOutcome reports what Apply did with a candidate record.
type MergeOutcome int

const (
	OutcomeInserted MergeOutcome = iota
	OutcomeMerged
	OutcomeDuplicate
	OutcomeSuppressed
)

// MergeEngine decides, for every normalized candidate, whether it is a new
// person, an already-known person to enrich, or something to drop.
type MergeEngine struct {
	repo        ports.ObituaryRepository
	suppression ports.SuppressionList
	windowDays  int
	logger      *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewMergeEngine(repo ports.ObituaryRepository, suppression ports.SuppressionList, windowDays int, logger *slog.Logger) *MergeEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &MergeEngine{
		repo:        repo,
		suppression: suppression,
		windowDays:  windowDays,
		logger:      logger,
		locks:       map[string]*sync.Mutex{},
	}
}

// deathDayLock serializes check-then-insert for all candidates sharing a
// death day. Sources run concurrently, and without this two sources carrying
// the same person could both pass the dedup scan and both insert.
func (m *MergeEngine) deathDayLock(day string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.locks == nil {
		m.locks = map[string]*sync.Mutex{}
	}
	lock, ok := m.locks[day]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[day] = lock
	}
	return lock
}

// Apply runs the candidate through suppression, the same-death-date fuzzy
// pass, the windowed name-only pass and finally plain insertion. The unique
// constraint on (name, date_of_death, funeral_home) backstops everything the
// fuzzy passes miss.
func (m *MergeEngine) Apply(ctx context.Context, rec domain.Obituary) (MergeOutcome, error) {
	lock := m.deathDayLock(rec.DateOfDeath.Format("2006-01-02"))
	lock.Lock()
	defer lock.Unlock()

	if m.suppression != nil && rec.Provenance != "" {
		suppressed, err := m.suppression.IsSuppressed(ctx, rec.Provenance)
		if err != nil {
			return OutcomeDuplicate, fmt.Errorf("check suppression: %w", err)
		}
		if suppressed {
			m.logger.Debug("candidate suppressed", "name", rec.Name)
			return OutcomeSuppressed, nil
		}
	}

	sameDay, err := m.repo.FindByDeathDate(ctx, rec.DateOfDeath)
	if err != nil {
		return OutcomeDuplicate, fmt.Errorf("lookup by death date: %w", err)
	}
	norm := extract.NormalizeName(rec.Name)
	for _, existing := range sameDay {
		if !extract.SameName(norm, extract.NormalizeName(existing.Name), minNameMatchLen) {
			continue
		}
		return m.enrich(ctx, existing, rec)
	}

	// Risky pass: same name, death dates within the window. Only exact
	// normalized equality qualifies here, containment is too loose when the
	// dates disagree.
	if m.windowDays > 0 {
		nearby, err := m.repo.FindByDeathWindow(ctx, rec.DateOfDeath, m.windowDays)
		if err != nil {
			return OutcomeDuplicate, fmt.Errorf("lookup by death window: %w", err)
		}
		for _, existing := range nearby {
			if extract.NormalizeName(existing.Name) != norm {
				continue
			}
			m.logger.Info("name-only merge within window",
				"name", rec.Name,
				"existing_death", existing.DateOfDeath.Format("2006-01-02"),
				"candidate_death", rec.DateOfDeath.Format("2006-01-02"))
			return m.enrich(ctx, existing, rec)
		}
	}

	inserted, err := m.repo.Insert(ctx, rec)
	if err != nil {
		return OutcomeDuplicate, fmt.Errorf("insert obituary: %w", err)
	}
	if !inserted {
		return OutcomeDuplicate, nil
	}
	return OutcomeInserted, nil
}

func (m *MergeEngine) enrich(ctx context.Context, existing domain.PersistedObituary, rec domain.Obituary) (MergeOutcome, error) {
	fields := gapFill(existing, rec)
	if len(fields) == 0 {
		return OutcomeDuplicate, nil
	}
	if err := m.repo.UpdateFields(ctx, existing.ID, fields); err != nil {
		return OutcomeDuplicate, fmt.Errorf("merge into record %d: %w", existing.ID, err)
	}
	m.logger.Debug("record enriched", "id", existing.ID, "fields", len(fields))
	return OutcomeMerged, nil
}

// gapFill fills empty fields on the stored record from the candidate and
// never overwrites populated ones. The description, and its image, may be
// replaced when the candidate's description is strictly longer.
func gapFill(existing domain.PersistedObituary, rec domain.Obituary) map[string]any {
	fields := map[string]any{}

	if existing.FuneralHome == "" && rec.FuneralHome != "" {
		fields["funeral_home"] = rec.FuneralHome
	}
	if existing.Location == "" && rec.Location != "" {
		fields["location"] = rec.Location
	}
	if existing.City == "" && rec.City != "" {
		fields["city"] = rec.City
	}
	if existing.DateOfBirth.IsZero() && !rec.DateOfBirth.IsZero() {
		fields["date_of_birth"] = rec.DateOfBirth
	}
	if existing.Age == 0 && rec.Age > 0 {
		fields["age"] = rec.Age
	}

	if len(rec.Description) > len(existing.Description) {
		fields["description"] = rec.Description
		if rec.ImageURL != "" {
			fields["image_url"] = rec.ImageURL
		}
	}
	if existing.ImageURL == "" && rec.ImageURL != "" {
		fields["image_url"] = rec.ImageURL
	}

	return fields
}
