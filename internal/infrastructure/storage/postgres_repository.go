package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"ObituaryScanner/internal/domain"
	"ObituaryScanner/internal/ports"
)

const uniqueViolation = "23505"

var obituaryColumns = []string{
	"id", "name", "date_of_birth", "date_of_death", "age",
	"funeral_home", "location", "city", "image_url", "description",
	"source_url", "source_domain", "source_type", "provenance",
	"status", "suppressed_at", "created_at",
}

// updatableColumns whitelists what a merge may touch.
var updatableColumns = map[string]bool{
	"funeral_home":  true,
	"location":      true,
	"city":          true,
	"date_of_birth": true,
	"age":           true,
	"description":   true,
	"image_url":     true,
}

// PostgresRepository persists deduplicated obituaries into Postgres. It also
// answers suppression lookups, which live on the same table.
type PostgresRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var (
	_ ports.ObituaryRepository = (*PostgresRepository)(nil)
	_ ports.SuppressionList    = (*PostgresRepository)(nil)
)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Insert adds a new record unless the (name, date_of_death, funeral_home)
// constraint already holds one; the conflict is a silent no-op.
func (r *PostgresRepository) Insert(ctx context.Context, obit domain.Obituary) (bool, error) {
	if r.db == nil {
		return false, nil
	}

	query, args, err := r.builder.
		Insert("obituaries").
		Columns("name", "date_of_birth", "date_of_death", "age",
			"funeral_home", "location", "city", "image_url", "description",
			"source_url", "source_domain", "source_type", "provenance", "status").
		Values(obit.Name, nullTime(obit.DateOfBirth), obit.DateOfDeath, nullInt(obit.Age),
			obit.FuneralHome, obit.Location, obit.City, obit.ImageURL, obit.Description,
			obit.SourceURL, obit.SourceDomain, obit.SourceType, obit.Provenance, domain.StatusPending).
		Suffix("ON CONFLICT (name, date_of_death, funeral_home) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build insert: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return false, nil
		}
		return false, fmt.Errorf("insert obituary: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// FindByDeathDate returns all non-suppressed records with the given death day.
func (r *PostgresRepository) FindByDeathDate(ctx context.Context, day time.Time) ([]domain.PersistedObituary, error) {
	return r.find(ctx, sq.Eq{"date_of_death": day.Format("2006-01-02")})
}

// FindByDeathWindow returns non-suppressed records whose death date lies
// within windowDays of center, in either direction.
func (r *PostgresRepository) FindByDeathWindow(ctx context.Context, center time.Time, windowDays int) ([]domain.PersistedObituary, error) {
	from := center.AddDate(0, 0, -windowDays).Format("2006-01-02")
	to := center.AddDate(0, 0, windowDays).Format("2006-01-02")
	return r.find(ctx, sq.And{
		sq.GtOrEq{"date_of_death": from},
		sq.LtOrEq{"date_of_death": to},
	})
}

func (r *PostgresRepository) find(ctx context.Context, pred any) ([]domain.PersistedObituary, error) {
	if r.db == nil {
		return nil, nil
	}

	query, args, err := r.builder.
		Select(obituaryColumns...).
		From("obituaries").
		Where(pred).
		Where("suppressed_at IS NULL").
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query obituaries: %w", err)
	}
	defer rows.Close()

	var out []domain.PersistedObituary
	for rows.Next() {
		var (
			rec        domain.PersistedObituary
			birth      sql.NullTime
			age        sql.NullInt64
			suppressed sql.NullTime
		)
		if err := rows.Scan(&rec.ID, &rec.Name, &birth, &rec.DateOfDeath, &age,
			&rec.FuneralHome, &rec.Location, &rec.City, &rec.ImageURL, &rec.Description,
			&rec.SourceURL, &rec.SourceDomain, &rec.SourceType, &rec.Provenance,
			&rec.Status, &suppressed, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan obituary: %w", err)
		}
		if birth.Valid {
			rec.DateOfBirth = birth.Time
		}
		if age.Valid {
			rec.Age = int(age.Int64)
		}
		if suppressed.Valid {
			t := suppressed.Time
			rec.SuppressedAt = &t
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return out, nil
}

// UpdateFields applies a merge patch produced by the dedup engine.
func (r *PostgresRepository) UpdateFields(ctx context.Context, id int64, fields map[string]any) error {
	if r.db == nil || len(fields) == 0 {
		return nil
	}

	update := r.builder.Update("obituaries")
	for col, val := range fields {
		if !updatableColumns[col] {
			return fmt.Errorf("column %s is not mergeable", col)
		}
		update = update.Set(col, val)
	}

	query, args, err := update.Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update obituary %d: %w", id, err)
	}
	return nil
}

// Suppress marks a record as removed-on-request. The row stays so the
// provenance hash keeps blocking re-ingestion.
func (r *PostgresRepository) Suppress(ctx context.Context, id int64) error {
	if r.db == nil {
		return nil
	}

	query, args, err := r.builder.
		Update("obituaries").
		Set("suppressed_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build suppress: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("suppress obituary %d: %w", id, err)
	}
	return nil
}

// IsSuppressed reports whether any record with this provenance hash was ever
// suppressed.
func (r *PostgresRepository) IsSuppressed(ctx context.Context, provenance string) (bool, error) {
	if r.db == nil || provenance == "" {
		return false, nil
	}

	query, args, err := r.builder.
		Select("COUNT(*)").
		From("obituaries").
		Where(sq.Eq{"provenance": provenance}).
		Where("suppressed_at IS NOT NULL").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build suppression lookup: %w", err)
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("suppression lookup: %w", err)
	}
	return count > 0, nil
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func nullInt(n int) any {
	if n <= 0 {
		return nil
	}
	return n
}
