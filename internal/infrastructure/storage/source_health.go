package storage

import (
	"context"
	"database/sql"
	"fmt"

	"ObituaryScanner/internal/domain"
	"ObituaryScanner/internal/ports"
)

// PostgresHealthStore keeps per-source circuit-breaker counters in Postgres.
type PostgresHealthStore struct {
	db *sql.DB
}

var _ ports.SourceHealthStore = (*PostgresHealthStore)(nil)

// NewPostgresHealthStore wires a sql.DB implementation.
func NewPostgresHealthStore(db *sql.DB) *PostgresHealthStore {
	return &PostgresHealthStore{db: db}
}

// Load returns the health state for every known source.
func (s *PostgresHealthStore) Load(ctx context.Context) (map[string]domain.SourceHealth, error) {
	out := map[string]domain.SourceHealth{}
	if s.db == nil {
		return out, nil
	}

	query := `SELECT slug, failures, last_success, last_error, disabled, updated_at
              FROM source_health`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query source health: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			st          domain.SourceHealth
			lastSuccess sql.NullTime
			lastError   sql.NullString
		)
		if err := rows.Scan(&st.Slug, &st.Failures, &lastSuccess, &lastError, &st.Disabled, &st.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan source health: %w", err)
		}
		if lastSuccess.Valid {
			st.LastSuccess = lastSuccess.Time
		}
		if lastError.Valid {
			st.LastError = lastError.String
		}
		out[st.Slug] = st
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return out, nil
}

// RecordSuccess resets the failure streak for the source.
func (s *PostgresHealthStore) RecordSuccess(ctx context.Context, slug string) error {
	if s.db == nil {
		return nil
	}

	query := `INSERT INTO source_health (slug, failures, last_success, disabled, updated_at)
              VALUES ($1, 0, NOW(), FALSE, NOW())
              ON CONFLICT (slug) DO UPDATE
              SET failures = 0,
                  last_success = NOW(),
                  updated_at = NOW()`

	if _, err := s.db.ExecContext(ctx, query, slug); err != nil {
		return fmt.Errorf("record success for %s: %w", slug, err)
	}
	return nil
}

// RecordFailure bumps the failure streak and flips disabled once the streak
// reaches disableAfter. A non-positive threshold never disables.
func (s *PostgresHealthStore) RecordFailure(ctx context.Context, slug, message string, disableAfter int) (bool, error) {
	if s.db == nil {
		return false, nil
	}

	query := `INSERT INTO source_health (slug, failures, last_error, disabled, updated_at)
              VALUES ($1, 1, $2, ($3 > 0 AND 1 >= $3), NOW())
              ON CONFLICT (slug) DO UPDATE
              SET failures = source_health.failures + 1,
                  last_error = EXCLUDED.last_error,
                  disabled = source_health.disabled
                             OR ($3 > 0 AND source_health.failures + 1 >= $3),
                  updated_at = NOW()
              RETURNING disabled`

	var disabled bool
	if err := s.db.QueryRowContext(ctx, query, slug, message, disableAfter).Scan(&disabled); err != nil {
		return false, fmt.Errorf("record failure for %s: %w", slug, err)
	}
	return disabled, nil
}
