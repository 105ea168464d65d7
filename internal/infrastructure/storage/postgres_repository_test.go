package storage

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"ObituaryScanner/internal/domain"
)

func testObituary() domain.Obituary {
	return domain.Obituary{
		Name:         "Marguerite Josephine Lalonde",
		DateOfBirth:  time.Date(1937, 5, 20, 0, 0, 0, 0, time.UTC),
		DateOfDeath:  time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC),
		Age:          88,
		FuneralHome:  "Miron-Wilson Funeral Home",
		Location:     "Timmins and District Hospital",
		City:         "Timmins",
		ImageURL:     "https://example.com/photo.jpg",
		Description:  "Passed away peacefully on February 3, 2026.",
		SourceURL:    "https://obituaries.example.org/lalonde",
		SourceDomain: "obituaries.example.org",
		SourceType:   "network",
		Provenance:   "abc123",
	}
}

func obituaryRows(rec domain.Obituary) *sqlmock.Rows {
	return sqlmock.NewRows(obituaryColumns).
		AddRow(int64(7), rec.Name, rec.DateOfBirth, rec.DateOfDeath, int64(rec.Age),
			rec.FuneralHome, rec.Location, rec.City, rec.ImageURL, rec.Description,
			rec.SourceURL, rec.SourceDomain, rec.SourceType, rec.Provenance,
			string(domain.StatusPending), nil, time.Now())
}

func TestInsertReportsNewRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO obituaries").
		WillReturnResult(sqlmock.NewResult(1, 1))

	repo := NewPostgresRepository(db)
	inserted, err := repo.Insert(context.Background(), testObituary())
	require.NoError(t, err)
	require.True(t, inserted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertConflictIsSilent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO obituaries").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewPostgresRepository(db)
	inserted, err := repo.Insert(context.Background(), testObituary())
	require.NoError(t, err)
	require.False(t, inserted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertUniqueViolationIsSilent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO obituaries").
		WillReturnError(&pq.Error{Code: "23505"})

	repo := NewPostgresRepository(db)
	inserted, err := repo.Insert(context.Background(), testObituary())
	require.NoError(t, err)
	require.False(t, inserted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByDeathDateScansFullRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rec := testObituary()
	mock.ExpectQuery("SELECT .+ FROM obituaries").
		WithArgs("2026-02-03").
		WillReturnRows(obituaryRows(rec))

	repo := NewPostgresRepository(db)
	rows, err := repo.FindByDeathDate(context.Background(), rec.DateOfDeath)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, int64(7), rows[0].ID)
	require.Equal(t, rec.Name, rows[0].Name)
	require.Equal(t, 88, rows[0].Age)
	require.Nil(t, rows[0].SuppressedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByDeathWindowBounds(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	center := time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT .+ FROM obituaries").
		WithArgs("2025-11-05", "2026-05-04").
		WillReturnRows(sqlmock.NewRows(obituaryColumns))

	repo := NewPostgresRepository(db)
	rows, err := repo.FindByDeathWindow(context.Background(), center, 90)
	require.NoError(t, err)
	require.Empty(t, rows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateFieldsRejectsUnknownColumn(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresRepository(db)
	err = repo.UpdateFields(context.Background(), 7, map[string]any{"status": "published"})
	require.Error(t, err)
}

func TestUpdateFieldsPatchesRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE obituaries").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewPostgresRepository(db)
	err = repo.UpdateFields(context.Background(), 7, map[string]any{"city": "Timmins"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIsSuppressed(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("abc123").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	repo := NewPostgresRepository(db)
	suppressed, err := repo.IsSuppressed(context.Background(), "abc123")
	require.NoError(t, err)
	require.True(t, suppressed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSuppressMarksRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE obituaries").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewPostgresRepository(db)
	require.NoError(t, repo.Suppress(context.Background(), 7))
	require.NoError(t, mock.ExpectationsWereMet())
}
