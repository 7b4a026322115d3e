package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/tazehal/batching-engine/internal/domain"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var batchColumns = []string{
	"id", "batch_number", "date", "type", "cutoff_time", "auto_confirm_time",
	"status", "confirmed_at", "confirmed_by", "order_count", "created_at", "updated_at",
}

func newMockBatchRepo(t *testing.T) (*GormBatchRepo, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("gorm.Open: %v", err)
	}

	return NewGormBatchRepo(db), mock
}

func batchRow(id string, status domain.BatchStatus, confirmedBy *string) *sqlmock.Rows {
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	cutoff := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	now := time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)

	var by any
	if confirmedBy != nil {
		by = *confirmedBy
	}

	return sqlmock.NewRows(batchColumns).AddRow(
		id, "B260310-1", date, string(domain.BatchTypeFirst), cutoff, nil,
		string(status), nil, by, int64(2), now, now,
	)
}

func TestIsUniqueViolationError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"gorm duplicated key", gorm.ErrDuplicatedKey, true},
		{"wrapped duplicated key", errors.Join(errors.New("create batch"), gorm.ErrDuplicatedKey), true},
		{"postgres duplicate key message", errors.New(`ERROR: duplicate key value violates unique constraint "idx_batches_window" (SQLSTATE 23505)`), true},
		{"bare unique constraint message", errors.New("UNIQUE constraint failed: batches.batch_number"), true},
		{"unrelated error", errors.New("connection refused"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := isUniqueViolationError(tc.err); got != tc.want {
				t.Fatalf("isUniqueViolationError(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestGormBatchRepoFindOrCreate(t *testing.T) {
	t.Parallel()

	window := domain.BatchWindow{
		Date:       time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Type:       domain.BatchTypeFirst,
		Number:     "B260310-1",
		CutoffTime: time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC),
	}

	t.Run("returns the existing window row", func(t *testing.T) {
		t.Parallel()
		repo, mock := newMockBatchRepo(t)

		mock.ExpectQuery(`SELECT \* FROM "batches"`).
			WillReturnRows(batchRow("batch-1", domain.BatchStatusOpen, nil))

		batch, err := repo.FindOrCreate(context.Background(), window)
		if err != nil {
			t.Fatalf("FindOrCreate: %v", err)
		}
		if batch.ID != "batch-1" || batch.BatchNumber != "B260310-1" {
			t.Fatalf("got batch %+v, want the existing record", batch)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("unmet expectations: %v", err)
		}
	})

	t.Run("losing the creation race converges on the winner", func(t *testing.T) {
		t.Parallel()
		repo, mock := newMockBatchRepo(t)

		mock.ExpectQuery(`SELECT \* FROM "batches"`).
			WillReturnRows(sqlmock.NewRows(batchColumns))
		mock.ExpectExec(`INSERT INTO "batches"`).
			WillReturnError(errors.New(`ERROR: duplicate key value violates unique constraint "idx_batches_window" (SQLSTATE 23505)`))
		mock.ExpectQuery(`SELECT \* FROM "batches"`).
			WillReturnRows(batchRow("batch-winner", domain.BatchStatusOpen, nil))

		batch, err := repo.FindOrCreate(context.Background(), window)
		if err != nil {
			t.Fatalf("FindOrCreate: %v", err)
		}
		if batch.ID != "batch-winner" {
			t.Fatalf("got batch %q, want the concurrent winner's record", batch.ID)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("unmet expectations: %v", err)
		}
	})

	t.Run("non-duplicate creation errors surface", func(t *testing.T) {
		t.Parallel()
		repo, mock := newMockBatchRepo(t)

		mock.ExpectQuery(`SELECT \* FROM "batches"`).
			WillReturnRows(sqlmock.NewRows(batchColumns))
		mock.ExpectExec(`INSERT INTO "batches"`).
			WillReturnError(errors.New("connection refused"))

		if _, err := repo.FindOrCreate(context.Background(), window); err == nil {
			t.Fatal("expected the creation error to surface")
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("unmet expectations: %v", err)
		}
	})
}

func TestGormBatchRepoConfirm(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	t.Run("guarded update confirms an open batch", func(t *testing.T) {
		t.Parallel()
		repo, mock := newMockBatchRepo(t)
		actor := "ops-olga"

		mock.ExpectExec(`UPDATE "batches"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`SELECT \* FROM "batches"`).
			WillReturnRows(batchRow("batch-1", domain.BatchStatusConfirmed, &actor))

		batch, err := repo.Confirm(context.Background(), "batch-1", &actor, at)
		if err != nil {
			t.Fatalf("Confirm: %v", err)
		}
		if batch.Status != domain.BatchStatusConfirmed {
			t.Fatalf("status = %s, want CONFIRMED", batch.Status)
		}
		if batch.ConfirmedBy == nil || *batch.ConfirmedBy != "ops-olga" {
			t.Fatalf("confirmedBy = %v, want ops-olga", batch.ConfirmedBy)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("unmet expectations: %v", err)
		}
	})

	t.Run("lost status race reports the current status", func(t *testing.T) {
		t.Parallel()
		repo, mock := newMockBatchRepo(t)

		mock.ExpectExec(`UPDATE "batches"`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT \* FROM "batches"`).
			WillReturnRows(batchRow("batch-1", domain.BatchStatusConfirmed, nil))

		_, err := repo.Confirm(context.Background(), "batch-1", nil, at)
		if !errors.Is(err, domain.ErrStateConflict) {
			t.Fatalf("err = %v, want ErrStateConflict", err)
		}
		if !strings.Contains(err.Error(), "already confirmed") {
			t.Fatalf("err = %q, want the current status in the message", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("unmet expectations: %v", err)
		}
	})

	t.Run("missing batch maps to not found", func(t *testing.T) {
		t.Parallel()
		repo, mock := newMockBatchRepo(t)

		mock.ExpectExec(`UPDATE "batches"`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT \* FROM "batches"`).
			WillReturnRows(sqlmock.NewRows(batchColumns))

		_, err := repo.Confirm(context.Background(), "no-such-batch", nil, at)
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("unmet expectations: %v", err)
		}
	})
}
