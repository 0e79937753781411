package report

import (
	"context"
	"errors"
	"os"
	"testing"

	"pennycentral/internal/domain"
	"pennycentral/internal/migrate"

	"github.com/jackc/pgx/v5/pgxpool"
)

func integrationPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	if err := migrate.Apply(ctx, pool); err != nil {
		pool.Close()
		t.Fatalf("apply migrations: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE reports`); err != nil {
		pool.Close()
		t.Fatalf("truncate reports: %v", err)
	}
	return pool
}

func TestPostgresRepo_ReviewLifecycle(t *testing.T) {
	ctx := context.Background()
	pool := integrationPool(ctx, t)
	defer pool.Close()
	repo := NewPostgres(pool, nil)

	rep, err := repo.Create(ctx, domain.Report{SKU: "123456", ItemName: "Tool Box", State: "GA", StoreNumber: "0121"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rep.Status != domain.ReportPending || rep.ReviewedAt != nil {
		t.Fatalf("new report should be pending and unreviewed: %+v", rep)
	}

	pending, err := repo.ListByStatus(ctx, domain.ReportPending, 10)
	if err != nil || len(pending) != 1 {
		t.Fatalf("list pending: %v, %d", err, len(pending))
	}

	reviewed, err := repo.MarkReviewed(ctx, rep.ID, domain.ReportApproved)
	if err != nil {
		t.Fatalf("mark reviewed: %v", err)
	}
	if reviewed.Status != domain.ReportApproved || reviewed.ReviewedAt == nil {
		t.Fatalf("unexpected reviewed report %+v", reviewed)
	}
	if _, err := repo.MarkReviewed(ctx, rep.ID, domain.ReportRejected); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict on second review, got %v", err)
	}
	if _, err := repo.MarkReviewed(ctx, "00000000-0000-0000-0000-000000000000", domain.ReportRejected); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for unknown id, got %v", err)
	}

	if err := repo.Reopen(ctx, rep.ID); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	again, err := repo.GetByID(ctx, rep.ID)
	if err != nil || again.Status != domain.ReportPending || again.ReviewedAt != nil {
		t.Fatalf("expected pending after reopen, got %+v, %v", again, err)
	}
	if err := repo.Reopen(ctx, rep.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found reopening a pending report, got %v", err)
	}

	if err := repo.Delete(ctx, rep.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, rep.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}
