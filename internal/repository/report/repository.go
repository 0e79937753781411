package report

import (
	"context"

	"pennycentral/internal/domain"
)

type Repository interface {
	Create(ctx context.Context, report domain.Report) (*domain.Report, error)
	GetByID(ctx context.Context, id string) (*domain.Report, error)
	ListByStatus(ctx context.Context, status domain.ReportStatus, limit int) ([]domain.Report, error)
	// MarkReviewed moves a pending report to status. A report that is no
	// longer pending yields domain.ErrConflict.
	MarkReviewed(ctx context.Context, id string, status domain.ReportStatus) (*domain.Report, error)
	// Reopen returns an approved report to pending. It undoes an approval
	// whose item merge failed.
	Reopen(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}
