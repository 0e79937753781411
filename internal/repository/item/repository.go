package item

import (
	"context"

	"pennycentral/internal/domain"
)

type Repository interface {
	List(ctx context.Context, filter domain.ItemFilter) ([]domain.Item, error)
	GetBySKU(ctx context.Context, sku string) (*domain.Item, error)
	Create(ctx context.Context, item domain.Item) (*domain.Item, error)
	// Update overwrites the editable columns and adds reportDelta to the
	// stored report_count. item.ReportCount is ignored.
	Update(ctx context.Context, item domain.Item, reportDelta int) (*domain.Item, error)
	Delete(ctx context.Context, sku string) error
}
