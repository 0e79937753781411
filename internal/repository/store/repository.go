package store

import (
	"context"

	"pennycentral/internal/domain"
)

type Repository interface {
	ListByState(ctx context.Context, state string) ([]domain.Store, error)
	GetByNumber(ctx context.Context, number string) (*domain.Store, error)
	Upsert(ctx context.Context, store domain.Store) error
}
