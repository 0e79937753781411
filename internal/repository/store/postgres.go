package store

import (
	"context"
	"errors"

	"pennycentral/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) ListByState(ctx context.Context, state string) ([]domain.Store, error) {
	const q = `
SELECT store_number, name, address, city, state, zip, latitude, longitude
FROM stores
WHERE $1::text = '' OR state = $1::text
ORDER BY state, city, store_number
`
	rows, err := r.pool.Query(ctx, q, state)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stores := []domain.Store{}
	for rows.Next() {
		s, err := scanStore(rows)
		if err != nil {
			return nil, err
		}
		stores = append(stores, *s)
	}
	return stores, rows.Err()
}

func (r *postgresRepo) GetByNumber(ctx context.Context, number string) (*domain.Store, error) {
	const q = `
SELECT store_number, name, address, city, state, zip, latitude, longitude
FROM stores
WHERE store_number = $1
`
	s, err := scanStore(r.pool.QueryRow(ctx, q, number))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, s domain.Store) error {
	const q = `
INSERT INTO stores (store_number, name, address, city, state, zip, latitude, longitude)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (store_number) DO UPDATE SET
    name = EXCLUDED.name,
    address = EXCLUDED.address,
    city = EXCLUDED.city,
    state = EXCLUDED.state,
    zip = EXCLUDED.zip,
    latitude = EXCLUDED.latitude,
    longitude = EXCLUDED.longitude
`
	_, err := r.pool.Exec(ctx, q, s.Number, s.Name, s.Address, s.City, s.State, s.Zip, s.Latitude, s.Longitude)
	return err
}

func scanStore(row pgx.Row) (*domain.Store, error) {
	var s domain.Store
	if err := row.Scan(&s.Number, &s.Name, &s.Address, &s.City, &s.State, &s.Zip, &s.Latitude, &s.Longitude); err != nil {
		return nil, err
	}
	return &s, nil
}
