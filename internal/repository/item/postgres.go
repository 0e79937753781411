package item

import (
	"context"
	"errors"
	"io"
	"log"

	"pennycentral/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const itemColumns = `id::text, sku, name, COALESCE(brand, ''), COALESCE(image_url, ''), status, report_count, first_seen_at, last_seen_at, created_at, updated_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) List(ctx context.Context, filter domain.ItemFilter) ([]domain.Item, error) {
	const q = `
SELECT ` + itemColumns + `
FROM penny_items i
WHERE i.status = 'active'
  AND ($1::text = '' OR EXISTS (
      SELECT 1 FROM reports rp
      WHERE rp.sku = i.sku AND rp.state = $1::text AND rp.status = 'approved'
  ))
ORDER BY i.last_seen_at DESC, i.sku
LIMIT $2 OFFSET $3
`
	rows, err := r.pool.Query(ctx, q, filter.State, filter.Limit, filter.Offset)
	if err != nil {
		r.logger.Printf("item repo: list state=%s error=%v", filter.State, err)
		return nil, err
	}
	defer rows.Close()

	result := []domain.Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *it)
	}
	if err := rows.Err(); err != nil {
		r.logger.Printf("item repo: list rows state=%s error=%v", filter.State, err)
		return nil, err
	}
	r.logger.Printf("item repo: list state=%s count=%d", filter.State, len(result))
	return result, nil
}

func (r *postgresRepo) GetBySKU(ctx context.Context, sku string) (*domain.Item, error) {
	q := `SELECT ` + itemColumns + ` FROM penny_items WHERE sku = $1`
	it, err := scanItem(r.pool.QueryRow(ctx, q, sku))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("item repo: get sku=%s error=%v", sku, err)
		return nil, err
	}
	return it, nil
}

func (r *postgresRepo) Create(ctx context.Context, item domain.Item) (*domain.Item, error) {
	const q = `
INSERT INTO penny_items (sku, name, brand, image_url, status, report_count, first_seen_at, last_seen_at)
VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6, COALESCE($7, now()), COALESCE($7, now()))
RETURNING ` + itemColumns
	status := item.Status
	if status == "" {
		status = domain.ItemActive
	}
	seen := nullableTime(item)
	created, err := scanItem(r.pool.QueryRow(ctx, q, item.SKU, item.Name, item.Brand, item.ImageURL, status, item.ReportCount, seen))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Printf("item repo: create sku=%s error=%v", item.SKU, err)
		return nil, err
	}
	r.logger.Printf("item repo: created sku=%s id=%s", created.SKU, created.ID)
	return created, nil
}

func (r *postgresRepo) Update(ctx context.Context, item domain.Item, reportDelta int) (*domain.Item, error) {
	const q = `
UPDATE penny_items SET
    name = $2,
    brand = NULLIF($3, ''),
    image_url = NULLIF($4, ''),
    status = $5,
    report_count = report_count + $6,
    last_seen_at = GREATEST(last_seen_at, COALESCE($7, last_seen_at)),
    updated_at = now()
WHERE sku = $1
RETURNING ` + itemColumns
	updated, err := scanItem(r.pool.QueryRow(ctx, q, item.SKU, item.Name, item.Brand, item.ImageURL, item.Status, reportDelta, nullableTime(item)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("item repo: update sku=%s error=%v", item.SKU, err)
		return nil, err
	}
	r.logger.Printf("item repo: updated sku=%s reports=%d", updated.SKU, updated.ReportCount)
	return updated, nil
}

func (r *postgresRepo) Delete(ctx context.Context, sku string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM penny_items WHERE sku = $1`, sku)
	if err != nil {
		r.logger.Printf("item repo: delete sku=%s error=%v", sku, err)
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	r.logger.Printf("item repo: deleted sku=%s", sku)
	return nil
}

func scanItem(row pgx.Row) (*domain.Item, error) {
	var it domain.Item
	var status string
	err := row.Scan(&it.ID, &it.SKU, &it.Name, &it.Brand, &it.ImageURL, &status, &it.ReportCount,
		&it.FirstSeenAt, &it.LastSeenAt, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	it.Status = domain.ItemStatus(status)
	return &it, nil
}

func nullableTime(item domain.Item) any {
	if item.LastSeenAt.IsZero() {
		return nil
	}
	return item.LastSeenAt
}
