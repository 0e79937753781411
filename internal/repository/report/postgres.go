package report

import (
	"context"
	"errors"
	"io"
	"log"

	"pennycentral/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const reportColumns = `id::text, sku, item_name, COALESCE(brand, ''), COALESCE(store_number, ''), state, COALESCE(image_url, ''), COALESCE(notes, ''), status, created_at, reviewed_at`

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

func (r *postgresRepo) Create(ctx context.Context, rep domain.Report) (*domain.Report, error) {
	const q = `
INSERT INTO reports (sku, item_name, brand, store_number, state, image_url, notes)
VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, NULLIF($6, ''), NULLIF($7, ''))
RETURNING ` + reportColumns
	created, err := scanReport(r.pool.QueryRow(ctx, q, rep.SKU, rep.ItemName, rep.Brand, rep.StoreNumber, rep.State, rep.ImageURL, rep.Notes))
	if err != nil {
		r.logger.Printf("report repo: create sku=%s error=%v", rep.SKU, err)
		return nil, err
	}
	r.logger.Printf("report repo: created id=%s sku=%s state=%s", created.ID, created.SKU, created.State)
	return created, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Report, error) {
	q := `SELECT ` + reportColumns + ` FROM reports WHERE id = $1`
	rep, err := scanReport(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("report repo: get id=%s error=%v", id, err)
		return nil, err
	}
	return rep, nil
}

func (r *postgresRepo) ListByStatus(ctx context.Context, status domain.ReportStatus, limit int) ([]domain.Report, error) {
	q := `SELECT ` + reportColumns + ` FROM reports WHERE status = $1 ORDER BY created_at DESC LIMIT $2`
	rows, err := r.pool.Query(ctx, q, string(status), limit)
	if err != nil {
		r.logger.Printf("report repo: list status=%s error=%v", status, err)
		return nil, err
	}
	defer rows.Close()

	result := []domain.Report{}
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *rep)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	r.logger.Printf("report repo: list status=%s count=%d", status, len(result))
	return result, nil
}

func (r *postgresRepo) MarkReviewed(ctx context.Context, id string, status domain.ReportStatus) (*domain.Report, error) {
	q := `
UPDATE reports SET status = $2, reviewed_at = now()
WHERE id = $1 AND status = 'pending'
RETURNING ` + reportColumns
	rep, err := scanReport(r.pool.QueryRow(ctx, q, id, string(status)))
	if err == nil {
		r.logger.Printf("report repo: reviewed id=%s status=%s", id, status)
		return rep, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		r.logger.Printf("report repo: review id=%s error=%v", id, err)
		return nil, err
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return nil, domain.ErrConflict
}

func (r *postgresRepo) Reopen(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE reports SET status = 'pending', reviewed_at = NULL WHERE id = $1 AND status = 'approved'`, id)
	if err != nil {
		r.logger.Printf("report repo: reopen id=%s error=%v", id, err)
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	r.logger.Printf("report repo: reopened id=%s", id)
	return nil
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM reports WHERE id = $1`, id)
	if err != nil {
		r.logger.Printf("report repo: delete id=%s error=%v", id, err)
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanReport(row pgx.Row) (*domain.Report, error) {
	var rep domain.Report
	var status string
	err := row.Scan(&rep.ID, &rep.SKU, &rep.ItemName, &rep.Brand, &rep.StoreNumber, &rep.State,
		&rep.ImageURL, &rep.Notes, &status, &rep.CreatedAt, &rep.ReviewedAt)
	if err != nil {
		return nil, err
	}
	rep.Status = domain.ReportStatus(status)
	return &rep, nil
}
