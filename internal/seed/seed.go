package seed

import (
	"context"
	"fmt"

	"pennycentral/internal/domain"
	storerepo "pennycentral/internal/repository/store"

	"github.com/jackc/pgx/v5/pgxpool"
)

type itemSeed struct {
	SKU      string
	Name     string
	Brand    string
	ImageURL string
}

var stores = []domain.Store{
	{Number: "0121", Name: "Cumberland", Address: "2450 Cumberland Pkwy SE", City: "Atlanta", State: "GA", Zip: "30339", Latitude: 33.8756, Longitude: -84.4654},
	{Number: "0589", Name: "Mesquite", Address: "1820 N Town E Blvd", City: "Mesquite", State: "TX", Zip: "75150", Latitude: 32.8134, Longitude: -96.6259},
	{Number: "6970", Name: "Fort Worth Alliance", Address: "9501 N Fwy", City: "Fort Worth", State: "TX", Zip: "76177", Latitude: 32.9087, Longitude: -97.3187},
}

var items = []itemSeed{
	{
		SKU:      "1001234567",
		Name:     "Ryobi ONE+ 18V Cordless Drill Driver Kit PCL206K1",
		Brand:    "Ryobi",
		ImageURL: "https://images.thdstatic.com/productImages/0a1b/svn/ryobi-power-drills-pcl206k1-64_600.jpg",
	},
	{
		SKU:   "314159",
		Name:  "Husky 17 in. Plastic Tool Box",
		Brand: "Husky",
	},
}

// Apply inserts demo stores and items for manual testing. It is idempotent via ON CONFLICT.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	repo := storerepo.NewPostgres(pool)
	for _, s := range stores {
		if err := repo.Upsert(ctx, s); err != nil {
			return fmt.Errorf("upsert store %s: %w", s.Number, err)
		}
	}

	for _, it := range items {
		if err := insertItem(ctx, pool, it); err != nil {
			return fmt.Errorf("insert item %s: %w", it.SKU, err)
		}
	}
	return nil
}

func insertItem(ctx context.Context, pool *pgxpool.Pool, it itemSeed) error {
	const q = `
INSERT INTO penny_items (sku, name, brand, image_url, status, report_count)
VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), 'active', 1)
ON CONFLICT (sku) DO NOTHING
`
	_, err := pool.Exec(ctx, q, it.SKU, it.Name, it.Brand, it.ImageURL)
	return err
}
