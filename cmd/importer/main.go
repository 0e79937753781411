package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"pennycentral/internal/config"
	"pennycentral/internal/db"
	"pennycentral/internal/events"
	"pennycentral/internal/importer"
	itemrepo "pennycentral/internal/repository/item"
	itemsvc "pennycentral/internal/service/item"
	"pennycentral/internal/sku"
)

func main() {
	var filePath string
	flag.StringVar(&filePath, "file", "", "Path to scraped item CSV (sku,name,brand,image_url)")
	flag.Parse()

	if filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	logger := log.New(os.Stdout, "[importer] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	f, err := os.Open(filePath)
	if err != nil {
		logger.Fatalf("open file: %v", err)
	}
	defer f.Close()

	items := itemsvc.New(itemrepo.NewPostgres(pool, nil), itemsvc.Options{
		Bus:    events.NewBus(nil),
		SKU:    sku.NewValidator(cfg.SKU.InternetPrefixes...),
		Logger: logger,
	})
	imp := importer.NewCSVImporter(f, items, logger)

	start := time.Now()
	sum, err := imp.Run(ctx)
	if err != nil {
		logger.Fatalf("import failed: %v", err)
	}

	fmt.Printf("Imported %s: %d created, %d updated, %d skipped in %s\n",
		filePath, sum.Created, sum.Updated, sum.Skipped, time.Since(start).Truncate(time.Millisecond))
}
