package main

import (
	"context"
	"flag"
	"log"
	"os"

	"pennycentral/internal/config"
	"pennycentral/internal/db"
	"pennycentral/internal/migrate"
)

func main() {
	var (
		down    int
		version bool
	)
	flag.IntVar(&down, "down", 0, "Roll back this many migrations instead of applying")
	flag.BoolVar(&version, "version", false, "Print the current schema version and exit")
	flag.Parse()

	logger := log.New(os.Stdout, "[migrate] ", log.LstdFlags|log.LUTC|log.Lshortfile)
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

	switch {
	case version:
		v, dirty, err := migrate.Version(ctx, pool)
		if err != nil {
			logger.Fatalf("read version: %v", err)
		}
		logger.Printf("schema version %d (dirty=%t)", v, dirty)
	case down > 0:
		if err := migrate.Rollback(ctx, pool, down); err != nil {
			logger.Fatalf("rollback migrations: %v", err)
		}
		logger.Printf("rolled back %d migration(s)", down)
	default:
		if err := migrate.Apply(ctx, pool); err != nil {
			logger.Fatalf("apply migrations: %v", err)
		}
		logger.Println("migrations applied")
	}
}
