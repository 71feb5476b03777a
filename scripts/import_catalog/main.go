package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/mroshb/astro_bot/internal/catalog"
	"github.com/mroshb/astro_bot/internal/config"
	"github.com/mroshb/astro_bot/internal/database"
	"github.com/mroshb/astro_bot/internal/repositories"
	"github.com/mroshb/astro_bot/pkg/logger"
)

func main() {
	path := flag.String("file", "data/dsos.json", "catalog file (.json, .jsonc, .yaml, .yml or .xlsx)")
	flag.Parse()

	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.LoadDatabaseConfig()
	if err != nil {
		log.Fatal(err)
	}
	logger.Init("info", cfg.AppEnv)
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// Validate the whole file before touching the database
	cat, err := catalog.Load(ctx, catalog.FileSource{Path: *path})
	if err != nil {
		log.Fatalf("invalid catalog %s: %v", *path, err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal("failed to connect database:", err)
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db); err != nil {
		log.Fatal(err)
	}

	repo := repositories.NewCatalogRepository(db)
	imported := 0
	for _, entry := range cat.Entries() {
		if err := repo.Upsert(ctx, *entry); err != nil {
			fmt.Printf("Error importing %s: %v\n", entry.Name, err)
			continue
		}
		imported++
	}

	total, err := repo.Count(ctx)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Imported %d of %d entries from %s (%d rows in catalog_entries).\n", imported, cat.Len(), *path, total)
}
