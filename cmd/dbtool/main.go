package main

import (
	"context"
	"database/sql"
	"log"
	"shipping-estimate-service/internal/adapters/cache"
	"shipping-estimate-service/internal/adapters/repositories"
	"shipping-estimate-service/internal/config"
	"shipping-estimate-service/internal/domain"
	"shipping-estimate-service/internal/platform/db"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// dbtool prepares the PostgreSQL geocode cache: creates the schema and
// seeds it with the warehouse locations.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	databaseURL := config.Get("DATABASE_URL", "")
	if strings.TrimSpace(databaseURL) == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := db.Open(databaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	seedPath := config.Get("WAREHOUSES_PATH", "")
	if err := initAndSeed(db, seedPath); err != nil {
		log.Fatal(err)
	}
}

func initAndSeed(db *sql.DB, seedPath string) error {
	log.Println("Initializing database schema...")
	if err := repositories.InitSchema(db, repositories.Postgres); err != nil {
		log.Fatalf("schema initialization failed: %v", err)
	}
	log.Println("Schema ready.")

	warehouses := domain.DefaultWarehouses()
	if seedPath != "" {
		var err error
		warehouses, err = repositories.LoadWarehouses(seedPath)
		if err != nil {
			log.Fatalf("loading warehouses failed: %v", err)
		}
	}

	log.Println("Seeding geocode cache...")
	gc := cache.NewSQLGeocodeCache(db, zap.NewNop())
	if err := repositories.SeedGeocodeCache(context.Background(), gc, warehouses); err != nil {
		log.Fatalf("seeding failed: %v", err)
	}
	log.Printf("Seeding complete (%d warehouses).", len(warehouses))

	return nil
}
