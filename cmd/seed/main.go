// Command seed prepares a database for a fresh deployment: it applies the
// schema, upserts the admin account and loads the demo catalog.
package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"time"

	_ "github.com/lib/pq"

	"github.com/Skotchmaster/headphones_shop/internal/config"
	"github.com/Skotchmaster/headphones_shop/internal/db"
	"github.com/Skotchmaster/headphones_shop/internal/es"
	"github.com/Skotchmaster/headphones_shop/internal/hash"
	"github.com/Skotchmaster/headphones_shop/internal/logging"
	"github.com/Skotchmaster/headphones_shop/internal/models"
	"github.com/Skotchmaster/headphones_shop/internal/search"
)

var catalog = []models.Product{
	{Name: "Aurora Studio", Description: "Closed-back studio monitors with a flat response", Price: 199.99, StockQuantity: 25, ImageURL: "/assets/aurora-studio.png"},
	{Name: "Pulse Sport", Description: "Sweat-resistant wireless earbuds", Price: 89.50, StockQuantity: 60, ImageURL: "/assets/pulse-sport.png"},
	{Name: "Nimbus ANC", Description: "Over-ear noise cancelling headphones with 30h battery", Price: 279.00, StockQuantity: 15, ImageURL: "/assets/nimbus-anc.png"},
	{Name: "Drift Open", Description: "Open-back reference headphones for mixing", Price: 349.00, StockQuantity: 8, ImageURL: "/assets/drift-open.png"},
	{Name: "Echo Mini", Description: "Compact on-ear headphones for travel", Price: 59.99, StockQuantity: 40, ImageURL: "/assets/echo-mini.png"},
}

const upsertAdmin = `
INSERT INTO admins (username, password_hash, created_at)
VALUES ($1, $2, $3)
ON CONFLICT (username) DO UPDATE SET password_hash = EXCLUDED.password_hash`

const insertProduct = `
INSERT INTO headphones (name, description, price, stock_quantity, image_url)
VALUES ($1, $2, $3, $4, $5)
RETURNING id`

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger := logging.New(cfg.LogLevel)

	dsn := cfg.DSN()
	config.MustNonEmpty(dsn, "DATABASE_URL or DB_NAME")

	adminUser := config.EnvDefault("SEED_ADMIN_USERNAME", "admin")
	adminPassword := os.Getenv("SEED_ADMIN_PASSWORD")
	config.MustNonEmpty(adminPassword, "SEED_ADMIN_PASSWORD")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	gdb, err := db.Open(ctx, dsn)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}
	if err := db.Migrate(ctx, gdb); err != nil {
		log.Fatalf("database migrate: %v", err)
	}
	if err := db.Close(gdb); err != nil {
		logger.Warn("db close error", "error", err)
	}

	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("open postgres: %v", err)
	}
	defer sqlDB.Close()

	hashed, err := hash.HashPassword(adminPassword)
	if err != nil {
		log.Fatalf("hash admin password: %v", err)
	}
	if _, err := sqlDB.ExecContext(ctx, upsertAdmin, adminUser, hashed, time.Now().UTC()); err != nil {
		log.Fatalf("upsert admin: %v", err)
	}
	logger.Info("admin_seeded", "username", adminUser)

	var existing int
	if err := sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM headphones`).Scan(&existing); err != nil {
		log.Fatalf("count products: %v", err)
	}
	if existing > 0 {
		logger.Info("catalog_present", "products", existing)
		return
	}

	tx, err := sqlDB.BeginTx(ctx, nil)
	if err != nil {
		log.Fatalf("begin: %v", err)
	}
	seeded := make([]models.Product, 0, len(catalog))
	for _, p := range catalog {
		if err := tx.QueryRowContext(ctx, insertProduct, p.Name, p.Description, p.Price, p.StockQuantity, p.ImageURL).Scan(&p.ID); err != nil {
			_ = tx.Rollback()
			log.Fatalf("insert product %q: %v", p.Name, err)
		}
		seeded = append(seeded, p)
	}
	if err := tx.Commit(); err != nil {
		log.Fatalf("commit: %v", err)
	}
	logger.Info("catalog_seeded", "products", len(seeded))

	if cfg.ESURL == "" {
		return
	}
	esClient, err := es.NewClient(cfg)
	if err != nil {
		logger.Error("search indexing skipped", "error", err)
		return
	}
	idx := &search.Searcher{ES: esClient, Index: cfg.ESIndex}
	for _, p := range seeded {
		if err := idx.IndexProduct(ctx, p); err != nil {
			logger.Error("index product failed", "product_id", p.ID, "error", err)
		}
	}
	logger.Info("catalog_indexed", "index", cfg.ESIndex)
}
