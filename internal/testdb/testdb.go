// Package testdb opens throwaway sqlite databases for package tests.
package testdb

import (
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Skotchmaster/headphones_shop/internal/models"
)

// New returns a migrated database backed by a file in t.TempDir, so every
// pooled connection sees the same data.
func New(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "shop.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return db
}

func SeedProduct(t *testing.T, db *gorm.DB, name string, price float64, stock int) models.Product {
	t.Helper()

	p := models.Product{
		Name:          name,
		Description:   name + " description",
		Price:         price,
		StockQuantity: stock,
		ImageURL:      "/assets/" + name + ".png",
	}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("failed to seed product: %v", err)
	}
	return p
}
