package repo

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	// ErrNotOwned means the scoped mutation matched no row for the caller's cart session.
	ErrNotOwned = errors.New("cart item not found or doesn't belong to session")
	// ErrStale means a conditional update lost a race with another writer.
	ErrStale = errors.New("row changed concurrently")
)

// StockShortage is returned when a conditional stock decrement matched nothing.
type StockShortage struct {
	ProductID uint
	Name      string
	Available int
	Requested int
}

func (e *StockShortage) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: available %d, requested %d", e.ProductID, e.Available, e.Requested)
}

type GormRepo struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}
