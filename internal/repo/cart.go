package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/headphones_shop/internal/models"
)

func ownedBy(tx *gorm.DB, userIdentifier string) *gorm.DB {
	return tx.Model(&models.CartSession{}).Select("id").Where("user_identifier = ?", userIdentifier)
}

// Snapshot reads the caller's cart joined with the product display fields.
func (r *GormRepo) Snapshot(ctx context.Context, userIdentifier string) ([]models.CartLine, error) {
	return snapshot(r.DB.WithContext(ctx), userIdentifier)
}

func snapshot(tx *gorm.DB, userIdentifier string) ([]models.CartLine, error) {
	lines := make([]models.CartLine, 0)
	err := tx.Table("cart_items AS ci").
		Select("ci.id AS cart_item_id, ci.product_id, ci.quantity, h.name, h.price, h.stock_quantity, h.image_url").
		Joins("JOIN cart_sessions AS cs ON cs.id = ci.session_id").
		Joins("JOIN headphones AS h ON h.id = ci.product_id").
		Where("cs.user_identifier = ?", userIdentifier).
		Order("ci.id ASC").
		Scan(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *GormRepo) FindCartSession(ctx context.Context, userIdentifier string) (*models.CartSession, error) {
	var s models.CartSession
	if err := r.DB.WithContext(ctx).Where("user_identifier = ?", userIdentifier).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func ensureSession(tx *gorm.DB, userIdentifier string) (*models.CartSession, error) {
	fresh := models.CartSession{UserIdentifier: userIdentifier}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_identifier"}},
		DoNothing: true,
	}).Create(&fresh).Error; err != nil {
		return nil, err
	}

	var s models.CartSession
	if err := tx.Where("user_identifier = ?", userIdentifier).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// mergeLine inserts a cart line or adds to the existing one in a single
// statement, so two first adds of the same product cannot collide.
func mergeLine(tx *gorm.DB, sessionID, productID uint, quantity int) *gorm.DB {
	item := models.CartItem{SessionID: sessionID, ProductID: productID, Quantity: quantity}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"quantity": gorm.Expr("cart_items.quantity + excluded.quantity"),
		}),
	}).Create(&item)
}

// AddItem creates the cart session on first write and merges the quantity into
// an existing line for the same product.
func (r *GormRepo) AddItem(ctx context.Context, userIdentifier string, productID uint, quantity int) ([]models.CartLine, error) {
	var lines []models.CartLine
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.Select("id").First(&product, productID).Error; err != nil {
			return err
		}

		s, err := ensureSession(tx, userIdentifier)
		if err != nil {
			return err
		}

		if err := mergeLine(tx, s.ID, productID, quantity).Error; err != nil {
			return err
		}

		lines, err = snapshot(tx, userIdentifier)
		return err
	})
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *GormRepo) UpdateItem(ctx context.Context, userIdentifier string, cartItemID uint, quantity int) ([]models.CartLine, error) {
	var lines []models.CartLine
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.CartItem{}).
			Where("id = ? AND session_id IN (?)", cartItemID, ownedBy(tx, userIdentifier)).
			Update("quantity", quantity)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotOwned
		}

		var err error
		lines, err = snapshot(tx, userIdentifier)
		return err
	})
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *GormRepo) RemoveItem(ctx context.Context, userIdentifier string, cartItemID uint) ([]models.CartLine, error) {
	var lines []models.CartLine
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND session_id IN (?)", cartItemID, ownedBy(tx, userIdentifier)).
			Delete(&models.CartItem{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotOwned
		}

		var err error
		lines, err = snapshot(tx, userIdentifier)
		return err
	})
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// Clear empties the cart. An unknown session is an empty cart, not an error.
func (r *GormRepo) Clear(ctx context.Context, userIdentifier string) (int64, error) {
	var removed int64
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("session_id IN (?)", ownedBy(tx, userIdentifier)).Delete(&models.CartItem{})
		removed = res.RowsAffected
		return res.Error
	})
	return removed, err
}

// clearSession removes every line of a cart session by its id.
func clearSession(tx *gorm.DB, sessionID uint) error {
	return tx.Where("session_id = ?", sessionID).Delete(&models.CartItem{}).Error
}
