package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/headphones_shop/internal/models"
)

// PlaceOrder reserves stock for every line and records the order, its lines and
// a pending payment. Any shortage rolls the whole thing back.
func (r *GormRepo) PlaceOrder(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, it := range items {
			res := tx.Model(&models.Product{}).
				Where("id = ? AND stock_quantity >= ?", it.ProductID, it.Quantity).
				Update("stock_quantity", gorm.Expr("stock_quantity - ?", it.Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				var p models.Product
				if err := tx.First(&p, it.ProductID).Error; err != nil {
					return err
				}
				return &StockShortage{ProductID: p.ID, Name: p.Name, Available: p.StockQuantity, Requested: it.Quantity}
			}
		}

		if err := tx.Create(order).Error; err != nil {
			return err
		}

		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}

		payment := models.Payment{OrderID: order.ID, PaymentStatus: models.PaymentPending}
		return tx.Create(&payment).Error
	})
}

func (r *GormRepo) OrderByIntent(ctx context.Context, intentID string) (*models.Order, error) {
	var order models.Order
	err := r.DB.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Payment").
		Where("payment_intent_id = ?", intentID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// MarkPaid moves a not-yet-paid order and its payment to paid/succeeded in one
// transaction and empties the cart that produced it. It reports whether anything
// changed; a repeat call is a no-op.
func (r *GormRepo) MarkPaid(ctx context.Context, intentID string, paidAt time.Time) (bool, error) {
	changed := false
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("payment_intent_id = ? AND status <> ?", intentID, models.OrderPaid).
			Updates(map[string]any{"status": models.OrderPaid, "updated_at": paidAt})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		var order models.Order
		if err := tx.Where("payment_intent_id = ?", intentID).First(&order).Error; err != nil {
			return err
		}

		pay := tx.Model(&models.Payment{}).
			Where("order_id = ?", order.ID).
			Updates(map[string]any{"payment_status": models.PaymentSucceeded, "payment_date": paidAt})
		if pay.Error != nil {
			return pay.Error
		}
		if pay.RowsAffected == 0 {
			return errors.New("payment row missing for order")
		}

		if order.CartSessionID != nil {
			if err := clearSession(tx, *order.CartSessionID); err != nil {
				return err
			}
		}

		changed = true
		return nil
	})
	return changed, err
}

// MarkCanceled closes a pending order whose intent was canceled at the provider
// and returns its reserved stock.
func (r *GormRepo) MarkCanceled(ctx context.Context, intentID string, at time.Time) (bool, error) {
	changed := false
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("payment_intent_id = ? AND status = ?", intentID, models.OrderPending).
			Updates(map[string]any{"status": models.OrderCanceled, "updated_at": at})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		var order models.Order
		if err := tx.Preload("Items").Where("payment_intent_id = ?", intentID).First(&order).Error; err != nil {
			return err
		}

		pay := tx.Model(&models.Payment{}).
			Where("order_id = ?", order.ID).
			Update("payment_status", models.PaymentFailed)
		if pay.Error != nil {
			return pay.Error
		}
		if pay.RowsAffected == 0 {
			return errors.New("payment row missing for order")
		}

		for _, it := range order.Items {
			if err := tx.Model(&models.Product{}).
				Where("id = ?", it.ProductID).
				Update("stock_quantity", gorm.Expr("stock_quantity + ?", it.Quantity)).Error; err != nil {
				return err
			}
		}

		changed = true
		return nil
	})
	return changed, err
}

// PendingIntentsForSession lists the intents of orders still holding stock for
// one cart session, oldest first.
func (r *GormRepo) PendingIntentsForSession(ctx context.Context, sessionID uint) ([]string, error) {
	var ids []string
	err := r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("cart_session_id = ? AND status = ?", sessionID, models.OrderPending).
		Order("id ASC").
		Pluck("payment_intent_id", &ids).Error
	return ids, err
}

// PendingIntentsBefore lists the intents of pending orders created before the
// cutoff, oldest first.
func (r *GormRepo) PendingIntentsBefore(ctx context.Context, cutoff time.Time, limit int) ([]string, error) {
	var ids []string
	err := r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("status = ? AND created_at < ?", models.OrderPending, cutoff).
		Order("id ASC").
		Limit(limit).
		Pluck("payment_intent_id", &ids).Error
	return ids, err
}
