package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/headphones_shop/internal/models"
)

func (r *GormRepo) CreateMessage(ctx context.Context, m *models.ContactMessage) error {
	return r.DB.WithContext(ctx).Create(m).Error
}

// ListMessages returns newest first. An empty status means every message.
func (r *GormRepo) ListMessages(ctx context.Context, status string) ([]models.ContactMessage, error) {
	msgs := make([]models.ContactMessage, 0)
	q := r.DB.WithContext(ctx).Order("message_date DESC, id DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

// MutateMessage reads the message and writes back whatever mutate changed, inside
// one transaction. The write is conditioned on the status that was read, so a
// concurrent transition surfaces as ErrStale instead of being overwritten.
func (r *GormRepo) MutateMessage(ctx context.Context, id uint, mutate func(m *models.ContactMessage) error) (*models.ContactMessage, error) {
	var msg models.ContactMessage
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&msg, id).Error; err != nil {
			return err
		}
		readStatus := msg.Status

		if err := mutate(&msg); err != nil {
			return err
		}

		res := tx.Model(&models.ContactMessage{}).
			Where("id = ? AND status = ?", id, readStatus).
			Updates(map[string]any{
				"status":         msg.Status,
				"admin_response": msg.AdminResponse,
				"responded_at":   msg.RespondedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrStale
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &msg, nil
}
