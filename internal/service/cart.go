package service

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/headphones_shop/internal/models"
	"github.com/Skotchmaster/headphones_shop/internal/repo"
)

const maxSessionIDLen = 128

type CartService struct {
	Repo   *repo.GormRepo
	Events EventPublisher
}

func checkSessionID(sessionID string) (string, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return "", validation("Session ID is required")
	}
	if len(sessionID) > maxSessionIDLen {
		return "", validation("Session ID is too long")
	}
	return sessionID, nil
}

func checkItemID(id uint) error {
	if id == 0 {
		return validation("Cart item ID is required")
	}
	return nil
}

func checkQuantity(q int) error {
	if q <= 0 {
		return validation("Quantity must be a positive integer")
	}
	return nil
}

func translateCartErr(err error) error {
	switch {
	case errors.Is(err, repo.ErrNotOwned):
		return notFound("Cart item not found or doesn't belong to session")
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound("Product not found")
	}
	return err
}

func (s *CartService) GetCart(ctx context.Context, sessionID string) ([]models.CartLine, error) {
	sessionID, err := checkSessionID(sessionID)
	if err != nil {
		return nil, err
	}
	return s.Repo.Snapshot(ctx, sessionID)
}

func (s *CartService) AddItem(ctx context.Context, sessionID string, productID uint, quantity int) ([]models.CartLine, error) {
	sessionID, err := checkSessionID(sessionID)
	if err != nil {
		return nil, err
	}
	if productID == 0 {
		return nil, validation("Product ID is required")
	}
	if err := checkQuantity(quantity); err != nil {
		return nil, err
	}

	lines, err := s.Repo.AddItem(ctx, sessionID, productID, quantity)
	if err != nil {
		return nil, translateCartErr(err)
	}

	publish(ctx, s.Events, TopicCart, sessionID, map[string]any{
		"type":      "cart_item_added",
		"productID": productID,
		"quantity":  quantity,
	})
	return lines, nil
}

// UpdateItem sets the quantity outright. Stock is not rechecked here; it is
// enforced when the order reserves it.
func (s *CartService) UpdateItem(ctx context.Context, sessionID string, cartItemID uint, quantity int) ([]models.CartLine, error) {
	sessionID, err := checkSessionID(sessionID)
	if err != nil {
		return nil, err
	}
	if err := checkItemID(cartItemID); err != nil {
		return nil, err
	}
	if err := checkQuantity(quantity); err != nil {
		return nil, err
	}

	lines, err := s.Repo.UpdateItem(ctx, sessionID, cartItemID, quantity)
	if err != nil {
		return nil, translateCartErr(err)
	}

	publish(ctx, s.Events, TopicCart, sessionID, map[string]any{
		"type":       "cart_item_updated",
		"cartItemID": cartItemID,
		"quantity":   quantity,
	})
	return lines, nil
}

func (s *CartService) RemoveItem(ctx context.Context, sessionID string, cartItemID uint) ([]models.CartLine, error) {
	sessionID, err := checkSessionID(sessionID)
	if err != nil {
		return nil, err
	}
	if err := checkItemID(cartItemID); err != nil {
		return nil, err
	}

	lines, err := s.Repo.RemoveItem(ctx, sessionID, cartItemID)
	if err != nil {
		return nil, translateCartErr(err)
	}

	publish(ctx, s.Events, TopicCart, sessionID, map[string]any{
		"type":       "cart_item_removed",
		"cartItemID": cartItemID,
	})
	return lines, nil
}

func (s *CartService) Clear(ctx context.Context, sessionID string) error {
	sessionID, err := checkSessionID(sessionID)
	if err != nil {
		return err
	}

	removed, err := s.Repo.Clear(ctx, sessionID)
	if err != nil {
		return err
	}

	publish(ctx, s.Events, TopicCart, sessionID, map[string]any{
		"type":    "cart_cleared",
		"removed": removed,
	})
	return nil
}
