package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/headphones_shop/internal/logging"
	"github.com/Skotchmaster/headphones_shop/internal/models"
	"github.com/Skotchmaster/headphones_shop/internal/payment"
	"github.com/Skotchmaster/headphones_shop/internal/repo"
)

// The processor caps a metadata value at 500 characters.
const maxMetadataValue = 500

// releaseBatch bounds how many stale reservations one sweep releases.
const releaseBatch = 100

type LineItem struct {
	ProductID uint    `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

type IntentResult struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
	OrderID         uint   `json:"orderId"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
}

type Reconciliation struct {
	Order        *models.Order      `json:"order"`
	Items        []models.OrderItem `json:"items"`
	Payment      *models.Payment    `json:"payment"`
	StripeStatus string             `json:"stripe_status"`
}

type CheckoutService struct {
	Repo     *repo.GormRepo
	Gateway  payment.Gateway
	Events   EventPublisher
	Currency string
	Now      func() time.Time
}

func (s *CheckoutService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// mergeLines folds repeated products into one line and keeps first-seen order.
func mergeLines(items []LineItem) ([]LineItem, error) {
	if len(items) == 0 {
		return nil, validation("Cart is empty")
	}
	byID := make(map[uint]int, len(items))
	out := make([]LineItem, 0, len(items))
	for _, it := range items {
		if it.ProductID == 0 {
			return nil, validation("Product ID is required")
		}
		if it.Quantity <= 0 {
			return nil, validation("Quantity must be a positive integer")
		}
		if i, ok := byID[it.ProductID]; ok {
			out[i].Quantity += it.Quantity
			continue
		}
		byID[it.ProductID] = len(out)
		out = append(out, it)
	}
	return out, nil
}

// MinorUnits sums price*quantity and rounds half away from zero to cents.
func MinorUnits(lines []models.OrderItem) int64 {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(decimal.NewFromFloat(l.Price).Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// Manifest is the compact "id:qty" list stored on the intent for auditing.
func Manifest(lines []models.OrderItem) string {
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		parts = append(parts, strconv.FormatUint(uint64(l.ProductID), 10)+":"+strconv.Itoa(l.Quantity))
	}
	sort.Strings(parts)
	m := strings.Join(parts, ",")
	if len(m) > maxMetadataValue {
		m = m[:maxMetadataValue]
	}
	return m
}

// CreatePaymentIntent prices the cart from the catalog, opens an intent for the
// total and records a pending order that holds the stock. Earlier unpaid intents
// for the same cart are released first so a retried checkout holds stock once.
// If recording fails the intent is canceled so no orphan can be charged.
func (s *CheckoutService) CreatePaymentIntent(ctx context.Context, items []LineItem, cartSessionID string) (*IntentResult, error) {
	l := logging.FromContext(ctx).With("service", "checkout")

	merged, err := mergeLines(items)
	if err != nil {
		return nil, err
	}

	var sessionRef *uint
	if sid := strings.TrimSpace(cartSessionID); sid != "" {
		cs, err := s.Repo.FindCartSession(ctx, sid)
		switch {
		case err == nil:
			sessionRef = &cs.ID
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, err
		}
	}
	if sessionRef != nil {
		s.releaseSession(ctx, *sessionRef)
	}

	ids := make([]uint, 0, len(merged))
	for _, it := range merged {
		ids = append(ids, it.ProductID)
	}
	products, err := s.Repo.ProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	lines := make([]models.OrderItem, 0, len(merged))
	for _, it := range merged {
		p, ok := products[it.ProductID]
		if !ok {
			return nil, notFound(fmt.Sprintf("Product %d not found", it.ProductID))
		}
		if p.StockQuantity < it.Quantity {
			return nil, &StockError{ProductID: p.ID, Name: p.Name, Available: p.StockQuantity, Requested: it.Quantity}
		}
		if it.Price != 0 && !decimal.NewFromFloat(it.Price).Equal(decimal.NewFromFloat(p.Price)) {
			l.Warn("client_price_mismatch", "product_id", p.ID, "client_price", it.Price, "price", p.Price)
		}
		lines = append(lines, models.OrderItem{ProductID: p.ID, Name: p.Name, Price: p.Price, Quantity: it.Quantity})
	}

	amount := MinorUnits(lines)
	if amount <= 0 {
		return nil, validation("Order total must be positive")
	}

	metadata := map[string]string{"items": Manifest(lines)}
	if sessionRef != nil {
		metadata["cart_session"] = strconv.FormatUint(uint64(*sessionRef), 10)
	}

	intent, err := s.Gateway.CreateIntent(ctx, payment.CreateIntentParams{
		Amount:   amount,
		Currency: s.Currency,
		Metadata: metadata,
	})
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		PaymentIntentID: intent.ID,
		CartSessionID:   sessionRef,
		TotalAmount:     amount,
		Currency:        s.Currency,
		Status:          models.OrderPending,
	}
	if err := s.Repo.PlaceOrder(ctx, order, lines); err != nil {
		if cerr := s.Gateway.CancelIntent(context.WithoutCancel(ctx), intent.ID); cerr != nil {
			l.Error("cancel_orphan_intent_failed", "payment_intent", intent.ID, "error", cerr)
		}
		var short *repo.StockShortage
		if errors.As(err, &short) {
			return nil, &StockError{ProductID: short.ProductID, Name: short.Name, Available: short.Available, Requested: short.Requested}
		}
		return nil, err
	}

	publish(ctx, s.Events, TopicOrder, intent.ID, map[string]any{
		"type":    "order_created",
		"orderID": order.ID,
		"amount":  amount,
		"items":   metadata["items"],
	})

	return &IntentResult{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
		OrderID:         order.ID,
		Amount:          amount,
		Currency:        s.Currency,
	}, nil
}

// Reconcile pulls the authoritative intent status and brings the local order in
// line. It writes only when a transition is needed, so repeats are harmless.
func (s *CheckoutService) Reconcile(ctx context.Context, intentID string) (*Reconciliation, error) {
	intentID = strings.TrimSpace(intentID)
	if intentID == "" {
		return nil, validation("Payment intent ID is required")
	}

	intent, err := s.Gateway.GetIntent(ctx, intentID)
	if err != nil {
		if errors.Is(err, payment.ErrIntentNotFound) {
			return nil, notFound("Payment intent not found")
		}
		return nil, err
	}

	if _, err := s.Repo.OrderByIntent(ctx, intentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("Order not found")
		}
		return nil, err
	}

	if _, err := s.apply(ctx, intentID, intent.Status); err != nil {
		return nil, err
	}

	order, err := s.Repo.OrderByIntent(ctx, intentID)
	if err != nil {
		return nil, err
	}
	return &Reconciliation{
		Order:        order,
		Items:        order.Items,
		Payment:      order.Payment,
		StripeStatus: intent.Status,
	}, nil
}

// HandleWebhook applies a verified provider event. Events for unknown orders
// are acknowledged and ignored.
func (s *CheckoutService) HandleWebhook(ctx context.Context, ev *payment.WebhookEvent) error {
	l := logging.FromContext(ctx).With("service", "checkout", "event_id", ev.ID, "event_type", ev.Type)
	if ev.IntentID == "" {
		l.Info("webhook_ignored", "reason", "no_payment_intent")
		return nil
	}

	if _, err := s.Repo.OrderByIntent(ctx, ev.IntentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("webhook_ignored", "reason", "unknown_order", "payment_intent", ev.IntentID)
			return nil
		}
		return err
	}
	_, err := s.apply(ctx, ev.IntentID, ev.Status)
	return err
}

// ReleaseStale cancels pending orders created before the cutoff and returns
// their stock. Failures are logged and left for the next sweep.
func (s *CheckoutService) ReleaseStale(ctx context.Context, before time.Time) (int, error) {
	l := logging.FromContext(ctx).With("service", "checkout")

	ids, err := s.Repo.PendingIntentsBefore(ctx, before, releaseBatch)
	if err != nil {
		return 0, err
	}
	released := 0
	for _, id := range ids {
		ok, err := s.releaseIntent(ctx, id)
		if err != nil {
			l.Error("release_intent_failed", "payment_intent", id, "error", err)
			continue
		}
		if ok {
			released++
		}
	}
	if released > 0 {
		l.Info("stale_reservations_released", "count", released)
	}
	return released, nil
}

func (s *CheckoutService) releaseSession(ctx context.Context, sessionID uint) {
	l := logging.FromContext(ctx).With("service", "checkout", "cart_session", sessionID)

	ids, err := s.Repo.PendingIntentsForSession(ctx, sessionID)
	if err != nil {
		l.Error("pending_intents_lookup_failed", "error", err)
		return
	}
	for _, id := range ids {
		if _, err := s.releaseIntent(ctx, id); err != nil {
			l.Error("release_intent_failed", "payment_intent", id, "error", err)
		}
	}
}

// releaseIntent cancels an unpaid intent at the provider, then cancels the order
// and restocks. An intent the provider refuses to cancel is reconciled to its
// real status instead.
func (s *CheckoutService) releaseIntent(ctx context.Context, intentID string) (bool, error) {
	err := s.Gateway.CancelIntent(ctx, intentID)
	if err != nil && !errors.Is(err, payment.ErrIntentNotFound) {
		intent, gerr := s.Gateway.GetIntent(ctx, intentID)
		if gerr != nil {
			return false, fmt.Errorf("cancel intent: %w", err)
		}
		if intent.Status != payment.StatusCanceled {
			_, aerr := s.apply(ctx, intentID, intent.Status)
			return false, aerr
		}
	}
	return s.apply(ctx, intentID, payment.StatusCanceled)
}

// apply moves the local order to match a provider status and reports whether
// the order changed.
func (s *CheckoutService) apply(ctx context.Context, intentID, status string) (bool, error) {
	l := logging.FromContext(ctx).With("service", "checkout", "payment_intent", intentID)

	switch status {
	case payment.StatusSucceeded:
		changed, err := s.Repo.MarkPaid(ctx, intentID, s.now())
		if err != nil {
			return false, err
		}
		if changed {
			l.Info("order_paid")
			publish(ctx, s.Events, TopicOrder, intentID, map[string]any{"type": "order_paid", "paymentIntent": intentID})
		}
		return changed, nil
	case payment.StatusCanceled:
		changed, err := s.Repo.MarkCanceled(ctx, intentID, s.now())
		if err != nil {
			return false, err
		}
		if changed {
			l.Info("order_canceled")
			publish(ctx, s.Events, TopicOrder, intentID, map[string]any{"type": "order_canceled", "paymentIntent": intentID})
		}
		return changed, nil
	}
	return false, nil
}
