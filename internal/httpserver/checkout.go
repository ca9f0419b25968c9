package httpserver

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/headphones_shop/internal/logging"
	"github.com/Skotchmaster/headphones_shop/internal/payment"
	"github.com/Skotchmaster/headphones_shop/internal/service"
)

// Webhook payloads above this size are rejected unread.
const maxWebhookBody = 64 << 10

type CheckoutHTTP struct {
	Svc            *service.CheckoutService
	Webhooks       *payment.WebhookVerifier
	PublishableKey string
}

func (h *CheckoutHTTP) Config(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"publishableKey": h.PublishableKey})
}

func (h *CheckoutHTTP) CreatePaymentIntent(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "stripe.payment_intent")

	var req struct {
		Items     []service.LineItem `json:"items"`
		SessionID string             `json:"sessionId"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("payment_intent_error", "status", 400, "error", err)
		return errorJSON(c, http.StatusBadRequest, "Invalid request body")
	}

	res, err := h.Svc.CreatePaymentIntent(ctx, req.Items, req.SessionID)
	if err != nil {
		if errors.Is(err, payment.ErrProvider) {
			l.Error("payment_intent_error", "status", 400, "error", err)
			return errorJSON(c, http.StatusBadRequest, "Unable to create payment intent")
		}
		return fail(c, l, "payment_intent_error", err)
	}

	l.Info("payment_intent_created", "payment_intent", res.PaymentIntentID, "order_id", res.OrderID, "amount", res.Amount)
	return c.JSON(http.StatusOK, res)
}

func (h *CheckoutHTTP) VerifyPayment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.verify")

	res, err := h.Svc.Reconcile(ctx, c.QueryParam("payment_intent"))
	if err != nil {
		return fail(c, l, "payment_verify_error", err)
	}

	l.Info("payment_verified", "order_id", res.Order.ID, "status", res.Order.Status, "stripe_status", res.StripeStatus)
	return c.JSON(http.StatusOK, res)
}

func (h *CheckoutHTTP) Webhook(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "stripe.webhook")

	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody+1))
	if err != nil || len(payload) > maxWebhookBody {
		l.Warn("webhook_error", "status", 400, "reason", "unreadable body", "error", err)
		return errorJSON(c, http.StatusBadRequest, "Invalid payload")
	}

	ev, err := h.Webhooks.Parse(payload, c.Request().Header.Get("Stripe-Signature"))
	if err != nil {
		l.Warn("webhook_error", "status", 400, "error", err)
		return errorJSON(c, http.StatusBadRequest, "Invalid signature")
	}

	if err := h.Svc.HandleWebhook(ctx, ev); err != nil {
		l.Error("webhook_error", "status", 500, "event_id", ev.ID, "error", err)
		return errorJSON(c, http.StatusInternalServerError, msgInternal)
	}

	l.Info("webhook_processed", "event_id", ev.ID, "event_type", ev.Type)
	return c.JSON(http.StatusOK, echo.Map{"received": true})
}
