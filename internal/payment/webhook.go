package payment

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/webhook"
)

var ErrBadSignature = errors.New("webhook signature verification failed")

// WebhookEvent is the part of a provider event the reconciler needs.
type WebhookEvent struct {
	ID       string
	Type     string
	IntentID string
	Status   string
}

type WebhookVerifier struct {
	Secret string
}

// Parse verifies the signature header and extracts the payment intent, if the
// event carries one.
func (v *WebhookVerifier) Parse(payload []byte, signature string) (*WebhookEvent, error) {
	if v == nil || v.Secret == "" {
		return nil, fmt.Errorf("%w: no webhook secret configured", ErrBadSignature)
	}

	ev, err := webhook.ConstructEventWithOptions(payload, signature, v.Secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}

	out := &WebhookEvent{ID: ev.ID, Type: string(ev.Type)}
	if ev.Data == nil || len(ev.Data.Raw) == 0 {
		return out, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(ev.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("decode payment intent: %w", err)
	}
	if pi.Object == "payment_intent" {
		out.IntentID = pi.ID
		out.Status = string(pi.Status)
	}
	return out, nil
}
