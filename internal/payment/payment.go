// Package payment talks to the card processor. Everything else in the service
// depends on the Gateway interface only.
package payment

import (
	"context"
	"errors"
)

// Provider-side intent states the reconciler acts on.
const (
	StatusSucceeded = "succeeded"
	StatusCanceled  = "canceled"
)

var (
	ErrIntentNotFound = errors.New("payment intent not found")
	// ErrProvider marks a request the processor rejected or could not serve.
	ErrProvider = errors.New("payment provider error")
)

type Intent struct {
	ID           string
	ClientSecret string
	Status       string
	Amount       int64
	Currency     string
	Metadata     map[string]string
}

type CreateIntentParams struct {
	Amount   int64
	Currency string
	Metadata map[string]string
}

type Gateway interface {
	CreateIntent(ctx context.Context, p CreateIntentParams) (*Intent, error)
	GetIntent(ctx context.Context, id string) (*Intent, error)
	CancelIntent(ctx context.Context, id string) error
}
