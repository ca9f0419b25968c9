package service

import (
	"errors"
	"fmt"
)

var (
	ErrValidation   = errors.New("validation")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrUnavailable  = errors.New("unavailable")
)

// Error pairs a category sentinel with a message that is safe to show a client.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return fmt.Sprintf("%v: %s", e.Kind, e.Msg) }
func (e *Error) Unwrap() error { return e.Kind }

func validation(msg string) error  { return &Error{Kind: ErrValidation, Msg: msg} }
func notFound(msg string) error    { return &Error{Kind: ErrNotFound, Msg: msg} }
func conflict(msg string) error    { return &Error{Kind: ErrConflict, Msg: msg} }
func unavailable(msg string) error { return &Error{Kind: ErrUnavailable, Msg: msg} }

// StockError carries the figures a client needs to adjust its quantity.
type StockError struct {
	ProductID uint
	Name      string
	Available int
	Requested int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: available %d, requested %d", e.Name, e.Available, e.Requested)
}

func (e *StockError) Unwrap() error { return ErrConflict }
