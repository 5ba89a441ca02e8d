// Package order holds the order lifecycle state machine, the pricing
// calculator and order validation. Everything here is pure: no I/O, no shared
// state, safe to call from concurrent request handlers.
package order

import (
	"errors"
	"strings"
)

var (
	ErrPermissionDenied  = errors.New("permission denied")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrMissingNotes      = errors.New("notes are required")
	ErrEmptyOrder        = errors.New("order has no items")
	ErrInvalidDiscount   = errors.New("invalid discount")
	ErrInvalidTax        = errors.New("invalid tax")
	ErrInvalidPayment    = errors.New("invalid payment")
)

// Code identifies a single validation failure
type Code string

const (
	CodeMissingProductName  Code = "MissingProductName"
	CodeInvalidQuantity     Code = "InvalidQuantity"
	CodeMissingUnit         Code = "MissingUnit"
	CodeInvalidRate         Code = "InvalidRate"
	CodeInvalidPackaging    Code = "InvalidPackaging"
	CodeMissingCustomer     Code = "MissingCustomer"
	CodeMissingItems        Code = "MissingItems"
	CodeMissingPaymentTerms Code = "MissingPaymentTerms"
)

// ValidationError is one failed check on an order or one of its items
type ValidationError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return e.Message
}

// ValidationErrors collects every failed check. A nil or empty value means valid.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, e := range v {
		msgs = append(msgs, e.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Codes returns the codes in the order they were collected
func (v ValidationErrors) Codes() []Code {
	codes := make([]Code, 0, len(v))
	for _, e := range v {
		codes = append(codes, e.Code)
	}
	return codes
}

// Messages returns the human readable messages
func (v ValidationErrors) Messages() []string {
	msgs := make([]string, 0, len(v))
	for _, e := range v {
		msgs = append(msgs, e.Message)
	}
	return msgs
}

// Err returns nil when there are no errors, so callers can write
// `if err := order.ValidateOrder(o).Err(); err != nil`.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}
