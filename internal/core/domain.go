package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Expense TransactionType = "expense"
	Income  TransactionType = "income"
)

const (
	// KZT is the base currency: every aggregate and balance is expressed in tenge.
	KZT Currency = "KZT"
	UZS Currency = "UZS"
	USD Currency = "USD"
)

// TimestampLayout is the format records are stamped and filtered with.
// Timestamps are always rendered in UTC: with a single offset the RFC 3339
// strings sort lexically in chronological order, so created_at doubles as
// the ordering key for window queries.
const TimestampLayout = time.RFC3339

type (
	TransactionType string
	Currency        string

	Money struct {
		Cents int64
	}

	// Record is one logged income or expense transaction. Records are
	// append-only: they are never edited, and the only delete path is
	// "undo the most recent one".
	Record struct {
		ID          int64
		UserID      int64
		Type        TransactionType
		Amount      Money
		Currency    Currency
		Category    string
		Description string
		RawText     string
		CreatedAt   string
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidUser   = errors.New("invalid user id")
	ErrUnknownType   = errors.New("unknown transaction type")
	ErrEmptyCategory = errors.New("empty category")
)

// Valid reports whether t is one of the two known transaction types.
func (t TransactionType) Valid() bool {
	return t == Expense || t == Income
}

// NormalizeCurrency maps a classifier currency code to a Currency. An
// empty code defaults to the base currency; unknown codes are kept as-is
// and treated as rate 1.0 downstream.
func NormalizeCurrency(code string) Currency {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return KZT
	}
	return Currency(code)
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (r Record) Validate() error {
	if r.UserID <= 0 {
		return ErrInvalidUser
	}
	if !r.Type.Valid() {
		return ErrUnknownType
	}
	if err := r.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(r.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}
