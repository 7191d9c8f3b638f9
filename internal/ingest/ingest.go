// Package ingest is the seam between the external classifier and the record
// store. It is the validation boundary: classifier output that does not look
// like a financial transaction is rejected here and never reaches storage.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"finbot/internal/core"
)

// Window names a time span for record queries. Boundaries are computed at
// call time against the local clock.
type Window string

const (
	Today Window = "today"
	Week  Window = "week"  // last 7 days
	Month Window = "month" // month-to-date
	All   Window = "all"   // everything, for balance on hand
)

var (
	// ErrNotTransaction marks classifier output rejected at the boundary:
	// empty type/category or a non-positive amount.
	ErrNotTransaction = errors.New("not a financial transaction")
	ErrUnknownWindow  = errors.New("unknown window")
)

// Classified mirrors the classifier output contract. An empty Type or a
// non-positive Amount signals "not a transaction".
type Classified struct {
	Type        string  `json:"type"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
}

// UnmarshalJSON accepts the amount as a JSON number or a decimal string
// ("5000", "12,34"); classifier output is not strictly typed. A string that
// does not parse as a positive decimal leaves the amount at zero, which the
// boundary rejects as "not a transaction".
func (c *Classified) UnmarshalJSON(data []byte) error {
	type alias Classified
	aux := struct {
		Amount json.RawMessage `json:"amount"`
		*alias
	}{alias: (*alias)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(aux.Amount) == 0 || string(aux.Amount) == "null" {
		return nil
	}
	if aux.Amount[0] == '"' {
		var s string
		if err := json.Unmarshal(aux.Amount, &s); err != nil {
			return err
		}
		cents, err := core.ParseDecimalToCents(s)
		if err != nil {
			c.Amount = 0
			return nil
		}
		c.Amount = float64(cents) / 100
		return nil
	}
	return json.Unmarshal(aux.Amount, &c.Amount)
}

// Store is the record store contract the façade writes through.
type Store interface {
	Append(ctx context.Context, rec core.Record) (int64, error)
	Query(ctx context.Context, userID int64, since string, typeFilter *core.TransactionType) ([]core.Record, error)
	DeleteMostRecent(ctx context.Context, userID int64) (*core.Record, error)
}

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Ingest validates classifier output and appends the record, returning the
// new id for the confirmation message.
func (s *Service) Ingest(ctx context.Context, userID int64, c Classified, rawText string) (int64, error) {
	if c.Type == "" || c.Amount <= 0 || strings.TrimSpace(c.Category) == "" {
		return 0, ErrNotTransaction
	}
	typ := core.TransactionType(strings.ToLower(strings.TrimSpace(c.Type)))
	if !typ.Valid() {
		slog.WarnContext(ctx, "Classifier emitted unknown type", "type", c.Type, "user_id", userID)
		return 0, ErrNotTransaction
	}
	cents := core.AmountToCents(c.Amount)
	if cents <= 0 {
		return 0, ErrNotTransaction
	}

	rec := core.Record{
		UserID:      userID,
		Type:        typ,
		Amount:      core.Money{Cents: cents},
		Currency:    core.NormalizeCurrency(c.Currency),
		Category:    strings.TrimSpace(c.Category),
		Description: strings.TrimSpace(c.Description),
		RawText:     rawText,
	}

	id, err := s.store.Append(ctx, rec)
	if err != nil {
		return 0, fmt.Errorf("append record: %w", err)
	}
	return id, nil
}

// Window returns the user's records for the named window, newest first.
func (s *Service) Window(ctx context.Context, userID int64, w Window, typeFilter *core.TransactionType) ([]core.Record, error) {
	since, err := s.SinceBoundary(w)
	if err != nil {
		return nil, err
	}
	records, err := s.store.Query(ctx, userID, since, typeFilter)
	if err != nil {
		return nil, fmt.Errorf("query %s window: %w", w, err)
	}
	return records, nil
}

// UndoLast deletes the user's newest record and returns it for the
// confirmation display. Returns (nil, nil) when there is nothing to undo.
func (s *Service) UndoLast(ctx context.Context, userID int64) (*core.Record, error) {
	rec, err := s.store.DeleteMostRecent(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("delete most recent: %w", err)
	}
	return rec, nil
}

// SinceBoundary computes the window's created_at lower bound. Boundaries
// are local midnights, rendered in UTC to match the store's stamps so the
// lexical >= filter stays chronological.
func (s *Service) SinceBoundary(w Window) (string, error) {
	now := s.now()
	var boundary time.Time
	switch w {
	case Today:
		boundary = midnight(now)
	case Week:
		boundary = midnight(now.AddDate(0, 0, -7))
	case Month:
		boundary = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	case All:
		return "1970-01-01T00:00:00Z", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownWindow, w)
	}
	return boundary.UTC().Format(core.TimestampLayout), nil
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
