package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"finbot/internal/core"
)

type fakeStore struct {
	appended  []core.Record
	lastSince string
	lastType  *core.TransactionType
	deleted   *core.Record
}

func (f *fakeStore) Append(_ context.Context, rec core.Record) (int64, error) {
	f.appended = append(f.appended, rec)
	return int64(len(f.appended)), nil
}

func (f *fakeStore) Query(_ context.Context, _ int64, since string, typeFilter *core.TransactionType) ([]core.Record, error) {
	f.lastSince = since
	f.lastType = typeFilter
	return nil, nil
}

func (f *fakeStore) DeleteMostRecent(_ context.Context, _ int64) (*core.Record, error) {
	return f.deleted, nil
}

func TestIngestValid(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store)

	id, err := svc.Ingest(context.Background(), 7, Classified{
		Type:        "expense",
		Amount:      5000,
		Currency:    "",
		Category:    "nails",
		Description: "маникюр",
	}, "потратила 5000 на ногти")
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if id != 1 {
		t.Fatalf("expected id 1, got %d", id)
	}

	rec := store.appended[0]
	if rec.Amount.Cents != 500000 {
		t.Fatalf("amount = %d cents, want 500000", rec.Amount.Cents)
	}
	if rec.Currency != core.KZT {
		t.Fatalf("empty currency should default to base, got %q", rec.Currency)
	}
	if rec.RawText != "потратила 5000 на ногти" {
		t.Fatalf("raw text not retained: %q", rec.RawText)
	}
}

func TestIngestRejection(t *testing.T) {
	cases := []struct {
		name string
		in   Classified
	}{
		{"empty type", Classified{Amount: 100, Category: "food"}},
		{"zero amount", Classified{Type: "expense", Amount: 0, Category: "food"}},
		{"negative amount", Classified{Type: "expense", Amount: -5, Category: "food"}},
		{"empty category", Classified{Type: "expense", Amount: 100, Category: "  "}},
		{"unknown type", Classified{Type: "loan", Amount: 100, Category: "food"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &fakeStore{}
			svc := NewService(store)
			_, err := svc.Ingest(context.Background(), 7, tc.in, "raw")
			if !errors.Is(err, ErrNotTransaction) {
				t.Fatalf("expected ErrNotTransaction, got %v", err)
			}
			if len(store.appended) != 0 {
				t.Fatal("rejected input must never reach the store")
			}
		})
	}
}

// The classifier is not strictly typed: amounts arrive as JSON numbers or
// decimal strings, with dot or comma separators.
func TestClassifiedAmountJSON(t *testing.T) {
	cases := []struct {
		name string
		body string
		want float64
	}{
		{"number", `{"type":"expense","amount":5000,"category":"nails"}`, 5000},
		{"integer string", `{"type":"expense","amount":"5000","category":"nails"}`, 5000},
		{"decimal string", `{"type":"expense","amount":"12.34","category":"cafe"}`, 12.34},
		{"comma separator", `{"type":"expense","amount":"12,34","category":"cafe"}`, 12.34},
		{"garbage string rejected downstream", `{"type":"expense","amount":"dunno","category":"cafe"}`, 0},
		{"missing amount", `{"type":"expense","category":"cafe"}`, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var c Classified
			if err := json.Unmarshal([]byte(tc.body), &c); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if c.Amount != tc.want {
				t.Fatalf("amount = %v, want %v", c.Amount, tc.want)
			}
			if c.Category == "" {
				t.Fatal("sibling fields must survive the custom decode")
			}
		})
	}
}

func TestSinceBoundary(t *testing.T) {
	svc := NewService(&fakeStore{})
	// Monday 2026-08-31, 14:30 local (+05:00).
	loc := time.FixedZone("ALMT", 5*3600)
	svc.now = func() time.Time { return time.Date(2026, 8, 31, 14, 30, 0, 0, loc) }

	// Boundaries are local midnights rendered in UTC, matching the
	// store's stamps.
	cases := []struct {
		w    Window
		want string
	}{
		{Today, "2026-08-30T19:00:00Z"},
		{Week, "2026-08-23T19:00:00Z"},
		{Month, "2026-07-31T19:00:00Z"},
		{All, "1970-01-01T00:00:00Z"},
	}
	for _, tc := range cases {
		got, err := svc.SinceBoundary(tc.w)
		if err != nil {
			t.Fatalf("%s: %v", tc.w, err)
		}
		if got != tc.want {
			t.Fatalf("%s boundary = %q, want %q", tc.w, got, tc.want)
		}
	}

	if _, err := svc.SinceBoundary(Window("year")); !errors.Is(err, ErrUnknownWindow) {
		t.Fatalf("expected ErrUnknownWindow, got %v", err)
	}
}

func TestWindowPassesFilter(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store)

	filter := core.Income
	if _, err := svc.Window(context.Background(), 7, Today, &filter); err != nil {
		t.Fatalf("window: %v", err)
	}
	if store.lastType == nil || *store.lastType != core.Income {
		t.Fatalf("type filter not passed through, got %v", store.lastType)
	}
}

func TestUndoLastEmpty(t *testing.T) {
	svc := NewService(&fakeStore{})
	rec, err := svc.UndoLast(context.Background(), 7)
	if err != nil {
		t.Fatalf("undo on empty store must not error: %v", err)
	}
	if rec != nil {
		t.Fatalf("expected nil record, got %+v", rec)
	}
}
