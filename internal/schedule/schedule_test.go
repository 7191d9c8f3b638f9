package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"finbot/internal/amqp"
	"finbot/internal/core"
	"finbot/internal/ingest"
)

type fakeSource struct {
	records map[int64][]core.Record
	err     map[int64]error
}

func (f *fakeSource) Window(_ context.Context, userID int64, _ ingest.Window, _ *core.TransactionType) ([]core.Record, error) {
	if err := f.err[userID]; err != nil {
		return nil, err
	}
	return f.records[userID], nil
}

type fakePublisher struct {
	published []*amqp.ReportMessage
	err       error
}

func (f *fakePublisher) PublishReport(_ context.Context, msg *amqp.ReportMessage) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, msg)
	return nil
}

type identityConverter struct{}

func (identityConverter) ToBase(_ context.Context, m core.Money, _ core.Currency) core.Money {
	return m
}

func at(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
}

func TestDue(t *testing.T) {
	cases := []struct {
		name string
		now  time.Time
		want []jobKind
	}{
		// 2026-08-30 is a Sunday; 2026-08-31 a Monday and the last day.
		{"sunday at hour", at(2026, 8, 30, 21, 0), []jobKind{weeklyJob}},
		{"sunday wrong hour", at(2026, 8, 30, 20, 0), nil},
		{"sunday wrong minute", at(2026, 8, 30, 21, 5), nil},
		{"last day of month", at(2026, 8, 31, 21, 0), []jobKind{monthlyJob}},
		{"plain weekday", at(2026, 8, 26, 21, 0), nil},
		// 2027-02-28 is the last day of February and a Sunday.
		{"sunday and month end", at(2027, 2, 28, 21, 0), []jobKind{weeklyJob, monthlyJob}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := New(&fakeSource{}, identityConverter{}, &fakePublisher{}, nil, 21)
			got := s.due(tc.now)
			if len(got) != len(tc.want) {
				t.Fatalf("due(%v) = %v, want %v", tc.now, got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("due(%v) = %v, want %v", tc.now, got, tc.want)
				}
			}
		})
	}
}

func TestDueDedupSameMinute(t *testing.T) {
	s := New(&fakeSource{}, identityConverter{}, &fakePublisher{}, nil, 21)
	now := at(2026, 8, 30, 21, 0)
	if got := s.due(now); len(got) != 1 {
		t.Fatalf("first check should fire, got %v", got)
	}
	if got := s.due(now.Add(10 * time.Second)); got != nil {
		t.Fatalf("same minute must not fire twice, got %v", got)
	}
}

func TestIsLastDayOfMonth(t *testing.T) {
	if !isLastDayOfMonth(at(2026, 2, 28, 0, 0)) {
		t.Fatal("2026-02-28 is the last day of February")
	}
	if isLastDayOfMonth(at(2028, 2, 28, 0, 0)) {
		t.Fatal("2028 is a leap year; the 28th is not the last day")
	}
	if !isLastDayOfMonth(at(2026, 12, 31, 0, 0)) {
		t.Fatal("December 31st is a month end")
	}
}

// One user failing must not stop delivery to the others.
func TestSendAllIsolatesFailures(t *testing.T) {
	source := &fakeSource{
		records: map[int64][]core.Record{
			1: {{UserID: 1, Type: core.Expense, Amount: core.Money{Cents: 1000}, Currency: core.KZT, Category: "cafe"}},
			3: {{UserID: 3, Type: core.Expense, Amount: core.Money{Cents: 2000}, Currency: core.KZT, Category: "cafe"}},
		},
		err: map[int64]error{2: errors.New("storage failure")},
	}
	pub := &fakePublisher{}
	s := New(source, identityConverter{}, pub, []int64{1, 2, 3}, 21)

	s.sendAll(context.Background(), weeklyJob, at(2026, 8, 30, 21, 0))

	if len(pub.published) != 2 {
		t.Fatalf("expected reports for users 1 and 3, got %d", len(pub.published))
	}
	if pub.published[0].UserID != 1 || pub.published[1].UserID != 3 {
		t.Fatalf("unexpected recipients: %+v", pub.published)
	}
	if pub.published[0].Window != string(ingest.Week) {
		t.Fatalf("weekly job should query the week window, got %q", pub.published[0].Window)
	}
}
