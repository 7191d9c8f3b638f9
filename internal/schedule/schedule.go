// Package schedule fires the weekly and monthly report jobs. Each user is
// an independent task: one user's failure is logged and never blocks
// delivery to the others.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"finbot/internal/amqp"
	"finbot/internal/core"
	"finbot/internal/ingest"
	"finbot/internal/report"
)

type jobKind string

const (
	weeklyJob  jobKind = "weekly"
	monthlyJob jobKind = "monthly"
)

// RecordSource provides window queries for report generation.
type RecordSource interface {
	Window(ctx context.Context, userID int64, w ingest.Window, typeFilter *core.TransactionType) ([]core.Record, error)
}

// Publisher pushes a rendered report outward.
type Publisher interface {
	PublishReport(ctx context.Context, msg *amqp.ReportMessage) error
}

// Scheduler checks every minute whether a report slot is due: weekly on
// Sunday, monthly on the last day of the month, both at the configured
// hour. A dedup key keeps a slot from firing twice within the same minute.
type Scheduler struct {
	records RecordSource
	conv    report.Converter
	pub     Publisher
	users   []int64
	hour    int

	now     func() time.Time
	lastRun string
}

func New(records RecordSource, conv report.Converter, pub Publisher, users []int64, hour int) *Scheduler {
	return &Scheduler{
		records: records,
		conv:    conv,
		pub:     pub,
		users:   users,
		hour:    hour,
		now:     time.Now,
	}
}

// Run blocks until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	slog.InfoContext(ctx, "Report scheduler started",
		"hour", s.hour,
		"users", len(s.users))

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Report scheduler stopped", "reason", ctx.Err())
			return ctx.Err()
		case now := <-ticker.C:
			for _, kind := range s.due(now) {
				s.sendAll(ctx, kind, now)
			}
		}
	}
}

// due returns the jobs scheduled for this minute. When the last day of the
// month falls on a Sunday both reports go out, as two independent jobs.
func (s *Scheduler) due(now time.Time) []jobKind {
	if now.Hour() != s.hour || now.Minute() != 0 {
		return nil
	}
	key := now.Format("2006-01-02 15:04")
	if s.lastRun == key {
		return nil
	}
	s.lastRun = key

	var jobs []jobKind
	if now.Weekday() == time.Sunday {
		jobs = append(jobs, weeklyJob)
	}
	if isLastDayOfMonth(now) {
		jobs = append(jobs, monthlyJob)
	}
	return jobs
}

func isLastDayOfMonth(t time.Time) bool {
	return t.AddDate(0, 0, 1).Month() != t.Month()
}

func (s *Scheduler) sendAll(ctx context.Context, kind jobKind, now time.Time) {
	window, title := jobParams(kind, now)
	slog.InfoContext(ctx, "Sending scheduled reports",
		"job", kind,
		"users", len(s.users))

	for _, userID := range s.users {
		if err := s.sendOne(ctx, userID, window, title); err != nil {
			// Isolated per user: log and keep going.
			slog.ErrorContext(ctx, "Failed to send scheduled report",
				"user_id", userID,
				"job", kind,
				"error", err)
		}
	}
}

func (s *Scheduler) sendOne(ctx context.Context, userID int64, window ingest.Window, title string) error {
	records, err := s.records.Window(ctx, userID, window, nil)
	if err != nil {
		return fmt.Errorf("query window: %w", err)
	}

	sum := report.Aggregate(ctx, records, s.conv)
	body := report.RenderText(sum, title, nil)

	msg := amqp.NewReportMessage(userID, string(window), title, body)
	if err := s.pub.PublishReport(ctx, msg); err != nil {
		return fmt.Errorf("publish report: %w", err)
	}
	return nil
}

func jobParams(kind jobKind, now time.Time) (ingest.Window, string) {
	if kind == monthlyJob {
		return ingest.Month, "Итоги за " + monthName(now.Month())
	}
	return ingest.Week, "Итоги недели"
}

var monthNames = [...]string{
	"январь", "февраль", "март", "апрель", "май", "июнь",
	"июль", "август", "сентябрь", "октябрь", "ноябрь", "декабрь",
}

func monthName(m time.Month) string {
	return monthNames[int(m)-1]
}
