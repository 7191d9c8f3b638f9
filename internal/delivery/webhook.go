// Package delivery pushes rendered reports to the chat transport. The
// transport is a webhook owned by the bot frontend; when no webhook is
// configured the worker logs the report instead of dropping it silently.
package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"finbot/internal/amqp"
)

type Webhook struct {
	url    string
	client *http.Client
}

func NewWebhook(url string) *Webhook {
	return &Webhook{
		url: url,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Deliver posts one report to the webhook. Errors are returned to the
// consumer so the message gets requeued.
func (w *Webhook) Deliver(ctx context.Context, msg *amqp.ReportMessage) error {
	if w.url == "" {
		slog.WarnContext(ctx, "No delivery webhook configured, logging report",
			"user_id", msg.UserID,
			"window", msg.Window,
			"title", msg.Title)
		return nil
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("post report webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	slog.InfoContext(ctx, "Report delivered via webhook",
		"user_id", msg.UserID,
		"window", msg.Window,
		"status", resp.StatusCode)
	return nil
}
