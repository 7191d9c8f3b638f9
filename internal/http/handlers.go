package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"finbot/internal/core"
	"finbot/internal/ingest"
	"finbot/internal/rates"
	"finbot/internal/report"
)

// Ingester is the record façade the API writes and reads through.
type Ingester interface {
	Ingest(ctx context.Context, userID int64, c ingest.Classified, rawText string) (int64, error)
	Window(ctx context.Context, userID int64, w ingest.Window, typeFilter *core.TransactionType) ([]core.Record, error)
	UndoLast(ctx context.Context, userID int64) (*core.Record, error)
}

// Converter folds foreign-currency amounts into the base currency.
type Converter interface {
	ToBase(ctx context.Context, m core.Money, c core.Currency) core.Money
}

type recordView struct {
	ID          int64  `json:"id"`
	Type        string `json:"type"`
	AmountCents int64  `json:"amount_cents"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at"`
}

func viewOf(rec core.Record) recordView {
	return recordView{
		ID:          rec.ID,
		Type:        string(rec.Type),
		AmountCents: rec.Amount.Cents,
		Amount:      rates.Format(rec.Amount, rec.Currency),
		Currency:    string(rec.Currency),
		Category:    core.CategoryLabel(rec.Type, rec.Category),
		Description: rec.Description,
		CreatedAt:   rec.CreatedAt,
	}
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateRecord(w, r)
	case http.MethodGet:
		s.handleListRecords(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// The body is flat: user_id and raw_text ride next to the classifier
	// fields, so it unmarshals once per concern.
	var req struct {
		UserID  int64  `json:"user_id"`
		RawText string `json:"raw_text"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	var classified ingest.Classified
	if err := json.Unmarshal(body, &classified); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID <= 0 {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	id, err := s.ingester.Ingest(r.Context(), req.UserID, classified, req.RawText)
	if err != nil {
		if errors.Is(err, ingest.ErrNotTransaction) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
				"error": "Не удалось распознать запись.",
			})
			return
		}
		slog.ErrorContext(r.Context(), "Record append error", "error", err, "user_id", req.UserID)
		writeError(w, http.StatusInternalServerError, "failed to save record")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}
	window, ok := parseWindow(w, r)
	if !ok {
		return
	}
	typeFilter, ok := parseTypeFilter(w, r)
	if !ok {
		return
	}

	records, err := s.ingester.Window(r.Context(), userID, window, typeFilter)
	if err != nil {
		slog.ErrorContext(r.Context(), "Record list error", "error", err, "user_id", userID, "window", window)
		writeError(w, http.StatusInternalServerError, "failed to list records")
		return
	}

	views := make([]recordView, 0, len(records))
	for _, rec := range records {
		views = append(views, viewOf(rec))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"records": views,
		"count":   len(views),
	})
}

func (s *Server) handleUndoLast(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		w.Header().Set("Allow", "DELETE")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}

	rec, err := s.ingester.UndoLast(r.Context(), userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Undo error", "error", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "failed to undo")
		return
	}
	if rec == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"message": "Записей пока нет.",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"deleted": viewOf(*rec),
	})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}
	window, ok := parseWindow(w, r)
	if !ok {
		return
	}

	records, err := s.ingester.Window(r.Context(), userID, window, nil)
	if err != nil {
		slog.ErrorContext(r.Context(), "Report query error", "error", err, "user_id", userID, "window", window)
		writeError(w, http.StatusInternalServerError, "failed to build report")
		return
	}
	sum := report.Aggregate(r.Context(), records, s.conv)

	// The running balance over all records rides along under the windowed
	// figures, unless the window already is everything.
	var allTime *report.Summary
	if window != ingest.All {
		allRecords, err := s.ingester.Window(r.Context(), userID, ingest.All, nil)
		if err != nil {
			slog.ErrorContext(r.Context(), "Balance query error", "error", err, "user_id", userID)
			writeError(w, http.StatusInternalServerError, "failed to build report")
			return
		}
		total := report.Aggregate(r.Context(), allRecords, s.conv)
		allTime = &total
	}

	title := windowTitle(window)
	writeJSON(w, http.StatusOK, map[string]string{
		"title":  title,
		"report": report.RenderText(sum, title, allTime),
	})
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}
	window, ok := parseWindow(w, r)
	if !ok {
		return
	}

	expense := core.Expense
	records, err := s.ingester.Window(r.Context(), userID, window, &expense)
	if err != nil {
		slog.ErrorContext(r.Context(), "Chart query error", "error", err, "user_id", userID, "window", window)
		writeError(w, http.StatusInternalServerError, "failed to build chart")
		return
	}
	sum := report.Aggregate(r.Context(), records, s.conv)

	writeJSON(w, http.StatusOK, map[string]string{
		"chart": report.RenderChart(sum, windowTitle(window)),
	})
}

func windowTitle(w ingest.Window) string {
	switch w {
	case ingest.Today:
		return "Итоги за сегодня"
	case ingest.Week:
		return "Итоги недели"
	case ingest.Month:
		return "Итоги месяца"
	default:
		return "Все записи"
	}
}

func parseUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	v := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if v == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return 0, false
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "user_id must be a positive number")
		return 0, false
	}
	return id, true
}

func parseWindow(w http.ResponseWriter, r *http.Request) (ingest.Window, bool) {
	v := strings.TrimSpace(r.URL.Query().Get("window"))
	if v == "" {
		return ingest.Today, true
	}
	switch win := ingest.Window(v); win {
	case ingest.Today, ingest.Week, ingest.Month, ingest.All:
		return win, true
	default:
		writeError(w, http.StatusBadRequest, "window must be one of: today, week, month, all")
		return "", false
	}
}

func parseTypeFilter(w http.ResponseWriter, r *http.Request) (*core.TransactionType, bool) {
	v := strings.TrimSpace(r.URL.Query().Get("type"))
	if v == "" {
		return nil, true
	}
	t := core.TransactionType(v)
	if !t.Valid() {
		writeError(w, http.StatusBadRequest, "type must be 'expense' or 'income'")
		return nil, false
	}
	return &t, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
