package amqp

import (
	"encoding/json"
	"time"
)

// ReportMessage carries one rendered report to the delivery worker. The
// body is the final chat-ready text; the worker never re-renders.
type ReportMessage struct {
	UserID    int64     `json:"user_id"`
	Window    string    `json:"window"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}

func NewReportMessage(userID int64, window, title, body string) *ReportMessage {
	return &ReportMessage{
		UserID:    userID,
		Window:    window,
		Title:     title,
		Body:      body,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ReportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReportMessageFromJSON creates a message from JSON bytes
func ReportMessageFromJSON(data []byte) (*ReportMessage, error) {
	var msg ReportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
