package amqp

import "testing"

func TestReportMessageFromJSONMalformed(t *testing.T) {
	if _, err := ReportMessageFromJSON([]byte("{not json")); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

func TestNewReportMessage(t *testing.T) {
	msg := NewReportMessage(7, "week", "Итоги недели", "📊 <b>Итоги недели</b>")
	if msg.UserID != 7 || msg.Window != "week" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if msg.Timestamp.IsZero() {
		t.Fatal("timestamp must be stamped at creation")
	}

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	back, err := ReportMessageFromJSON(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Body != msg.Body {
		t.Fatalf("body lost in transit: %q", back.Body)
	}
}
