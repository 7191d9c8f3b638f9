package http

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestExtractClientIP(t *testing.T) {
	cases := []struct {
		name       string
		remoteAddr string
		xff        string
		xri        string
		want       string
	}{
		{
			name:       "direct connection",
			remoteAddr: "192.0.2.1:1234",
			want:       "192.0.2.1",
		},
		{
			name:       "untrusted peer cannot forward",
			remoteAddr: "192.0.2.1:1234",
			xff:        "203.0.113.9",
			xri:        "203.0.113.10",
			want:       "192.0.2.1",
		},
		{
			name:       "trusted proxy forwards client",
			remoteAddr: "127.0.0.1:5555",
			xff:        "203.0.113.9, 10.0.0.1",
			want:       "203.0.113.9",
		},
		{
			name:       "trusted proxy with real-ip fallback",
			remoteAddr: "10.0.0.2:5555",
			xff:        "not-an-ip",
			xri:        "203.0.113.10",
			want:       "203.0.113.10",
		},
		{
			name:       "trusted proxy with garbage headers",
			remoteAddr: "192.168.1.5:5555",
			xff:        "not-an-ip",
			xri:        "also-not-an-ip",
			want:       "192.168.1.5",
		},
		{
			name:       "remote addr without port",
			remoteAddr: "192.0.2.7",
			want:       "192.0.2.7",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/records?user_id=7", nil)
			req.RemoteAddr = tc.remoteAddr
			if tc.xff != "" {
				req.Header.Set("X-Forwarded-For", tc.xff)
			}
			if tc.xri != "" {
				req.Header.Set("X-Real-IP", tc.xri)
			}
			if got := extractClientIP(req); got != tc.want {
				t.Fatalf("extractClientIP() = %q, want %q", got, tc.want)
			}
		})
	}
}

// A client rotating X-Forwarded-For must still be limited by its socket
// address when it is not a trusted proxy.
func TestRateLimitIgnoresSpoofedForwardedFor(t *testing.T) {
	s := newTestServer(&fakeIngester{ingestID: 1})
	body := `{"user_id":7,"type":"expense","amount":100,"category":"cafe"}`

	var blocked int
	for i := 0; i < 120; i++ {
		req := httptest.NewRequest(http.MethodPost, "/records", strings.NewReader(body))
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i%200+1))
		rec := httptest.NewRecorder()
		s.Server.Handler.ServeHTTP(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			blocked++
		}
	}

	// 60 requests per minute are allowed per client IP; the rest must be
	// rejected regardless of the spoofed header.
	if blocked != 60 {
		t.Fatalf("blocked = %d of 120, want 60", blocked)
	}
}
