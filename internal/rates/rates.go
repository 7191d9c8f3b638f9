// Package rates converts amounts between currencies using a time-bounded
// snapshot of exchange rates. The converter favors availability: a failed
// refresh falls back to the last good snapshot or a static table, and an
// unknown currency converts at rate 1.0. It never returns an error to the
// caller.
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"sync"
	"time"

	"finbot/internal/core"
)

// DefaultTTL is the snapshot staleness threshold.
const DefaultTTL = 6 * time.Hour

// Snapshot maps currency codes to units of base currency per 1 unit of
// that currency. The base currency always maps to 1.0.
type Snapshot struct {
	Rates     map[core.Currency]float64
	FetchedAt time.Time
}

// Rate returns the base-currency multiplier for c. Unknown currencies
// convert at 1.0 (fail open).
func (s Snapshot) Rate(c core.Currency) float64 {
	if r, ok := s.Rates[c]; ok && r > 0 {
		return r
	}
	return 1.0
}

// Static rates used when no live snapshot has ever been fetched.
var fallbackRates = map[core.Currency]float64{
	core.KZT: 1.0,
	core.UZS: 0.038,
	core.USD: 520.0,
}

// FallbackSnapshot returns the hardcoded rate table with a zero timestamp,
// so the next conversion attempts a live refresh again.
func FallbackSnapshot() Snapshot {
	rates := make(map[core.Currency]float64, len(fallbackRates))
	for c, r := range fallbackRates {
		rates[c] = r
	}
	return Snapshot{Rates: rates}
}

// Source fetches live rates keyed by the base currency.
type Source interface {
	Fetch(ctx context.Context, base core.Currency) (map[core.Currency]float64, error)
}

// Converter owns the rate snapshot. All access goes through the converter;
// there is no package-level mutable state.
type Converter struct {
	mu   sync.Mutex
	src  Source
	ttl  time.Duration
	snap Snapshot
	now  func() time.Time
}

func NewConverter(src Source, ttl time.Duration) *Converter {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Converter{src: src, ttl: ttl, now: time.Now}
}

// Rates returns the cached snapshot if younger than the staleness
// threshold, otherwise refreshes synchronously. Refresh failures degrade
// to the last good snapshot, or the static fallback table if none exists.
func (c *Converter) Rates(ctx context.Context) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.snap.Rates != nil && now.Sub(c.snap.FetchedAt) < c.ttl {
		return c.snap
	}

	fetched, err := c.src.Fetch(ctx, core.KZT)
	if err != nil {
		slog.WarnContext(ctx, "Rate refresh failed, using fallback", "error", err)
		if c.snap.Rates != nil {
			return c.snap
		}
		return FallbackSnapshot()
	}

	c.snap = Snapshot{Rates: fetched, FetchedAt: now}
	slog.InfoContext(ctx, "Exchange rates refreshed",
		"currencies", len(fetched),
		"fetched_at", now.Format(time.RFC3339))
	return c.snap
}

// ToBase converts an amount in any currency to the base currency using the
// current snapshot.
func (c *Converter) ToBase(ctx context.Context, m core.Money, cur core.Currency) core.Money {
	rate := c.Rates(ctx).Rate(cur)
	return core.Money{Cents: int64(math.Round(float64(m.Cents) * rate))}
}

// HTTPSource fetches rates from an open exchange-rate endpoint that serves
// GET <url>/<base> as {"result": "success", "rates": {"USD": 0.0019, ...}}.
// The payload expresses 1 base = X foreign; rates are inverted to base
// units per 1 foreign unit.
type HTTPSource struct {
	url    string
	client *http.Client
}

func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSource) Fetch(ctx context.Context, base core.Currency) (map[core.Currency]float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url+"/"+string(base), nil)
	if err != nil {
		return nil, fmt.Errorf("build rate request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rate source returned status %d", resp.StatusCode)
	}

	var payload struct {
		Result string             `json:"result"`
		Rates  map[string]float64 `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode rate payload: %w", err)
	}
	if payload.Result != "success" {
		return nil, fmt.Errorf("rate source result %q", payload.Result)
	}

	out := map[core.Currency]float64{base: 1.0}
	for c := range fallbackRates {
		if c == base {
			continue
		}
		if v := payload.Rates[string(c)]; v > 0 {
			out[c] = 1.0 / v
		} else {
			// Missing a single currency is not fatal: keep its static rate.
			out[c] = fallbackRates[c]
		}
	}
	return out, nil
}
