package currency

import (
	"context"
	"log"
	"math"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// RateTable is the cached provider snapshot. Valid for TTL from FetchedAt;
// a stale table keeps serving until a refresh succeeds.
type RateTable struct {
	Base      string
	Rates     map[string]float64
	FetchedAt time.Time
}

// Rate tags whether the table actually knew the currency. Unknown currencies
// convert at 1:1 — a documented fail-open for display purposes, not an
// accidental fallthrough.
type Rate struct {
	Value float64
	Known bool
}

const DefaultTTL = 24 * time.Hour

type Converter struct {
	provider RateProvider
	base     string
	ttl      time.Duration

	mu    sync.RWMutex
	table *RateTable

	sfg singleflight.Group // one refresh at a time per base
	now func() time.Time
}

func NewConverter(provider RateProvider, base string) *Converter {
	return &Converter{
		provider: provider,
		base:     base,
		ttl:      DefaultTTL,
		now:      time.Now,
	}
}

// Rates returns the cached table when fresh, refreshing it lazily otherwise.
// A provider failure keeps serving the last good table, stale or not; with
// no table at all an empty one is returned so lookups fail open.
func (c *Converter) Rates(ctx context.Context) *RateTable {
	c.mu.RLock()
	table := c.table
	c.mu.RUnlock()

	if table != nil && c.now().Sub(table.FetchedAt) < c.ttl {
		return table
	}

	v, err, _ := c.sfg.Do(c.base, func() (interface{}, error) {
		rates, err := c.provider.FetchRates(ctx, c.base)
		if err != nil {
			return nil, err
		}
		fresh := &RateTable{Base: c.base, Rates: rates, FetchedAt: c.now()}
		c.mu.Lock()
		c.table = fresh
		c.mu.Unlock()
		return fresh, nil
	})
	if err != nil {
		log.Printf("rate refresh failed, serving last good table: %v", err)
		if table != nil {
			return table
		}
		return &RateTable{Base: c.base, Rates: map[string]float64{}, FetchedAt: c.now()}
	}

	return v.(*RateTable)
}

// Lookup resolves a currency against the table. The base currency is always
// rate 1; unknown currencies report Known=false with rate 1.
func (t *RateTable) Lookup(code string) Rate {
	if code == t.Base {
		return Rate{Value: 1, Known: true}
	}
	if r, ok := t.Rates[code]; ok && r > 0 {
		return Rate{Value: r, Known: true}
	}
	return Rate{Value: 1, Known: false}
}

// Convert turns an amount in `from` into `to`, rounded to 2 decimal places.
// Identity when from == to. Never errors: missing rates degrade to 1:1.
func (c *Converter) Convert(ctx context.Context, amount float64, from, to string) float64 {
	if from == to {
		return amount
	}

	table := c.Rates(ctx)
	fromRate := table.Lookup(from)
	toRate := table.Lookup(to)
	return round2(amount * toRate.Value / fromRate.Value)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
