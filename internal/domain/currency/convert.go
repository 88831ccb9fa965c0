package currency

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"

	"github.com/rmoura-dev/statement-engine/pkg/money"
)

// ErrRateUnavailable means no exchange rate could be obtained for a pair.
// Conversion degrades: callers keep the original currency and warn.
var ErrRateUnavailable = errors.New("exchange rate unavailable")

// Converter converts amounts between currencies. Rates are cached with a
// TTL; an expired rate is never served, it is refetched or the conversion
// fails with ErrRateUnavailable.
type Converter struct {
	provider RateProvider
	cache    *gocache.Cache
	logger   *slog.Logger

	mu      sync.Mutex
	tracked map[string]struct{}
}

func NewConverter(provider RateProvider, ttl time.Duration, logger *slog.Logger) *Converter {
	return &Converter{
		provider: provider,
		cache:    gocache.New(ttl, 2*ttl),
		logger:   logger,
		tracked:  make(map[string]struct{}),
	}
}

func pairKey(from, to string) string {
	return from + "_" + to
}

// Rate returns the from→to exchange rate, from cache when fresh. A cached
// inverse rate is reused rather than fetched again.
func (c *Converter) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}

	if cached, ok := c.cache.Get(pairKey(from, to)); ok {
		return cached.(decimal.Decimal), nil
	}
	if cached, ok := c.cache.Get(pairKey(to, from)); ok {
		inverse := cached.(decimal.Decimal)
		if inverse.IsPositive() {
			return decimal.NewFromInt(1).Div(inverse), nil
		}
	}

	r, err := c.provider.FetchRate(ctx, from, to)
	if err != nil {
		c.logger.Warn("rate fetch failed", "from", from, "to", to, "error", err)
		return decimal.Zero, fmt.Errorf("%w: %s/%s: %v", ErrRateUnavailable, from, to, err)
	}

	c.cache.SetDefault(pairKey(from, to), r)
	c.track(from, to)
	return r, nil
}

// Convert returns m expressed in the target currency.
func (c *Converter) Convert(ctx context.Context, m *money.Money, target string) (*money.Money, error) {
	if m.Currency() == target {
		return m, nil
	}
	r, err := c.Rate(ctx, m.Currency(), target)
	if err != nil {
		return nil, err
	}
	return m.Convert(target, r), nil
}

func (c *Converter) track(from, to string) {
	c.mu.Lock()
	c.tracked[pairKey(from, to)] = struct{}{}
	c.mu.Unlock()
}

// TrackedPairs lists every pair fetched so far, for background refresh.
func (c *Converter) TrackedPairs() [][2]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	pairs := make([][2]string, 0, len(c.tracked))
	for key := range c.tracked {
		for i := 1; i < len(key); i++ {
			if key[i] == '_' {
				pairs = append(pairs, [2]string{key[:i], key[i+1:]})
				break
			}
		}
	}
	return pairs
}

// Refresh refetches every tracked pair, keeping the cache warm.
func (c *Converter) Refresh(ctx context.Context) {
	for _, pair := range c.TrackedPairs() {
		r, err := c.provider.FetchRate(ctx, pair[0], pair[1])
		if err != nil {
			c.logger.Warn("rate refresh failed", "from", pair[0], "to", pair[1], "error", err)
			continue
		}
		c.cache.SetDefault(pairKey(pair[0], pair[1]), r)
	}
}
