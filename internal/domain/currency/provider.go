package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

// RateProvider fetches one exchange rate. Implementations must be safe for
// concurrent use.
type RateProvider interface {
	FetchRate(ctx context.Context, from, to string) (decimal.Decimal, error)
}

// HTTPProvider fetches rates from an exchangerate.host-compatible API.
// Requests are rate limited so bursts of uncached pairs don't hammer the
// upstream.
type HTTPProvider struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

func NewHTTPProvider(baseURL string, timeout time.Duration, requestsPerSecond float64) *HTTPProvider {
	return &HTTPProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
}

type convertResponse struct {
	Success bool    `json:"success"`
	Result  float64 `json:"result"`
}

func (p *HTTPProvider) FetchRate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return decimal.Zero, err
	}

	u := fmt.Sprintf("%s/convert?%s", p.baseURL, url.Values{
		"from":   {from},
		"to":     {to},
		"amount": {"1"},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return decimal.Zero, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("rate request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("rate request returned status %d", resp.StatusCode)
	}

	var body convertResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("decode rate response: %w", err)
	}
	if !body.Success || body.Result <= 0 {
		return decimal.Zero, fmt.Errorf("no rate available for %s/%s", from, to)
	}

	return decimal.NewFromFloat(body.Result), nil
}

// usdRates is the static fallback table, quoted as units per 1 USD. Values
// are approximate and only used when the live provider is unreachable.
var usdRates = map[string]decimal.Decimal{
	"USD": decimal.NewFromInt(1),
	"EUR": decimal.NewFromFloat(0.92),
	"GBP": decimal.NewFromFloat(0.79),
	"CAD": decimal.NewFromFloat(1.36),
	"AUD": decimal.NewFromFloat(1.52),
	"JPY": decimal.NewFromFloat(149.50),
	"CHF": decimal.NewFromFloat(0.88),
	"CNY": decimal.NewFromFloat(7.24),
	"INR": decimal.NewFromFloat(83.10),
	"BRL": decimal.NewFromFloat(4.97),
	"MXN": decimal.NewFromFloat(17.15),
	"SGD": decimal.NewFromFloat(1.34),
	"HKD": decimal.NewFromFloat(7.82),
	"NZD": decimal.NewFromFloat(1.64),
	"SEK": decimal.NewFromFloat(10.45),
	"NOK": decimal.NewFromFloat(10.60),
	"DKK": decimal.NewFromFloat(6.86),
	"PLN": decimal.NewFromFloat(3.99),
	"THB": decimal.NewFromFloat(35.80),
	"IDR": decimal.NewFromFloat(15650),
	"MYR": decimal.NewFromFloat(4.72),
	"PHP": decimal.NewFromFloat(55.90),
	"KRW": decimal.NewFromFloat(1330),
	"RUB": decimal.NewFromFloat(92.50),
	"ZAR": decimal.NewFromFloat(18.80),
}

// StaticProvider serves rates derived from the built-in USD-pivoted table.
// Any pair of known currencies resolves by crossing through USD.
type StaticProvider struct{}

func NewStaticProvider() *StaticProvider {
	return &StaticProvider{}
}

func (p *StaticProvider) FetchRate(_ context.Context, from, to string) (decimal.Decimal, error) {
	fromUSD, ok := usdRates[from]
	if !ok {
		return decimal.Zero, fmt.Errorf("no fallback rate for %s", from)
	}
	toUSD, ok := usdRates[to]
	if !ok {
		return decimal.Zero, fmt.Errorf("no fallback rate for %s", to)
	}
	// rate(from->to) = (to per USD) / (from per USD)
	return toUSD.Div(fromUSD), nil
}

// FallbackProvider tries a primary provider and falls back to a secondary
// when the primary fails.
type FallbackProvider struct {
	primary   RateProvider
	secondary RateProvider
}

func NewFallbackProvider(primary, secondary RateProvider) *FallbackProvider {
	return &FallbackProvider{primary: primary, secondary: secondary}
}

func (p *FallbackProvider) FetchRate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	r, err := p.primary.FetchRate(ctx, from, to)
	if err == nil {
		return r, nil
	}
	return p.secondary.FetchRate(ctx, from, to)
}
