package currency

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmoura-dev/statement-engine/internal/domain/ingest/parser"
	"github.com/rmoura-dev/statement-engine/pkg/money"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		tx   parser.ParsedTransaction
		want string
	}{
		{"explicit currency column wins", parser.ParsedTransaction{CurrencyHint: "eur", RawAmount: "$10.00"}, "EUR"},
		{"multi-char symbol before bare dollar", parser.ParsedTransaction{RawAmount: "C$120.50"}, "CAD"},
		{"brazilian real", parser.ParsedTransaction{RawAmount: "R$99,90"}, "BRL"},
		{"bare dollar is usd", parser.ParsedTransaction{RawAmount: "$1,200.00"}, "USD"},
		{"euro symbol", parser.ParsedTransaction{RawAmount: "€45,20"}, "EUR"},
		{"iso code in description", parser.ParsedTransaction{RawAmount: "45.20", Description: "TRANSFER 45.20 GBP"}, "GBP"},
		{"nothing detected defaults to usd", parser.ParsedTransaction{RawAmount: "45.20", Description: "COFFEE"}, "USD"},
		{"rm inside pharmacy is not ringgit", parser.ParsedTransaction{RawAmount: "-12.00", Description: "CVS PHARMACY #998"}, "USD"},
		{"rm inside supermarket is not ringgit", parser.ParsedTransaction{RawAmount: "-30.00", Description: "LOCAL SUPERMARKET PURCHASE"}, "USD"},
		{"rm inside farmers market is not ringgit", parser.ParsedTransaction{RawAmount: "-8.50", Description: "FARMERS MARKET"}, "USD"},
		{"standalone rm amount is ringgit", parser.ParsedTransaction{RawAmount: "RM12.50"}, "MYR"},
		{"standalone rupiah marker", parser.ParsedTransaction{RawAmount: "Rp 50.000"}, "IDR"},
		{"chf as its own token", parser.ParsedTransaction{RawAmount: "CHF 12.00"}, "CHF"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(&tt.tx))
		})
	}
}

func TestPrimary(t *testing.T) {
	t.Run("frequency outweighs value", func(t *testing.T) {
		votes := []Vote{
			{Code: "EUR", AbsoluteCents: 1000},
			{Code: "EUR", AbsoluteCents: 2000},
			{Code: "EUR", AbsoluteCents: 1500},
			{Code: "USD", AbsoluteCents: 500000},
		}
		assert.Equal(t, "EUR", Primary(votes, DefaultVoteWeights))
	})

	t.Run("value breaks an even count", func(t *testing.T) {
		votes := []Vote{
			{Code: "USD", AbsoluteCents: 100},
			{Code: "EUR", AbsoluteCents: 90000},
		}
		assert.Equal(t, "EUR", Primary(votes, DefaultVoteWeights))
	})

	t.Run("exact tie keeps first seen", func(t *testing.T) {
		votes := []Vote{
			{Code: "GBP", AbsoluteCents: 1000},
			{Code: "EUR", AbsoluteCents: 1000},
		}
		assert.Equal(t, "GBP", Primary(votes, DefaultVoteWeights))
	})

	t.Run("empty batch defaults", func(t *testing.T) {
		assert.Equal(t, "USD", Primary(nil, DefaultVoteWeights))
	})
}

type stubProvider struct {
	rate  decimal.Decimal
	err   error
	calls int
}

func (s *stubProvider) FetchRate(_ context.Context, _, _ string) (decimal.Decimal, error) {
	s.calls++
	if s.err != nil {
		return decimal.Zero, s.err
	}
	return s.rate, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestConverter(t *testing.T) {
	ctx := context.Background()

	t.Run("converts through fetched rate", func(t *testing.T) {
		provider := &stubProvider{rate: decimal.NewFromFloat(0.85)}
		c := NewConverter(provider, time.Hour, testLogger())

		usd := money.New(10000, "USD")
		eur, err := c.Convert(ctx, usd, "EUR")
		require.NoError(t, err)
		assert.Equal(t, int64(8500), eur.Amount())
		assert.Equal(t, "EUR", eur.Currency())
	})

	t.Run("same currency is identity without fetch", func(t *testing.T) {
		provider := &stubProvider{rate: decimal.NewFromFloat(0.85)}
		c := NewConverter(provider, time.Hour, testLogger())

		usd := money.New(10000, "USD")
		same, err := c.Convert(ctx, usd, "USD")
		require.NoError(t, err)
		assert.Equal(t, usd, same)
		assert.Zero(t, provider.calls)
	})

	t.Run("second lookup hits the cache", func(t *testing.T) {
		provider := &stubProvider{rate: decimal.NewFromFloat(0.85)}
		c := NewConverter(provider, time.Hour, testLogger())

		_, err := c.Rate(ctx, "USD", "EUR")
		require.NoError(t, err)
		_, err = c.Rate(ctx, "USD", "EUR")
		require.NoError(t, err)
		assert.Equal(t, 1, provider.calls)
	})

	t.Run("inverse pair derives from cached rate", func(t *testing.T) {
		provider := &stubProvider{rate: decimal.NewFromFloat(0.8)}
		c := NewConverter(provider, time.Hour, testLogger())

		_, err := c.Rate(ctx, "USD", "EUR")
		require.NoError(t, err)

		r, err := c.Rate(ctx, "EUR", "USD")
		require.NoError(t, err)
		assert.True(t, r.Equal(decimal.NewFromFloat(1.25)), "got %s", r)
		assert.Equal(t, 1, provider.calls)
	})

	t.Run("provider failure is ErrRateUnavailable", func(t *testing.T) {
		provider := &stubProvider{err: errors.New("network down")}
		c := NewConverter(provider, time.Hour, testLogger())

		_, err := c.Rate(ctx, "USD", "EUR")
		assert.ErrorIs(t, err, ErrRateUnavailable)
	})
}

func TestStaticProvider(t *testing.T) {
	p := NewStaticProvider()
	ctx := context.Background()

	t.Run("crosses through usd", func(t *testing.T) {
		r, err := p.FetchRate(ctx, "EUR", "GBP")
		require.NoError(t, err)
		// (0.79 GBP per USD) / (0.92 EUR per USD)
		expected := decimal.NewFromFloat(0.79).Div(decimal.NewFromFloat(0.92))
		assert.True(t, r.Equal(expected), "got %s", r)
	})

	t.Run("unknown currency fails", func(t *testing.T) {
		_, err := p.FetchRate(ctx, "XXX", "USD")
		assert.Error(t, err)
	})
}

func TestFallbackProvider(t *testing.T) {
	broken := &stubProvider{err: errors.New("timeout")}
	p := NewFallbackProvider(broken, NewStaticProvider())

	r, err := p.FetchRate(context.Background(), "USD", "EUR")
	require.NoError(t, err)
	assert.True(t, r.Equal(decimal.NewFromFloat(0.92)))
	assert.Equal(t, 1, broken.calls)
}
