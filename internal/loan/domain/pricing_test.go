package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPricer() *Pricer {
	return NewPricer(NewFixedRatePolicy(decimal.NewFromFloat(0.02)), decimal.NewFromInt(1000))
}

func TestQuoteFixedRate(t *testing.T) {
	pricer := newTestPricer()
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	dueAt := now.Add(30 * 24 * time.Hour)

	terms, err := pricer.Quote(decimal.NewFromInt(1000), dueAt, now)
	require.NoError(t, err)

	assert.Equal(t, "20.00", terms.Interest.StringFixed(2))
	assert.Equal(t, "1020.00", terms.Total.StringFixed(2))
	assert.True(t, terms.Rate.Equal(decimal.NewFromFloat(0.02)))
}

func TestQuoteRejectsPrincipalBelowMinimum(t *testing.T) {
	pricer := newTestPricer()
	now := time.Now()

	_, err := pricer.Quote(decimal.NewFromInt(500), now.Add(time.Hour), now)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	// Exactly at the minimum is accepted.
	_, err = pricer.Quote(decimal.NewFromInt(1000), now.Add(time.Hour), now)
	assert.NoError(t, err)
}

func TestQuoteRejectsPastDueDate(t *testing.T) {
	pricer := newTestPricer()
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	_, err := pricer.Quote(decimal.NewFromInt(2000), now.Add(-time.Minute), now)
	assert.ErrorIs(t, err, ErrInvalidDueDate)

	_, err = pricer.Quote(decimal.NewFromInt(2000), now, now)
	assert.ErrorIs(t, err, ErrInvalidDueDate)
}

func TestTieredRatePolicy(t *testing.T) {
	policy := NewTieredRatePolicy()
	shortTerm := 30 * 24 * time.Hour
	longTerm := 400 * 24 * time.Hour

	tests := []struct {
		name      string
		principal int64
		term      time.Duration
		want      string
	}{
		{"low tier", 5000, shortTerm, "0.03"},
		{"low tier boundary", 10000, shortTerm, "0.03"},
		{"mid tier", 15000, shortTerm, "0.04"},
		{"mid tier boundary", 20000, shortTerm, "0.04"},
		{"high tier", 25000, shortTerm, "0.05"},
		{"long term surcharge", 5000, longTerm, "0.04"},
		{"high tier long term", 25000, longTerm, "0.06"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rate := policy.Rate(decimal.NewFromInt(tt.principal), tt.term)
			assert.True(t, rate.Equal(decimal.RequireFromString(tt.want)),
				"got %s, want %s", rate, tt.want)
		})
	}
}

func TestQuoteTieredInterestRounding(t *testing.T) {
	pricer := NewPricer(NewTieredRatePolicy(), decimal.NewFromInt(1000))
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	terms, err := pricer.Quote(decimal.RequireFromString("10001.55"), now.Add(24*time.Hour), now)
	require.NoError(t, err)

	// 10001.55 * 0.04 = 400.062, rounded to 2 decimals.
	assert.Equal(t, "400.06", terms.Interest.StringFixed(2))
	assert.Equal(t, "10401.61", terms.Total.StringFixed(2))
}
