package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Terms are the priced terms of a loan before or after commitment.
type Terms struct {
	Principal decimal.Decimal `json:"initial_amount"`
	Rate      decimal.Decimal `json:"interest_rate"`
	Interest  decimal.Decimal `json:"interest"`
	Total     decimal.Decimal `json:"total"`
}

// RatePolicy decides the interest rate for a principal and term.
type RatePolicy interface {
	Rate(principal decimal.Decimal, term time.Duration) decimal.Decimal
}

// FixedRatePolicy applies a single rate regardless of principal or term.
type FixedRatePolicy struct {
	rate decimal.Decimal
}

func NewFixedRatePolicy(rate decimal.Decimal) *FixedRatePolicy {
	return &FixedRatePolicy{rate: rate}
}

func (p *FixedRatePolicy) Rate(principal decimal.Decimal, term time.Duration) decimal.Decimal {
	return p.rate
}

// TieredRatePolicy scales the rate with the principal and adds a long-term
// surcharge for loans running past a year.
type TieredRatePolicy struct{}

func NewTieredRatePolicy() *TieredRatePolicy {
	return &TieredRatePolicy{}
}

var (
	tierHigh = decimal.NewFromInt(20000)
	tierMid  = decimal.NewFromInt(10000)

	rateHigh = decimal.NewFromFloat(0.05)
	rateMid  = decimal.NewFromFloat(0.04)
	rateLow  = decimal.NewFromFloat(0.03)

	longTermSurcharge = decimal.NewFromFloat(0.01)
)

func (p *TieredRatePolicy) Rate(principal decimal.Decimal, term time.Duration) decimal.Decimal {
	var rate decimal.Decimal
	switch {
	case principal.GreaterThan(tierHigh):
		rate = rateHigh
	case principal.GreaterThan(tierMid):
		rate = rateMid
	default:
		rate = rateLow
	}

	if term > 365*24*time.Hour {
		rate = rate.Add(longTermSurcharge).Round(2)
	}
	return rate
}

// Pricer computes loan terms and enforces the quoting rules.
type Pricer struct {
	policy       RatePolicy
	minPrincipal decimal.Decimal
}

func NewPricer(policy RatePolicy, minPrincipal decimal.Decimal) *Pricer {
	return &Pricer{policy: policy, minPrincipal: minPrincipal}
}

// Quote prices a loan. The due date must be strictly in the future and the
// principal at or above the configured minimum.
func (p *Pricer) Quote(principal decimal.Decimal, dueAt, now time.Time) (Terms, error) {
	if principal.LessThan(p.minPrincipal) {
		return Terms{}, ErrInvalidAmount
	}
	if !dueAt.After(now) {
		return Terms{}, ErrInvalidDueDate
	}

	rate := p.policy.Rate(principal, dueAt.Sub(now))
	interest := principal.Mul(rate).Round(2)

	return Terms{
		Principal: principal,
		Rate:      rate,
		Interest:  interest,
		Total:     principal.Add(interest),
	}, nil
}
