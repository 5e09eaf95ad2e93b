package rules

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/CasperKristiansson/Finance-Tracker-sub000/internal/id"
	"github.com/CasperKristiansson/Finance-Tracker-sub000/internal/model"
)

// minTolerance is the floor for a learned amount tolerance.
var minTolerance = decimal.NewFromInt(1)

// toleranceRate widens the tolerance for larger amounts (2%).
var toleranceRate = decimal.NewFromFloat(0.02)

// LearnedTolerance derives the amount tolerance for a newly learned rule:
// max(1.00, round(|amount| * 0.02, 2)).
func LearnedTolerance(amount decimal.Decimal) decimal.Decimal {
	tol := amount.Abs().Mul(toleranceRate).Round(2)
	if tol.LessThan(minTolerance) {
		return minTolerance
	}
	return tol
}

// Learn builds a new rule from a committed row that carried an explicit
// category and/or subscription.
func Learn(description string, amount decimal.Decimal, occurredAt time.Time, categoryID, subscriptionID *string, now time.Time) model.Rule {
	day := occurredAt.Day()
	amt := amount.Abs()
	return model.Rule{
		ID:                id.New(),
		MatcherText:       strings.ToLower(strings.TrimSpace(description)),
		MatcherAmount:     &amt,
		AmountTolerance:   LearnedTolerance(amount),
		MatcherDayOfMonth: &day,
		CategoryID:        categoryID,
		SubscriptionID:    subscriptionID,
		HitCount:          1,
		LastHitAt:         &now,
		Active:            true,
	}
}

// Reinforce updates an existing rule in place from a newly committed row.
// Only unset fields are filled: an explicit tolerance or day-of-month on
// the stored rule is never overwritten.
func Reinforce(r *model.Rule, amount decimal.Decimal, occurredAt time.Time, categoryID, subscriptionID *string, now time.Time) {
	if r.CategoryID == nil && categoryID != nil {
		r.CategoryID = categoryID
	}
	if r.SubscriptionID == nil && subscriptionID != nil {
		r.SubscriptionID = subscriptionID
	}
	if r.MatcherAmount == nil {
		amt := amount.Abs()
		r.MatcherAmount = &amt
		r.AmountTolerance = LearnedTolerance(amount)
	}
	if r.MatcherDayOfMonth == nil {
		day := occurredAt.Day()
		r.MatcherDayOfMonth = &day
	}
	r.HitCount++
	r.LastHitAt = &now
}
