package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Rule is a persisted matcher learned from committed imports. It suggests
// a category and/or subscription for future rows with similar descriptions.
type Rule struct {
	ID          string
	MatcherText string // lower-cased substring matched against descriptions

	// MatcherAmount, when set, restricts matches to amounts within
	// AmountTolerance of its absolute value.
	MatcherAmount   *decimal.Decimal
	AmountTolerance decimal.Decimal

	// MatcherDayOfMonth, when set, restricts matches to dates within one
	// day of that day of month.
	MatcherDayOfMonth *int

	CategoryID     *string
	SubscriptionID *string

	HitCount  int
	LastHitAt *time.Time
	Active    bool
}

// Type classifies the rule by which links it carries:
// "category", "subscription", or "category+subscription".
func (r Rule) Type() string {
	switch {
	case r.CategoryID != nil && r.SubscriptionID != nil:
		return "category+subscription"
	case r.SubscriptionID != nil:
		return "subscription"
	default:
		return "category"
	}
}
