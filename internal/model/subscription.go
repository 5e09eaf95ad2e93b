package model

import "github.com/shopspring/decimal"

// Subscription is a recurring charge the suggestion engine tries to
// recognize in statement descriptions.
type Subscription struct {
	ID      string
	Name    string
	Matcher string // regex if it compiles, otherwise a plain substring

	// MatcherDayOfMonth, when set, is the day the charge usually lands on.
	MatcherDayOfMonth *int

	// AmountTolerance, when set together with a known LastChargeAmount,
	// bounds how far a candidate row's amount may drift.
	AmountTolerance  *decimal.Decimal
	LastChargeAmount *decimal.Decimal

	Active bool
}
