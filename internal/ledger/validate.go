// Package ledger enforces the double-entry invariant on transaction legs.
// Both the import commit path and the ordinary transaction-creation path
// go through ValidateLegs; the transaction writer invokes it internally so
// no caller can persist an unbalanced transaction.
package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/CasperKristiansson/Finance-Tracker-sub000/internal/model"
)

// balanceTolerance is how far from zero a transaction's legs may net.
var balanceTolerance = decimal.NewFromFloat(0.01)

// ValidationError describes a single invariant violation.
type ValidationError struct {
	Invariant   int
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invariant %d: %s", e.Invariant, e.Description)
}

// ValidateLegs enforces the ledger invariants on one transaction's legs
// and returns the first violation found:
//
//	1: at least two legs
//	2: every leg references an account
//	3: no zero-amount legs
//	4: at least one positive and one negative leg
//	5: legs net to zero within the tolerance
func ValidateLegs(legs []model.Leg) error {
	if len(legs) < 2 {
		return ValidationError{Invariant: 1, Description: fmt.Sprintf("transaction has %d legs, need at least 2", len(legs))}
	}

	sum := decimal.Zero
	hasPositive := false
	hasNegative := false
	for i, leg := range legs {
		if leg.AccountID == "" {
			return ValidationError{Invariant: 2, Description: fmt.Sprintf("leg %d has no account", i+1)}
		}
		if leg.Amount.IsZero() {
			return ValidationError{Invariant: 3, Description: fmt.Sprintf("leg %d has zero amount", i+1)}
		}
		if leg.Amount.IsPositive() {
			hasPositive = true
		} else {
			hasNegative = true
		}
		sum = sum.Add(leg.Amount)
	}

	if !hasPositive || !hasNegative {
		return ValidationError{Invariant: 4, Description: "transaction needs both a positive and a negative leg"}
	}
	if sum.Abs().GreaterThan(balanceTolerance) {
		return ValidationError{Invariant: 5, Description: fmt.Sprintf("legs sum to %s, not zero", sum.StringFixed(2))}
	}
	return nil
}
