// Package rules scores persisted matcher rules against statement rows and
// derives new rules from committed imports.
package rules

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/CasperKristiansson/Finance-Tracker-sub000/internal/model"
)

const (
	baseScore      = 0.70
	dayBonus       = 0.15
	amountBonus    = 0.15
	matchThreshold = 0.70
)

// Match is a scored rule hit for one row.
type Match struct {
	Rule     model.Rule
	Score    float64
	RuleType string
	Reason   string
}

// Score evaluates one rule against a row. Returns nil when the rule does
// not apply: the matcher text is not a substring of the description, the
// day-of-month or amount constraint fails hard, or the rule links neither
// a category nor a subscription.
func Score(rule model.Rule, description string, amount decimal.Decimal, occurredAt time.Time) *Match {
	if rule.CategoryID == nil && rule.SubscriptionID == nil {
		return nil
	}

	text := strings.ToLower(strings.TrimSpace(rule.MatcherText))
	if text == "" || !strings.Contains(strings.ToLower(description), text) {
		return nil
	}

	score := baseScore
	reasons := []string{fmt.Sprintf("matched %q", text)}

	if rule.MatcherDayOfMonth != nil {
		day := *rule.MatcherDayOfMonth
		diff := occurredAt.Day() - day
		if diff < 0 {
			diff = -diff
		}
		if diff > 1 {
			return nil
		}
		score += dayBonus
		reasons = append(reasons, fmt.Sprintf("day≈%d", day))
	}

	if rule.MatcherAmount != nil {
		delta := amount.Abs().Sub(rule.MatcherAmount.Abs()).Abs()
		if delta.GreaterThan(rule.AmountTolerance) {
			return nil
		}
		score += amountBonus
		reasons = append(reasons, fmt.Sprintf("amount %s within ±%s of %s",
			amount.Abs().StringFixed(2), rule.AmountTolerance.StringFixed(2), rule.MatcherAmount.Abs().StringFixed(2)))
	}

	return &Match{
		Rule:     rule,
		Score:    score,
		RuleType: rule.Type(),
		Reason:   strings.Join(reasons, ", "),
	}
}

// Best returns the highest-scoring surviving rule for a row, or nil when
// none clears the threshold. Ties go to the rule evaluated first.
func Best(active []model.Rule, description string, amount decimal.Decimal, occurredAt time.Time) *Match {
	var best *Match
	for _, rule := range active {
		m := Score(rule, description, amount, occurredAt)
		if m == nil || m.Score < matchThreshold {
			continue
		}
		if best == nil || m.Score > best.Score {
			best = m
		}
	}
	return best
}
