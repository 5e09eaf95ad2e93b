package suggest

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/CasperKristiansson/Finance-Tracker-sub000/internal/model"
	"github.com/CasperKristiansson/Finance-Tracker-sub000/internal/rules"
)

const (
	ruleSubscriptionConfidence = 0.99
	subRegexBase               = 0.82
	subSubstringBase           = 0.80
	subDayBonus                = 0.10
	subDayPenalty              = 0.05
	subAmountBonus             = 0.08
	subConfidenceCap           = 0.98

	// subAcceptThreshold is the floor below which no subscription
	// suggestion is surfaced at all.
	subAcceptThreshold = 0.80
)

// suggestSubscription returns the best subscription candidate for a row,
// or nil when nothing clears the acceptance threshold.
func (e *Engine) suggestSubscription(row *model.DraftRow, match *rules.Match, subs []model.Subscription, subsByID map[string]model.Subscription) *model.SubscriptionSuggestion {
	if match != nil && match.Rule.SubscriptionID != nil {
		s := &model.SubscriptionSuggestion{
			SubscriptionID: *match.Rule.SubscriptionID,
			Confidence:     ruleSubscriptionConfidence,
			Reason:         "rule: " + match.Reason,
		}
		if sub, ok := subsByID[s.SubscriptionID]; ok {
			s.SubscriptionName = sub.Name
		}
		return s
	}

	var best *model.SubscriptionSuggestion
	for _, sub := range subs {
		candidate := scoreSubscription(sub, row)
		if candidate == nil {
			continue
		}
		if best == nil || candidate.Confidence > best.Confidence {
			best = candidate
		}
	}
	if best == nil || best.Confidence < subAcceptThreshold {
		return nil
	}
	return best
}

// scoreSubscription evaluates one subscription against a row. A matcher
// that compiles is treated as a regex; otherwise it falls back to a plain
// substring check. Returns nil when the text does not match or the amount
// drifts outside the subscription's tolerance.
func scoreSubscription(sub model.Subscription, row *model.DraftRow) *model.SubscriptionSuggestion {
	matcher := strings.TrimSpace(sub.Matcher)
	if matcher == "" {
		return nil
	}

	var score float64
	var reasons []string
	if re, err := regexp.Compile("(?i)" + matcher); err == nil {
		if !re.MatchString(row.Description) {
			return nil
		}
		score = subRegexBase
		reasons = append(reasons, fmt.Sprintf("pattern %q", matcher))
	} else {
		if !strings.Contains(strings.ToLower(row.Description), strings.ToLower(matcher)) {
			return nil
		}
		score = subSubstringBase
		reasons = append(reasons, fmt.Sprintf("matched %q", matcher))
	}

	if sub.MatcherDayOfMonth != nil {
		if row.Date.Day() == *sub.MatcherDayOfMonth {
			score += subDayBonus
			reasons = append(reasons, fmt.Sprintf("day %d", *sub.MatcherDayOfMonth))
		} else {
			score -= subDayPenalty
		}
	}

	if sub.AmountTolerance != nil && sub.LastChargeAmount != nil {
		delta := row.Amount.Abs().Sub(sub.LastChargeAmount.Abs()).Abs()
		if delta.GreaterThan(*sub.AmountTolerance) {
			return nil
		}
		score += subAmountBonus
		reasons = append(reasons, fmt.Sprintf("amount within ±%s", sub.AmountTolerance.StringFixed(2)))
	}

	if score > subConfidenceCap {
		score = subConfidenceCap
	}
	return &model.SubscriptionSuggestion{
		SubscriptionID:   sub.ID,
		SubscriptionName: sub.Name,
		Confidence:       score,
		Reason:           strings.Join(reasons, ", "),
	}
}
