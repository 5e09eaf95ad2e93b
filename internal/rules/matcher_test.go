package rules

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CasperKristiansson/Finance-Tracker-sub000/internal/model"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func strptr(s string) *string { return &s }
func intptr(n int) *int       { return &n }

func feb(day int) time.Time {
	return time.Date(2025, 2, day, 0, 0, 0, 0, time.UTC)
}

func gymRule() model.Rule {
	return model.Rule{
		ID:          "r1",
		MatcherText: "gym",
		CategoryID:  strptr("cat-health"),
		Active:      true,
	}
}

func TestScore_SubstringOnly(t *testing.T) {
	m := Score(gymRule(), "Gym Unlimited", dec("-75.00"), feb(5))
	require.NotNil(t, m)
	assert.InDelta(t, 0.70, m.Score, 1e-9)
	assert.Equal(t, "category", m.RuleType)
	assert.Contains(t, m.Reason, `matched "gym"`)
}

func TestScore_NoSubstring(t *testing.T) {
	assert.Nil(t, Score(gymRule(), "Grocery Store", dec("-75.00"), feb(5)))
}

func TestScore_DayOfMonth(t *testing.T) {
	r := gymRule()
	r.MatcherDayOfMonth = intptr(5)

	// Exact day and one day off both pass with the bonus.
	for _, day := range []int{4, 5, 6} {
		m := Score(r, "Gym Unlimited", dec("-75.00"), feb(day))
		require.NotNil(t, m, "day %d", day)
		assert.InDelta(t, 0.85, m.Score, 1e-9)
		assert.Contains(t, m.Reason, "day≈5")
	}

	// Two days off is a hard rejection, not a down-weight.
	assert.Nil(t, Score(r, "Gym Unlimited", dec("-75.00"), feb(7)))
}

func TestScore_AmountTolerance(t *testing.T) {
	r := gymRule()
	amt := dec("75.00")
	r.MatcherAmount = &amt
	r.AmountTolerance = dec("1.50")

	m := Score(r, "Gym Unlimited", dec("-75.80"), feb(5))
	require.NotNil(t, m)
	assert.InDelta(t, 0.85, m.Score, 1e-9)

	// Outside the window: rejected outright.
	assert.Nil(t, Score(r, "Gym Unlimited", dec("-77.00"), feb(5)))
}

func TestScore_DefaultToleranceIsZero(t *testing.T) {
	r := gymRule()
	amt := dec("75.00")
	r.MatcherAmount = &amt

	require.NotNil(t, Score(r, "Gym Unlimited", dec("-75.00"), feb(5)))
	assert.Nil(t, Score(r, "Gym Unlimited", dec("-75.01"), feb(5)))
}

func TestScore_LinklessRuleRejected(t *testing.T) {
	r := gymRule()
	r.CategoryID = nil
	assert.Nil(t, Score(r, "Gym Unlimited", dec("-75.00"), feb(5)))
}

func TestScore_RuleType(t *testing.T) {
	r := gymRule()
	r.SubscriptionID = strptr("sub-1")
	m := Score(r, "Gym Unlimited", dec("-75.00"), feb(5))
	require.NotNil(t, m)
	assert.Equal(t, "category+subscription", m.RuleType)

	r.CategoryID = nil
	m = Score(r, "Gym Unlimited", dec("-75.00"), feb(5))
	require.NotNil(t, m)
	assert.Equal(t, "subscription", m.RuleType)
}

func TestBest_HighestScoreWins(t *testing.T) {
	weak := gymRule()
	strong := gymRule()
	strong.ID = "r2"
	strong.MatcherDayOfMonth = intptr(5)

	m := Best([]model.Rule{weak, strong}, "Gym Unlimited", dec("-75.00"), feb(5))
	require.NotNil(t, m)
	assert.Equal(t, "r2", m.Rule.ID)
}

func TestBest_TieGoesToFirstSeen(t *testing.T) {
	first := gymRule()
	second := gymRule()
	second.ID = "r2"

	m := Best([]model.Rule{first, second}, "Gym Unlimited", dec("-75.00"), feb(5))
	require.NotNil(t, m)
	assert.Equal(t, "r1", m.Rule.ID)
}

func TestBest_NoneSurvive(t *testing.T) {
	assert.Nil(t, Best([]model.Rule{gymRule()}, "Grocery Store", dec("-75.00"), feb(5)))
}

func TestLearnedTolerance(t *testing.T) {
	assert.Equal(t, "1", LearnedTolerance(dec("-10.00")).String())
	assert.Equal(t, "1", LearnedTolerance(dec("49.00")).String())
	assert.Equal(t, "1.5", LearnedTolerance(dec("-75.00")).String())
	assert.Equal(t, "57", LearnedTolerance(dec("2850.00")).String())
}

func TestLearn(t *testing.T) {
	now := feb(20)
	r := Learn("Gym Unlimited", dec("-75.00"), feb(5), strptr("cat-health"), nil, now)

	assert.Equal(t, "gym unlimited", r.MatcherText)
	require.NotNil(t, r.MatcherAmount)
	assert.Equal(t, "75.00", r.MatcherAmount.StringFixed(2))
	assert.Equal(t, "1.50", r.AmountTolerance.StringFixed(2))
	require.NotNil(t, r.MatcherDayOfMonth)
	assert.Equal(t, 5, *r.MatcherDayOfMonth)
	assert.Equal(t, 1, r.HitCount)
	assert.True(t, r.Active)
}

func TestReinforce_FillsOnlyUnsetFields(t *testing.T) {
	now := feb(20)
	r := gymRule()
	r.MatcherDayOfMonth = intptr(5)
	amt := dec("75.00")
	r.MatcherAmount = &amt
	r.AmountTolerance = dec("0.25")
	r.HitCount = 3

	Reinforce(&r, dec("-80.00"), feb(9), strptr("cat-other"), strptr("sub-1"), now)

	// Existing category, amount, tolerance and day are untouched.
	assert.Equal(t, "cat-health", *r.CategoryID)
	assert.Equal(t, "75.00", r.MatcherAmount.StringFixed(2))
	assert.Equal(t, "0.25", r.AmountTolerance.StringFixed(2))
	assert.Equal(t, 5, *r.MatcherDayOfMonth)

	// Unset subscription link is filled; bookkeeping advances.
	require.NotNil(t, r.SubscriptionID)
	assert.Equal(t, "sub-1", *r.SubscriptionID)
	assert.Equal(t, 4, r.HitCount)
	require.NotNil(t, r.LastHitAt)
	assert.Equal(t, now, *r.LastHitAt)
}

func TestReinforce_FillsAmountAndDayWhenUnset(t *testing.T) {
	r := gymRule()
	Reinforce(&r, dec("-75.00"), feb(5), nil, nil, feb(20))

	require.NotNil(t, r.MatcherAmount)
	assert.Equal(t, "75.00", r.MatcherAmount.StringFixed(2))
	assert.Equal(t, "1.50", r.AmountTolerance.StringFixed(2))
	require.NotNil(t, r.MatcherDayOfMonth)
	assert.Equal(t, 5, *r.MatcherDayOfMonth)
}
