package suggest

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CasperKristiansson/Finance-Tracker-sub000/internal/logger"
	"github.com/CasperKristiansson/Finance-Tracker-sub000/internal/model"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func strptr(s string) *string { return &s }
func intptr(n int) *int       { return &n }

func day(t string) time.Time {
	d, _ := time.Parse("2006-01-02", t)
	return d
}

func row(date, desc, amount string) model.DraftRow {
	return model.DraftRow{Date: day(date), Description: desc, Amount: dec(amount)}
}

var testCategories = []model.Category{
	{ID: "cat-health", Name: "Health", Active: true},
	{ID: "cat-groceries", Name: "Groceries", Active: true},
}

func newEngine() *Engine {
	return New([]KeywordMapping{
		{Keyword: "ica", Category: "Groceries"},
		{Keyword: "gym", Category: "Health"},
	}, logger.Nop())
}

func TestAnnotate_RuleLockedCategoryAndSubscription(t *testing.T) {
	// The seeded rule carries both links; the row must lock to it at
	// rule-level confidence on both suggestions.
	rule := model.Rule{
		ID:                "r1",
		MatcherText:       "gym",
		MatcherDayOfMonth: intptr(5),
		CategoryID:        strptr("cat-health"),
		SubscriptionID:    strptr("sub-gym"),
		Active:            true,
	}
	subs := []model.Subscription{{ID: "sub-gym", Name: "Gym Unlimited", Matcher: "gym", Active: true}}
	rows := []model.DraftRow{row("2025-02-05", "Gym Unlimited", "-75.00")}

	newEngine().Annotate(rows, []model.Rule{rule}, testCategories, subs)

	r := rows[0]
	assert.True(t, r.RuleApplied)
	assert.Equal(t, "category+subscription", r.RuleType)
	assert.NotEmpty(t, r.RuleSummary)

	require.NotNil(t, r.Category)
	assert.Equal(t, "cat-health", r.Category.CategoryID)
	assert.Equal(t, "Health", r.Category.CategoryName)
	assert.GreaterOrEqual(t, r.Category.Confidence, 0.95)

	require.NotNil(t, r.Subscription)
	assert.Equal(t, "sub-gym", r.Subscription.SubscriptionID)
	assert.Equal(t, "Gym Unlimited", r.Subscription.SubscriptionName)
	assert.GreaterOrEqual(t, r.Subscription.Confidence, 0.99)
}

func TestAnnotate_RuleOutranksKeyword(t *testing.T) {
	// "gym" is also in the keyword table; the rule must win.
	rule := model.Rule{ID: "r1", MatcherText: "gym", CategoryID: strptr("cat-groceries"), Active: true}
	rows := []model.DraftRow{row("2025-02-05", "Gym Unlimited", "-75.00")}

	newEngine().Annotate(rows, []model.Rule{rule}, testCategories, nil)

	require.NotNil(t, rows[0].Category)
	assert.Equal(t, "cat-groceries", rows[0].Category.CategoryID)
	assert.InDelta(t, 0.95, rows[0].Category.Confidence, 1e-9)
}

func TestAnnotate_KeywordFallback(t *testing.T) {
	rows := []model.DraftRow{row("2025-02-05", "ICA SUPERMARKET", "-250.00")}

	newEngine().Annotate(rows, nil, testCategories, nil)

	r := rows[0]
	assert.False(t, r.RuleApplied)
	require.NotNil(t, r.Category)
	assert.Equal(t, "cat-groceries", r.Category.CategoryID)
	assert.InDelta(t, 0.65, r.Category.Confidence, 1e-9)
	assert.Contains(t, r.Category.Reason, "ica")
}

func TestAnnotate_NoSignalFallback(t *testing.T) {
	rows := []model.DraftRow{row("2025-02-05", "UNKNOWN MERCHANT", "-123.45")}

	newEngine().Annotate(rows, nil, testCategories, nil)

	require.NotNil(t, rows[0].Category)
	assert.Empty(t, rows[0].Category.CategoryID)
	assert.InDelta(t, 0.30, rows[0].Category.Confidence, 1e-9)
	assert.Equal(t, "no signal for -123.45", rows[0].Category.Reason)
	assert.Nil(t, rows[0].Subscription)
}

func TestSuggestSubscription_RegexScoringForPlainText(t *testing.T) {
	// A plain word compiles as a regex, so it takes the regex base score.
	subs := []model.Subscription{{ID: "s1", Name: "Spotify", Matcher: "spotify", Active: true}}
	rows := []model.DraftRow{row("2025-02-05", "SPOTIFY AB", "-119.00")}

	newEngine().Annotate(rows, nil, testCategories, subs)

	require.NotNil(t, rows[0].Subscription)
	assert.InDelta(t, 0.82, rows[0].Subscription.Confidence, 1e-9)
}

func TestSuggestSubscription_SubstringFallbackForInvalidRegex(t *testing.T) {
	// "c++" does not compile; the matcher degrades to a substring check.
	subs := []model.Subscription{{ID: "s1", Name: "Course", Matcher: "c++", Active: true}}
	rows := []model.DraftRow{row("2025-02-05", "C++ COURSE MONTHLY", "-99.00")}

	newEngine().Annotate(rows, nil, testCategories, subs)

	require.NotNil(t, rows[0].Subscription)
	assert.InDelta(t, 0.80, rows[0].Subscription.Confidence, 1e-9)
	assert.Contains(t, rows[0].Subscription.Reason, "matched")
}

func TestSuggestSubscription_DayBonusAndPenalty(t *testing.T) {
	subs := []model.Subscription{{
		ID: "s1", Name: "Spotify", Matcher: "spotify",
		MatcherDayOfMonth: intptr(5), Active: true,
	}}

	exact := []model.DraftRow{row("2025-02-05", "SPOTIFY AB", "-119.00")}
	newEngine().Annotate(exact, nil, testCategories, subs)
	require.NotNil(t, exact[0].Subscription)
	assert.InDelta(t, 0.92, exact[0].Subscription.Confidence, 1e-9)

	// Day mismatch drops the score below the acceptance threshold, so no
	// suggestion surfaces (0.82 - 0.05 = 0.77).
	off := []model.DraftRow{row("2025-02-09", "SPOTIFY AB", "-119.00")}
	newEngine().Annotate(off, nil, testCategories, subs)
	assert.Nil(t, off[0].Subscription)
}

func TestSuggestSubscription_RegexMatcher(t *testing.T) {
	subs := []model.Subscription{{ID: "s1", Name: "Netflix", Matcher: "netflix|nflx", Active: true}}
	rows := []model.DraftRow{row("2025-02-05", "NFLX.COM", "-109.00")}

	newEngine().Annotate(rows, nil, testCategories, subs)

	require.NotNil(t, rows[0].Subscription)
	assert.InDelta(t, 0.82, rows[0].Subscription.Confidence, 1e-9)
	assert.Contains(t, rows[0].Subscription.Reason, "pattern")
}

func TestSuggestSubscription_AmountToleranceReject(t *testing.T) {
	tol := dec("2.00")
	last := dec("119.00")
	subs := []model.Subscription{{
		ID: "s1", Name: "Spotify", Matcher: "spotify",
		AmountTolerance: &tol, LastChargeAmount: &last, Active: true,
	}}

	// Within tolerance: base 0.82 + 0.08.
	ok := []model.DraftRow{row("2025-02-05", "SPOTIFY AB", "-120.00")}
	newEngine().Annotate(ok, nil, testCategories, subs)
	require.NotNil(t, ok[0].Subscription)
	assert.InDelta(t, 0.90, ok[0].Subscription.Confidence, 1e-9)

	// Outside tolerance: rejected outright.
	bad := []model.DraftRow{row("2025-02-05", "SPOTIFY AB", "-129.00")}
	newEngine().Annotate(bad, nil, testCategories, subs)
	assert.Nil(t, bad[0].Subscription)
}

func TestSuggestSubscription_ConfidenceCap(t *testing.T) {
	tol := dec("2.00")
	last := dec("119.00")
	subs := []model.Subscription{{
		ID: "s1", Name: "Spotify", Matcher: "spotify",
		MatcherDayOfMonth: intptr(5),
		AmountTolerance:   &tol, LastChargeAmount: &last, Active: true,
	}}
	rows := []model.DraftRow{row("2025-02-05", "SPOTIFY AB", "-119.00")}

	newEngine().Annotate(rows, nil, testCategories, subs)

	// 0.82 + 0.10 + 0.08 exceeds the cap and clamps to 0.98.
	require.NotNil(t, rows[0].Subscription)
	assert.InDelta(t, 0.98, rows[0].Subscription.Confidence, 1e-9)
}

func TestMatchTransfers_PairsOppositeAmounts(t *testing.T) {
	rows := []model.DraftRow{
		row("2024-01-02", "TO SAVINGS", "100.00"),
		row("2024-01-01", "FROM CHECKING", "-100.00"),
	}

	MatchTransfers(rows)

	require.NotNil(t, rows[0].Transfer)
	require.NotNil(t, rows[1].Transfer)
	assert.Equal(t, 2, rows[0].Transfer.PairedWith)
	assert.Equal(t, 1, rows[1].Transfer.PairedWith)
	assert.Equal(t, TransferReason, rows[0].Transfer.Reason)
}

func TestMatchTransfers_WindowExceeded(t *testing.T) {
	rows := []model.DraftRow{
		row("2024-01-01", "TO SAVINGS", "50.00"),
		row("2024-01-10", "FROM CHECKING", "-50.00"),
	}

	MatchTransfers(rows)

	assert.Nil(t, rows[0].Transfer)
	assert.Nil(t, rows[1].Transfer)
}

func TestMatchTransfers_MutuallyExclusive(t *testing.T) {
	rows := []model.DraftRow{
		row("2024-01-01", "OUT A", "100.00"),
		row("2024-01-01", "IN B", "-100.00"),
		row("2024-01-01", "IN C", "-100.00"),
	}

	MatchTransfers(rows)

	// First opposite row wins; the third stays unpaired.
	require.NotNil(t, rows[0].Transfer)
	assert.Equal(t, 2, rows[0].Transfer.PairedWith)
	require.NotNil(t, rows[1].Transfer)
	assert.Equal(t, 1, rows[1].Transfer.PairedWith)
	assert.Nil(t, rows[2].Transfer)
}

func TestMatchTransfers_ZeroAmountsIgnored(t *testing.T) {
	rows := []model.DraftRow{
		row("2024-01-01", "A", "0"),
		row("2024-01-01", "B", "0"),
	}

	MatchTransfers(rows)

	assert.Nil(t, rows[0].Transfer)
	assert.Nil(t, rows[1].Transfer)
}
