package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/CasperKristiansson/Finance-Tracker-sub000/internal/id"
	"github.com/CasperKristiansson/Finance-Tracker-sub000/internal/model"
)

func openTestDB(t *testing.T) *SQLite {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLite(db, "Import Offset")
}

func TestSQLite_AccountRoundTrip(t *testing.T) {
	st := openTestDB(t)
	ctx := context.Background()

	account := model.Account{ID: id.New(), Name: "Checking", BankFormat: model.BankFormatSwedbank, Active: true}
	require.NoError(t, st.Accounts().Create(ctx, account))

	got, err := st.Accounts().Get(ctx, account.ID)
	require.NoError(t, err)
	require.Equal(t, account, got)

	_, err = st.Accounts().Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSQLite_OffsetCreatedOnce(t *testing.T) {
	st := openTestDB(t)
	ctx := context.Background()

	first, err := st.Accounts().Offset(ctx)
	require.NoError(t, err)
	require.True(t, first.Offset)
	require.False(t, first.Active)

	second, err := st.Accounts().Offset(ctx)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
}

func TestSQLite_RuleUpsertByID(t *testing.T) {
	st := openTestDB(t)
	ctx := context.Background()

	amount := decimal.NewFromFloat(412.50)
	day := 3
	hit := time.Date(2025, 2, 3, 10, 0, 0, 0, time.UTC)
	rule := model.Rule{
		ID:                id.New(),
		MatcherText:       "ica maxi",
		MatcherAmount:     &amount,
		AmountTolerance:   decimal.NewFromFloat(8.25),
		MatcherDayOfMonth: &day,
		HitCount:          1,
		LastHitAt:         &hit,
		Active:            true,
	}
	require.NoError(t, st.Rules().Upsert(ctx, rule))

	rule.HitCount = 2
	require.NoError(t, st.Rules().Upsert(ctx, rule))

	got, err := st.Rules().FindByText(ctx, "ica maxi")
	require.NoError(t, err)
	require.Equal(t, 2, got.HitCount)
	require.NotNil(t, got.MatcherAmount)
	require.True(t, got.MatcherAmount.Equal(amount))
	require.True(t, got.AmountTolerance.Equal(decimal.NewFromFloat(8.25)))
	require.NotNil(t, got.MatcherDayOfMonth)
	require.Equal(t, 3, *got.MatcherDayOfMonth)
	require.NotNil(t, got.LastHitAt)
	require.True(t, got.LastHitAt.Equal(hit))

	active, err := st.Rules().ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
}

func TestSQLite_RuleUpsertByMatcherText(t *testing.T) {
	st := openTestDB(t)
	ctx := context.Background()

	first := model.Rule{ID: id.New(), MatcherText: "spotify ab", AmountTolerance: decimal.Zero, HitCount: 1, Active: true}
	require.NoError(t, st.Rules().Upsert(ctx, first))

	// A freshly learned rule for the same text carries a new id; the
	// matcher_text uniqueness folds it into the stored row.
	second := model.Rule{ID: id.New(), MatcherText: "spotify ab", AmountTolerance: decimal.Zero, HitCount: 5, Active: true}
	require.NoError(t, st.Rules().Upsert(ctx, second))

	active, err := st.Rules().ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, first.ID, active[0].ID)
	require.Equal(t, 5, active[0].HitCount)
}

func TestSQLite_TransactionWithLegsAndTaxEvent(t *testing.T) {
	st := openTestDB(t)
	ctx := context.Background()

	account := model.Account{ID: id.New(), Name: "Checking", Active: true}
	require.NoError(t, st.Accounts().Create(ctx, account))
	offset, err := st.Accounts().Offset(ctx)
	require.NoError(t, err)

	var txnID string
	batchID := ""
	err = st.RunInTransaction(ctx, func(tx Store) error {
		batch := model.ImportBatch{Note: "feb import"}
		if err := tx.Batches().Create(ctx, &batch); err != nil {
			return err
		}
		batchID = batch.ID

		txn := &model.Transaction{
			Type:          model.TypeAdjustment,
			Description:   "SKATTEVERKET",
			OccurredAt:    time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
			ImportBatchID: &batch.ID,
			CreatedSource: model.SourceImport,
			Legs: []model.Leg{
				{AccountID: account.ID, Amount: decimal.NewFromInt(100)},
				{AccountID: offset.ID, Amount: decimal.NewFromInt(-100)},
			},
		}
		if err := tx.Transactions().Create(ctx, txn); err != nil {
			return err
		}
		txnID = txn.ID

		return tx.TaxEvents().Create(ctx, model.TaxEvent{
			ID:            id.New(),
			TransactionID: txn.ID,
			EventType:     model.TaxEventRefund,
		})
	})
	require.NoError(t, err)

	txns, err := st.Transactions().ListByBatch(ctx, batchID)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	require.Equal(t, txnID, txns[0].ID)
	require.Equal(t, model.SourceImport, txns[0].CreatedSource)
	require.Len(t, txns[0].Legs, 2)
	require.True(t, txns[0].Legs[0].Amount.Equal(decimal.NewFromInt(100)))

	event, err := st.TaxEvents().GetByTransaction(ctx, txnID)
	require.NoError(t, err)
	require.Equal(t, model.TaxEventRefund, event.EventType)

	recent, err := st.Transactions().ListRecentByAccount(ctx, account.ID, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
}

func TestSQLite_RunInTransactionRollsBack(t *testing.T) {
	st := openTestDB(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := st.RunInTransaction(ctx, func(tx Store) error {
		if err := tx.Categories().Create(ctx, model.Category{ID: id.New(), Name: "Doomed", Active: true}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = st.Categories().GetByName(ctx, "doomed")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSQLite_SubscriptionRoundTrip(t *testing.T) {
	st := openTestDB(t)
	ctx := context.Background()

	day := 5
	tol := decimal.NewFromInt(2)
	last := decimal.NewFromInt(75)
	sub := model.Subscription{
		ID: id.New(), Name: "Gym Unlimited", Matcher: "gym unlimited",
		MatcherDayOfMonth: &day, AmountTolerance: &tol, LastChargeAmount: &last, Active: true,
	}
	require.NoError(t, st.Subscriptions().Create(ctx, sub))

	got, err := st.Subscriptions().Get(ctx, sub.ID)
	require.NoError(t, err)
	require.Equal(t, sub.Name, got.Name)
	require.NotNil(t, got.AmountTolerance)
	require.True(t, got.AmountTolerance.Equal(tol))
	require.NotNil(t, got.LastChargeAmount)
	require.True(t, got.LastChargeAmount.Equal(last))

	active, err := st.Subscriptions().ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
}
