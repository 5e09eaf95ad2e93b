// Package commit converts operator-confirmed draft rows into persisted,
// balanced double-entry transactions. The whole batch is one unit of work:
// any row's validation failure aborts everything.
package commit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/CasperKristiansson/Finance-Tracker-sub000/internal/id"
	"github.com/CasperKristiansson/Finance-Tracker-sub000/internal/model"
	"github.com/CasperKristiansson/Finance-Tracker-sub000/internal/numeric"
	"github.com/CasperKristiansson/Finance-Tracker-sub000/internal/rules"
	"github.com/CasperKristiansson/Finance-Tracker-sub000/internal/store"
)

// Row is one operator-confirmed statement row.
type Row struct {
	ID                string  `json:"id,omitempty"`
	AccountID         string  `json:"account_id"`
	OccurredAt        string  `json:"occurred_at"`
	Amount            string  `json:"amount"`
	Description       string  `json:"description"`
	CategoryID        *string `json:"category_id,omitempty"`
	SubscriptionID    *string `json:"subscription_id,omitempty"`
	TransferAccountID *string `json:"transfer_account_id,omitempty"`
	TaxEventType      string  `json:"tax_event_type,omitempty"`
	Delete            bool    `json:"delete,omitempty"`
}

// FileMeta describes one previewed file so the committed batch records
// where its rows came from.
type FileMeta struct {
	Filename   string `json:"filename"`
	AccountID  string `json:"account_id"`
	BankFormat string `json:"bank_format,omitempty"`
	RowCount   int    `json:"row_count,omitempty"`
	ErrorCount int    `json:"error_count,omitempty"`
}

// Request is the commit input.
type Request struct {
	Note  string     `json:"note,omitempty"`
	Files []FileMeta `json:"files,omitempty"`
	Rows  []Row      `json:"rows"`
}

// Result reports what one commit persisted.
type Result struct {
	ImportBatchID  string   `json:"import_batch_id"`
	TransactionIDs []string `json:"transaction_ids"`
}

// ValidationError is a commit-time failure. The first violation aborts
// the whole commit; nothing is persisted.
type ValidationError struct {
	Row     int // 1-based position in the request, 0 for batch-level problems
	Message string
}

func (e ValidationError) Error() string {
	if e.Row == 0 {
		return e.Message
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// LedgerContext holds the references a commit resolves once up front:
// the offset account and the category/subscription lookup maps. It
// replaces any process-level cached state; each invocation builds its own.
type LedgerContext struct {
	Offset        model.Account
	Categories    map[string]model.Category
	Subscriptions map[string]model.Subscription
	Now           time.Time
}

// Engine persists confirmed rows.
type Engine struct {
	store store.Store
	log   zerolog.Logger
	clock func() time.Time
}

// New creates a commit Engine.
func New(st store.Store, log zerolog.Logger) *Engine {
	return &Engine{store: st, log: log, clock: func() time.Time { return time.Now().UTC() }}
}

// parsedRow is a Row after fail-fast validation.
type parsedRow struct {
	source     Row
	position   int
	occurredAt time.Time
	amount     decimal.Decimal
}

// Commit validates every surviving row, then persists the batch, its
// transactions, tax events and learned rules in one store transaction.
func (e *Engine) Commit(ctx context.Context, req Request) (*Result, error) {
	parsed, err := validateRows(req.Rows)
	if err != nil {
		return nil, err
	}

	var result *Result
	err = e.store.RunInTransaction(ctx, func(tx store.Store) error {
		var txErr error
		result, txErr = e.commitAll(ctx, tx, req, parsed)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	e.log.Info().Str("batch", result.ImportBatchID).
		Int("transactions", len(result.TransactionIDs)).Msg("committed import batch")
	return result, nil
}

// validateRows fails fast on the first invalid row. Deleted rows are
// excluded before validation; they are skipped entirely.
func validateRows(rows []Row) ([]parsedRow, error) {
	if len(rows) == 0 {
		return nil, ValidationError{Message: "no rows to commit"}
	}

	var parsed []parsedRow
	for i, row := range rows {
		if row.Delete {
			continue
		}
		pos := i + 1

		if row.AccountID == "" {
			return nil, ValidationError{Row: pos, Message: "missing account"}
		}
		occurredAt, err := numeric.ParseDate(row.OccurredAt)
		if err != nil {
			return nil, ValidationError{Row: pos, Message: fmt.Sprintf("invalid date %q", row.OccurredAt)}
		}
		amount, err := numeric.ParseAmount(row.Amount)
		if err != nil {
			return nil, ValidationError{Row: pos, Message: fmt.Sprintf("invalid amount %q", row.Amount)}
		}
		if strings.TrimSpace(row.Description) == "" {
			return nil, ValidationError{Row: pos, Message: "blank description"}
		}
		if row.TaxEventType != "" && !model.ValidTaxEventType(model.TaxEventType(row.TaxEventType)) {
			return nil, ValidationError{Row: pos, Message: fmt.Sprintf("unknown tax event type %q", row.TaxEventType)}
		}

		parsed = append(parsed, parsedRow{source: row, position: pos, occurredAt: occurredAt, amount: amount})
	}
	if len(parsed) == 0 {
		return nil, ValidationError{Message: "no rows to commit"}
	}
	return parsed, nil
}

func (e *Engine) commitAll(ctx context.Context, tx store.Store, req Request, parsed []parsedRow) (*Result, error) {
	lctx, err := e.buildLedgerContext(ctx, tx)
	if err != nil {
		return nil, err
	}

	batch := model.ImportBatch{
		ID:        id.New(),
		Note:      req.Note,
		CreatedAt: lctx.Now,
	}
	if batch.Note == "" {
		batch.Note = id.BatchRef(lctx.Now)
	}
	if err := tx.Batches().Create(ctx, &batch); err != nil {
		return nil, err
	}

	for _, f := range req.Files {
		file := model.ImportFile{
			ID:         id.New(),
			BatchID:    batch.ID,
			Filename:   f.Filename,
			AccountID:  f.AccountID,
			BankFormat: model.BankFormat(f.BankFormat),
			RowCount:   f.RowCount,
			ErrorCount: f.ErrorCount,
			Status:     model.FileStatusImported,
		}
		if err := tx.Batches().CreateFile(ctx, file); err != nil {
			return nil, err
		}
	}

	result := &Result{ImportBatchID: batch.ID}
	for _, row := range parsed {
		txn, taxEvent, err := e.buildTransaction(ctx, tx, lctx, row, batch.ID)
		if err != nil {
			return nil, err
		}
		if err := tx.Transactions().Create(ctx, txn); err != nil {
			return nil, fmt.Errorf("row %d: %w", row.position, err)
		}
		if taxEvent != nil {
			taxEvent.TransactionID = txn.ID
			if err := tx.TaxEvents().Create(ctx, *taxEvent); err != nil {
				return nil, err
			}
		}
		result.TransactionIDs = append(result.TransactionIDs, txn.ID)

		if taxEvent == nil {
			if err := e.learnRule(ctx, tx, lctx, row); err != nil {
				return nil, err
			}
		}
	}
	return result, nil
}

func (e *Engine) buildLedgerContext(ctx context.Context, tx store.Store) (*LedgerContext, error) {
	offset, err := tx.Accounts().Offset(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving offset account: %w", err)
	}
	categories, err := tx.Categories().ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading categories: %w", err)
	}
	subs, err := tx.Subscriptions().ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading subscriptions: %w", err)
	}

	lctx := &LedgerContext{
		Offset:        offset,
		Categories:    make(map[string]model.Category, len(categories)),
		Subscriptions: make(map[string]model.Subscription, len(subs)),
		Now:           e.clock(),
	}
	for _, c := range categories {
		lctx.Categories[c.ID] = c
	}
	for _, s := range subs {
		lctx.Subscriptions[s.ID] = s
	}
	return lctx, nil
}

// buildTransaction shapes the legs for one row: a tax-event cash movement
// against the offset account, a direct transfer to a counterparty, or the
// default posting against the offset account.
func (e *Engine) buildTransaction(ctx context.Context, tx store.Store, lctx *LedgerContext, row parsedRow, batchID string) (*model.Transaction, *model.TaxEvent, error) {
	src := row.source
	if _, err := tx.Accounts().Get(ctx, src.AccountID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, fmt.Errorf("row %d: account %q: %w", row.position, src.AccountID, store.ErrNotFound)
		}
		return nil, nil, err
	}

	txn := &model.Transaction{
		ID:            id.New(),
		Description:   strings.TrimSpace(src.Description),
		OccurredAt:    row.occurredAt,
		PostedAt:      lctx.Now,
		ImportBatchID: &batchID,
		CreatedSource: model.SourceImport,
	}

	switch {
	case src.TaxEventType != "":
		// Tax rows move cash against the offset account and carry no
		// category or subscription even if supplied.
		mag := row.amount.Abs()
		cash := mag
		if model.TaxEventType(src.TaxEventType) == model.TaxEventPayment {
			cash = mag.Neg()
		}
		txn.Type = model.TypeAdjustment
		txn.Legs = []model.Leg{
			{AccountID: src.AccountID, Amount: cash},
			{AccountID: lctx.Offset.ID, Amount: cash.Neg()},
		}
		event := &model.TaxEvent{
			ID:        id.New(),
			EventType: model.TaxEventType(src.TaxEventType),
		}
		return txn, event, nil

	case src.TransferAccountID != nil && *src.TransferAccountID != "":
		counterparty := *src.TransferAccountID
		if _, err := tx.Accounts().Get(ctx, counterparty); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, nil, fmt.Errorf("row %d: transfer account %q: %w", row.position, counterparty, store.ErrNotFound)
			}
			return nil, nil, err
		}
		txn.Type = model.TypeTransfer
		txn.Legs = []model.Leg{
			{AccountID: src.AccountID, Amount: row.amount},
			{AccountID: counterparty, Amount: row.amount.Neg()},
		}

	default:
		txn.Type = model.TypeExpense
		if row.amount.IsPositive() {
			txn.Type = model.TypeIncome
		}
		txn.Legs = []model.Leg{
			{AccountID: src.AccountID, Amount: row.amount},
			{AccountID: lctx.Offset.ID, Amount: row.amount.Neg()},
		}
	}

	if src.CategoryID != nil {
		if _, ok := lctx.Categories[*src.CategoryID]; !ok {
			return nil, nil, fmt.Errorf("row %d: category %q: %w", row.position, *src.CategoryID, store.ErrNotFound)
		}
		txn.CategoryID = src.CategoryID
	}
	if src.SubscriptionID != nil {
		if _, ok := lctx.Subscriptions[*src.SubscriptionID]; !ok {
			return nil, nil, fmt.Errorf("row %d: subscription %q: %w", row.position, *src.SubscriptionID, store.ErrNotFound)
		}
		txn.SubscriptionID = src.SubscriptionID
	}
	return txn, nil, nil
}

// learnRule feeds a committed, categorized row back into the rule store.
// An existing rule with the same lower-cased description is reinforced;
// otherwise a new rule is learned.
func (e *Engine) learnRule(ctx context.Context, tx store.Store, lctx *LedgerContext, row parsedRow) error {
	src := row.source
	if src.CategoryID == nil && src.SubscriptionID == nil {
		return nil
	}

	lower := strings.ToLower(strings.TrimSpace(src.Description))
	if lower == "" {
		return nil
	}

	existing, err := tx.Rules().FindByText(ctx, lower)
	switch {
	case err == nil:
		rules.Reinforce(&existing, row.amount, row.occurredAt, src.CategoryID, src.SubscriptionID, lctx.Now)
		if err := tx.Rules().Upsert(ctx, existing); err != nil {
			return err
		}
	case errors.Is(err, store.ErrNotFound):
		learned := rules.Learn(src.Description, row.amount, row.occurredAt, src.CategoryID, src.SubscriptionID, lctx.Now)
		if err := tx.Rules().Upsert(ctx, learned); err != nil {
			return err
		}
	default:
		return fmt.Errorf("looking up rule: %w", err)
	}
	return nil
}
