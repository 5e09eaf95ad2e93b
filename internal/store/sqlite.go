package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/CasperKristiansson/Finance-Tracker-sub000/internal/id"
	"github.com/CasperKristiansson/Finance-Tracker-sub000/internal/ledger"
	"github.com/CasperKristiansson/Finance-Tracker-sub000/internal/model"
)

const timeLayout = time.RFC3339

// querier is satisfied by both *sql.DB and *sql.Tx so the same repository
// code serves autocommit reads and transactional writes.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLite is the sqlite-backed Store.
type SQLite struct {
	db         *sql.DB
	q          querier
	offsetName string
}

// NewSQLite wraps an opened database. offsetName is the display name for
// the lazily created offset account.
func NewSQLite(db *sql.DB, offsetName string) *SQLite {
	return &SQLite{db: db, q: db, offsetName: offsetName}
}

func (s *SQLite) Accounts() AccountRepo           { return sqlAccounts{s} }
func (s *SQLite) Categories() CategoryRepo        { return sqlCategories{s} }
func (s *SQLite) Subscriptions() SubscriptionRepo { return sqlSubscriptions{s} }
func (s *SQLite) Rules() RuleRepo                 { return sqlRules{s} }
func (s *SQLite) Transactions() TransactionRepo   { return sqlTransactions{s} }
func (s *SQLite) Batches() BatchRepo              { return sqlBatches{s} }
func (s *SQLite) TaxEvents() TaxEventRepo         { return sqlTaxEvents{s} }

// RunInTransaction executes fn against a store bound to one sql.Tx. A
// nested call reuses the already-open transaction.
func (s *SQLite) RunInTransaction(ctx context.Context, fn func(Store) error) error {
	if _, nested := s.q.(*sql.Tx); nested {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(&SQLite{db: s.db, q: tx, offsetName: s.offsetName}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func nullStr(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func intPtr(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	n := int(ni.Int64)
	return &n
}

func nullDec(p *decimal.Decimal) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: p.String(), Valid: true}
}

func decPtr(ns sql.NullString) (*decimal.Decimal, error) {
	if !ns.Valid {
		return nil, nil
	}
	d, err := decimal.NewFromString(ns.String)
	if err != nil {
		return nil, fmt.Errorf("parsing stored amount %q: %w", ns.String, err)
	}
	return &d, nil
}

func nullTime(p *time.Time) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: p.UTC().Format(timeLayout), Valid: true}
}

func timePtr(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid {
		return nil, nil
	}
	t, err := time.Parse(timeLayout, ns.String)
	if err != nil {
		return nil, fmt.Errorf("parsing stored time %q: %w", ns.String, err)
	}
	return &t, nil
}

type sqlAccounts struct{ s *SQLite }

func (r sqlAccounts) Get(ctx context.Context, accountID string) (model.Account, error) {
	row := r.s.q.QueryRowContext(ctx,
		`SELECT id, name, bank_format, active, is_offset FROM accounts WHERE id = ?`, accountID)
	return scanAccount(row)
}

func (r sqlAccounts) Create(ctx context.Context, a model.Account) error {
	_, err := r.s.q.ExecContext(ctx,
		`INSERT INTO accounts (id, name, bank_format, active, is_offset) VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.Name, string(a.BankFormat), a.Active, a.Offset)
	if err != nil {
		return fmt.Errorf("inserting account: %w", err)
	}
	return nil
}

func (r sqlAccounts) Offset(ctx context.Context) (model.Account, error) {
	row := r.s.q.QueryRowContext(ctx,
		`SELECT id, name, bank_format, active, is_offset FROM accounts WHERE is_offset = 1 LIMIT 1`)
	a, err := scanAccount(row)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return model.Account{}, err
	}

	a = model.Account{ID: id.New(), Name: r.s.offsetName, Active: false, Offset: true}
	if err := r.Create(ctx, a); err != nil {
		return model.Account{}, err
	}
	return a, nil
}

func scanAccount(row *sql.Row) (model.Account, error) {
	var a model.Account
	var format string
	err := row.Scan(&a.ID, &a.Name, &format, &a.Active, &a.Offset)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Account{}, ErrNotFound
	}
	if err != nil {
		return model.Account{}, fmt.Errorf("scanning account: %w", err)
	}
	a.BankFormat = model.BankFormat(format)
	return a, nil
}

type sqlCategories struct{ s *SQLite }

func (r sqlCategories) Get(ctx context.Context, categoryID string) (model.Category, error) {
	var c model.Category
	err := r.s.q.QueryRowContext(ctx,
		`SELECT id, name, active FROM categories WHERE id = ?`, categoryID).
		Scan(&c.ID, &c.Name, &c.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Category{}, ErrNotFound
	}
	if err != nil {
		return model.Category{}, fmt.Errorf("scanning category: %w", err)
	}
	return c, nil
}

func (r sqlCategories) GetByName(ctx context.Context, lowerName string) (model.Category, error) {
	var c model.Category
	err := r.s.q.QueryRowContext(ctx,
		`SELECT id, name, active FROM categories WHERE lower(name) = ? LIMIT 1`, lowerName).
		Scan(&c.ID, &c.Name, &c.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Category{}, ErrNotFound
	}
	if err != nil {
		return model.Category{}, fmt.Errorf("scanning category: %w", err)
	}
	return c, nil
}

func (r sqlCategories) ListActive(ctx context.Context) ([]model.Category, error) {
	rows, err := r.s.q.QueryContext(ctx,
		`SELECT id, name, active FROM categories WHERE active = 1 ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	defer rows.Close()

	var out []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Active); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r sqlCategories) Create(ctx context.Context, c model.Category) error {
	_, err := r.s.q.ExecContext(ctx,
		`INSERT INTO categories (id, name, active) VALUES (?, ?, ?)`, c.ID, c.Name, c.Active)
	if err != nil {
		return fmt.Errorf("inserting category: %w", err)
	}
	return nil
}

type sqlSubscriptions struct{ s *SQLite }

const subscriptionCols = `id, name, matcher, matcher_day_of_month, amount_tolerance, last_charge_amount, active`

func (r sqlSubscriptions) Get(ctx context.Context, subscriptionID string) (model.Subscription, error) {
	rows, err := r.s.q.QueryContext(ctx,
		`SELECT `+subscriptionCols+` FROM subscriptions WHERE id = ?`, subscriptionID)
	if err != nil {
		return model.Subscription{}, fmt.Errorf("querying subscription: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return model.Subscription{}, err
		}
		return model.Subscription{}, ErrNotFound
	}
	return scanSubscription(rows)
}

func (r sqlSubscriptions) ListActive(ctx context.Context) ([]model.Subscription, error) {
	rows, err := r.s.q.QueryContext(ctx,
		`SELECT `+subscriptionCols+` FROM subscriptions WHERE active = 1 ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("querying subscriptions: %w", err)
	}
	defer rows.Close()

	var out []model.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r sqlSubscriptions) Create(ctx context.Context, s model.Subscription) error {
	_, err := r.s.q.ExecContext(ctx,
		`INSERT INTO subscriptions (`+subscriptionCols+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.Name, s.Matcher, nullInt(s.MatcherDayOfMonth), nullDec(s.AmountTolerance),
		nullDec(s.LastChargeAmount), s.Active)
	if err != nil {
		return fmt.Errorf("inserting subscription: %w", err)
	}
	return nil
}

func scanSubscription(rows *sql.Rows) (model.Subscription, error) {
	var s model.Subscription
	var day sql.NullInt64
	var tol, last sql.NullString
	if err := rows.Scan(&s.ID, &s.Name, &s.Matcher, &day, &tol, &last, &s.Active); err != nil {
		return model.Subscription{}, fmt.Errorf("scanning subscription: %w", err)
	}
	s.MatcherDayOfMonth = intPtr(day)
	var err error
	if s.AmountTolerance, err = decPtr(tol); err != nil {
		return model.Subscription{}, err
	}
	if s.LastChargeAmount, err = decPtr(last); err != nil {
		return model.Subscription{}, err
	}
	return s, nil
}

type sqlRules struct{ s *SQLite }

const ruleCols = `id, matcher_text, matcher_amount, amount_tolerance, matcher_day_of_month,
	category_id, subscription_id, hit_count, last_hit_at, active`

func (r sqlRules) ListActive(ctx context.Context) ([]model.Rule, error) {
	rows, err := r.s.q.QueryContext(ctx,
		`SELECT `+ruleCols+` FROM rules WHERE active = 1 ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("querying rules: %w", err)
	}
	defer rows.Close()

	var out []model.Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}

func (r sqlRules) FindByText(ctx context.Context, lowerText string) (model.Rule, error) {
	rows, err := r.s.q.QueryContext(ctx,
		`SELECT `+ruleCols+` FROM rules WHERE matcher_text = ? LIMIT 1`, lowerText)
	if err != nil {
		return model.Rule{}, fmt.Errorf("querying rule: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return model.Rule{}, err
		}
		return model.Rule{}, ErrNotFound
	}
	return scanRule(rows)
}

func (r sqlRules) Upsert(ctx context.Context, rule model.Rule) error {
	_, err := r.s.q.ExecContext(ctx, `
		INSERT INTO rules (id, matcher_text, matcher_amount, amount_tolerance, matcher_day_of_month,
			category_id, subscription_id, hit_count, last_hit_at, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			matcher_text = excluded.matcher_text,
			matcher_amount = excluded.matcher_amount,
			amount_tolerance = excluded.amount_tolerance,
			matcher_day_of_month = excluded.matcher_day_of_month,
			category_id = excluded.category_id,
			subscription_id = excluded.subscription_id,
			hit_count = excluded.hit_count,
			last_hit_at = excluded.last_hit_at,
			active = excluded.active
		ON CONFLICT(matcher_text) DO UPDATE SET
			matcher_amount = excluded.matcher_amount,
			amount_tolerance = excluded.amount_tolerance,
			matcher_day_of_month = excluded.matcher_day_of_month,
			category_id = excluded.category_id,
			subscription_id = excluded.subscription_id,
			hit_count = excluded.hit_count,
			last_hit_at = excluded.last_hit_at,
			active = excluded.active`,
		rule.ID, rule.MatcherText, nullDec(rule.MatcherAmount), rule.AmountTolerance.String(),
		nullInt(rule.MatcherDayOfMonth), nullStr(rule.CategoryID), nullStr(rule.SubscriptionID),
		rule.HitCount, nullTime(rule.LastHitAt), rule.Active)
	if err != nil {
		return fmt.Errorf("upserting rule: %w", err)
	}
	return nil
}

func scanRule(rows *sql.Rows) (model.Rule, error) {
	var rule model.Rule
	var amount, tol, lastHit, catID, subID sql.NullString
	var day sql.NullInt64
	if err := rows.Scan(&rule.ID, &rule.MatcherText, &amount, &tol, &day,
		&catID, &subID, &rule.HitCount, &lastHit, &rule.Active); err != nil {
		return model.Rule{}, fmt.Errorf("scanning rule: %w", err)
	}

	var err error
	if rule.MatcherAmount, err = decPtr(amount); err != nil {
		return model.Rule{}, err
	}
	if tol.Valid {
		if rule.AmountTolerance, err = decimal.NewFromString(tol.String); err != nil {
			return model.Rule{}, fmt.Errorf("parsing stored tolerance %q: %w", tol.String, err)
		}
	}
	rule.MatcherDayOfMonth = intPtr(day)
	rule.CategoryID = strPtr(catID)
	rule.SubscriptionID = strPtr(subID)
	if rule.LastHitAt, err = timePtr(lastHit); err != nil {
		return model.Rule{}, err
	}
	return rule, nil
}

type sqlTransactions struct{ s *SQLite }

func (r sqlTransactions) Create(ctx context.Context, t *model.Transaction) error {
	if err := ledger.ValidateLegs(t.Legs); err != nil {
		return err
	}

	if t.ID == "" {
		t.ID = id.New()
	}
	if t.PostedAt.IsZero() {
		t.PostedAt = time.Now().UTC()
	}

	_, err := r.s.q.ExecContext(ctx, `
		INSERT INTO transactions (id, category_id, subscription_id, type, description,
			occurred_at, posted_at, import_batch_id, created_source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, nullStr(t.CategoryID), nullStr(t.SubscriptionID), string(t.Type), t.Description,
		t.OccurredAt.UTC().Format(timeLayout), t.PostedAt.UTC().Format(timeLayout),
		nullStr(t.ImportBatchID), t.CreatedSource)
	if err != nil {
		return fmt.Errorf("inserting transaction: %w", err)
	}

	for i := range t.Legs {
		leg := &t.Legs[i]
		if leg.ID == "" {
			leg.ID = id.New()
		}
		leg.TransactionID = t.ID
		_, err := r.s.q.ExecContext(ctx,
			`INSERT INTO legs (id, transaction_id, account_id, amount) VALUES (?, ?, ?, ?)`,
			leg.ID, leg.TransactionID, leg.AccountID, leg.Amount.String())
		if err != nil {
			return fmt.Errorf("inserting leg: %w", err)
		}
	}
	return nil
}

const transactionCols = `id, category_id, subscription_id, type, description,
	occurred_at, posted_at, import_batch_id, created_source`

func (r sqlTransactions) ListRecentByAccount(ctx context.Context, accountID string, limit int) ([]model.Transaction, error) {
	rows, err := r.s.q.QueryContext(ctx, `
		SELECT `+transactionCols+` FROM transactions
		WHERE id IN (SELECT transaction_id FROM legs WHERE account_id = ?)
		ORDER BY occurred_at DESC, rowid DESC LIMIT ?`, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	return r.collect(ctx, rows)
}

func (r sqlTransactions) ListByBatch(ctx context.Context, batchID string) ([]model.Transaction, error) {
	rows, err := r.s.q.QueryContext(ctx,
		`SELECT `+transactionCols+` FROM transactions WHERE import_batch_id = ? ORDER BY rowid`, batchID)
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	return r.collect(ctx, rows)
}

func (r sqlTransactions) collect(ctx context.Context, rows *sql.Rows) ([]model.Transaction, error) {
	defer rows.Close()

	var out []model.Transaction
	for rows.Next() {
		var t model.Transaction
		var catID, subID, batchID sql.NullString
		var txType, occurred, posted string
		if err := rows.Scan(&t.ID, &catID, &subID, &txType, &t.Description,
			&occurred, &posted, &batchID, &t.CreatedSource); err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}
		t.CategoryID = strPtr(catID)
		t.SubscriptionID = strPtr(subID)
		t.ImportBatchID = strPtr(batchID)
		t.Type = model.TransactionType(txType)

		var err error
		if t.OccurredAt, err = time.Parse(timeLayout, occurred); err != nil {
			return nil, fmt.Errorf("parsing occurred_at: %w", err)
		}
		if t.PostedAt, err = time.Parse(timeLayout, posted); err != nil {
			return nil, fmt.Errorf("parsing posted_at: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		legs, err := r.legsFor(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Legs = legs
	}
	return out, nil
}

func (r sqlTransactions) legsFor(ctx context.Context, transactionID string) ([]model.Leg, error) {
	rows, err := r.s.q.QueryContext(ctx,
		`SELECT id, transaction_id, account_id, amount FROM legs WHERE transaction_id = ? ORDER BY rowid`,
		transactionID)
	if err != nil {
		return nil, fmt.Errorf("querying legs: %w", err)
	}
	defer rows.Close()

	var out []model.Leg
	for rows.Next() {
		var leg model.Leg
		var amount string
		if err := rows.Scan(&leg.ID, &leg.TransactionID, &leg.AccountID, &amount); err != nil {
			return nil, fmt.Errorf("scanning leg: %w", err)
		}
		if leg.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parsing stored leg amount %q: %w", amount, err)
		}
		out = append(out, leg)
	}
	return out, rows.Err()
}

type sqlBatches struct{ s *SQLite }

func (r sqlBatches) Create(ctx context.Context, b *model.ImportBatch) error {
	if b.ID == "" {
		b.ID = id.New()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	_, err := r.s.q.ExecContext(ctx,
		`INSERT INTO import_batches (id, note, created_at) VALUES (?, ?, ?)`,
		b.ID, b.Note, b.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("inserting import batch: %w", err)
	}
	return nil
}

func (r sqlBatches) CreateFile(ctx context.Context, f model.ImportFile) error {
	_, err := r.s.q.ExecContext(ctx, `
		INSERT INTO import_files (id, batch_id, filename, account_id, bank_format, row_count, error_count, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.BatchID, f.Filename, f.AccountID, string(f.BankFormat), f.RowCount, f.ErrorCount, string(f.Status))
	if err != nil {
		return fmt.Errorf("inserting import file: %w", err)
	}
	return nil
}

type sqlTaxEvents struct{ s *SQLite }

func (r sqlTaxEvents) Create(ctx context.Context, e model.TaxEvent) error {
	_, err := r.s.q.ExecContext(ctx,
		`INSERT INTO tax_events (id, transaction_id, event_type, authority, note) VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.TransactionID, string(e.EventType), e.Authority, e.Note)
	if err != nil {
		return fmt.Errorf("inserting tax event: %w", err)
	}
	return nil
}

func (r sqlTaxEvents) GetByTransaction(ctx context.Context, transactionID string) (model.TaxEvent, error) {
	var e model.TaxEvent
	var eventType string
	err := r.s.q.QueryRowContext(ctx,
		`SELECT id, transaction_id, event_type, authority, note FROM tax_events WHERE transaction_id = ?`,
		transactionID).Scan(&e.ID, &e.TransactionID, &eventType, &e.Authority, &e.Note)
	if errors.Is(err, sql.ErrNoRows) {
		return model.TaxEvent{}, ErrNotFound
	}
	if err != nil {
		return model.TaxEvent{}, fmt.Errorf("scanning tax event: %w", err)
	}
	e.EventType = model.TaxEventType(eventType)
	return e, nil
}
