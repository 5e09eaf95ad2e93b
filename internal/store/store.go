// Package store defines the repository boundary the import core talks to
// and provides two implementations: a sqlite-backed store and an in-memory
// store used by tests.
package store

import (
	"context"
	"errors"

	"github.com/CasperKristiansson/Finance-Tracker-sub000/internal/model"
)

// ErrNotFound reports a missing entity, distinct from validation failures.
var ErrNotFound = errors.New("not found")

// Store aggregates the repositories. RunInTransaction runs fn against a
// store bound to one unit of work: every write inside fn is either fully
// committed or fully rolled back.
type Store interface {
	Accounts() AccountRepo
	Categories() CategoryRepo
	Subscriptions() SubscriptionRepo
	Rules() RuleRepo
	Transactions() TransactionRepo
	Batches() BatchRepo
	TaxEvents() TaxEventRepo

	RunInTransaction(ctx context.Context, fn func(Store) error) error
}

// AccountRepo looks up ledger accounts. Offset resolves the designated
// internal counterparty account, creating it (inactive) on first use.
type AccountRepo interface {
	Get(ctx context.Context, id string) (model.Account, error)
	Create(ctx context.Context, a model.Account) error
	Offset(ctx context.Context) (model.Account, error)
}

// CategoryRepo reads and writes categories. Name lookups are keyed by
// lower-cased name.
type CategoryRepo interface {
	Get(ctx context.Context, id string) (model.Category, error)
	GetByName(ctx context.Context, lowerName string) (model.Category, error)
	ListActive(ctx context.Context) ([]model.Category, error)
	Create(ctx context.Context, c model.Category) error
}

// SubscriptionRepo reads and writes subscriptions.
type SubscriptionRepo interface {
	Get(ctx context.Context, id string) (model.Subscription, error)
	ListActive(ctx context.Context) ([]model.Subscription, error)
	Create(ctx context.Context, s model.Subscription) error
}

// RuleRepo persists matcher rules. FindByText is an exact match on the
// lower-cased matcher text.
type RuleRepo interface {
	ListActive(ctx context.Context) ([]model.Rule, error)
	FindByText(ctx context.Context, lowerText string) (model.Rule, error)
	Upsert(ctx context.Context, r model.Rule) error
}

// TransactionRepo writes ledger transactions atomically with their legs.
// Create enforces the double-entry invariant; it is the single write path
// for transactions.
type TransactionRepo interface {
	Create(ctx context.Context, t *model.Transaction) error
	ListRecentByAccount(ctx context.Context, accountID string, limit int) ([]model.Transaction, error)
	ListByBatch(ctx context.Context, batchID string) ([]model.Transaction, error)
}

// BatchRepo persists import batches and their files.
type BatchRepo interface {
	Create(ctx context.Context, b *model.ImportBatch) error
	CreateFile(ctx context.Context, f model.ImportFile) error
}

// TaxEventRepo persists tax event annotations.
type TaxEventRepo interface {
	Create(ctx context.Context, e model.TaxEvent) error
	GetByTransaction(ctx context.Context, transactionID string) (model.TaxEvent, error)
}
