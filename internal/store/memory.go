package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/CasperKristiansson/Finance-Tracker-sub000/internal/id"
	"github.com/CasperKristiansson/Finance-Tracker-sub000/internal/ledger"
	"github.com/CasperKristiansson/Finance-Tracker-sub000/internal/model"
)

// Memory is an in-memory Store used by tests. Reads iterate in insertion
// order so rule tie-breaking stays deterministic.
type Memory struct {
	mu         sync.Mutex
	offsetName string

	accounts      map[string]model.Account
	accountOrder  []string
	categories    map[string]model.Category
	categoryOrder []string
	subscriptions map[string]model.Subscription
	subOrder      []string
	rules         map[string]model.Rule
	ruleOrder     []string
	transactions  map[string]model.Transaction
	txOrder       []string
	batches       map[string]model.ImportBatch
	files         map[string]model.ImportFile
	taxEvents     map[string]model.TaxEvent
}

// NewMemory creates an empty in-memory store. offsetName is the display
// name given to the lazily created offset account.
func NewMemory(offsetName string) *Memory {
	return &Memory{
		offsetName:    offsetName,
		accounts:      make(map[string]model.Account),
		categories:    make(map[string]model.Category),
		subscriptions: make(map[string]model.Subscription),
		rules:         make(map[string]model.Rule),
		transactions:  make(map[string]model.Transaction),
		batches:       make(map[string]model.ImportBatch),
		files:         make(map[string]model.ImportFile),
		taxEvents:     make(map[string]model.TaxEvent),
	}
}

func (m *Memory) Accounts() AccountRepo           { return memAccounts{m} }
func (m *Memory) Categories() CategoryRepo        { return memCategories{m} }
func (m *Memory) Subscriptions() SubscriptionRepo { return memSubscriptions{m} }
func (m *Memory) Rules() RuleRepo                 { return memRules{m} }
func (m *Memory) Transactions() TransactionRepo   { return memTransactions{m} }
func (m *Memory) Batches() BatchRepo              { return memBatches{m} }
func (m *Memory) TaxEvents() TaxEventRepo         { return memTaxEvents{m} }

// RunInTransaction runs fn against a snapshot copy and swaps the state in
// only when fn succeeds, so a failing commit leaves no partial writes.
func (m *Memory) RunInTransaction(_ context.Context, fn func(Store) error) error {
	m.mu.Lock()
	snapshot := m.clone()
	m.mu.Unlock()

	if err := fn(snapshot); err != nil {
		return err
	}

	m.mu.Lock()
	m.adopt(snapshot)
	m.mu.Unlock()
	return nil
}

func (m *Memory) clone() *Memory {
	c := NewMemory(m.offsetName)
	for k, v := range m.accounts {
		c.accounts[k] = v
	}
	c.accountOrder = append([]string(nil), m.accountOrder...)
	for k, v := range m.categories {
		c.categories[k] = v
	}
	c.categoryOrder = append([]string(nil), m.categoryOrder...)
	for k, v := range m.subscriptions {
		c.subscriptions[k] = v
	}
	c.subOrder = append([]string(nil), m.subOrder...)
	for k, v := range m.rules {
		c.rules[k] = v
	}
	c.ruleOrder = append([]string(nil), m.ruleOrder...)
	for k, v := range m.transactions {
		c.transactions[k] = v
	}
	c.txOrder = append([]string(nil), m.txOrder...)
	for k, v := range m.batches {
		c.batches[k] = v
	}
	for k, v := range m.files {
		c.files[k] = v
	}
	for k, v := range m.taxEvents {
		c.taxEvents[k] = v
	}
	return c
}

func (m *Memory) adopt(c *Memory) {
	m.accounts, m.accountOrder = c.accounts, c.accountOrder
	m.categories, m.categoryOrder = c.categories, c.categoryOrder
	m.subscriptions, m.subOrder = c.subscriptions, c.subOrder
	m.rules, m.ruleOrder = c.rules, c.ruleOrder
	m.transactions, m.txOrder = c.transactions, c.txOrder
	m.batches, m.files, m.taxEvents = c.batches, c.files, c.taxEvents
}

type memAccounts struct{ m *Memory }

func (r memAccounts) Get(_ context.Context, accountID string) (model.Account, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	a, ok := r.m.accounts[accountID]
	if !ok {
		return model.Account{}, ErrNotFound
	}
	return a, nil
}

func (r memAccounts) Create(_ context.Context, a model.Account) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.accounts[a.ID]; !ok {
		r.m.accountOrder = append(r.m.accountOrder, a.ID)
	}
	r.m.accounts[a.ID] = a
	return nil
}

func (r memAccounts) Offset(_ context.Context) (model.Account, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, aid := range r.m.accountOrder {
		if r.m.accounts[aid].Offset {
			return r.m.accounts[aid], nil
		}
	}
	a := model.Account{ID: id.New(), Name: r.m.offsetName, Active: false, Offset: true}
	r.m.accounts[a.ID] = a
	r.m.accountOrder = append(r.m.accountOrder, a.ID)
	return a, nil
}

type memCategories struct{ m *Memory }

func (r memCategories) Get(_ context.Context, categoryID string) (model.Category, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c, ok := r.m.categories[categoryID]
	if !ok {
		return model.Category{}, ErrNotFound
	}
	return c, nil
}

func (r memCategories) GetByName(_ context.Context, lowerName string) (model.Category, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, cid := range r.m.categoryOrder {
		if strings.ToLower(r.m.categories[cid].Name) == lowerName {
			return r.m.categories[cid], nil
		}
	}
	return model.Category{}, ErrNotFound
}

func (r memCategories) ListActive(_ context.Context) ([]model.Category, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []model.Category
	for _, cid := range r.m.categoryOrder {
		if c := r.m.categories[cid]; c.Active {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r memCategories) Create(_ context.Context, c model.Category) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.categories[c.ID]; !ok {
		r.m.categoryOrder = append(r.m.categoryOrder, c.ID)
	}
	r.m.categories[c.ID] = c
	return nil
}

type memSubscriptions struct{ m *Memory }

func (r memSubscriptions) Get(_ context.Context, subscriptionID string) (model.Subscription, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s, ok := r.m.subscriptions[subscriptionID]
	if !ok {
		return model.Subscription{}, ErrNotFound
	}
	return s, nil
}

func (r memSubscriptions) ListActive(_ context.Context) ([]model.Subscription, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []model.Subscription
	for _, sid := range r.m.subOrder {
		if s := r.m.subscriptions[sid]; s.Active {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r memSubscriptions) Create(_ context.Context, s model.Subscription) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.subscriptions[s.ID]; !ok {
		r.m.subOrder = append(r.m.subOrder, s.ID)
	}
	r.m.subscriptions[s.ID] = s
	return nil
}

type memRules struct{ m *Memory }

func (r memRules) ListActive(_ context.Context) ([]model.Rule, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []model.Rule
	for _, rid := range r.m.ruleOrder {
		if rule := r.m.rules[rid]; rule.Active {
			out = append(out, rule)
		}
	}
	return out, nil
}

func (r memRules) FindByText(_ context.Context, lowerText string) (model.Rule, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, rid := range r.m.ruleOrder {
		if r.m.rules[rid].MatcherText == lowerText {
			return r.m.rules[rid], nil
		}
	}
	return model.Rule{}, ErrNotFound
}

func (r memRules) Upsert(_ context.Context, rule model.Rule) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.rules[rule.ID]; !ok {
		r.m.ruleOrder = append(r.m.ruleOrder, rule.ID)
	}
	r.m.rules[rule.ID] = rule
	return nil
}

type memTransactions struct{ m *Memory }

func (r memTransactions) Create(_ context.Context, t *model.Transaction) error {
	if err := ledger.ValidateLegs(t.Legs); err != nil {
		return err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if t.ID == "" {
		t.ID = id.New()
	}
	if t.PostedAt.IsZero() {
		t.PostedAt = time.Now().UTC()
	}
	for i := range t.Legs {
		if t.Legs[i].ID == "" {
			t.Legs[i].ID = id.New()
		}
		t.Legs[i].TransactionID = t.ID
	}
	r.m.transactions[t.ID] = *t
	r.m.txOrder = append(r.m.txOrder, t.ID)
	return nil
}

func (r memTransactions) ListRecentByAccount(_ context.Context, accountID string, limit int) ([]model.Transaction, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []model.Transaction
	// Newest first: walk insertion order backwards.
	for i := len(r.m.txOrder) - 1; i >= 0 && len(out) < limit; i-- {
		t := r.m.transactions[r.m.txOrder[i]]
		for _, leg := range t.Legs {
			if leg.AccountID == accountID {
				out = append(out, t)
				break
			}
		}
	}
	return out, nil
}

func (r memTransactions) ListByBatch(_ context.Context, batchID string) ([]model.Transaction, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []model.Transaction
	for _, tid := range r.m.txOrder {
		t := r.m.transactions[tid]
		if t.ImportBatchID != nil && *t.ImportBatchID == batchID {
			out = append(out, t)
		}
	}
	return out, nil
}

type memBatches struct{ m *Memory }

func (r memBatches) Create(_ context.Context, b *model.ImportBatch) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if b.ID == "" {
		b.ID = id.New()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	r.m.batches[b.ID] = *b
	return nil
}

func (r memBatches) CreateFile(_ context.Context, f model.ImportFile) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.files[f.ID] = f
	return nil
}

type memTaxEvents struct{ m *Memory }

func (r memTaxEvents) Create(_ context.Context, e model.TaxEvent) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.taxEvents[e.ID] = e
	return nil
}

func (r memTaxEvents) GetByTransaction(_ context.Context, transactionID string) (model.TaxEvent, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, e := range r.m.taxEvents {
		if e.TransactionID == transactionID {
			return e, nil
		}
	}
	return model.TaxEvent{}, ErrNotFound
}
