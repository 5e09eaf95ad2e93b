package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a ledger transaction.
type TransactionType string

const (
	TypeIncome     TransactionType = "income"
	TypeExpense    TransactionType = "expense"
	TypeTransfer   TransactionType = "transfer"
	TypeAdjustment TransactionType = "adjustment"
)

// SourceImport marks transactions created by the statement import path.
const SourceImport = "import"

// Transaction is the ledger envelope. It owns its legs; legs are created
// atomically with the transaction and never updated independently.
type Transaction struct {
	ID             string
	CategoryID     *string
	SubscriptionID *string
	Type           TransactionType
	Description    string
	OccurredAt     time.Time
	PostedAt       time.Time
	ImportBatchID  *string
	CreatedSource  string
	Legs           []Leg
}

// Leg is one signed movement of money against one account.
type Leg struct {
	ID            string
	TransactionID string
	AccountID     string
	Amount        decimal.Decimal // negative = outflow, positive = inflow
}

// TaxEventType distinguishes income-tax payments from refunds.
type TaxEventType string

const (
	TaxEventPayment TaxEventType = "payment"
	TaxEventRefund  TaxEventType = "refund"
)

// ValidTaxEventType reports whether t is a known tax event type.
func ValidTaxEventType(t TaxEventType) bool {
	return t == TaxEventPayment || t == TaxEventRefund
}

// TaxEvent annotates one transaction as an income-tax payment or refund.
type TaxEvent struct {
	ID            string
	TransactionID string
	EventType     TaxEventType
	Authority     string
	Note          string
}
