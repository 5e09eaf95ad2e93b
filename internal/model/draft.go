package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatementRow is one normalized line out of a bank statement parser.
type StatementRow struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal
}

// RowError is a recoverable, row-level parse problem. RowNumber is 1-based;
// 0 means the error concerns the file as a whole.
type RowError struct {
	RowNumber int    `json:"row_number"`
	Message   string `json:"message"`
}

// CategorySuggestion is the suggestion engine's category pick for a row.
type CategorySuggestion struct {
	CategoryID   string  `json:"category_id,omitempty"`
	CategoryName string  `json:"category_name,omitempty"`
	Confidence   float64 `json:"confidence"`
	Reason       string  `json:"reason"`
}

// SubscriptionSuggestion is the suggestion engine's subscription pick.
// Absent entirely when no candidate clears the acceptance threshold.
type SubscriptionSuggestion struct {
	SubscriptionID   string  `json:"subscription_id"`
	SubscriptionName string  `json:"subscription_name"`
	Confidence       float64 `json:"confidence"`
	Reason           string  `json:"reason"`
}

// TransferMatch links a row to its opposite side of a detected transfer.
// PairedWith is the 1-based row number of the counterpart.
type TransferMatch struct {
	PairedWith int    `json:"paired_with"`
	Reason     string `json:"reason"`
}

// DraftRow is the in-memory-only view of one parsed statement line shown
// to the operator. Re-derived identically from the same file bytes; never
// persisted as its own entity.
type DraftRow struct {
	FileID      string
	RowIndex    int // 1-based within the file
	AccountID   string
	Date        time.Time
	Description string
	Amount      decimal.Decimal

	Category     *CategorySuggestion
	Subscription *SubscriptionSuggestion
	Transfer     *TransferMatch

	RuleApplied bool
	RuleType    string
	RuleSummary string
}
