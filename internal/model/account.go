package model

// Account is a ledger account that statement rows and legs post against.
type Account struct {
	ID         string
	Name       string
	BankFormat BankFormat // empty if the account has no statement export configured
	Active     bool
	Offset     bool // the internal offsetting counterparty account
}

// Category labels transactions for reporting and rule suggestions.
type Category struct {
	ID     string
	Name   string
	Active bool
}
