package model

import "time"

// FileStatus is the lifecycle state of one uploaded statement file.
type FileStatus string

const (
	FileStatusReady    FileStatus = "ready"
	FileStatusEmpty    FileStatus = "empty"
	FileStatusError    FileStatus = "error"
	FileStatusImported FileStatus = "imported"
)

// ImportBatch groups the files committed together in one unit of work.
// Created at commit time and immutable afterward.
type ImportBatch struct {
	ID        string
	Note      string
	CreatedAt time.Time
	Files     []ImportFile
}

// ImportFile is one uploaded spreadsheet. During preview its ID is
// ephemeral; it is persisted only when the batch is committed.
type ImportFile struct {
	ID         string
	BatchID    string
	Filename   string
	AccountID  string
	BankFormat BankFormat
	RowCount   int
	ErrorCount int
	Status     FileStatus
}
