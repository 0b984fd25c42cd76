package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Record is implemented by every item stored in one of the five synchronized
// collections. The sync engine relies on the id for identity and on the
// modification time for the local last_modified column.
type Record interface {
	RecordID() string
	Modified() time.Time
}

// Envelope is a named pot of money the user budgets into.
type Envelope struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Category       string          `json:"category,omitempty"`
	CurrentBalance decimal.Decimal `json:"currentBalance"`
	TargetAmount   decimal.Decimal `json:"targetAmount"`
	Archived       bool            `json:"archived,omitempty"`
	LastModified   time.Time       `json:"lastModified"`
}

func (e Envelope) RecordID() string { return e.ID }
func (e Envelope) Modified() time.Time { return e.LastModified }

// Transaction is a single money movement, optionally attributed to an envelope.
type Transaction struct {
	ID           string          `json:"id"`
	Date         time.Time       `json:"date"`
	Amount       decimal.Decimal `json:"amount"`
	EnvelopeID   string          `json:"envelopeId,omitempty"`
	Description  string          `json:"description,omitempty"`
	Type         string          `json:"type,omitempty"`
	LastModified time.Time       `json:"lastModified"`
}

func (t Transaction) RecordID() string { return t.ID }
func (t Transaction) Modified() time.Time { return t.LastModified }

// Bill is a recurring obligation funded from an envelope.
type Bill struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Amount       decimal.Decimal `json:"amount"`
	DueDate      time.Time       `json:"dueDate"`
	Frequency    string          `json:"frequency,omitempty"`
	EnvelopeID   string          `json:"envelopeId,omitempty"`
	IsPaid       bool            `json:"isPaid,omitempty"`
	LastModified time.Time       `json:"lastModified"`
}

func (b Bill) RecordID() string { return b.ID }
func (b Bill) Modified() time.Time { return b.LastModified }

// Debt tracks an outstanding balance owed to a creditor.
type Debt struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Creditor       string          `json:"creditor,omitempty"`
	Balance        decimal.Decimal `json:"balance"`
	MinimumPayment decimal.Decimal `json:"minimumPayment"`
	InterestRate   decimal.Decimal `json:"interestRate"`
	LastModified   time.Time       `json:"lastModified"`
}

func (d Debt) RecordID() string { return d.ID }
func (d Debt) Modified() time.Time { return d.LastModified }

// PaycheckRecord is one entry of the paycheck history.
type PaycheckRecord struct {
	ID           string                     `json:"id"`
	Date         time.Time                  `json:"date"`
	Amount       decimal.Decimal            `json:"amount"`
	Payer        string                     `json:"payer,omitempty"`
	Allocations  map[string]decimal.Decimal `json:"allocations,omitempty"`
	LastModified time.Time                  `json:"lastModified"`
}

func (p PaycheckRecord) RecordID() string { return p.ID }
func (p PaycheckRecord) Modified() time.Time { return p.LastModified }
