// Package model defines the core domain types shared across the application.
package model

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Direction indicates whether a transaction moves money in or out.
type Direction string

const (
	// DirectionIncome represents money flowing into the account.
	DirectionIncome Direction = "income"
	// DirectionExpense represents money flowing out of the account.
	DirectionExpense Direction = "expense"
)

// Valid reports whether the direction is a known value.
func (d Direction) Valid() bool {
	return d == DirectionIncome || d == DirectionExpense
}

// Transaction represents a single financial transaction from any channel
// (mobile money, bank transfer, card). Immutable once recorded; the
// analytics layer only reads it.
type Transaction struct {
	Date         time.Time       `json:"date"`
	ID           string          `json:"id"`
	Description  string          `json:"description"`
	Counterparty string          `json:"counterparty,omitempty"`
	Method       string          `json:"method"` // payment channel, e.g. "mtn_momo", "airtel_money", "bank"
	Currency     string          `json:"currency"`
	Direction    Direction       `json:"direction"`
	Amount       decimal.Decimal `json:"amount"`
}

// GenerateHash creates a content hash for duplicate detection on import.
func (t *Transaction) GenerateHash() string {
	data := fmt.Sprintf("%s:%s:%s:%s:%s",
		t.Date.Format("2006-01-02"),
		t.Amount.StringFixed(2),
		t.NormalizedCounterparty(),
		t.Method,
		t.Direction)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// NormalizedCounterparty returns the counterparty (or description when the
// counterparty is absent) lowercased and whitespace-collapsed, for grouping.
func (t *Transaction) NormalizedCounterparty() string {
	name := t.Counterparty
	if name == "" {
		name = t.Description
	}
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}
