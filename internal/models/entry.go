package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryKind classifies a ledger entry.
type EntryKind string

const (
	EntryDeposit          EntryKind = "deposit"
	EntryWithdraw         EntryKind = "withdraw"
	EntryTransferSent     EntryKind = "transfer_sent"
	EntryTransferReceived EntryKind = "transfer_received"
)

// Entry is one immutable record in an account's history. IDs are assigned by
// the store and increase monotonically, so id order is time order.
type Entry struct {
	ID                int64           `json:"id"`
	AccountID         int64           `json:"account_id"`
	Kind              EntryKind       `json:"kind"`
	Amount            decimal.Decimal `json:"amount"` // always positive; Kind carries the direction
	Timestamp         time.Time       `json:"timestamp"`
	CounterpartyEmail string          `json:"counterparty_email,omitempty"` // transfer kinds only
}
