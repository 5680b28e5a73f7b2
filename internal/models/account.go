package models

import "github.com/shopspring/decimal"

// Account is a ledger account. Balance is the authoritative amount; it is
// only ever changed through the mutation engine and never goes negative.
type Account struct {
	ID             int64           `json:"id"`
	Email          string          `json:"email"` // lower-cased, unique, used to route transfers
	DisplayName    string          `json:"display_name"`
	Contact        string          `json:"contact,omitempty"`
	CredentialHash string          `json:"-"` // opaque to the ledger, owned by identity concerns
	Balance        decimal.Decimal `json:"balance"`
}
