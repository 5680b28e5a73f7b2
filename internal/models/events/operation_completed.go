package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// OperationCompleted is published after a balance mutation has committed.
type OperationCompleted struct {
	OperationID       string          `json:"operation_id"`
	Kind              string          `json:"kind"`
	AccountID         int64           `json:"account_id"`
	CounterpartyEmail string          `json:"counterparty_email,omitempty"`
	Amount            decimal.Decimal `json:"amount"`
	NewBalance        decimal.Decimal `json:"new_balance"`
	OccurredAt        time.Time       `json:"occurred_at"`
}
