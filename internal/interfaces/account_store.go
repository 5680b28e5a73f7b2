package interfaces

import (
	"context"

	"github.com/sheikh-saqib/account-ledger-system/internal/models"
	"github.com/shopspring/decimal"
)

// AccountStore is the single shared mutable resource of the system: account
// rows plus the append-only entry log. Every Apply method is atomic — the
// balance check, the balance change and the entry append happen in one unit
// (a critical section in memory, a transaction in SQL backends) and are
// never observable half-applied. Entry IDs are assigned by the store and
// increase monotonically.
type AccountStore interface {
	// CreateAccount persists a new account and assigns its id. The email
	// must already be normalized; a duplicate fails with ErrEmailExists.
	CreateAccount(ctx context.Context, acct models.Account) (models.Account, error)

	AccountByID(ctx context.Context, id int64) (models.Account, error)
	AccountByEmail(ctx context.Context, email string) (models.Account, error)

	// ApplyDeposit adds amount to the account and appends entry, returning
	// the new balance.
	ApplyDeposit(ctx context.Context, accountID int64, amount decimal.Decimal, entry models.Entry) (decimal.Decimal, error)

	// ApplyWithdrawal subtracts amount and appends entry. The sufficiency
	// check happens inside the atomic unit; a stale prior read can never
	// drive the balance negative.
	ApplyWithdrawal(ctx context.Context, accountID int64, amount decimal.Decimal, entry models.Entry) (decimal.Decimal, error)

	// ApplyTransfer debits sender, credits recipient and appends both
	// entries as one unit, returning the sender's new balance.
	ApplyTransfer(ctx context.Context, senderID, recipientID int64, amount decimal.Decimal, sent, received models.Entry) (decimal.Decimal, error)

	// EntriesByAccount returns up to limit entries for the account, newest
	// first. Each call recomputes from current state.
	EntriesByAccount(ctx context.Context, accountID int64, limit int) ([]models.Entry, error)

	Close() error
}
