// Package ledger implements the balance mutation engine: validation and
// atomic application of deposits, withdrawals and transfers.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sheikh-saqib/account-ledger-system/internal/directory"
	"github.com/sheikh-saqib/account-ledger-system/internal/interfaces"
	"github.com/sheikh-saqib/account-ledger-system/internal/models"
	"github.com/sheikh-saqib/account-ledger-system/internal/models/events"
	"github.com/sheikh-saqib/account-ledger-system/internal/money"
	"github.com/shopspring/decimal"
)

const (
	defaultRecentLimit = 10
	maxRecentLimit     = 100
)

// Engine coordinates balance mutations against the account store. It holds
// no account state itself; the store is the sole source of truth for
// balances. Concurrent use is safe: each mutation holds the per-account
// lock(s) for its whole duration, so read-modify-write steps on overlapping
// accounts never interleave.
type Engine struct {
	store  interfaces.AccountStore
	dir    *directory.Directory
	events interfaces.EventPublisher // optional
	log    *slog.Logger

	muMap map[int64]*sync.Mutex // one mutex per account, created lazily
	mapMu sync.Mutex            // protects muMap itself
}

func NewEngine(store interfaces.AccountStore, dir *directory.Directory, publisher interfaces.EventPublisher, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		store:  store,
		dir:    dir,
		events: publisher,
		log:    log,
		muMap:  make(map[int64]*sync.Mutex),
	}
}

func (e *Engine) accountLock(accountID int64) *sync.Mutex {
	e.mapMu.Lock()
	defer e.mapMu.Unlock()

	mu, ok := e.muMap[accountID]
	if !ok {
		mu = &sync.Mutex{}
		e.muMap[accountID] = mu
	}
	return mu
}

// Register creates an account with a normalized unique email and a zero
// balance, then applies the initial deposit (if any) as a regular deposit so
// it shows up in the entry log.
func (e *Engine) Register(ctx context.Context, displayName, email, contact, credentialHash string, initialDeposit decimal.Decimal) (models.Account, error) {
	if initialDeposit.IsNegative() || !money.Exact(initialDeposit) {
		return models.Account{}, ErrInvalidAmount
	}

	acct := models.Account{
		Email:          directory.NormalizeEmail(email),
		DisplayName:    displayName,
		Contact:        contact,
		CredentialHash: credentialHash,
		Balance:        decimal.Zero,
	}
	created, err := e.store.CreateAccount(ctx, acct)
	if err != nil {
		return models.Account{}, err
	}

	if initialDeposit.IsPositive() {
		balance, err := e.Deposit(ctx, created.ID, initialDeposit)
		if err != nil {
			return models.Account{}, err
		}
		created.Balance = balance
	}
	return created, nil
}

// Deposit atomically adds amount to the account and appends a deposit entry.
func (e *Engine) Deposit(ctx context.Context, accountID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	if !money.Valid(amount) {
		return decimal.Zero, ErrInvalidAmount
	}
	amount = money.Round(amount)

	mu := e.accountLock(accountID)
	mu.Lock()
	defer mu.Unlock()

	entry := models.Entry{
		AccountID: accountID,
		Kind:      models.EntryDeposit,
		Amount:    amount,
		Timestamp: time.Now().UTC(),
	}
	balance, err := e.store.ApplyDeposit(ctx, accountID, amount, entry)
	if err != nil {
		return decimal.Zero, err
	}

	e.publish(ctx, events.OperationCompleted{
		OperationID: uuid.New().String(),
		Kind:        string(models.EntryDeposit),
		AccountID:   accountID,
		Amount:      amount,
		NewBalance:  balance,
		OccurredAt:  entry.Timestamp,
	})
	return balance, nil
}

// Withdraw atomically subtracts amount from the account and appends a
// withdraw entry. Sufficiency is re-verified inside the store's atomic unit,
// so two concurrent withdrawals can never both pass against the same funds.
func (e *Engine) Withdraw(ctx context.Context, accountID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	if !money.Valid(amount) {
		return decimal.Zero, ErrInvalidAmount
	}
	amount = money.Round(amount)

	mu := e.accountLock(accountID)
	mu.Lock()
	defer mu.Unlock()

	entry := models.Entry{
		AccountID: accountID,
		Kind:      models.EntryWithdraw,
		Amount:    amount,
		Timestamp: time.Now().UTC(),
	}
	balance, err := e.store.ApplyWithdrawal(ctx, accountID, amount, entry)
	if err != nil {
		return decimal.Zero, err
	}

	e.publish(ctx, events.OperationCompleted{
		OperationID: uuid.New().String(),
		Kind:        string(models.EntryWithdraw),
		AccountID:   accountID,
		Amount:      amount,
		NewBalance:  balance,
		OccurredAt:  entry.Timestamp,
	})
	return balance, nil
}

// Transfer moves amount from the sender to the account registered under
// recipientEmail as a single atomic unit: both balance changes and both
// entries happen, or none do. Returns the sender's new balance.
func (e *Engine) Transfer(ctx context.Context, senderID int64, recipientEmail string, amount decimal.Decimal) (decimal.Decimal, error) {
	if !money.Valid(amount) {
		return decimal.Zero, ErrInvalidAmount
	}
	amount = money.Round(amount)

	sender, err := e.store.AccountByID(ctx, senderID)
	if err != nil {
		return decimal.Zero, err
	}
	recipient, err := e.dir.ResolveByEmail(ctx, recipientEmail)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return decimal.Zero, ErrRecipientNotFound
		}
		return decimal.Zero, err
	}
	if recipient.ID == sender.ID || recipient.Email == sender.Email {
		return decimal.Zero, ErrSelfTransfer
	}

	// Lock both accounts in ascending id order so two opposite transfers
	// between the same pair cannot deadlock.
	first, second := e.accountLock(sender.ID), e.accountLock(recipient.ID)
	if recipient.ID < sender.ID {
		first, second = second, first
	}
	first.Lock()
	second.Lock()
	defer first.Unlock()
	defer second.Unlock()

	now := time.Now().UTC()
	sent := models.Entry{
		AccountID:         sender.ID,
		Kind:              models.EntryTransferSent,
		Amount:            amount,
		Timestamp:         now,
		CounterpartyEmail: recipient.Email,
	}
	received := models.Entry{
		AccountID:         recipient.ID,
		Kind:              models.EntryTransferReceived,
		Amount:            amount,
		Timestamp:         now,
		CounterpartyEmail: sender.Email,
	}
	balance, err := e.store.ApplyTransfer(ctx, sender.ID, recipient.ID, amount, sent, received)
	if err != nil {
		return decimal.Zero, err
	}

	e.publish(ctx, events.OperationCompleted{
		OperationID:       uuid.New().String(),
		Kind:              string(models.EntryTransferSent),
		AccountID:         sender.ID,
		CounterpartyEmail: recipient.Email,
		Amount:            amount,
		NewBalance:        balance,
		OccurredAt:        now,
	})
	return balance, nil
}

// Balance returns the current balance of the account.
func (e *Engine) Balance(ctx context.Context, accountID int64) (decimal.Decimal, error) {
	acct, err := e.store.AccountByID(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	return acct.Balance, nil
}

// RecentEntries returns the account's newest entries, newest first. A limit
// outside [1, maxRecentLimit] falls back to the default of 10.
func (e *Engine) RecentEntries(ctx context.Context, accountID int64, limit int) ([]models.Entry, error) {
	if limit <= 0 || limit > maxRecentLimit {
		limit = defaultRecentLimit
	}
	return e.store.EntriesByAccount(ctx, accountID, limit)
}

// publish sends the event best effort. A publish failure is logged and never
// fails the mutation: the money has already moved.
func (e *Engine) publish(ctx context.Context, event events.OperationCompleted) {
	if e.events == nil {
		return
	}
	if err := e.events.Publish(ctx, event); err != nil {
		e.log.Warn("publish operation event",
			"kind", event.Kind,
			"account_id", event.AccountID,
			"error", err)
	}
}
