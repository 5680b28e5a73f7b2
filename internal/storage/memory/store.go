// Package memory provides an in-memory AccountStore, used as the default
// driver and as the backend for tests.
package memory

import (
	"context"
	"sync"

	"github.com/sheikh-saqib/account-ledger-system/internal/interfaces"
	"github.com/sheikh-saqib/account-ledger-system/internal/ledger"
	"github.com/sheikh-saqib/account-ledger-system/internal/models"
	"github.com/shopspring/decimal"
)

// Store keeps accounts and entries in process memory. A single mutex guards
// all state, so every Apply method is one critical section: the sufficiency
// check, the balance change and the entry append are indivisible.
type Store struct {
	mu          sync.Mutex
	nextAccount int64
	nextEntry   int64
	accounts    map[int64]*models.Account
	byEmail     map[string]int64
	entries     []models.Entry
}

func NewStore() *Store {
	return &Store{
		accounts: make(map[int64]*models.Account),
		byEmail:  make(map[string]int64),
	}
}

func (s *Store) CreateAccount(ctx context.Context, acct models.Account) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[acct.Email]; exists {
		return models.Account{}, ledger.ErrEmailExists
	}
	s.nextAccount++
	acct.ID = s.nextAccount
	s.accounts[acct.ID] = &acct
	s.byEmail[acct.Email] = acct.ID
	return acct, nil
}

func (s *Store) AccountByID(ctx context.Context, id int64) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[id]
	if !ok {
		return models.Account{}, ledger.ErrAccountNotFound
	}
	return *acct, nil
}

func (s *Store) AccountByEmail(ctx context.Context, email string) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[email]
	if !ok {
		return models.Account{}, ledger.ErrAccountNotFound
	}
	return *s.accounts[id], nil
}

func (s *Store) ApplyDeposit(ctx context.Context, accountID int64, amount decimal.Decimal, entry models.Entry) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[accountID]
	if !ok {
		return decimal.Zero, ledger.ErrAccountNotFound
	}
	acct.Balance = acct.Balance.Add(amount)
	s.appendEntry(entry)
	return acct.Balance, nil
}

func (s *Store) ApplyWithdrawal(ctx context.Context, accountID int64, amount decimal.Decimal, entry models.Entry) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[accountID]
	if !ok {
		return decimal.Zero, ledger.ErrAccountNotFound
	}
	if acct.Balance.LessThan(amount) {
		return decimal.Zero, ledger.ErrInsufficientFunds
	}
	acct.Balance = acct.Balance.Sub(amount)
	s.appendEntry(entry)
	return acct.Balance, nil
}

func (s *Store) ApplyTransfer(ctx context.Context, senderID, recipientID int64, amount decimal.Decimal, sent, received models.Entry) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sender, ok := s.accounts[senderID]
	if !ok {
		return decimal.Zero, ledger.ErrAccountNotFound
	}
	recipient, ok := s.accounts[recipientID]
	if !ok {
		return decimal.Zero, ledger.ErrRecipientNotFound
	}
	if sender.Balance.LessThan(amount) {
		return decimal.Zero, ledger.ErrInsufficientFunds
	}
	sender.Balance = sender.Balance.Sub(amount)
	recipient.Balance = recipient.Balance.Add(amount)
	s.appendEntry(sent)
	s.appendEntry(received)
	return sender.Balance, nil
}

func (s *Store) EntriesByAccount(ctx context.Context, accountID int64, limit int) ([]models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Entry, 0, limit)
	for i := len(s.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if s.entries[i].AccountID == accountID {
			out = append(out, s.entries[i])
		}
	}
	return out, nil
}

func (s *Store) Close() error { return nil }

// appendEntry assigns the next id and records the entry. Caller holds s.mu.
func (s *Store) appendEntry(entry models.Entry) {
	s.nextEntry++
	entry.ID = s.nextEntry
	s.entries = append(s.entries, entry)
}

var _ interfaces.AccountStore = (*Store)(nil)
