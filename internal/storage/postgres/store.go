// Package postgres provides a durable AccountStore backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/sheikh-saqib/account-ledger-system/internal/interfaces"
	"github.com/sheikh-saqib/account-ledger-system/internal/ledger"
	"github.com/sheikh-saqib/account-ledger-system/internal/models"
	"github.com/shopspring/decimal"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
    id BIGSERIAL PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    display_name TEXT NOT NULL,
    contact TEXT NOT NULL DEFAULT '',
    credential_hash TEXT NOT NULL,
    balance NUMERIC(18,2) NOT NULL CHECK (balance >= 0)
);

CREATE TABLE IF NOT EXISTS entries (
    id BIGSERIAL PRIMARY KEY,
    account_id BIGINT NOT NULL REFERENCES accounts(id),
    kind TEXT NOT NULL,
    amount NUMERIC(18,2) NOT NULL CHECK (amount > 0),
    created_at TIMESTAMPTZ NOT NULL,
    counterparty_email TEXT
);

CREATE INDEX IF NOT EXISTS idx_entries_account ON entries(account_id, id);
`

// Store persists accounts and entries in PostgreSQL. Row locks taken with
// SELECT ... FOR UPDATE keep each mutation's read-modify-write indivisible
// even when callers reach the database without going through the engine.
type Store struct {
	db *sql.DB
}

// Open connects to the database at dsn and ensures the schema exists.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) CreateAccount(ctx context.Context, acct models.Account) (models.Account, error) {
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO accounts (email, display_name, contact, credential_hash, balance)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		acct.Email, acct.DisplayName, acct.Contact, acct.CredentialHash, acct.Balance).Scan(&acct.ID)
	if err != nil {
		return models.Account{}, mapErr("create account", err)
	}
	return acct, nil
}

func (s *Store) AccountByID(ctx context.Context, id int64) (models.Account, error) {
	return scanAccount(s.db.QueryRowContext(ctx,
		`SELECT id, email, display_name, contact, credential_hash, balance
		 FROM accounts WHERE id = $1`, id))
}

func (s *Store) AccountByEmail(ctx context.Context, email string) (models.Account, error) {
	return scanAccount(s.db.QueryRowContext(ctx,
		`SELECT id, email, display_name, contact, credential_hash, balance
		 FROM accounts WHERE email = $1`, email))
}

func (s *Store) ApplyDeposit(ctx context.Context, accountID int64, amount decimal.Decimal, entry models.Entry) (decimal.Decimal, error) {
	return s.mutate(ctx, "deposit", func(tx *sql.Tx) (decimal.Decimal, error) {
		balance, err := lockBalance(ctx, tx, accountID)
		if err != nil {
			return decimal.Zero, err
		}
		balance = balance.Add(amount)
		if err := writeBalance(ctx, tx, accountID, balance); err != nil {
			return decimal.Zero, err
		}
		if err := insertEntry(ctx, tx, entry); err != nil {
			return decimal.Zero, err
		}
		return balance, nil
	})
}

func (s *Store) ApplyWithdrawal(ctx context.Context, accountID int64, amount decimal.Decimal, entry models.Entry) (decimal.Decimal, error) {
	return s.mutate(ctx, "withdraw", func(tx *sql.Tx) (decimal.Decimal, error) {
		balance, err := lockBalance(ctx, tx, accountID)
		if err != nil {
			return decimal.Zero, err
		}
		if balance.LessThan(amount) {
			return decimal.Zero, ledger.ErrInsufficientFunds
		}
		balance = balance.Sub(amount)
		if err := writeBalance(ctx, tx, accountID, balance); err != nil {
			return decimal.Zero, err
		}
		if err := insertEntry(ctx, tx, entry); err != nil {
			return decimal.Zero, err
		}
		return balance, nil
	})
}

func (s *Store) ApplyTransfer(ctx context.Context, senderID, recipientID int64, amount decimal.Decimal, sent, received models.Entry) (decimal.Decimal, error) {
	return s.mutate(ctx, "transfer", func(tx *sql.Tx) (decimal.Decimal, error) {
		// Row locks in ascending id order, mirroring the engine's lock
		// order, so database-level deadlocks cannot form either.
		firstID, secondID := senderID, recipientID
		if secondID < firstID {
			firstID, secondID = secondID, firstID
		}
		balances := make(map[int64]decimal.Decimal, 2)
		for _, id := range []int64{firstID, secondID} {
			balance, err := lockBalance(ctx, tx, id)
			if err != nil {
				if id == recipientID && errors.Is(err, ledger.ErrAccountNotFound) {
					return decimal.Zero, ledger.ErrRecipientNotFound
				}
				return decimal.Zero, err
			}
			balances[id] = balance
		}
		if balances[senderID].LessThan(amount) {
			return decimal.Zero, ledger.ErrInsufficientFunds
		}
		senderBal := balances[senderID].Sub(amount)
		if err := writeBalance(ctx, tx, senderID, senderBal); err != nil {
			return decimal.Zero, err
		}
		if err := writeBalance(ctx, tx, recipientID, balances[recipientID].Add(amount)); err != nil {
			return decimal.Zero, err
		}
		if err := insertEntry(ctx, tx, sent); err != nil {
			return decimal.Zero, err
		}
		if err := insertEntry(ctx, tx, received); err != nil {
			return decimal.Zero, err
		}
		return senderBal, nil
	})
}

func (s *Store) EntriesByAccount(ctx context.Context, accountID int64, limit int) ([]models.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, account_id, kind, amount, created_at, counterparty_email
		 FROM entries WHERE account_id = $1 ORDER BY id DESC LIMIT $2`,
		accountID, limit)
	if err != nil {
		return nil, mapErr("query entries", err)
	}
	defer rows.Close()

	var entries []models.Entry
	for rows.Next() {
		var (
			entry        models.Entry
			counterparty sql.NullString
		)
		if err := rows.Scan(&entry.ID, &entry.AccountID, &entry.Kind, &entry.Amount, &entry.Timestamp, &counterparty); err != nil {
			return nil, mapErr("scan entry", err)
		}
		entry.CounterpartyEmail = counterparty.String
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("iterate entries", err)
	}
	return entries, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) mutate(ctx context.Context, op string, fn func(tx *sql.Tx) (decimal.Decimal, error)) (decimal.Decimal, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return decimal.Zero, mapErr(op, err)
	}
	balance, err := fn(tx)
	if err != nil {
		tx.Rollback()
		return decimal.Zero, err
	}
	if err := tx.Commit(); err != nil {
		return decimal.Zero, mapErr(op, err)
	}
	return balance, nil
}

func lockBalance(ctx context.Context, tx *sql.Tx, accountID int64) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := tx.QueryRowContext(ctx,
		`SELECT balance FROM accounts WHERE id = $1 FOR UPDATE`, accountID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, ledger.ErrAccountNotFound
	}
	if err != nil {
		return decimal.Zero, mapErr("lock balance", err)
	}
	return balance, nil
}

func writeBalance(ctx context.Context, tx *sql.Tx, accountID int64, balance decimal.Decimal) error {
	if _, err := tx.ExecContext(ctx,
		`UPDATE accounts SET balance = $1 WHERE id = $2`, balance, accountID); err != nil {
		return mapErr("write balance", err)
	}
	return nil
}

func insertEntry(ctx context.Context, tx *sql.Tx, entry models.Entry) error {
	counterparty := sql.NullString{String: entry.CounterpartyEmail, Valid: entry.CounterpartyEmail != ""}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO entries (account_id, kind, amount, created_at, counterparty_email)
		 VALUES ($1, $2, $3, $4, $5)`,
		entry.AccountID, string(entry.Kind), entry.Amount, entry.Timestamp, counterparty); err != nil {
		return mapErr("append entry", err)
	}
	return nil
}

func scanAccount(row *sql.Row) (models.Account, error) {
	var acct models.Account
	err := row.Scan(&acct.ID, &acct.Email, &acct.DisplayName, &acct.Contact, &acct.CredentialHash, &acct.Balance)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, ledger.ErrAccountNotFound
	}
	if err != nil {
		return models.Account{}, mapErr("read account", err)
	}
	return acct, nil
}

// mapErr translates driver errors into the domain taxonomy: unique email
// violations, serialization conflicts, and everything else as a transient
// storage failure the caller may retry.
func mapErr(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == "23505": // unique_violation
			return ledger.ErrEmailExists
		case pqErr.Code.Class() == "40": // transaction rollback, e.g. deadlock or serialization
			return fmt.Errorf("%s: %w", op, ledger.ErrConflict)
		}
	}
	return fmt.Errorf("%s: %w", op, errors.Join(ledger.ErrStorageUnavailable, err))
}

var _ interfaces.AccountStore = (*Store)(nil)
