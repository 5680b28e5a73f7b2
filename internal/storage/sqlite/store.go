// Package sqlite provides a durable AccountStore backed by a local SQLite
// database file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sheikh-saqib/account-ledger-system/internal/interfaces"
	"github.com/sheikh-saqib/account-ledger-system/internal/ledger"
	"github.com/sheikh-saqib/account-ledger-system/internal/models"
	"github.com/shopspring/decimal"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    email TEXT NOT NULL UNIQUE,
    display_name TEXT NOT NULL,
    contact TEXT NOT NULL DEFAULT '',
    credential_hash TEXT NOT NULL,
    balance TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS entries (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    account_id INTEGER NOT NULL REFERENCES accounts(id),
    kind TEXT NOT NULL,
    amount TEXT NOT NULL,
    created_at TEXT NOT NULL,
    counterparty_email TEXT
);

CREATE INDEX IF NOT EXISTS idx_entries_account ON entries(account_id, id);
`

// Store persists accounts and entries in SQLite. Balances are stored as
// decimal strings and the arithmetic happens in Go inside a transaction, so
// no precision is lost to SQLite's numeric affinity. The single connection
// serializes writers at the database level.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and ensures the
// schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) CreateAccount(ctx context.Context, acct models.Account) (models.Account, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (email, display_name, contact, credential_hash, balance)
		 VALUES (?, ?, ?, ?, ?)`,
		acct.Email, acct.DisplayName, acct.Contact, acct.CredentialHash, acct.Balance.String())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return models.Account{}, ledger.ErrEmailExists
		}
		return models.Account{}, storeErr("create account", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Account{}, storeErr("create account", err)
	}
	acct.ID = id
	return acct, nil
}

func (s *Store) AccountByID(ctx context.Context, id int64) (models.Account, error) {
	return s.scanAccount(s.db.QueryRowContext(ctx,
		`SELECT id, email, display_name, contact, credential_hash, balance
		 FROM accounts WHERE id = ?`, id))
}

func (s *Store) AccountByEmail(ctx context.Context, email string) (models.Account, error) {
	return s.scanAccount(s.db.QueryRowContext(ctx,
		`SELECT id, email, display_name, contact, credential_hash, balance
		 FROM accounts WHERE email = ?`, email))
}

func (s *Store) ApplyDeposit(ctx context.Context, accountID int64, amount decimal.Decimal, entry models.Entry) (decimal.Decimal, error) {
	return s.mutate(ctx, "deposit", func(tx *sql.Tx) (decimal.Decimal, error) {
		balance, err := balanceForUpdate(ctx, tx, accountID)
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
		balance, err := balanceForUpdate(ctx, tx, accountID)
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
		senderBal, err := balanceForUpdate(ctx, tx, senderID)
		if err != nil {
			return decimal.Zero, err
		}
		recipientBal, err := balanceForUpdate(ctx, tx, recipientID)
		if err != nil {
			if errors.Is(err, ledger.ErrAccountNotFound) {
				return decimal.Zero, ledger.ErrRecipientNotFound
			}
			return decimal.Zero, err
		}
		if senderBal.LessThan(amount) {
			return decimal.Zero, ledger.ErrInsufficientFunds
		}
		senderBal = senderBal.Sub(amount)
		recipientBal = recipientBal.Add(amount)
		if err := writeBalance(ctx, tx, senderID, senderBal); err != nil {
			return decimal.Zero, err
		}
		if err := writeBalance(ctx, tx, recipientID, recipientBal); err != nil {
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
		 FROM entries WHERE account_id = ? ORDER BY id DESC LIMIT ?`,
		accountID, limit)
	if err != nil {
		return nil, storeErr("query entries", err)
	}
	defer rows.Close()

	var entries []models.Entry
	for rows.Next() {
		var (
			entry        models.Entry
			amount       string
			createdAt    string
			counterparty sql.NullString
		)
		if err := rows.Scan(&entry.ID, &entry.AccountID, &entry.Kind, &amount, &createdAt, &counterparty); err != nil {
			return nil, storeErr("scan entry", err)
		}
		if entry.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse entry amount %q: %w", amount, err)
		}
		if entry.Timestamp, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("parse entry timestamp %q: %w", createdAt, err)
		}
		entry.CounterpartyEmail = counterparty.String
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate entries", err)
	}
	return entries, nil
}

func (s *Store) Close() error { return s.db.Close() }

// mutate runs fn inside a transaction, rolling back on any error so the
// balance changes and entry appends land all-or-nothing.
func (s *Store) mutate(ctx context.Context, op string, fn func(tx *sql.Tx) (decimal.Decimal, error)) (decimal.Decimal, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return decimal.Zero, storeErr(op, err)
	}
	balance, err := fn(tx)
	if err != nil {
		tx.Rollback()
		return decimal.Zero, err
	}
	if err := tx.Commit(); err != nil {
		return decimal.Zero, storeErr(op, err)
	}
	return balance, nil
}

func balanceForUpdate(ctx context.Context, tx *sql.Tx, accountID int64) (decimal.Decimal, error) {
	var raw string
	err := tx.QueryRowContext(ctx, `SELECT balance FROM accounts WHERE id = ?`, accountID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, ledger.ErrAccountNotFound
	}
	if err != nil {
		return decimal.Zero, storeErr("read balance", err)
	}
	balance, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse balance %q: %w", raw, err)
	}
	return balance, nil
}

func writeBalance(ctx context.Context, tx *sql.Tx, accountID int64, balance decimal.Decimal) error {
	if _, err := tx.ExecContext(ctx,
		`UPDATE accounts SET balance = ? WHERE id = ?`, balance.String(), accountID); err != nil {
		return storeErr("write balance", err)
	}
	return nil
}

func insertEntry(ctx context.Context, tx *sql.Tx, entry models.Entry) error {
	counterparty := sql.NullString{String: entry.CounterpartyEmail, Valid: entry.CounterpartyEmail != ""}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO entries (account_id, kind, amount, created_at, counterparty_email)
		 VALUES (?, ?, ?, ?, ?)`,
		entry.AccountID, string(entry.Kind), entry.Amount.String(),
		entry.Timestamp.UTC().Format(time.RFC3339Nano), counterparty); err != nil {
		return storeErr("append entry", err)
	}
	return nil
}

func (s *Store) scanAccount(row *sql.Row) (models.Account, error) {
	var (
		acct models.Account
		raw  string
	)
	err := row.Scan(&acct.ID, &acct.Email, &acct.DisplayName, &acct.Contact, &acct.CredentialHash, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, ledger.ErrAccountNotFound
	}
	if err != nil {
		return models.Account{}, storeErr("read account", err)
	}
	if acct.Balance, err = decimal.NewFromString(raw); err != nil {
		return models.Account{}, fmt.Errorf("parse balance %q: %w", raw, err)
	}
	return acct, nil
}

// storeErr tags a backend failure as retryable while keeping the cause.
func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(ledger.ErrStorageUnavailable, err))
}

var _ interfaces.AccountStore = (*Store)(nil)
