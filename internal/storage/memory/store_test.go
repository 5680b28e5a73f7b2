package memory

import (
	"context"
	"testing"
	"time"

	"github.com/sheikh-saqib/account-ledger-system/internal/ledger"
	"github.com/sheikh-saqib/account-ledger-system/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func createAccount(t *testing.T, s *Store, email, balance string) models.Account {
	t.Helper()
	acct, err := s.CreateAccount(context.Background(), models.Account{
		Email:          email,
		DisplayName:    "Test",
		CredentialHash: "hash",
		Balance:        dec(t, balance),
	})
	require.NoError(t, err)
	return acct
}

func TestCreateAccountAssignsIDsAndRejectsDuplicates(t *testing.T) {
	s := NewStore()

	a := createAccount(t, s, "a@example.com", "0")
	b := createAccount(t, s, "b@example.com", "0")
	require.Equal(t, int64(1), a.ID)
	require.Equal(t, int64(2), b.ID)

	_, err := s.CreateAccount(context.Background(), models.Account{Email: "a@example.com"})
	require.ErrorIs(t, err, ledger.ErrEmailExists)
}

func TestApplyWithdrawalInsufficientLeavesNoTrace(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	a := createAccount(t, s, "a@example.com", "10.00")

	entry := models.Entry{AccountID: a.ID, Kind: models.EntryWithdraw, Amount: dec(t, "10.01"), Timestamp: time.Now()}
	_, err := s.ApplyWithdrawal(ctx, a.ID, dec(t, "10.01"), entry)
	require.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	got, err := s.AccountByID(ctx, a.ID)
	require.NoError(t, err)
	require.True(t, got.Balance.Equal(dec(t, "10.00")))

	entries, err := s.EntriesByAccount(ctx, a.ID, 10)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestApplyTransferInsufficientLeavesNoTrace(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	a := createAccount(t, s, "a@example.com", "10.00")
	b := createAccount(t, s, "b@example.com", "0")

	sent := models.Entry{AccountID: a.ID, Kind: models.EntryTransferSent, Amount: dec(t, "20.00")}
	received := models.Entry{AccountID: b.ID, Kind: models.EntryTransferReceived, Amount: dec(t, "20.00")}
	_, err := s.ApplyTransfer(ctx, a.ID, b.ID, dec(t, "20.00"), sent, received)
	require.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	for id, want := range map[int64]string{a.ID: "10.00", b.ID: "0"} {
		acct, err := s.AccountByID(ctx, id)
		require.NoError(t, err)
		require.True(t, acct.Balance.Equal(dec(t, want)))
		entries, err := s.EntriesByAccount(ctx, id, 10)
		require.NoError(t, err)
		require.Empty(t, entries)
	}
}

func TestEntriesByAccountNewestFirstWithLimit(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	a := createAccount(t, s, "a@example.com", "0")
	b := createAccount(t, s, "b@example.com", "0")

	for i := 0; i < 5; i++ {
		entry := models.Entry{AccountID: a.ID, Kind: models.EntryDeposit, Amount: dec(t, "1.00"), Timestamp: time.Now()}
		_, err := s.ApplyDeposit(ctx, a.ID, dec(t, "1.00"), entry)
		require.NoError(t, err)
	}
	_, err := s.ApplyDeposit(ctx, b.ID, dec(t, "1.00"),
		models.Entry{AccountID: b.ID, Kind: models.EntryDeposit, Amount: dec(t, "1.00")})
	require.NoError(t, err)

	entries, err := s.EntriesByAccount(ctx, a.ID, 3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for i := 1; i < len(entries); i++ {
		require.Greater(t, entries[i-1].ID, entries[i].ID)
		require.Equal(t, a.ID, entries[i].AccountID)
	}
}

func TestAccountByEmail(t *testing.T) {
	s := NewStore()
	a := createAccount(t, s, "a@example.com", "0")

	got, err := s.AccountByEmail(context.Background(), "a@example.com")
	require.NoError(t, err)
	require.Equal(t, a.ID, got.ID)

	_, err = s.AccountByEmail(context.Background(), "missing@example.com")
	require.ErrorIs(t, err, ledger.ErrAccountNotFound)
}
