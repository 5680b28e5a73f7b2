package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/sheikh-saqib/account-ledger-system/internal/directory"
	"github.com/sheikh-saqib/account-ledger-system/internal/ledger"
	"github.com/sheikh-saqib/account-ledger-system/internal/storage/memory"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	store := memory.NewStore()
	engine := ledger.NewEngine(store, directory.New(store), nil, nil)
	return newMux(engine, time.Second)
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func registerAccount(t *testing.T, h http.Handler, email, deposit string) int64 {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/accounts",
		`{"display_name":"Test","email":"`+email+`","credential_hash":"hash","initial_deposit":"`+deposit+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var acct struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &acct))
	return acct.ID
}

func TestHealth(t *testing.T) {
	h := newTestHandler(t)
	rec := do(t, h, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRegisterValidation(t *testing.T) {
	h := newTestHandler(t)

	rec := do(t, h, http.MethodPost, "/accounts", `{"email":"x@example.com"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	registerAccount(t, h, "x@example.com", "0")
	rec = do(t, h, http.MethodPost, "/accounts",
		`{"display_name":"Dup","email":"x@example.com","credential_hash":"hash"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestDepositWithdrawFlow(t *testing.T) {
	h := newTestHandler(t)
	id := registerAccount(t, h, "flow@example.com", "50.00")

	rec := do(t, h, http.MethodPost, "/deposit", `{"account_id":`+itoa(id)+`,"amount":"25.00"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Balance string `json:"balance"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "75", resp.Balance)

	rec = do(t, h, http.MethodPost, "/withdraw", `{"account_id":`+itoa(id)+`,"amount":"100.00"}`)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodPost, "/withdraw", `{"account_id":`+itoa(id)+`,"amount":"-1"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/accounts/balance?account_id="+itoa(id), "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/accounts/balance?account_id=999", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTransferFlow(t *testing.T) {
	h := newTestHandler(t)
	sender := registerAccount(t, h, "sender@example.com", "100.00")
	registerAccount(t, h, "recipient@example.com", "0")

	rec := do(t, h, http.MethodPost, "/transfer",
		`{"account_id":`+itoa(sender)+`,"recipient_email":"Recipient@Example.com","amount":"40.00"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/transfer",
		`{"account_id":`+itoa(sender)+`,"recipient_email":"sender@example.com","amount":"1.00"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/transfer",
		`{"account_id":`+itoa(sender)+`,"recipient_email":"nobody@example.com","amount":"1.00"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/entries?account_id="+itoa(sender)+"&limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []struct {
		Kind              string `json:"kind"`
		CounterpartyEmail string `json:"counterparty_email"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 2) // initial deposit + transfer sent
	require.Equal(t, "transfer_sent", entries[0].Kind)
	require.Equal(t, "recipient@example.com", entries[0].CounterpartyEmail)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
