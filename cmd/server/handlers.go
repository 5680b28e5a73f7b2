package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/sheikh-saqib/account-ledger-system/internal/ledger"
	"github.com/sheikh-saqib/account-ledger-system/internal/models"
	"github.com/shopspring/decimal"
)

func newMux(engine *ledger.Engine, timeout time.Duration) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("POST /accounts", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			DisplayName    string          `json:"display_name"`
			Email          string          `json:"email"`
			Contact        string          `json:"contact"`
			CredentialHash string          `json:"credential_hash"`
			InitialDeposit decimal.Decimal `json:"initial_deposit"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.DisplayName == "" || req.Email == "" || req.CredentialHash == "" {
			writeError(w, http.StatusBadRequest, "display_name, email and credential_hash are required")
			return
		}
		acct, err := engine.Register(r.Context(), req.DisplayName, req.Email, req.Contact, req.CredentialHash, req.InitialDeposit)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, acct)
	})

	mux.HandleFunc("POST /deposit", mutationHandler(func(r *http.Request, req mutationRequest) (decimal.Decimal, error) {
		return engine.Deposit(r.Context(), req.AccountID, req.Amount)
	}))

	mux.HandleFunc("POST /withdraw", mutationHandler(func(r *http.Request, req mutationRequest) (decimal.Decimal, error) {
		return engine.Withdraw(r.Context(), req.AccountID, req.Amount)
	}))

	mux.HandleFunc("POST /transfer", mutationHandler(func(r *http.Request, req mutationRequest) (decimal.Decimal, error) {
		return engine.Transfer(r.Context(), req.AccountID, req.RecipientEmail, req.Amount)
	}))

	mux.HandleFunc("GET /accounts/balance", func(w http.ResponseWriter, r *http.Request) {
		accountID, ok := queryAccountID(w, r)
		if !ok {
			return
		}
		balance, err := engine.Balance(r.Context(), accountID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, balanceResponse{AccountID: accountID, Balance: balance})
	})

	mux.HandleFunc("GET /entries", func(w http.ResponseWriter, r *http.Request) {
		accountID, ok := queryAccountID(w, r)
		if !ok {
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		entries, err := engine.RecentEntries(r.Context(), accountID, limit)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if entries == nil {
			entries = []models.Entry{}
		}
		writeJSON(w, http.StatusOK, entries)
	})

	return http.TimeoutHandler(mux, timeout, `{"error":"request timed out"}`)
}

type mutationRequest struct {
	AccountID      int64           `json:"account_id"`
	RecipientEmail string          `json:"recipient_email"`
	Amount         decimal.Decimal `json:"amount"`
}

type balanceResponse struct {
	AccountID int64           `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
}

func mutationHandler(apply func(r *http.Request, req mutationRequest) (decimal.Decimal, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req mutationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		balance, err := apply(r, req)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, balanceResponse{AccountID: req.AccountID, Balance: balance})
	}
}

func queryAccountID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.URL.Query().Get("account_id")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "account_id is required")
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "account_id must be an integer")
		return 0, false
	}
	return id, true
}

// writeDomainError maps the engine's error taxonomy onto HTTP statuses. The
// mapping is total: a caller can always tell validation failures, missing
// accounts, and retryable backend failures apart.
func writeDomainError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrSelfTransfer):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrAccountNotFound),
		errors.Is(err, ledger.ErrRecipientNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, ledger.ErrEmailExists),
		errors.Is(err, ledger.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
