package ledger

import "errors"

// Domain errors returned by the engine and the stores. Callers match them
// with errors.Is; the HTTP layer maps each to a stable status code.
var (
	// ErrInvalidAmount: the amount is not positive or carries more than two
	// fractional digits.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrAccountNotFound: no account with the given id.
	ErrAccountNotFound = errors.New("account not found")

	// ErrRecipientNotFound: no account with the given transfer email.
	ErrRecipientNotFound = errors.New("recipient not found")

	// ErrSelfTransfer: sender and recipient are the same account.
	ErrSelfTransfer = errors.New("cannot transfer to own account")

	// ErrInsufficientFunds: the amount exceeds the balance at the instant
	// of application.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrEmailExists: registration with an email already in use.
	ErrEmailExists = errors.New("email already registered")

	// ErrStorageUnavailable: transient backend failure; the operation was
	// not applied and the caller may retry.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrConflict: concurrent modification detected by the backend; the
	// operation was not applied and the caller may retry.
	ErrConflict = errors.New("conflicting concurrent update")
)
