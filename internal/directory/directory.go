// Package directory resolves accounts by id or email. It is a read-only
// view over the account store and never mutates anything.
package directory

import (
	"context"
	"strings"

	"github.com/sheikh-saqib/account-ledger-system/internal/interfaces"
	"github.com/sheikh-saqib/account-ledger-system/internal/models"
)

type Directory struct {
	store interfaces.AccountStore
}

func New(store interfaces.AccountStore) *Directory {
	return &Directory{store: store}
}

// NormalizeEmail lower-cases and trims an email. All stored emails are
// normalized, so lookups normalize before comparing.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (d *Directory) ResolveByEmail(ctx context.Context, email string) (models.Account, error) {
	return d.store.AccountByEmail(ctx, NormalizeEmail(email))
}

func (d *Directory) ResolveByID(ctx context.Context, id int64) (models.Account, error) {
	return d.store.AccountByID(ctx, id)
}
