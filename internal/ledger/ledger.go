// Package ledger mediates every mutation of a user's prepaid token
// balance. Debits are atomic decrement-if-sufficient operations, so
// concurrent charges against the same user can never drive the balance
// negative.
package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Giansimone-Coccia/Progetto-PA-sub000/internal/store"
	"github.com/Giansimone-Coccia/Progetto-PA-sub000/pkg/models"
	"github.com/google/uuid"
)

// ErrInsufficientTokens is returned when a debit would exceed the balance.
var ErrInsufficientTokens = store.ErrInsufficientTokens

// Accounts is the slice of the store the ledger operates on.
type Accounts interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	DebitTokens(ctx context.Context, userID uuid.UUID, amount float64) error
	CreditTokens(ctx context.Context, userID uuid.UUID, amount float64) (float64, error)
}

// Ledger charges and recharges user token balances.
type Ledger struct {
	accounts Accounts
}

// NewLedger creates a new Ledger.
func NewLedger(accounts Accounts) *Ledger {
	return &Ledger{accounts: accounts}
}

// Debit subtracts amount from the user's balance, refusing the whole
// operation when the balance is insufficient. Callers must not create the
// paid artifact when ErrInsufficientTokens is returned.
func (l *Ledger) Debit(ctx context.Context, userID uuid.UUID, amount float64) error {
	if amount < 0 {
		return fmt.Errorf("debit amount must be non-negative, got %f", amount)
	}
	if err := l.accounts.DebitTokens(ctx, userID, amount); err != nil {
		return err
	}
	slog.Info("tokens debited", "user_id", userID, "amount", amount)
	return nil
}

// Credit adds amount to the user's balance and returns the new balance.
// Used by the admin recharge endpoint.
func (l *Ledger) Credit(ctx context.Context, userID uuid.UUID, amount float64) (float64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("credit amount must be positive, got %f", amount)
	}
	balance, err := l.accounts.CreditTokens(ctx, userID, amount)
	if err != nil {
		return 0, err
	}
	slog.Info("tokens credited", "user_id", userID, "amount", amount, "balance", balance)
	return balance, nil
}

// Balance returns the user's current token balance.
func (l *Ledger) Balance(ctx context.Context, userID uuid.UUID) (float64, error) {
	user, err := l.accounts.GetUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	return user.Tokens, nil
}
