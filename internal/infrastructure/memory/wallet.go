package memory

import (
	"auction-house/internal/domain"
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

// Wallet is an in-process WalletLedger.
type Wallet struct {
	balances map[string]decimal.Decimal
	opening  decimal.Decimal
	symbol   string
	mutex    sync.Mutex
}

// NewWallet creates a ledger where unseen actors start with opening.
func NewWallet(symbol string, opening decimal.Decimal) *Wallet {
	return &Wallet{
		balances: make(map[string]decimal.Decimal),
		opening:  opening,
		symbol:   symbol,
	}
}

func (w *Wallet) balance(actorID string) decimal.Decimal {
	if b, ok := w.balances[actorID]; ok {
		return b
	}
	return w.opening
}

func (w *Wallet) Balance(actorID string) decimal.Decimal {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	return w.balance(actorID)
}

func (w *Wallet) SetBalance(actorID string, amount decimal.Decimal) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	w.balances[actorID] = amount
}

func (w *Wallet) HasBalance(_ context.Context, actorID string, amount decimal.Decimal) (bool, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	return w.balance(actorID).GreaterThanOrEqual(amount), nil
}

func (w *Wallet) Withdraw(_ context.Context, actorID string, amount decimal.Decimal, memo string) error {
	if amount.IsNegative() {
		return fmt.Errorf("withdraw %s from %s (%s): negative amount", amount, actorID, memo)
	}

	w.mutex.Lock()
	defer w.mutex.Unlock()

	current := w.balance(actorID)
	if current.LessThan(amount) {
		return fmt.Errorf("%w: %s has %s, needs %s", domain.ErrInsufficientFunds, actorID, current, amount)
	}
	w.balances[actorID] = current.Sub(amount)
	return nil
}

func (w *Wallet) Deposit(_ context.Context, actorID string, amount decimal.Decimal, memo string) error {
	if amount.IsNegative() {
		return fmt.Errorf("deposit %s to %s (%s): negative amount", amount, actorID, memo)
	}

	w.mutex.Lock()
	defer w.mutex.Unlock()

	w.balances[actorID] = w.balance(actorID).Add(amount)
	return nil
}

func (w *Wallet) Format(amount decimal.Decimal) string {
	return w.symbol + amount.StringFixed(2)
}
