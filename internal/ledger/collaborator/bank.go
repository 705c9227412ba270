// Package collaborator provides in-process implementations of the ledger's
// external capabilities, used by the server in standalone mode and by tests.
package collaborator

import (
	"context"
	"fmt"
	"sync"

	id "mastery/pkg/domain"
	dErrors "mastery/pkg/domain-errors"
	txcontext "mastery/pkg/platform/tx"
)

// Transfer is one committed value movement.
type Transfer struct {
	Amount int64
	From   id.Principal
	To     id.Principal
}

// Bank is an in-memory fee collector. Balances are only enforced for
// principals opened with Fund unless strict mode is on, in which case every
// sender needs enough balance. A transfer inside a transaction reserves its
// amount until the transaction commits or is discarded, so pending transfers
// can never spend the same funds twice.
type Bank struct {
	mu        sync.Mutex
	balances  map[id.Principal]int64
	reserved  map[id.Principal]int64
	transfers []Transfer
	strict    bool
}

// BankOption configures the Bank.
type BankOption func(*Bank)

// WithStrictBalances rejects transfers from principals without funds.
func WithStrictBalances() BankOption {
	return func(b *Bank) {
		b.strict = true
	}
}

func NewBank(opts ...BankOption) *Bank {
	b := &Bank{
		balances: make(map[id.Principal]int64),
		reserved: make(map[id.Principal]int64),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Fund credits a principal's account.
func (b *Bank) Fund(p id.Principal, amount int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balances[p] += amount
}

// Balance returns a principal's committed balance.
func (b *Bank) Balance(p id.Principal) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balances[p]
}

// Transfers returns the committed transfers in order.
func (b *Bank) Transfers() []Transfer {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Transfer(nil), b.transfers...)
}

func (b *Bank) Transfer(ctx context.Context, amount int64, from, to id.Principal) error {
	if amount < 0 {
		return dErrors.New(dErrors.CodeTransferFailed, "transfer amount must not be negative")
	}
	b.mu.Lock()
	balance, known := b.balances[from]
	if (b.strict || known) && balance-b.reserved[from] < amount {
		b.mu.Unlock()
		return dErrors.New(dErrors.CodeTransferFailed, fmt.Sprintf("insufficient balance for %s", from))
	}
	b.reserved[from] += amount
	b.mu.Unlock()

	scope, inTx := txcontext.From(ctx)
	txcontext.AfterCommit(ctx, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.release(from, amount)
		if _, ok := b.balances[from]; ok || b.strict {
			b.balances[from] -= amount
		}
		if _, ok := b.balances[to]; ok || b.strict {
			b.balances[to] += amount
		}
		b.transfers = append(b.transfers, Transfer{Amount: amount, From: from, To: to})
	})
	if inTx {
		scope.OnDiscard(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			b.release(from, amount)
		})
	}
	return nil
}

// release drops a reservation. Callers hold b.mu.
func (b *Bank) release(p id.Principal, amount int64) {
	b.reserved[p] -= amount
	if b.reserved[p] <= 0 {
		delete(b.reserved, p)
	}
}
