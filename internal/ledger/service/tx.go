package service

import (
	"context"
	"errors"
	"sync"
	"time"

	dErrors "mastery/pkg/domain-errors"
	"mastery/pkg/platform/sentinel"
	txcontext "mastery/pkg/platform/tx"
)

// LedgerTx provides the serialized transactional boundary for ledger
// mutations. Implementations may wrap a database transaction or, in-memory,
// a coarse lock. fn receives the context it must pass to the store.
type LedgerTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// defaultLedgerTxTimeout is the maximum duration for a ledger transaction.
const defaultLedgerTxTimeout = 5 * time.Second

// MutexTx serializes ledger operations in-process. Stores commit through
// Apply, so the lock only has to keep operations from interleaving.
type MutexTx struct {
	mu      sync.Mutex
	timeout time.Duration
}

func NewMutexTx() *MutexTx {
	return &MutexTx{timeout: defaultLedgerTxTimeout}
}

func (t *MutexTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	return fn(ctx)
}

// maxTxAttempts bounds how often an operation is replayed after the store
// reports that the ledger moved under it.
const maxTxAttempts = 3

// inTx runs fn inside the configured boundary with a fresh unit of work.
// Hooks registered during fn run only if fn and the boundary both succeed;
// otherwise reservations are released and nothing becomes visible. An
// outermost operation whose reads went stale is replayed from scratch.
func (s *Service) inTx(ctx context.Context, fn func(ctx context.Context, uow *unitOfWork) error) error {
	for attempt := 1; ; attempt++ {
		txCtx, scope, owner := txcontext.Begin(ctx)
		err := s.tx.RunInTx(txCtx, func(ctx context.Context) error {
			uow := newUnitOfWork(s.store, s.admin)
			if err := fn(ctx, uow); err != nil {
				return err
			}
			return uow.commit(ctx)
		})
		if !owner {
			return err
		}
		if err == nil {
			scope.Commit()
			return nil
		}
		scope.Discard()
		if !errors.Is(err, sentinel.ErrStale) || attempt == maxTxAttempts {
			return err
		}
		s.logger.DebugContext(ctx, "ledger moved during operation, retrying", "attempt", attempt)
	}
}
