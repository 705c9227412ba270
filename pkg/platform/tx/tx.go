// Package tx carries a unit of work through a context so that stores and
// collaborators invoked inside RunInTx share one atomic boundary.
package tx

import (
	"context"
	"database/sql"
	"sync"
)

type scopeKey struct{}

// Scope is the per-transaction state attached to a context.
// Hooks registered with AfterCommit run only when Commit is called; hooks
// registered with OnDiscard run only when Discard is called.
type Scope struct {
	mu       sync.Mutex
	sqlTx    *sql.Tx
	hooks    []func()
	discards []func()
}

// Begin attaches a fresh scope to ctx. If ctx already carries one it is reused,
// so nested RunInTx calls join the outer transaction.
func Begin(ctx context.Context) (context.Context, *Scope, bool) {
	if s, ok := From(ctx); ok {
		return ctx, s, false
	}
	s := &Scope{}
	return context.WithValue(ctx, scopeKey{}, s), s, true
}

// WithTx attaches a SQL transaction to the scope carried by ctx, creating the
// scope if needed.
func WithTx(ctx context.Context, sqlTx *sql.Tx) context.Context {
	ctx, s, _ := Begin(ctx)
	s.mu.Lock()
	s.sqlTx = sqlTx
	s.mu.Unlock()
	return ctx
}

// From returns the scope carried by ctx.
func From(ctx context.Context) (*Scope, bool) {
	s, ok := ctx.Value(scopeKey{}).(*Scope)
	return s, ok
}

// SQL returns the SQL transaction bound to ctx, if any.
func SQL(ctx context.Context) (*sql.Tx, bool) {
	s, ok := From(ctx)
	if !ok {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sqlTx, s.sqlTx != nil
}

// AfterCommit defers fn until the enclosing transaction commits.
// Outside a transaction fn runs immediately.
func AfterCommit(ctx context.Context, fn func()) {
	s, ok := From(ctx)
	if !ok {
		fn()
		return
	}
	s.mu.Lock()
	s.hooks = append(s.hooks, fn)
	s.mu.Unlock()
}

// OnDiscard registers fn to release resources reserved for the transaction
// if it does not commit.
func (s *Scope) OnDiscard(fn func()) {
	s.mu.Lock()
	s.discards = append(s.discards, fn)
	s.mu.Unlock()
}

// Commit runs the after-commit hooks in registration order and clears all hooks.
func (s *Scope) Commit() {
	s.mu.Lock()
	hooks := s.hooks
	s.hooks = nil
	s.discards = nil
	s.mu.Unlock()
	for _, fn := range hooks {
		fn()
	}
}

// Discard drops the after-commit hooks and runs the discard hooks.
func (s *Scope) Discard() {
	s.mu.Lock()
	discards := s.discards
	s.hooks = nil
	s.discards = nil
	s.mu.Unlock()
	for _, fn := range discards {
		fn()
	}
}
