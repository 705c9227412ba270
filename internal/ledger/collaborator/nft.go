package collaborator

import (
	"context"
	"sync"

	id "mastery/pkg/domain"
	dErrors "mastery/pkg/domain-errors"
	txcontext "mastery/pkg/platform/tx"
)

// Mint is one committed token mint.
type Mint struct {
	Contract id.Principal
	Owner    id.Principal
	TokenID  id.VerificationID
}

// NFTRegistry is an in-memory non-fungible token collaborator.
type NFTRegistry struct {
	mu      sync.Mutex
	owners  map[id.VerificationID]id.Principal
	pending map[id.VerificationID]struct{}
	mints   []Mint
}

func NewNFTRegistry() *NFTRegistry {
	return &NFTRegistry{
		owners:  make(map[id.VerificationID]id.Principal),
		pending: make(map[id.VerificationID]struct{}),
	}
}

func (r *NFTRegistry) Mint(ctx context.Context, contract, owner id.Principal, tokenID id.VerificationID) error {
	if owner.IsNil() {
		return dErrors.New(dErrors.CodeTransferFailed, "mint recipient required")
	}
	r.mu.Lock()
	_, minted := r.owners[tokenID]
	_, reserved := r.pending[tokenID]
	if minted || reserved {
		r.mu.Unlock()
		return dErrors.New(dErrors.CodeNftAlreadyIssued, "token already issued")
	}
	r.pending[tokenID] = struct{}{}
	r.mu.Unlock()

	release := func() {
		r.mu.Lock()
		delete(r.pending, tokenID)
		r.mu.Unlock()
	}
	scope, inTx := txcontext.From(ctx)
	txcontext.AfterCommit(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.pending, tokenID)
		r.owners[tokenID] = owner
		r.mints = append(r.mints, Mint{Contract: contract, Owner: owner, TokenID: tokenID})
	})
	if inTx {
		scope.OnDiscard(release)
	}
	return nil
}

// OwnerOf returns the owner of a committed token.
func (r *NFTRegistry) OwnerOf(tokenID id.VerificationID) (id.Principal, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	owner, ok := r.owners[tokenID]
	return owner, ok
}

// Mints returns the committed mints in order.
func (r *NFTRegistry) Mints() []Mint {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Mint(nil), r.mints...)
}
