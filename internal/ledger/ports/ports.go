// Package ports defines the external capabilities the ledger consumes.
// Implementations must honor the transaction carried by ctx: any effect they
// make visible has to be deferred until that transaction commits
// (see pkg/platform/tx.AfterCommit), so a failed operation leaves no trace.
package ports

import (
	"context"

	id "mastery/pkg/domain"
)

// FeeCollector moves the verification fee from the submitter to the admin.
type FeeCollector interface {
	// Transfer returns a transfer_failed domain error when the value cannot move.
	Transfer(ctx context.Context, amount int64, from, to id.Principal) error
}

// Minter is the NFT collaborator. The token ID is the verification ID.
type Minter interface {
	// Mint returns nft_already_issued when the token exists and transfer_failed
	// for any other mint failure.
	Mint(ctx context.Context, contract, owner id.Principal, tokenID id.VerificationID) error
}

// RewardPayer is the reward collaborator. Payout failures are reported but
// never unwind the certificate mint that triggered them.
type RewardPayer interface {
	Payout(ctx context.Context, contract, user id.Principal, amount int64) error
}
