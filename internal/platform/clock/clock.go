// Package clock derives the ledger's block height from wall-clock time.
//
// Height is the number of whole block intervals elapsed since genesis.
// Instants before genesis are height 0.
package clock

import (
	"context"
	"time"

	id "mastery/pkg/domain"
	"mastery/pkg/requestcontext"
)

const DefaultBlockTime = 10 * time.Minute

type BlockClock struct {
	genesis   time.Time
	blockTime time.Duration
}

// New returns a clock anchored at genesis. A non-positive blockTime falls
// back to DefaultBlockTime.
func New(genesis time.Time, blockTime time.Duration) *BlockClock {
	if blockTime <= 0 {
		blockTime = DefaultBlockTime
	}
	return &BlockClock{genesis: genesis, blockTime: blockTime}
}

// HeightAt returns the block height in effect at t.
func (c *BlockClock) HeightAt(t time.Time) id.BlockHeight {
	since := t.Sub(c.genesis)
	if since <= 0 {
		return 0
	}
	return id.BlockHeight(since / c.blockTime)
}

// Height returns the block height at the request's pinned time.
func (c *BlockClock) Height(ctx context.Context) id.BlockHeight {
	return c.HeightAt(requestcontext.Now(ctx))
}

// TimeOf returns the instant block h begins.
func (c *BlockClock) TimeOf(h id.BlockHeight) time.Time {
	return c.genesis.Add(time.Duration(h) * c.blockTime)
}
