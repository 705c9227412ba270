package testutil

import (
	"context"
	"sync"

	dErrors "mastery/pkg/domain-errors"
)

// Outcomes tallies concurrent ledger calls: accepted calls, and rejections
// grouped by their domain error code.
type Outcomes struct {
	Accepted int
	Rejected map[dErrors.Code]int
	Errors   []error
}

// Count returns how many calls were rejected with code.
func (o *Outcomes) Count(code dErrors.Code) int {
	return o.Rejected[code]
}

// Total returns the number of calls made.
func (o *Outcomes) Total() int {
	return o.Accepted + len(o.Errors)
}

// OnlyRejectedWith reports whether every rejection carries code.
func (o *Outcomes) OnlyRejectedWith(code dErrors.Code) bool {
	return o.Rejected[code] == len(o.Errors)
}

// RunConcurrent calls fn from n goroutines that are released together, so
// the calls contend for the ledger instead of trickling in, and tallies what
// each returned. It stops releasing new calls once ctx is done; calls that
// never ran are reported as timeouts.
func RunConcurrent(ctx context.Context, n int, fn func(ctx context.Context, idx int) error) *Outcomes {
	out := &Outcomes{Rejected: make(map[dErrors.Code]int)}
	var mu sync.Mutex
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := range n {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			<-start
			err := ctx.Err()
			if err == nil {
				err = fn(ctx, idx)
			} else {
				err = dErrors.Wrap(err, dErrors.CodeTimeout, "call never started")
			}

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				out.Accepted++
				return
			}
			out.Rejected[dErrors.CodeOf(err)]++
			out.Errors = append(out.Errors, err)
		}(i)
	}

	close(start)
	wg.Wait()
	return out
}
