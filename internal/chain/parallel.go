package chain

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ericcurtin/llamanetes/internal/brick"
	"github.com/ericcurtin/llamanetes/pkg/types"
)

// NewParallel builds a fan-out chain: every brick receives the same initial
// input and all branches are joined before the combined result is returned.
// A branch failure is recorded under the brick's name without aborting its
// siblings; the chain fails only when every branch fails.
func NewParallel(name string, bricks ...brick.Brick) *Chain {
	c := newChain(name, &parallelPolicy{})
	c.bricks = append(c.bricks, bricks...)
	return c
}

// WithLimit caps the number of concurrently executing branches. Zero or
// negative means unbounded. Only meaningful on a parallel chain.
func (c *Chain) WithLimit(n int) *Chain {
	if p, ok := c.policy.(*parallelPolicy); ok {
		p.limit = n
	}
	return c
}

type parallelPolicy struct {
	limit int
}

func (p *parallelPolicy) run(ctx context.Context, c *Chain, in types.Input) ([]types.Result, error) {
	results := make([]types.Result, len(c.bricks))
	g, gctx := errgroup.WithContext(ctx)
	if p.limit > 0 {
		g.SetLimit(p.limit)
	}
	for i, b := range c.bricks {
		i, b := i, b
		g.Go(func() error {
			res, err := b.Invoke(gctx, in.Clone())
			if err != nil {
				// Branch failures are data, not group errors: siblings keep
				// running and the slot records the failure.
				results[i] = brick.Failure(b.Name(), err)
				return nil
			}
			results[i] = res
			return nil
		})
	}
	// Branches never return errors, so Wait only joins.
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.Status == types.StatusError {
			failed++
		}
	}
	if len(results) > 0 && failed == len(results) {
		return results, fmt.Errorf("all %d branches failed", failed)
	}
	return results, nil
}
