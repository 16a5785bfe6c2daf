// Package chain composes bricks into invocable units. The three variants
// (Pipeline, ParallelChain, ConditionalChain) share one Chain type and one
// state machine; they differ only in execution policy: the order bricks run
// in and how per-brick results are aggregated.
package chain

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/ericcurtin/llamanetes/internal/brick"
	"github.com/ericcurtin/llamanetes/pkg/types"
)

// ErrAlreadyRun is returned when Run is called on a chain that left the
// pending state. Terminal states are final; build a new chain to re-run.
var ErrAlreadyRun = errors.New("chain already run")

// policy is the execution strategy of a chain variant. It returns the
// per-brick results in order plus the failure that decides the chain state.
type policy interface {
	run(ctx context.Context, c *Chain, in types.Input) ([]types.Result, error)
}

// Chain is an ordered collection of bricks with an execution policy. The
// brick list mutates only through the chain's own builder methods.
type Chain struct {
	name   string
	bricks []brick.Brick
	policy policy

	mu    sync.Mutex
	state types.ChainState
}

func newChain(name string, p policy) *Chain {
	return &Chain{name: name, policy: p, state: types.ChainPending}
}

func (c *Chain) Name() string { return c.name }

// State returns the chain's lifecycle state.
func (c *Chain) State() types.ChainState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Run executes the chain once. Brick failures do not surface as errors here;
// they are folded into the ChainResult per the variant's aggregation policy.
// The only error is the usage error of running a chain twice.
func (c *Chain) Run(ctx context.Context, in types.Input) (types.ChainResult, error) {
	c.mu.Lock()
	if c.state != types.ChainPending {
		c.mu.Unlock()
		return types.ChainResult{}, ErrAlreadyRun
	}
	c.state = types.ChainRunning
	c.mu.Unlock()

	log.Debug().Str("chain", c.name).Int("bricks", len(c.bricks)).Msg("chain running")
	results, err := c.policy.run(ctx, c, in)

	cr := types.ChainResult{Chain: c.name, Results: results}
	if err != nil {
		cr.State = types.ChainFailed
		cr.Error = err.Error()
	} else {
		cr.State = types.ChainCompleted
	}
	c.mu.Lock()
	c.state = cr.State
	c.mu.Unlock()
	log.Debug().Str("chain", c.name).Str("state", string(cr.State)).Msg("chain finished")
	return cr, nil
}

// Invoke lets a chain act as a brick inside another chain. The aggregated
// results are exposed under the "results" key.
func (c *Chain) Invoke(ctx context.Context, in types.Input) (types.Result, error) {
	cr, err := c.Run(ctx, in)
	if err != nil {
		return types.Result{}, err
	}
	res := types.Result{
		Brick: c.name,
		Data:  map[string]any{"results": cr.Results},
	}
	if cr.State == types.ChainFailed {
		res.Status = types.StatusError
		res.Error = cr.Error
	} else {
		res.Status = types.StatusSuccess
	}
	return res, nil
}
