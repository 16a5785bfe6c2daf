package chain

import (
	"context"

	"github.com/ericcurtin/llamanetes/internal/brick"
	"github.com/ericcurtin/llamanetes/pkg/types"
)

// NewPipeline builds a sequential chain: bricks run in insertion order and
// each brick's result data augments the next brick's input.
func NewPipeline(name string, bricks ...brick.Brick) *Chain {
	c := newChain(name, pipelinePolicy{})
	c.bricks = append(c.bricks, bricks...)
	return c
}

// Pipe appends a brick, fluent style. Only valid before Run.
func (c *Chain) Pipe(b brick.Brick) *Chain {
	c.bricks = append(c.bricks, b)
	return c
}

// Add is an alias for Pipe, matching the parallel builder's vocabulary.
func (c *Chain) Add(b brick.Brick) *Chain { return c.Pipe(b) }

type pipelinePolicy struct{}

func (pipelinePolicy) run(ctx context.Context, c *Chain, in types.Input) ([]types.Result, error) {
	cur := in.Clone()
	results := make([]types.Result, 0, len(c.bricks))
	for _, b := range c.bricks {
		res, err := b.Invoke(ctx, cur)
		if err != nil {
			// Record the failure and stop: later bricks never run.
			results = append(results, brick.Failure(b.Name(), err))
			return results, err
		}
		results = append(results, res)
		// Output of brick i augments the input of brick i+1.
		for k, v := range res.Data {
			cur[k] = v
		}
	}
	return results, nil
}
