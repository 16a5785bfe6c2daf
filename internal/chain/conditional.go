package chain

import (
	"context"

	"github.com/ericcurtin/llamanetes/internal/brick"
	"github.com/ericcurtin/llamanetes/pkg/types"
)

// Predicate decides whether a conditional branch applies to the input.
type Predicate func(types.Input) bool

type branch struct {
	when Predicate
	b    brick.Brick
}

// NewConditional builds a branching chain: predicates are evaluated in
// registration order against the input and the first match selects exactly
// one brick to run. Without a match the default brick runs; without a
// default the chain fails.
func NewConditional(name string) *Chain {
	return newChain(name, &conditionalPolicy{})
}

// When registers a predicate-guarded branch. Only valid before Run.
func (c *Chain) When(pred Predicate, b brick.Brick) *Chain {
	if p, ok := c.policy.(*conditionalPolicy); ok {
		p.branches = append(p.branches, branch{when: pred, b: b})
		c.bricks = append(c.bricks, b)
	}
	return c
}

// Else registers the default brick used when no predicate matches.
func (c *Chain) Else(b brick.Brick) *Chain {
	if p, ok := c.policy.(*conditionalPolicy); ok {
		p.fallback = b
		c.bricks = append(c.bricks, b)
	}
	return c
}

type conditionalPolicy struct {
	branches []branch
	fallback brick.Brick
}

func (p *conditionalPolicy) run(ctx context.Context, c *Chain, in types.Input) ([]types.Result, error) {
	var chosen brick.Brick
	for _, br := range p.branches {
		if br.when(in) {
			chosen = br.b
			break
		}
	}
	if chosen == nil {
		chosen = p.fallback
	}
	if chosen == nil {
		return nil, brick.ErrNoMatchingCondition(c.name)
	}
	res, err := chosen.Invoke(ctx, in.Clone())
	if err != nil {
		return []types.Result{brick.Failure(chosen.Name(), err)}, err
	}
	return []types.Result{res}, nil
}
