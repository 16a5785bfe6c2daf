//go:build !llama

package brick

import (
	"context"

	"github.com/ericcurtin/llamanetes/pkg/types"
)

// This file provides a no-CGO stub for the in-process llama backend. It is
// compiled when the 'llama' build tag is NOT set, keeping default builds and
// CI CGO-free. The real backend lives in inprocess_llama.go (tagged 'llama').

type inprocessRuntime interface {
	Close()
}

func (m *ModelBrick) completeInProcess(ctx context.Context, req types.CompletionRequest) (types.CompletionResponse, error) {
	select {
	case <-ctx.Done():
		return types.CompletionResponse{}, ctx.Err()
	default:
	}
	return types.CompletionResponse{}, ErrDependencyUnavailable("in-process llama support not built (missing 'llama' build tag)")
}

func (m *ModelBrick) tokenizeInProcess(ctx context.Context, text string) ([]int, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	return nil, ErrDependencyUnavailable("in-process llama support not built (missing 'llama' build tag)")
}
