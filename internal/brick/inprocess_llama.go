//go:build llama

package brick

import (
	"context"
	"strings"

	llama "github.com/go-skynet/go-llama.cpp"

	"github.com/ericcurtin/llamanetes/pkg/types"
)

// inprocessRuntime owns a model loaded into this process via go-llama.cpp.
type inprocessRuntime interface {
	Close()
}

type llamaRuntime struct {
	model *llama.LLama
}

func (r *llamaRuntime) Close() {
	if r.model != nil {
		r.model.Free()
		r.model = nil
	}
}

// ensureRuntime lazily loads the model. Callers hold no lock; loading twice
// concurrently is a usage error per the resource model (no invoke may race a
// lifecycle transition).
func (m *ModelBrick) ensureRuntime() (*llamaRuntime, error) {
	if r, ok := m.runtime.(*llamaRuntime); ok && r.model != nil {
		return r, nil
	}
	mdl, err := llama.New(m.cfg.ModelPath)
	if err != nil {
		return nil, ErrInvocation(m.name, "load model in-process", err)
	}
	r := &llamaRuntime{model: mdl}
	m.runtime = r
	return r, nil
}

func (m *ModelBrick) completeInProcess(ctx context.Context, req types.CompletionRequest) (types.CompletionResponse, error) {
	r, err := m.ensureRuntime()
	if err != nil {
		return types.CompletionResponse{}, err
	}
	// Stop generation promptly on cancellation via the token callback.
	r.model.SetTokenCallback(func(tok string) bool {
		select {
		case <-ctx.Done():
			return false
		default:
			return true
		}
	})
	opts := []llama.PredictOption{
		llama.SetTokens(req.MaxTokens),
		llama.SetTemperature(req.Temperature),
	}
	if req.TopP > 0 {
		opts = append(opts, llama.SetTopP(req.TopP))
	}
	if req.TopK > 0 {
		opts = append(opts, llama.SetTopK(req.TopK))
	}
	if req.Seed != 0 {
		opts = append(opts, llama.SetSeed(int(req.Seed)))
	}
	text, err := r.model.Predict(req.Prompt, opts...)
	if err != nil {
		if ctx.Err() != nil {
			return types.CompletionResponse{}, ctx.Err()
		}
		return types.CompletionResponse{}, ErrInvocation(m.name, "in-process predict", err)
	}
	return types.CompletionResponse{Text: strings.TrimSpace(text), Method: "inprocess"}, nil
}

func (m *ModelBrick) tokenizeInProcess(ctx context.Context, text string) ([]int, error) {
	r, err := m.ensureRuntime()
	if err != nil {
		return nil, err
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	count, ids, err := r.model.TokenizeString(text, llama.SetTokens(len(text)+8))
	if err != nil {
		return nil, ErrInvocation(m.name, "in-process tokenize", err)
	}
	out := make([]int, 0, count)
	for _, id := range ids[:count] {
		out = append(out, int(id))
	}
	return out, nil
}
