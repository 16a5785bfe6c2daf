package brick

import (
	"context"
	"fmt"

	"github.com/ericcurtin/llamanetes/pkg/types"
)

// GenerationParams are the sampling parameters merged into every completion
// issued by a GenerationBrick. Per-call overrides come from the invoke input.
type GenerationParams struct {
	MaxTokens   int
	Temperature float64
	TopP        float64
	TopK        int
	Seed        int64
	Stop        []string
}

// DefaultGenerationParams mirrors llama.cpp's common sampling defaults.
func DefaultGenerationParams() GenerationParams {
	return GenerationParams{
		MaxTokens:   100,
		Temperature: 0.8,
		TopP:        0.9,
		TopK:        40,
	}
}

// GenerationBrick turns a prompt into generated text via its ModelBrick. The
// model reference is non-owning: this brick never starts or stops the server.
type GenerationBrick struct {
	name   string
	model  *ModelBrick
	params GenerationParams
}

// NewGenerationBrick validates parameters and returns the brick.
func NewGenerationBrick(model *ModelBrick, params GenerationParams) (*GenerationBrick, error) {
	if model == nil {
		return nil, ErrConstruction("generation brick requires a model brick")
	}
	if params.MaxTokens <= 0 {
		return nil, ErrConstruction(fmt.Sprintf("max tokens must be positive: %d", params.MaxTokens))
	}
	if params.Temperature < 0 || params.Temperature > 2 {
		return nil, ErrConstruction(fmt.Sprintf("temperature out of range [0,2]: %g", params.Temperature))
	}
	return &GenerationBrick{name: "GenerationBrick", model: model, params: params}, nil
}

func (g *GenerationBrick) Name() string { return g.name }

// Invoke reads "prompt" from the input, merges configured parameters with any
// per-call overrides (max_tokens, temperature, top_p, top_k), and delegates to
// the model. The result carries the generated text plus call metadata.
func (g *GenerationBrick) Invoke(ctx context.Context, in types.Input) (types.Result, error) {
	prompt := in.String("prompt")
	if prompt == "" {
		prompt = in.String("text")
	}
	if prompt == "" {
		return types.Result{}, ErrInvocation(g.name, "input has no prompt", nil)
	}

	req := types.CompletionRequest{
		Prompt:      prompt,
		MaxTokens:   g.params.MaxTokens,
		Temperature: g.params.Temperature,
		TopP:        g.params.TopP,
		TopK:        g.params.TopK,
		Seed:        g.params.Seed,
		Stop:        g.params.Stop,
	}
	if n, ok := in.Int("max_tokens"); ok && n > 0 {
		req.MaxTokens = n
	}
	if t, ok := in.Float("temperature"); ok {
		req.Temperature = t
	}
	if p, ok := in.Float("top_p"); ok {
		req.TopP = p
	}
	if k, ok := in.Int("top_k"); ok {
		req.TopK = k
	}

	resp, err := g.model.Complete(ctx, req)
	if err != nil {
		if IsCancelled(err) {
			return types.Result{}, err
		}
		return types.Result{}, fmt.Errorf("%s: %w", g.name, err)
	}
	data := map[string]any{
		"text":   resp.Text,
		"method": resp.Method,
		// Downstream bricks read the generated text as their prompt.
		"prompt": resp.Text,
	}
	if resp.TokensPredicted > 0 {
		data["tokens_predicted"] = resp.TokensPredicted
	}
	if resp.TokensEvaluated > 0 {
		data["tokens_evaluated"] = resp.TokensEvaluated
	}
	return success(g.name, data), nil
}
