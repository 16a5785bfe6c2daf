package brick

import (
	"context"

	"github.com/ericcurtin/llamanetes/pkg/types"
)

// Tokenization operations accepted in the invoke input.
const (
	OpTokenize = "tokenize"
	OpCount    = "count"
)

// TokenizationBrick exposes the model's tokenizer. It implements no
// tokenization itself; every call crosses the model boundary.
type TokenizationBrick struct {
	name  string
	model *ModelBrick
}

func NewTokenizationBrick(model *ModelBrick) (*TokenizationBrick, error) {
	if model == nil {
		return nil, ErrConstruction("tokenization brick requires a model brick")
	}
	return &TokenizationBrick{name: "TokenizationBrick", model: model}, nil
}

func (t *TokenizationBrick) Name() string { return t.name }

// Invoke reads "text" and "operation" from the input. The operation is
// validated before the model resource is touched.
func (t *TokenizationBrick) Invoke(ctx context.Context, in types.Input) (types.Result, error) {
	op := in.String("operation")
	if op == "" {
		op = OpTokenize
	}
	if op != OpTokenize && op != OpCount {
		return types.Result{}, ErrInvalidOperation(op)
	}

	text := in.String("text")
	if text == "" {
		text = in.String("prompt")
	}

	tokens, err := t.model.Tokenize(ctx, text)
	if err != nil {
		return types.Result{}, err
	}
	data := map[string]any{"count": len(tokens)}
	if op == OpTokenize {
		data["tokens"] = tokens
	}
	return success(t.name, data), nil
}
