package brick

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/ericcurtin/llamanetes/pkg/types"
)

func TestTokenizationInvalidOperation(t *testing.T) {
	// The model path does not exist and no tools are installed: if the brick
	// touched the model resource at all it would fail with a resource error,
	// so the invalid-operation error proves validation happens first.
	mb, err := NewModelBrick(ModelConfig{ModelPath: filepath.Join(t.TempDir(), "absent.gguf")})
	if err != nil {
		t.Fatalf("NewModelBrick: %v", err)
	}
	tb, err := NewTokenizationBrick(mb)
	if err != nil {
		t.Fatalf("NewTokenizationBrick: %v", err)
	}
	for _, op := range []string{"detokenize", "split", "COUNT", "x"} {
		_, err := tb.Invoke(context.Background(), types.Input{"text": "hi", "operation": op})
		if !IsInvalidOperation(err) {
			t.Fatalf("operation %q: expected invalid operation error, got %v", op, err)
		}
	}
}

func TestTokenizationNilModel(t *testing.T) {
	if _, err := NewTokenizationBrick(nil); !IsConstruction(err) {
		t.Fatalf("expected construction error, got %v", err)
	}
}

func TestTokenizationCountAndTokenize(t *testing.T) {
	mb, err := NewModelBrick(ModelConfig{
		ModelPath:   writeModelFile(t),
		TokenizeBin: writeFakeTool(t, "llama-tokenize", `echo "7 8 9 10"`),
		Timeout:     5 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewModelBrick: %v", err)
	}
	tb, err := NewTokenizationBrick(mb)
	if err != nil {
		t.Fatalf("NewTokenizationBrick: %v", err)
	}

	res, err := tb.Invoke(context.Background(), types.Input{"text": "cats", "operation": OpCount})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if res.Data["count"] != 4 {
		t.Fatalf("expected count 4, got %v", res.Data["count"])
	}
	if _, ok := res.Data["tokens"]; ok {
		t.Fatalf("count operation should not return tokens")
	}

	res, err = tb.Invoke(context.Background(), types.Input{"text": "cats", "operation": OpTokenize})
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	tokens, ok := res.Data["tokens"].([]int)
	if !ok || len(tokens) != 4 || tokens[0] != 7 {
		t.Fatalf("unexpected tokens: %v", res.Data["tokens"])
	}
}
