package brick

import (
	"context"
	"testing"
	"time"

	"github.com/ericcurtin/llamanetes/pkg/types"
)

func TestNewGenerationBrickValidation(t *testing.T) {
	mb, err := NewModelBrick(ModelConfig{ModelPath: "m.gguf"})
	if err != nil {
		t.Fatalf("NewModelBrick: %v", err)
	}
	cases := []struct {
		name   string
		model  *ModelBrick
		params GenerationParams
	}{
		{"nil model", nil, DefaultGenerationParams()},
		{"zero max tokens", mb, GenerationParams{MaxTokens: 0, Temperature: 0.5}},
		{"negative max tokens", mb, GenerationParams{MaxTokens: -1, Temperature: 0.5}},
		{"temperature too high", mb, GenerationParams{MaxTokens: 10, Temperature: 2.5}},
		{"temperature negative", mb, GenerationParams{MaxTokens: 10, Temperature: -0.1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewGenerationBrick(tc.model, tc.params); !IsConstruction(err) {
				t.Fatalf("expected construction error, got %v", err)
			}
		})
	}
}

func TestGenerationInvokeNoPrompt(t *testing.T) {
	mb, err := NewModelBrick(ModelConfig{ModelPath: "m.gguf"})
	if err != nil {
		t.Fatalf("NewModelBrick: %v", err)
	}
	gb, err := NewGenerationBrick(mb, DefaultGenerationParams())
	if err != nil {
		t.Fatalf("NewGenerationBrick: %v", err)
	}
	if _, err := gb.Invoke(context.Background(), types.Input{}); !IsInvocation(err) {
		t.Fatalf("expected invocation error for empty prompt, got %v", err)
	}
}

func TestGenerationParameterOverrides(t *testing.T) {
	if testing.Short() {
		t.Skip("short mode")
	}
	bin := buildTestBinary(t)
	mb, err := NewModelBrick(ModelConfig{
		ModelPath: writeModelFile(t),
		ServerBin: bin,
		Port:      0,
		Timeout:   5 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewModelBrick: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := mb.StartServer(ctx); err != nil {
		t.Fatalf("StartServer: %v", err)
	}
	defer func() { _ = mb.StopServer() }()

	gb, err := NewGenerationBrick(mb, GenerationParams{MaxTokens: 10, Temperature: 0})
	if err != nil {
		t.Fatalf("NewGenerationBrick: %v", err)
	}
	// The fake server echoes n_predict back as tokens_predicted, so the
	// per-call override is observable end to end.
	res, err := gb.Invoke(ctx, types.Input{"prompt": "Hi", "max_tokens": 42})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if res.Data["text"] != "echo:Hi" {
		t.Fatalf("unexpected text: %v", res.Data["text"])
	}
	if res.Data["tokens_predicted"] != 42 {
		t.Fatalf("expected max_tokens override to reach the server, got %v", res.Data["tokens_predicted"])
	}
}
