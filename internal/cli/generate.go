package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ericcurtin/llamanetes/internal/brick"
	"github.com/ericcurtin/llamanetes/pkg/types"
)

func newGenerateCmd() *cobra.Command {
	var (
		model       string
		prompt      string
		maxTokens   int
		temperature float64
		topP        float64
		topK        int
		seed        int64
		server      bool
		port        int
		timeout     time.Duration
	)
	cmd := &cobra.Command{
		Use:     "generate",
		Short:   "Generate text from a prompt",
		Example: "  llamanetes generate --model ./model.gguf --prompt \"Hello, world!\"",
		RunE: func(cmd *cobra.Command, args []string) error {
			mb, err := brick.NewModelBrick(brick.ModelConfig{
				ModelPath: model,
				Port:      port,
				Timeout:   timeout,
			})
			if err != nil {
				return err
			}
			defer func() { _ = mb.Close() }()
			gb, err := brick.NewGenerationBrick(mb, brick.GenerationParams{
				MaxTokens:   maxTokens,
				Temperature: temperature,
				TopP:        topP,
				TopK:        topK,
				Seed:        seed,
			})
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if server {
				if err := mb.StartServer(ctx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "llama-server running on port %d\n", mb.Port())
			}
			res, err := gb.Invoke(ctx, types.Input{"prompt": prompt})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Data["text"])
			return nil
		},
	}
	cmd.Flags().StringVar(&model, "model", "", "Path to model file (required)")
	cmd.Flags().StringVar(&prompt, "prompt", "", "Input prompt (required)")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 100, "Maximum tokens to generate")
	cmd.Flags().Float64Var(&temperature, "temperature", 0.8, "Sampling temperature")
	cmd.Flags().Float64Var(&topP, "top-p", 0.9, "Top-p for nucleus sampling")
	cmd.Flags().IntVar(&topK, "top-k", 40, "Top-k for sampling")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed (0 lets the model choose)")
	cmd.Flags().BoolVar(&server, "server", false, "Start an owned llama-server for this call")
	cmd.Flags().IntVar(&port, "port", 8080, "Server port")
	cmd.Flags().DurationVar(&timeout, "timeout", 60*time.Second, "Per-call timeout")
	_ = cmd.MarkFlagRequired("model")
	_ = cmd.MarkFlagRequired("prompt")
	return cmd
}
