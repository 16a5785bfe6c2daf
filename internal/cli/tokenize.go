package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ericcurtin/llamanetes/internal/brick"
	"github.com/ericcurtin/llamanetes/pkg/types"
)

func newTokenizeCmd() *cobra.Command {
	var (
		model string
		text  string
		count bool
	)
	cmd := &cobra.Command{
		Use:     "tokenize",
		Short:   "Tokenize text with the model's tokenizer",
		Example: "  llamanetes tokenize --model ./model.gguf --text \"Hello, world!\" --count",
		RunE: func(cmd *cobra.Command, args []string) error {
			mb, err := brick.NewModelBrick(brick.ModelConfig{ModelPath: model})
			if err != nil {
				return err
			}
			defer func() { _ = mb.Close() }()
			tb, err := brick.NewTokenizationBrick(mb)
			if err != nil {
				return err
			}
			op := brick.OpTokenize
			if count {
				op = brick.OpCount
			}
			res, err := tb.Invoke(cmd.Context(), types.Input{"text": text, "operation": op})
			if err != nil {
				return err
			}
			if count {
				fmt.Fprintf(cmd.OutOrStdout(), "Token count: %v\n", res.Data["count"])
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Tokens: %v\n", res.Data["tokens"])
			fmt.Fprintf(cmd.OutOrStdout(), "Count: %v\n", res.Data["count"])
			return nil
		},
	}
	cmd.Flags().StringVar(&model, "model", "", "Path to model file (required)")
	cmd.Flags().StringVar(&text, "text", "", "Text to tokenize (required)")
	cmd.Flags().BoolVar(&count, "count", false, "Only print the token count")
	_ = cmd.MarkFlagRequired("model")
	_ = cmd.MarkFlagRequired("text")
	return cmd
}
