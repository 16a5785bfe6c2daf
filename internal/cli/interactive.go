package cli

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ericcurtin/llamanetes/internal/brick"
	"github.com/ericcurtin/llamanetes/pkg/types"
)

func newInteractiveCmd() *cobra.Command {
	var (
		model   string
		server  bool
		port    int
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:     "interactive",
		Short:   "Interactive generation REPL",
		Example: "  llamanetes interactive --model ./model.gguf --server",
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
			gb, err := brick.NewGenerationBrick(mb, brick.DefaultGenerationParams())
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

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "llamanetes interactive mode")
			fmt.Fprintln(out, "Type 'quit' or 'exit' to quit, 'help' for commands")
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(out, ">>> ")
				if !scanner.Scan() {
					break
				}
				line := strings.TrimSpace(scanner.Text())
				switch strings.ToLower(line) {
				case "":
					continue
				case "quit", "exit":
					fmt.Fprintln(out, "Goodbye!")
					return nil
				case "help":
					fmt.Fprintln(out, "Type any text to generate a response.")
					fmt.Fprintln(out, "Commands: help, quit, exit")
					continue
				}
				res, err := gb.Invoke(ctx, types.Input{"prompt": line})
				if err != nil {
					if brick.IsCancelled(err) {
						return err
					}
					fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
					continue
				}
				fmt.Fprintf(out, "%v\n", res.Data["text"])
			}
			fmt.Fprintln(out, "\nGoodbye!")
			return scanner.Err()
		},
	}
	cmd.Flags().StringVar(&model, "model", "", "Path to model file (required)")
	cmd.Flags().BoolVar(&server, "server", false, "Start an owned llama-server for the session")
	cmd.Flags().IntVar(&port, "port", 8080, "Server port")
	cmd.Flags().DurationVar(&timeout, "timeout", 60*time.Second, "Per-call timeout")
	_ = cmd.MarkFlagRequired("model")
	return cmd
}
