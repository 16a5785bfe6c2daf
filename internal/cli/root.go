// Package cli builds the llamanetes command tree. Each subcommand maps
// directly onto one brick or chain invocation.
package cli

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// NewRootCmd constructs the full command tree.
func NewRootCmd() *cobra.Command {
	var logLevel string
	root := &cobra.Command{
		Use:           "llamanetes",
		Short:         "Composable bricks and chains over llama.cpp",
		Long:          "llamanetes wraps llama.cpp tools and server mode in composable bricks\nand chains them into pipelines, parallel fan-outs and conditional branches.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug|info|warn|error")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		lvl, err := zerolog.ParseLevel(logLevel)
		if err != nil {
			lvl = zerolog.WarnLevel
		}
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			Level(lvl).With().Timestamp().Logger()
	}

	root.AddCommand(
		newGenerateCmd(),
		newTokenizeCmd(),
		newPipelineCmd(),
		newInteractiveCmd(),
		newConfigCmd(),
		newServeCmd(),
	)
	return root
}
