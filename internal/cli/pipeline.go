package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ericcurtin/llamanetes/internal/config"
	"github.com/ericcurtin/llamanetes/pkg/types"
)

func newPipelineCmd() *cobra.Command {
	var (
		configPath string
		inputJSON  string
	)
	cmd := &cobra.Command{
		Use:     "pipeline",
		Short:   "Run a pipeline from a definition file",
		Example: "  llamanetes pipeline --config pipeline.json --input '{\"prompt\":\"Hi\"}'",
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load pipeline definition: %w", err)
			}
			p, err := config.BuildPipeline(spec)
			if err != nil {
				return fmt.Errorf("build pipeline: %w", err)
			}
			in := types.Input{}
			if inputJSON != "" {
				if err := json.Unmarshal([]byte(inputJSON), &in); err != nil {
					return fmt.Errorf("parse --input JSON: %w", err)
				}
			}
			cr, err := p.Run(cmd.Context(), in)
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(cr, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			if cr.State == types.ChainFailed {
				return fmt.Errorf("pipeline %s failed: %s", cr.Chain, cr.Error)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "Path to pipeline definition file (required)")
	cmd.Flags().StringVar(&inputJSON, "input", "", "Initial input as a JSON object")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}
