package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/ericcurtin/llamanetes/internal/brick"
)

func newConfigCmd() *cobra.Command {
	var (
		file    string
		getKey  string
		setArgs []string
		list    bool
	)
	cmd := &cobra.Command{
		Use:     "config",
		Short:   "Manage a JSON config file",
		Example: "  llamanetes config --file cfg.json --set temperature 0.2\n  llamanetes config --file cfg.json --get temperature",
		RunE: func(cmd *cobra.Command, args []string) error {
			cb, err := brick.NewConfigBrick(file)
			if err != nil {
				return err
			}
			switch {
			case list:
				if err := cb.Load(); err != nil {
					return err
				}
				out, err := json.MarshalIndent(cb.List(), "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			case getKey != "":
				if err := cb.Load(); err != nil {
					return err
				}
				v, err := cb.Get(getKey)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", getKey, v)
				return nil
			case len(setArgs) == 2:
				// A missing file is fine when setting the first key.
				if err := cb.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
					return err
				}
				key := setArgs[0]
				value := parseValue(setArgs[1])
				cb.Set(key, value)
				if err := cb.Save(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %v\n", key, value)
				return nil
			default:
				return fmt.Errorf("use --list, --get KEY, or --set KEY VALUE")
			}
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Config file path (required)")
	cmd.Flags().StringVar(&getKey, "get", "", "Get a config value")
	cmd.Flags().StringArrayVar(&setArgs, "set", nil, "Set a config value: --set KEY --set VALUE")
	cmd.Flags().BoolVar(&list, "list", false, "List all config values")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// parseValue interprets a CLI value as JSON when possible, falling back to a
// plain string. "0.2" becomes a number, "true" a bool, "abc" a string.
func parseValue(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	return v
}
