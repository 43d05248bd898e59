package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/bpsim/predictor"
)

func newConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config [predictor-spec]",
		Short: "Print a predictor configuration as JSON, suitable for --config",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec := "custom"
			if len(args) == 1 {
				spec = args[0]
			}

			config, err := predictor.ParseVariantSpec(spec)
			if err != nil {
				return err
			}

			data, err := json.MarshalIndent(config, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to serialize predictor config: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}
}
