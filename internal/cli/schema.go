package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/surveygraph/graph/internal/config"
)

func newSchemaCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Output the JSON schema of the config file",
		Long:  `Output the JSON schema of the YAML file accepted by --config, for editor completion and validation.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := config.Schema()
			if err != nil {
				return fmt.Errorf("generating schema: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(schema))
			return nil
		},
	}
}
