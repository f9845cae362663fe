package cli

import (
	"github.com/spf13/cobra"

	"github.com/kolah/drygen/internal/config"
)

func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "drygen",
		Short:         "drygen - Dry::Schema params from OpenAPI query parameters",
		Version:       "1.0.0",
		SilenceUsage:  true,
		SilenceErrors: true,

		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	config.BindLogFlags(root)
	root.AddCommand(GenerateCommand())

	return root
}
