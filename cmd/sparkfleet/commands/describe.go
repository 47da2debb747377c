package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/sparkfleet/cmd/sparkfleet/handlers"
)

// Describe returns the describe command.
func Describe(g *handlers.GlobalOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "describe [NAME...]",
		Short: "Show the state and addresses of clusters",
		Long: `Describe prints the named clusters, or every cluster in the VPC when no
name is given. Addresses are only shown while a cluster is running.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.Describe(cmd.Context(), *g, args, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", handlers.OutputText, "Output format: text or yaml")

	return cmd
}
