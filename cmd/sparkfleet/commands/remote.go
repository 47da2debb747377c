package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/sparkfleet/cmd/sparkfleet/handlers"
)

// RunCommand returns the run-command command.
func RunCommand(g *handlers.GlobalOptions) *cobra.Command {
	var masterOnly bool

	cmd := &cobra.Command{
		Use:   "run-command NAME COMMAND",
		Short: "Run a shell command on the nodes of a running cluster",
		Example: `  sparkfleet run-command analytics 'df -h /'
  sparkfleet run-command analytics --master-only 'cat sparkfleet/workers'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.RunCommand(cmd.Context(), *g, args[0], args[1], masterOnly)
		},
	}

	cmd.Flags().BoolVar(&masterOnly, "master-only", false, "Run on the master only")

	return cmd
}

// CopyFile returns the copy-file command.
func CopyFile(g *handlers.GlobalOptions) *cobra.Command {
	var masterOnly bool

	cmd := &cobra.Command{
		Use:   "copy-file NAME LOCAL_PATH REMOTE_PATH",
		Short: "Copy a local file to the nodes of a running cluster",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.CopyFile(cmd.Context(), *g, args[0], args[1], args[2], masterOnly)
		},
	}

	cmd.Flags().BoolVar(&masterOnly, "master-only", false, "Copy to the master only")

	return cmd
}
