package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/sparkfleet/cmd/sparkfleet/handlers"
)

// Start returns the start command.
func Start(g *handlers.GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "start NAME",
		Short: "Start a stopped cluster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.Start(cmd.Context(), *g, args[0])
		},
	}
}

// Stop returns the stop command.
func Stop(g *handlers.GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stop NAME",
		Short: "Stop a running cluster",
		Long: `Stop runs the configured stop commands, workers first, then stops every
instance. Stopped instances keep their disks and can be started again.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.Stop(cmd.Context(), *g, args[0])
		},
	}
}

// Destroy returns the destroy command.
//
// The destroy command terminates every instance of a cluster and deletes
// its security group. The shared base group stays.
func Destroy(g *handlers.GlobalOptions) *cobra.Command {
	var assumeYes bool

	cmd := &cobra.Command{
		Use:   "destroy NAME",
		Short: "Terminate a cluster and delete its security group",
		Long: `Destroy terminates every instance of the cluster, whatever its state.

Example:
  sparkfleet destroy analytics --assume-yes

WARNING: This operation is irreversible. Data on instance disks is lost.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.Destroy(cmd.Context(), *g, args[0], assumeYes)
		},
	}

	cmd.Flags().BoolVarP(&assumeYes, "assume-yes", "y", false, "Do not ask for confirmation")

	return cmd
}
