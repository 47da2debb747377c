package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/sparkfleet/cmd/sparkfleet/handlers"
)

// Launch returns the launch command.
func Launch(g *handlers.GlobalOptions) *cobra.Command {
	var opts handlers.LaunchOptions

	cmd := &cobra.Command{
		Use:   "launch NAME",
		Short: "Launch a new cluster",
		Long: `Launch creates a cluster of one master and N workers.

Instances are acquired on demand, or through spot requests when a spot
price is set. Once every instance runs, a cluster key pair is distributed,
the worker list is written to the master, and the configured install and
start commands run on every node.

If anything fails, or the command is interrupted, every instance created
by this attempt is terminated. Termination asks for confirmation unless
--assume-yes is given.

Example:
  sparkfleet launch analytics --workers 4 --spot-price 0.12`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.Launch(cmd.Context(), *g, args[0], opts)
		},
	}

	cmd.Flags().IntVarP(&opts.NumWorkers, "workers", "n", 0, "Number of worker instances (default from config)")
	cmd.Flags().StringVar(&opts.InstanceType, "instance-type", "", "EC2 instance type for every node")
	cmd.Flags().StringVar(&opts.AMI, "ami", "", "Machine image to launch")
	cmd.Flags().StringVar(&opts.KeyName, "key-name", "", "EC2 key pair name")
	cmd.Flags().Float64Var(&opts.SpotPrice, "spot-price", 0, "Maximum spot price; launches on demand when unset")
	cmd.Flags().BoolVarP(&opts.AssumeYes, "assume-yes", "y", false, "Terminate instances on failure without asking")

	return cmd
}
