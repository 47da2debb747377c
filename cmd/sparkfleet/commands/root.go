// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument parsing,
// flag binding, and validation. Command execution is delegated to handler
// functions in the handlers package.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/sparkfleet/cmd/sparkfleet/handlers"
)

// Root returns the root command for the sparkfleet CLI.
//
// Global flags are bound once here and shared by every subcommand.
func Root() *cobra.Command {
	g := &handlers.GlobalOptions{}

	cmd := &cobra.Command{
		Use:           "sparkfleet",
		Short:         "Launch and manage master/worker clusters on EC2",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&g.ConfigPath, "config", "c", "", "Path to configuration file (default $XDG_CONFIG_HOME/sparkfleet/config.yaml)")
	flags.StringVar(&g.Region, "region", "", "EC2 region, overrides the configuration file")
	flags.StringVar(&g.VPCID, "vpc-id", "", "VPC to operate in (default: the region's default VPC)")
	flags.BoolVarP(&g.Verbose, "verbose", "v", false, "Log every EC2 call")
	flags.StringVar(&g.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this file when the command ends")

	// Cluster lifecycle
	cmd.AddCommand(Launch(g))
	cmd.AddCommand(Describe(g))
	cmd.AddCommand(Start(g))
	cmd.AddCommand(Stop(g))
	cmd.AddCommand(Destroy(g))

	// Remote access
	cmd.AddCommand(RunCommand(g))
	cmd.AddCommand(CopyFile(g))

	cmd.AddCommand(Version())

	return cmd
}
