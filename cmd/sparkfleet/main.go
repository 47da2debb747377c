// Package main is the entry point for the sparkfleet CLI.
//
// sparkfleet launches and manages clusters of EC2 instances, one master
// plus any number of workers, without keeping local state: every command
// rediscovers its cluster from instance tags and security groups.
//
// For detailed usage information, run:
//
//	sparkfleet --help
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/imamik/sparkfleet/cmd/sparkfleet/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
