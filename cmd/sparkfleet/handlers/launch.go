package handlers

import (
	"context"
	"fmt"

	"github.com/imamik/sparkfleet/internal/provisioning"
	"github.com/imamik/sparkfleet/internal/provisioning/infrastructure"
	"github.com/imamik/sparkfleet/internal/provisioning/launch"
	"github.com/imamik/sparkfleet/internal/service"
)

// LaunchOptions override config file values for one launch. Zero values
// keep the file's setting.
type LaunchOptions struct {
	NumWorkers   int
	InstanceType string
	AMI          string
	KeyName      string
	SpotPrice    float64
	AssumeYes    bool
}

// Factory function variables - can be replaced in tests.
var (
	newAddressResolver = infrastructure.NewAddressResolver

	newLauncher = func(services provisioning.ServiceProvisioner, addresses *infrastructure.AddressResolver) *launch.Launcher {
		return launch.NewLauncher(services, launch.WithAddressResolver(addresses))
	}
)

// Launch creates cluster name and prints its status once services run.
//
// Interrupting the command cancels ctx; the launcher then rolls back what
// this attempt created before returning.
func Launch(ctx context.Context, g GlobalOptions, name string, opts LaunchOptions) (err error) {
	defer func() { err = finish(g, err) }()

	cfg, err := prepareConfig(g, name)
	if err != nil {
		return err
	}
	if opts.NumWorkers > 0 {
		cfg.Launch.NumWorkers = opts.NumWorkers
	}
	if opts.InstanceType != "" {
		cfg.Provider.EC2.InstanceType = opts.InstanceType
	}
	if opts.AMI != "" {
		cfg.Provider.EC2.AMI = opts.AMI
	}
	if opts.KeyName != "" {
		cfg.Provider.EC2.KeyName = opts.KeyName
	}
	if opts.SpotPrice > 0 {
		cfg.Provider.EC2.SpotPrice = opts.SpotPrice
	}
	if opts.AssumeYes {
		cfg.Launch.AssumeYes = true
	}

	if err := cfg.ValidateLaunch(); err != nil {
		return err
	}
	if err := cfg.ValidateSSH(); err != nil {
		return err
	}

	s, err := newSession(ctx, g, cfg)
	if err != nil {
		return err
	}
	runner, err := newRemoteRunner(cfg, s.timeouts)
	if err != nil {
		return err
	}

	pCtx := provisioning.NewContext(ctx, cfg, s.api, s.logger)
	pCtx.Timeouts = s.timeouts
	pCtx.Confirm = confirm

	services := service.NewScriptService(runner, cfg.Services, s.logger)
	_, _ = fmt.Fprintf(stdout, "Launching cluster %s (%d workers, %s)...\n", name, cfg.Launch.NumWorkers, cfg.Strategy())

	c, err := newLauncher(services, newAddressResolver()).Launch(pCtx)
	if err != nil {
		return fmt.Errorf("failed to launch cluster %s: %w", name, err)
	}

	_, _ = fmt.Fprintf(stdout, "Cluster %s launched.\n", name)
	return renderStatus(ctx, stdout, c, styledOutput())
}
