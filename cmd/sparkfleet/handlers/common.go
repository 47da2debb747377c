package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-logr/logr"

	"github.com/imamik/sparkfleet/internal/cluster"
	"github.com/imamik/sparkfleet/internal/config"
	"github.com/imamik/sparkfleet/internal/metrics"
	ec2platform "github.com/imamik/sparkfleet/internal/platform/ec2"
	"github.com/imamik/sparkfleet/internal/platform/ssh"
	"github.com/imamik/sparkfleet/internal/provisioning"
	"github.com/imamik/sparkfleet/internal/service"
	"github.com/imamik/sparkfleet/pkg/cloud"
)

// GlobalOptions are the flags every command accepts.
type GlobalOptions struct {
	ConfigPath  string
	Region      string
	VPCID       string
	Verbose     bool
	MetricsFile string
}

// RemoteRunner runs commands and copies files on cluster nodes.
type RemoteRunner interface {
	cluster.RemoteExecutor
	service.Runner
}

// Factory function variables - can be replaced in tests.
var (
	loadConfig = config.Load

	newEC2Client = func(ctx context.Context, cfg *config.Config, logger logr.Logger) (cloud.EC2API, error) {
		ec2cfg := cfg.Provider.EC2
		opts := []ec2platform.ClientOption{ec2platform.WithLogger(logger)}
		if ec2cfg.AccessKeyID != "" {
			opts = append(opts, ec2platform.WithStaticCredentials(ec2cfg.AccessKeyID, ec2cfg.SecretAccessKey))
		}
		if ec2cfg.Endpoint != "" {
			opts = append(opts, ec2platform.WithEndpoint(ec2cfg.Endpoint))
		}
		return ec2platform.NewClient(ctx, ec2cfg.Region, opts...)
	}

	newRemoteRunner = func(cfg *config.Config, timeouts *config.Timeouts) (RemoteRunner, error) {
		ec2cfg := cfg.Provider.EC2
		return ssh.NewExecutor(ec2cfg.User, ec2cfg.IdentityFile, timeouts.SSHDial)
	}

	loadTimeouts = config.LoadTimeouts

	confirm provisioning.Confirmer = promptConfirm

	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// session bundles what a handler needs once configuration is loaded.
type session struct {
	cfg      *config.Config
	logger   logr.Logger
	api      cloud.EC2API
	timeouts *config.Timeouts
}

// prepareConfig loads the config file and applies the global flags.
func prepareConfig(g GlobalOptions, name string) (*config.Config, error) {
	cfg, err := loadConfig(g.ConfigPath)
	if err != nil {
		return nil, err
	}
	cfg.ClusterName = name
	if g.Region != "" {
		cfg.Provider.EC2.Region = g.Region
	}
	if g.VPCID != "" {
		cfg.Provider.EC2.VPCID = g.VPCID
	}
	return cfg, nil
}

func newSession(ctx context.Context, g GlobalOptions, cfg *config.Config) (*session, error) {
	logger := newLogger(g.Verbose)
	api, err := newEC2Client(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, logger: logger, api: api, timeouts: loadTimeouts()}, nil
}

func newLogger(verbose bool) logr.Logger {
	verbosity := 0
	if verbose {
		verbosity = 1
	}
	return provisioning.NewLogger(stderr, verbosity)
}

func (s *session) discoverer() *cluster.Discoverer {
	return cluster.NewDiscoverer(s.api, s.cfg.Provider.EC2.Region, s.logger)
}

func (s *session) converger() *cluster.Converger {
	return cluster.NewConverger(s.api, s.timeouts.ConvergePoll, s.logger)
}

func (s *session) manager(hooks cluster.ServiceHooks, exec cluster.RemoteExecutor) *cluster.Manager {
	return cluster.NewManager(s.api, s.converger(), hooks, exec, cluster.ManagerTimeouts{
		InstanceState: s.timeouts.InstanceState,
		GroupDelete:   s.timeouts.GroupDelete,
		RetryDelay:    s.timeouts.RetryInitialDelay,
	}, s.logger)
}

// findCluster discovers the cluster the session's config names.
func (s *session) findCluster(ctx context.Context) (*cluster.Cluster, error) {
	return s.discoverer().GetCluster(ctx, s.cfg.ClusterName, s.cfg.Provider.EC2.VPCID)
}

// hooks returns the service hooks, or nil when no service commands are
// configured and SSH is not needed.
func (s *session) hooks(needed []string) (cluster.ServiceHooks, error) {
	if len(needed) == 0 {
		return nil, nil
	}
	runner, err := s.remote()
	if err != nil {
		return nil, err
	}
	return service.NewScriptService(runner, s.cfg.Services, s.logger), nil
}

func (s *session) remote() (RemoteRunner, error) {
	if err := s.cfg.ValidateSSH(); err != nil {
		return nil, err
	}
	return newRemoteRunner(s.cfg, s.timeouts)
}

// finish writes the metrics file when requested and reports a no-op as
// success.
func finish(g GlobalOptions, err error) error {
	if g.MetricsFile != "" {
		if werr := metrics.WriteTextfile(g.MetricsFile); werr != nil {
			err = errors.Join(err, fmt.Errorf("failed to write metrics: %w", werr))
		}
	}
	var noop *cluster.NothingToDoError
	if errors.As(err, &noop) {
		_, _ = fmt.Fprintf(stdout, "Nothing to do: cluster %s is already %s.\n", noop.Name, noop.State)
		return nil
	}
	return err
}
