package service

import (
	"context"
	"fmt"
	"io/fs"
	"strings"

	"github.com/go-logr/logr"

	"github.com/imamik/sparkfleet/internal/cluster"
	"github.com/imamik/sparkfleet/internal/config"
	"github.com/imamik/sparkfleet/internal/provisioning"
	"github.com/imamik/sparkfleet/internal/util/keygen"
	"github.com/imamik/sparkfleet/internal/util/naming"
)

// Remote paths, relative to the login user's home directory.
const (
	WorkersFile    = "sparkfleet/workers"
	MasterFile     = "sparkfleet/master"
	ClusterKeyFile = ".ssh/sparkfleet_cluster"
	ClusterPubFile = ".ssh/sparkfleet_cluster.pub"
)

// Runner is the remote execution the service needs. *ssh.Executor
// implements it.
type Runner interface {
	Run(ctx context.Context, hosts []string, command string) ([]string, error)
	Upload(ctx context.Context, hosts []string, data []byte, remotePath string, mode fs.FileMode) error
}

// ScriptService provisions and controls the service with shell commands.
type ScriptService struct {
	runner   Runner
	commands config.ServicesConfig
	logger   logr.Logger

	// GenerateKey creates the key pair nodes use to reach each other.
	GenerateKey func(comment string) (*keygen.KeyPair, error)
}

var (
	_ provisioning.ServiceProvisioner = (*ScriptService)(nil)
	_ cluster.ServiceHooks            = (*ScriptService)(nil)
)

// NewScriptService creates a ScriptService.
func NewScriptService(runner Runner, commands config.ServicesConfig, logger logr.Logger) *ScriptService {
	return &ScriptService{
		runner:   runner,
		commands: commands,
		logger:   logger,
		GenerateKey: keygen.Generate,
	}
}

type hosts struct {
	master  []string
	workers []string
}

func (h hosts) all() []string {
	return append(append([]string(nil), h.master...), h.workers...)
}

func resolveHosts(ctx context.Context, c *cluster.Cluster) (hosts, error) {
	eps, err := c.Endpoints(ctx)
	if err != nil {
		return hosts{}, err
	}
	addrs := make([]string, 0, len(eps))
	for i, ep := range eps {
		addr := ep.Host
		if addr == "" {
			addr = ep.IP
		}
		if addr == "" {
			return hosts{}, fmt.Errorf("instance %s has no address yet", c.Instances()[i].ID)
		}
		addrs = append(addrs, addr)
	}
	return hosts{master: addrs[:1], workers: addrs[1:]}, nil
}

// Provision sets up a freshly launched cluster: it distributes a cluster key
// pair, writes the master address and worker list, then runs the install and
// start commands.
func (s *ScriptService) Provision(ctx context.Context, c *cluster.Cluster) error {
	h, err := resolveHosts(ctx, c)
	if err != nil {
		return err
	}

	if err := s.distributeKey(ctx, c, h); err != nil {
		return err
	}

	s.logger.Info("writing cluster layout", "cluster", c.Name, "workers", len(c.Workers))
	if err := s.runner.Upload(ctx, h.all(), []byte(privateAddress(c.Master)+"\n"), MasterFile, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", MasterFile, err)
	}
	if err := s.runner.Upload(ctx, h.master, []byte(WorkerList(c)), WorkersFile, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", WorkersFile, err)
	}

	if err := s.runOrdered(ctx, "install", s.commands.Install, h.master, h.workers); err != nil {
		return err
	}
	return s.runOrdered(ctx, "start", s.commands.Start, h.master, h.workers)
}

func (s *ScriptService) distributeKey(ctx context.Context, c *cluster.Cluster, h hosts) error {
	key, err := s.GenerateKey(naming.ClusterGroup(c.Name))
	if err != nil {
		return fmt.Errorf("failed to generate cluster key: %w", err)
	}
	if fp, err := key.Fingerprint(); err == nil {
		s.logger.Info("distributing cluster key", "cluster", c.Name, "fingerprint", fp)
	}

	all := h.all()
	if err := s.runner.Upload(ctx, all, key.PrivateKey, ClusterKeyFile, 0o600); err != nil {
		return fmt.Errorf("failed to upload cluster key: %w", err)
	}
	if err := s.runner.Upload(ctx, all, key.PublicKey, ClusterPubFile, 0o644); err != nil {
		return fmt.Errorf("failed to upload cluster public key: %w", err)
	}
	authorize := fmt.Sprintf("grep -qxF \"$(cat %[1]s)\" .ssh/authorized_keys || cat %[1]s >> .ssh/authorized_keys", ClusterPubFile)
	if _, err := s.runner.Run(ctx, all, authorize); err != nil {
		return fmt.Errorf("failed to authorize cluster key: %w", err)
	}
	return nil
}

// Start runs the start commands, master first.
func (s *ScriptService) Start(ctx context.Context, c *cluster.Cluster) error {
	h, err := resolveHosts(ctx, c)
	if err != nil {
		return err
	}
	return s.runOrdered(ctx, "start", s.commands.Start, h.master, h.workers)
}

// Stop runs the stop commands, workers first.
func (s *ScriptService) Stop(ctx context.Context, c *cluster.Cluster) error {
	h, err := resolveHosts(ctx, c)
	if err != nil {
		return err
	}
	return s.runOrdered(ctx, "stop", s.commands.Stop, h.workers, h.master)
}

// Destroy stops the service of a running cluster on a best effort basis.
// Clusters in any other state have nothing to stop.
func (s *ScriptService) Destroy(ctx context.Context, c *cluster.Cluster) error {
	if c.State() != cluster.StateRunning || len(s.commands.Stop) == 0 {
		return nil
	}
	if err := s.Stop(ctx, c); err != nil {
		s.logger.Error(err, "failed to stop services before destroy, continuing", "cluster", c.Name)
	}
	return nil
}

// runOrdered runs every command on the first host group, then on the second.
func (s *ScriptService) runOrdered(ctx context.Context, stage string, commands []string, first, second []string) error {
	for _, command := range commands {
		for _, group := range [][]string{first, second} {
			if len(group) == 0 {
				continue
			}
			s.logger.V(1).Info("running service command", "stage", stage, "command", command, "hosts", group)
			if _, err := s.runner.Run(ctx, group, command); err != nil {
				return fmt.Errorf("%s command %q failed: %w", stage, command, err)
			}
		}
	}
	return nil
}

// WorkerList renders the workers file: one private address per line, in
// worker order.
func WorkerList(c *cluster.Cluster) string {
	var b strings.Builder
	for _, w := range c.Workers {
		b.WriteString(privateAddress(w))
		b.WriteByte('\n')
	}
	return b.String()
}

func privateAddress(inst cluster.Instance) string {
	if inst.PrivateDNS != "" {
		return inst.PrivateDNS
	}
	return inst.PrivateIP
}
