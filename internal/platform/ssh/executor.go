package ssh

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/imamik/sparkfleet/internal/cluster"
	"github.com/imamik/sparkfleet/internal/util/async"
	"github.com/imamik/sparkfleet/internal/util/netutil"
)

// Executor runs commands and uploads files on many hosts in parallel with
// one identity.
type Executor struct {
	User       string
	PrivateKey []byte
	Port       int

	// DialTimeout bounds a single connection attempt.
	DialTimeout time.Duration

	// WaitTimeout bounds how long a host may take to accept connections on
	// the SSH port. Zero means netutil.SSHWaitTimeout.
	WaitTimeout time.Duration

	// RetryDelay is the initial delay between connection attempts.
	RetryDelay time.Duration
}

var _ cluster.RemoteExecutor = (*Executor)(nil)

// NewExecutor creates an Executor logging in as user with the PEM key read
// from identityFile.
func NewExecutor(user, identityFile string, dialTimeout time.Duration) (*Executor, error) {
	key, err := os.ReadFile(identityFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read identity file: %w", err)
	}
	return &Executor{User: user, PrivateKey: key, DialTimeout: dialTimeout}, nil
}

func (e *Executor) client(ctx context.Context, host string) (*Client, error) {
	port := e.Port
	if port == 0 {
		port = defaultPort
	}
	wait := e.WaitTimeout
	if wait == 0 {
		wait = netutil.SSHWaitTimeout
	}
	if err := netutil.WaitForPort(ctx, host, port, wait); err != nil {
		return nil, err
	}
	return NewClient(&Config{
		Host:        host,
		Port:        port,
		User:        e.User,
		PrivateKey:  e.PrivateKey,
		DialTimeout: e.DialTimeout,
		RetryDelay:  e.RetryDelay,
	})
}

// Run executes command on every host and returns the outputs in host
// order. Outputs of hosts that succeeded are returned even when another
// host failed.
func (e *Executor) Run(ctx context.Context, hosts []string, command string) ([]string, error) {
	outputs := make([]string, len(hosts))
	tasks := make([]async.Task, 0, len(hosts))
	for i, host := range hosts {
		tasks = append(tasks, async.Task{
			Name: host,
			Func: func(ctx context.Context) error {
				c, err := e.client(ctx, host)
				if err != nil {
					return err
				}
				out, err := c.Execute(ctx, command)
				outputs[i] = out
				return err
			},
		})
	}
	err := async.RunParallel(ctx, tasks, false)
	return outputs, err
}

// Copy uploads localPath to remotePath on every host, keeping the file mode.
func (e *Executor) Copy(ctx context.Context, hosts []string, localPath, remotePath string) error {
	info, err := os.Stat(localPath)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", localPath, err)
	}
	data, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", localPath, err)
	}
	return e.Upload(ctx, hosts, data, remotePath, info.Mode())
}

// Upload writes data to remotePath on every host.
func (e *Executor) Upload(ctx context.Context, hosts []string, data []byte, remotePath string, mode os.FileMode) error {
	tasks := make([]async.Task, 0, len(hosts))
	for _, host := range hosts {
		tasks = append(tasks, async.Task{
			Name: host,
			Func: func(ctx context.Context) error {
				c, err := e.client(ctx, host)
				if err != nil {
					return err
				}
				return c.Upload(ctx, data, remotePath, mode)
			},
		})
	}
	return async.RunParallel(ctx, tasks, false)
}
