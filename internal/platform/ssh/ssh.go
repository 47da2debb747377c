package ssh

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/imamik/sparkfleet/internal/util/retry"
)

const (
	defaultPort        = 22
	defaultDialTimeout = 10 * time.Second
	defaultMaxRetries  = 10
	defaultRetryDelay  = 2 * time.Second
	defaultMaxDelay    = 10 * time.Second
)

// Config holds SSH client configuration.
type Config struct {
	Host       string
	Port       int
	User       string
	PrivateKey []byte

	// DialTimeout is the timeout for establishing the TCP connection.
	// If zero, defaultDialTimeout is used.
	DialTimeout time.Duration

	// MaxRetries is the maximum number of connection retry attempts.
	// If zero, defaultMaxRetries is used.
	MaxRetries int

	// RetryDelay is the initial delay between retry attempts.
	// If zero, defaultRetryDelay is used.
	RetryDelay time.Duration

	// HostKeyCallback handles host key verification.
	// If nil, ssh.InsecureIgnoreHostKey() is used.
	HostKeyCallback ssh.HostKeyCallback
}

// Client executes commands on a remote server via SSH.
// It parses the private key once during construction and
// creates connections on-demand per call.
type Client struct {
	config *Config
	signer ssh.Signer
}

// NewClient creates a new SSH client and validates the private key.
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	if cfg.Host == "" {
		return nil, fmt.Errorf("config host cannot be empty")
	}
	if cfg.User == "" {
		return nil, fmt.Errorf("config user cannot be empty")
	}
	if len(cfg.PrivateKey) == 0 {
		return nil, fmt.Errorf("config private key cannot be empty")
	}

	// Copy config to avoid mutating caller's struct
	configCopy := *cfg

	if configCopy.Port == 0 {
		configCopy.Port = defaultPort
	}
	if configCopy.DialTimeout == 0 {
		configCopy.DialTimeout = defaultDialTimeout
	}
	if configCopy.MaxRetries == 0 {
		configCopy.MaxRetries = defaultMaxRetries
	}
	if configCopy.RetryDelay == 0 {
		configCopy.RetryDelay = defaultRetryDelay
	}
	if configCopy.HostKeyCallback == nil {
		configCopy.HostKeyCallback = ssh.InsecureIgnoreHostKey() //nolint:gosec // cluster nodes are ephemeral
	}

	signer, err := ssh.ParsePrivateKey(configCopy.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	return &Client{
		config: &configCopy,
		signer: signer,
	}, nil
}

// Execute runs a command on the remote host.
// Returns command output (stdout+stderr) and any execution error.
func (c *Client) Execute(ctx context.Context, command string) (string, error) {
	client, err := c.connect(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = client.Close() }()

	session, err := c.session(client)
	if err != nil {
		return "", err
	}
	defer func() { _ = session.Close() }()

	output, err := runWithContext(ctx, session, func() ([]byte, error) {
		return session.CombinedOutput(command)
	})
	if err != nil {
		return string(output), fmt.Errorf("command failed on %s: %w\nCommand: %s\nOutput: %s",
			c.config.Host, err, command, string(output))
	}

	return string(output), nil
}

// Upload writes data to remotePath with the given mode, creating parent
// directories. Relative paths are resolved against the login directory.
func (c *Client) Upload(ctx context.Context, data []byte, remotePath string, mode fs.FileMode) error {
	client, err := c.connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	session, err := c.session(client)
	if err != nil {
		return err
	}
	defer func() { _ = session.Close() }()

	var stderr bytes.Buffer
	session.Stdin = bytes.NewReader(data)
	session.Stderr = &stderr

	command := uploadCommand(remotePath, mode)
	_, err = runWithContext(ctx, session, func() ([]byte, error) {
		return nil, session.Run(command)
	})
	if err != nil {
		return fmt.Errorf("upload to %s:%s failed: %w\nOutput: %s", c.config.Host, remotePath, err, stderr.String())
	}
	return nil
}

func uploadCommand(remotePath string, mode fs.FileMode) string {
	p := quote(remotePath)
	return fmt.Sprintf("mkdir -p %s && cat > %s && chmod %o %s", quote(path.Dir(remotePath)), p, mode.Perm(), p)
}

// quote wraps s in single quotes for a POSIX shell.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// connect establishes SSH connection with retry logic.
func (c *Client) connect(ctx context.Context) (*ssh.Client, error) {
	config := &ssh.ClientConfig{
		User: c.config.User,
		Auth: []ssh.AuthMethod{
			ssh.PublicKeys(c.signer),
		},
		HostKeyCallback: c.config.HostKeyCallback,
		Timeout:         c.config.DialTimeout,
	}

	addr := fmt.Sprintf("%s:%d", c.config.Host, c.config.Port)
	var client *ssh.Client

	// sshd comes up some time after the instance reports running
	err := retry.WithExponentialBackoff(ctx, func() error {
		var dialErr error
		client, dialErr = ssh.Dial("tcp", addr, config)
		return dialErr
	},
		retry.WithMaxRetries(c.config.MaxRetries),
		retry.WithInitialDelay(c.config.RetryDelay),
		retry.WithMaxDelay(defaultMaxDelay),
	)

	if err != nil {
		return nil, fmt.Errorf("failed to establish SSH connection to %s after %d retry attempts: %w",
			addr, c.config.MaxRetries, err)
	}

	return client, nil
}

func (c *Client) session(client *ssh.Client) (*ssh.Session, error) {
	session, err := client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create SSH session on %s: %w", c.config.Host, err)
	}
	return session, nil
}

// runWithContext runs fn and closes the session when ctx ends first.
func runWithContext(ctx context.Context, session *ssh.Session, fn func() ([]byte, error)) ([]byte, error) {
	type result struct {
		out []byte
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := fn()
		done <- result{out, err}
	}()

	select {
	case r := <-done:
		return r.out, r.err
	case <-ctx.Done():
		_ = session.Close()
		return nil, ctx.Err()
	}
}
