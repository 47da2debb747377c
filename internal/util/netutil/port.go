// Package netutil waits for services on freshly booted instances.
package netutil

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/imamik/sparkfleet/internal/util/retry"
)

// SSHWaitTimeout is the default timeout for sshd to accept connections on a
// freshly started instance.
const SSHWaitTimeout = 5 * time.Minute

// ErrPortUnreachable is wrapped by WaitForPort when the port never accepted
// a connection before the timeout.
var ErrPortUnreachable = errors.New("port unreachable")

const (
	pollInterval = time.Second
	dialTimeout  = 2 * time.Second
)

// WaitForPort dials host:port once a second until a TCP connection succeeds.
// The first dial is immediate.
func WaitForPort(ctx context.Context, host string, port int, timeout time.Duration) error {
	return waitForPort(ctx, host, port, timeout, pollInterval)
}

func waitForPort(ctx context.Context, host string, port int, timeout, interval time.Duration) error {
	address := net.JoinHostPort(host, strconv.Itoa(port))
	dialer := net.Dialer{Timeout: dialTimeout}

	var lastErr error
	err := retry.Poll(ctx, interval, timeout, func(ctx context.Context) (bool, error) {
		conn, err := dialer.DialContext(ctx, "tcp", address)
		if err != nil {
			lastErr = err
			return false, nil
		}
		_ = conn.Close()
		return true, nil
	})
	if errors.Is(err, retry.ErrDeadlineExceeded) {
		return fmt.Errorf("%w: %s not open after %s: %v", ErrPortUnreachable, address, timeout, lastErr)
	}
	return err
}
