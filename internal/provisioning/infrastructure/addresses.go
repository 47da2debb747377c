package infrastructure

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"slices"
	"strings"
	"time"
)

// DefaultCheckIPURL echoes the caller's public IPv4 address.
const DefaultCheckIPURL = "http://checkip.amazonaws.com/"

// AddressResolver determines the addresses the launching client reaches the
// cluster from: its own hostname's address and, behind NAT, its public one.
type AddressResolver struct {
	HTTPClient *http.Client
	URL        string

	Hostname func() (string, error)
	LookupIP func(ctx context.Context, network, host string) ([]net.IP, error)
}

// NewAddressResolver returns a resolver using the system resolver and
// DefaultCheckIPURL.
func NewAddressResolver() *AddressResolver {
	return &AddressResolver{
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		URL:        DefaultCheckIPURL,
		Hostname:   os.Hostname,
		LookupIP:   net.DefaultResolver.LookupIP,
	}
}

// PublicIP asks the check-ip endpoint for the caller's public address.
func (r *AddressResolver) PublicIP(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.URL, nil)
	if err != nil {
		return "", err
	}
	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to look up public address: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to look up public address: %s returned %s", r.URL, resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 256))
	if err != nil {
		return "", fmt.Errorf("failed to read public address: %w", err)
	}
	ip := net.ParseIP(strings.TrimSpace(string(body)))
	if ip == nil || ip.To4() == nil {
		return "", fmt.Errorf("public address lookup returned %q, not an IPv4 address", strings.TrimSpace(string(body)))
	}
	return ip.String(), nil
}

// LocalIP resolves the local hostname to its first IPv4 address.
func (r *AddressResolver) LocalIP(ctx context.Context) (string, error) {
	host, err := r.Hostname()
	if err != nil {
		return "", err
	}
	ips, err := r.LookupIP(ctx, "ip4", host)
	if err != nil {
		return "", err
	}
	for _, ip := range ips {
		if v4 := ip.To4(); v4 != nil {
			return v4.String(), nil
		}
	}
	return "", fmt.Errorf("hostname %s has no IPv4 address", host)
}

// ClientCIDRs returns the /32 networks to admit, duplicates removed. A local
// hostname that does not resolve is skipped; a failed public lookup is an
// error.
func (r *AddressResolver) ClientCIDRs(ctx context.Context) ([]string, error) {
	var cidrs []string
	if local, err := r.LocalIP(ctx); err == nil {
		cidrs = append(cidrs, local+"/32")
	}

	public, err := r.PublicIP(ctx)
	if err != nil {
		return nil, err
	}
	if cidr := public + "/32"; !slices.Contains(cidrs, cidr) {
		cidrs = append(cidrs, cidr)
	}
	return cidrs, nil
}
