package cluster

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"

	"github.com/imamik/sparkfleet/pkg/cloud"
)

// State is an instance state, or the aggregate state of a cluster.
type State string

// Instance states as reported by EC2, plus the cluster-only StateInconsistent.
const (
	StatePending      State = "pending"
	StateRunning      State = "running"
	StateShuttingDown State = "shutting-down"
	StateTerminated   State = "terminated"
	StateStopping     State = "stopping"
	StateStopped      State = "stopped"

	// StateInconsistent means the instances of a cluster disagree.
	StateInconsistent State = "inconsistent"
)

// Cluster is one master plus its workers, rebuilt from EC2 on every query.
type Cluster struct {
	Name    string
	Region  string
	VPCID   string
	Master  Instance
	Workers []Instance

	network cloud.NetworkClient

	exposureOnce sync.Once
	public       bool
	exposureErr  error
}

// WithNetwork sets the client used to decide whether the cluster's subnet
// assigns public addresses.
func (c *Cluster) WithNetwork(api cloud.NetworkClient) *Cluster {
	c.network = api
	return c
}

// Instances returns the master followed by the workers.
func (c *Cluster) Instances() []Instance {
	return append([]Instance{c.Master}, c.Workers...)
}

// InstanceIDs returns the ids of Instances, master first.
func (c *Cluster) InstanceIDs() []string {
	ids := make([]string, 0, len(c.Workers)+1)
	for _, inst := range c.Instances() {
		ids = append(ids, inst.ID)
	}
	return ids
}

// State returns the single state shared by every instance, or
// StateInconsistent when they differ.
func (c *Cluster) State() State {
	state := c.Master.State
	for _, w := range c.Workers {
		if w.State != state {
			return StateInconsistent
		}
	}
	return state
}

// Public reports whether the cluster is reached on public addresses. It is
// decided once per Cluster value from the master's subnet
// MapPublicIpOnLaunch attribute.
func (c *Cluster) Public(ctx context.Context) (bool, error) {
	c.exposureOnce.Do(func() {
		c.public, c.exposureErr = c.resolvePublic(ctx)
	})
	return c.public, c.exposureErr
}

func (c *Cluster) resolvePublic(ctx context.Context) (bool, error) {
	if c.Master.SubnetID == "" || c.network == nil {
		return true, nil
	}
	out, err := c.network.DescribeSubnets(ctx, &ec2.DescribeSubnetsInput{
		SubnetIds: []string{c.Master.SubnetID},
	})
	if err != nil {
		return false, fmt.Errorf("failed to describe subnet %s: %w", c.Master.SubnetID, err)
	}
	if len(out.Subnets) == 0 {
		return false, fmt.Errorf("subnet %s not found", c.Master.SubnetID)
	}
	return aws.ToBool(out.Subnets[0].MapPublicIpOnLaunch), nil
}

// Endpoint is the address pair used to reach one instance.
type Endpoint struct {
	Host string
	IP   string
}

func (c *Cluster) endpoint(ctx context.Context, inst Instance) (Endpoint, error) {
	public, err := c.Public(ctx)
	if err != nil {
		return Endpoint{}, err
	}
	if public {
		return Endpoint{Host: inst.PublicDNS, IP: inst.PublicIP}, nil
	}
	return Endpoint{Host: inst.PrivateDNS, IP: inst.PrivateIP}, nil
}

// MasterHost returns the master's hostname, or "" if it has not been
// assigned yet.
func (c *Cluster) MasterHost(ctx context.Context) (string, error) {
	ep, err := c.endpoint(ctx, c.Master)
	return ep.Host, err
}

// MasterIP returns the master's address, or "" if it has not been assigned yet.
func (c *Cluster) MasterIP(ctx context.Context) (string, error) {
	ep, err := c.endpoint(ctx, c.Master)
	return ep.IP, err
}

// WorkerHosts returns the worker hostnames in worker order.
func (c *Cluster) WorkerHosts(ctx context.Context) ([]string, error) {
	return c.workerField(ctx, func(ep Endpoint) string { return ep.Host })
}

// WorkerIPs returns the worker addresses in worker order.
func (c *Cluster) WorkerIPs(ctx context.Context) ([]string, error) {
	return c.workerField(ctx, func(ep Endpoint) string { return ep.IP })
}

func (c *Cluster) workerField(ctx context.Context, field func(Endpoint) string) ([]string, error) {
	out := make([]string, 0, len(c.Workers))
	for _, w := range c.Workers {
		ep, err := c.endpoint(ctx, w)
		if err != nil {
			return nil, err
		}
		out = append(out, field(ep))
	}
	return out, nil
}

// Endpoints returns an endpoint per instance, master first.
func (c *Cluster) Endpoints(ctx context.Context) ([]Endpoint, error) {
	eps := make([]Endpoint, 0, len(c.Workers)+1)
	for _, inst := range c.Instances() {
		ep, err := c.endpoint(ctx, inst)
		if err != nil {
			return nil, err
		}
		eps = append(eps, ep)
	}
	return eps, nil
}

// NodeSummary describes one instance in a Summary.
type NodeSummary struct {
	ID    string `yaml:"id" json:"id"`
	State State  `yaml:"state" json:"state"`
	Host  string `yaml:"host,omitempty" json:"host,omitempty"`
	IP    string `yaml:"ip,omitempty" json:"ip,omitempty"`
}

// Summary is the serialisable view of a cluster.
type Summary struct {
	Name      string        `yaml:"name" json:"name"`
	Region    string        `yaml:"region" json:"region"`
	VPCID     string        `yaml:"vpc_id" json:"vpc_id"`
	State     State         `yaml:"state" json:"state"`
	NodeCount int           `yaml:"node_count" json:"node_count"`
	Master    NodeSummary   `yaml:"master" json:"master"`
	Workers   []NodeSummary `yaml:"workers" json:"workers"`
}

// Describe builds a Summary. Addresses are only filled in while running.
func (c *Cluster) Describe(ctx context.Context) (*Summary, error) {
	s := &Summary{
		Name:      c.Name,
		Region:    c.Region,
		VPCID:     c.VPCID,
		State:     c.State(),
		NodeCount: len(c.Workers) + 1,
	}

	running := s.State == StateRunning
	node := func(inst Instance) (NodeSummary, error) {
		n := NodeSummary{ID: inst.ID, State: inst.State}
		if running {
			ep, err := c.endpoint(ctx, inst)
			if err != nil {
				return n, err
			}
			n.Host, n.IP = ep.Host, ep.IP
		}
		return n, nil
	}

	var err error
	if s.Master, err = node(c.Master); err != nil {
		return nil, err
	}
	for _, w := range c.Workers {
		n, err := node(w)
		if err != nil {
			return nil, err
		}
		s.Workers = append(s.Workers, n)
	}
	return s, nil
}

// PrintStatus writes the fixed-format status block for the cluster.
func (c *Cluster) PrintStatus(ctx context.Context, w io.Writer) error {
	state := c.State()
	lines := []string{
		fmt.Sprintf("%s:", c.Name),
		fmt.Sprintf("  state: %s", state),
		fmt.Sprintf("  node-count: %d", len(c.Workers)+1),
	}

	if state == StateRunning {
		master, err := c.MasterHost(ctx)
		if err != nil {
			return err
		}
		workers, err := c.WorkerHosts(ctx)
		if err != nil {
			return err
		}
		lines = append(lines, fmt.Sprintf("  master: %s", master), "  workers:")
		for _, host := range workers {
			lines = append(lines, fmt.Sprintf("    - %s", host))
		}
	}

	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// sortClusters orders clusters by name.
func sortClusters(clusters []*Cluster) {
	slices.SortFunc(clusters, func(a, b *Cluster) int {
		return cmp.Compare(a.Name, b.Name)
	})
}
