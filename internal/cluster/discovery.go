package cluster

import (
	"context"
	"fmt"
	"slices"

	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/go-logr/logr"

	ec2util "github.com/imamik/sparkfleet/internal/platform/ec2"
	"github.com/imamik/sparkfleet/internal/util/naming"
	"github.com/imamik/sparkfleet/pkg/cloud"
)

// liveStates are the instance states discovery considers part of a cluster.
var liveStates = []string{
	string(StatePending),
	string(StateRunning),
	string(StateShuttingDown),
	string(StateStopping),
	string(StateStopped),
}

// Discoverer finds clusters from EC2 inventory.
type Discoverer struct {
	api    cloud.EC2API
	region string
	logger logr.Logger
}

// NewDiscoverer creates a Discoverer for one region.
func NewDiscoverer(api cloud.EC2API, region string, logger logr.Logger) *Discoverer {
	return &Discoverer{api: api, region: region, logger: logger}
}

// GetClusters returns the named clusters, or every cluster in the VPC when
// names is empty, sorted by name. An empty vpcID means the default VPC.
// A requested name without live instances fails with a NotFoundError.
func (d *Discoverer) GetClusters(ctx context.Context, names []string, vpcID string) ([]*Cluster, error) {
	vpcID, err := d.resolveVPC(ctx, vpcID)
	if err != nil {
		return nil, err
	}

	groups := []string{naming.BaseGroup()}
	if len(names) > 0 {
		groups = groups[:0]
		for _, name := range names {
			groups = append(groups, naming.ClusterGroup(name))
		}
	}

	instances, err := ec2util.DescribeInstancesAll(ctx, d.api, &ec2.DescribeInstancesInput{
		Filters: []types.Filter{
			ec2util.Filter("instance.group-name", groups...),
			ec2util.Filter("vpc-id", vpcID),
			ec2util.Filter("instance-state-name", liveStates...),
		},
	})
	if err != nil {
		return nil, err
	}

	partitions := partition(FromEC2List(instances))
	d.logger.V(1).Info("discovered instances", "vpc", vpcID, "instances", len(instances), "clusters", len(partitions))

	if len(names) > 0 {
		for _, name := range names {
			if _, ok := partitions[name]; !ok {
				return nil, &NotFoundError{Name: name, VPCID: vpcID}
			}
		}
	}

	clusters := make([]*Cluster, 0, len(partitions))
	for name, members := range partitions {
		if len(names) > 0 && !slices.Contains(names, name) {
			continue
		}
		c, err := Classify(name, d.region, vpcID, members)
		if err != nil {
			return nil, err
		}
		clusters = append(clusters, c.WithNetwork(d.api))
	}
	sortClusters(clusters)
	return clusters, nil
}

// GetCluster returns exactly one named cluster.
func (d *Discoverer) GetCluster(ctx context.Context, name, vpcID string) (*Cluster, error) {
	clusters, err := d.GetClusters(ctx, []string{name}, vpcID)
	if err != nil {
		return nil, err
	}
	if len(clusters) != 1 {
		return nil, fmt.Errorf("expected one cluster named %q, found %d", name, len(clusters))
	}
	return clusters[0], nil
}

func (d *Discoverer) resolveVPC(ctx context.Context, vpcID string) (string, error) {
	if vpcID != "" {
		return vpcID, nil
	}
	return DefaultVPC(ctx, d.api, d.region)
}

// partition groups instances by the cluster named in their cluster security
// group membership.
func partition(instances []Instance) map[string][]Instance {
	out := make(map[string][]Instance)
	for _, inst := range instances {
		for _, g := range inst.Groups {
			if name, ok := naming.ClusterFromGroup(g); ok {
				out[name] = append(out[name], inst)
				break
			}
		}
	}
	return out
}
