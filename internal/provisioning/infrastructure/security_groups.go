package infrastructure

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/imamik/sparkfleet/internal/cluster"
	"github.com/imamik/sparkfleet/internal/provisioning"
	ec2util "github.com/imamik/sparkfleet/internal/platform/ec2"
	"github.com/imamik/sparkfleet/internal/util/naming"
	"github.com/imamik/sparkfleet/pkg/cloud"
)

// PortRange is an inclusive TCP port range.
type PortRange struct {
	From int32
	To   int32
}

// ClientPorts are opened on the base group for every client address:
// SSH, the web UIs, the application UI, the cluster manager, the REST
// submission server and the HDFS UI.
var ClientPorts = []PortRange{
	{22, 22},
	{8080, 8081},
	{4040, 4040},
	{7077, 7077},
	{6066, 6066},
	{50070, 50070},
}

// SecurityGroups are the two groups attached to every instance of a cluster.
type SecurityGroups struct {
	Base    string
	Cluster string

	BaseCreated    bool
	ClusterCreated bool
}

// IDs returns the group ids in attachment order.
func (g *SecurityGroups) IDs() []string {
	return []string{g.Base, g.Cluster}
}

// Options tune EnsureSecurityGroups.
type Options struct {
	// Exclusive makes a concurrent creation of the cluster group an
	// AlreadyExistsError instead of a reuse.
	Exclusive bool
}

// EnsureSecurityGroups looks up or creates the base and cluster groups in
// vpcID and authorizes their rules. Calling it again for the same cluster
// returns the same group ids.
func EnsureSecurityGroups(ctx context.Context, api cloud.SecurityGroupClient, vpcID, clusterName string, clientCIDRs []string, opts Options, observer provisioning.Observer) (*SecurityGroups, error) {
	groups := &SecurityGroups{}

	baseName := naming.BaseGroup()
	base, created, err := ensureGroup(ctx, api, vpcID, baseName, "sparkfleet base group", false, observer)
	if err != nil {
		return nil, err
	}
	groups.Base, groups.BaseCreated = base, created

	for _, cidr := range clientCIDRs {
		for _, ports := range ClientPorts {
			err := authorize(ctx, api, &ec2.AuthorizeSecurityGroupIngressInput{
				GroupId:    aws.String(base),
				IpProtocol: aws.String("tcp"),
				FromPort:   aws.Int32(ports.From),
				ToPort:     aws.Int32(ports.To),
				CidrIp:     aws.String(cidr),
			})
			if err != nil {
				return nil, fmt.Errorf("failed to authorize tcp %d-%d from %s on %s: %w", ports.From, ports.To, cidr, baseName, err)
			}
		}
	}

	clusterGroup := naming.ClusterGroup(clusterName)
	id, created, err := ensureGroup(ctx, api, vpcID, clusterGroup, "sparkfleet cluster group", opts.Exclusive, observer)
	if err != nil {
		return nil, err
	}
	groups.Cluster, groups.ClusterCreated = id, created

	err = authorize(ctx, api, &ec2.AuthorizeSecurityGroupIngressInput{
		GroupId: aws.String(id),
		IpPermissions: []types.IpPermission{{
			IpProtocol:       aws.String("-1"),
			FromPort:         aws.Int32(-1),
			ToPort:           aws.Int32(-1),
			UserIdGroupPairs: []types.UserIdGroupPair{{GroupId: aws.String(id)}},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to authorize cluster ingress to self on %s: %w", clusterGroup, err)
	}

	return groups, nil
}

// ensureGroup returns the id of the named group, creating it when absent.
// created reports whether this call created it.
func ensureGroup(ctx context.Context, api cloud.SecurityGroupClient, vpcID, name, description string, exclusive bool, observer provisioning.Observer) (id string, created bool, err error) {
	id, err = lookupGroup(ctx, api, vpcID, name)
	if err != nil {
		return "", false, err
	}
	if id != "" {
		provisioning.LogResourceExists(observer, phase, "security group", name, id)
		return id, false, nil
	}

	provisioning.LogResourceCreating(observer, phase, "security group", name)
	out, err := api.CreateSecurityGroup(ctx, &ec2.CreateSecurityGroupInput{
		GroupName:   aws.String(name),
		Description: aws.String(description),
		VpcId:       aws.String(vpcID),
	})
	switch {
	case err == nil:
		id = aws.ToString(out.GroupId)
		provisioning.LogResourceCreated(observer, phase, "security group", name, id)
		return id, true, nil
	case ec2util.IsDuplicateGroup(err) && exclusive:
		// Another launch created the group between our lookup and create.
		clusterName, _ := naming.ClusterFromGroup(name)
		return "", false, &cluster.AlreadyExistsError{Name: clusterName, VPCID: vpcID}
	case ec2util.IsDuplicateGroup(err):
		id, err = lookupGroup(ctx, api, vpcID, name)
		if err != nil {
			return "", false, err
		}
		if id == "" {
			return "", false, fmt.Errorf("security group %s reported as duplicate but not found in %s", name, vpcID)
		}
		provisioning.LogResourceExists(observer, phase, "security group", name, id)
		return id, false, nil
	default:
		return "", false, fmt.Errorf("failed to create security group %s: %w", name, err)
	}
}

func lookupGroup(ctx context.Context, api cloud.SecurityGroupClient, vpcID, name string) (string, error) {
	out, err := api.DescribeSecurityGroups(ctx, &ec2.DescribeSecurityGroupsInput{
		Filters: []types.Filter{
			ec2util.Filter("group-name", name),
			ec2util.Filter("vpc-id", vpcID),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to describe security group %s: %w", name, err)
	}
	if len(out.SecurityGroups) == 0 {
		return "", nil
	}
	return aws.ToString(out.SecurityGroups[0].GroupId), nil
}

// authorize adds one ingress rule, ignoring rules that already exist.
func authorize(ctx context.Context, api cloud.SecurityGroupClient, in *ec2.AuthorizeSecurityGroupIngressInput) error {
	_, err := api.AuthorizeSecurityGroupIngress(ctx, in)
	if err != nil && !ec2util.IsDuplicatePermission(err) {
		return err
	}
	return nil
}
