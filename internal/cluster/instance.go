package cluster

import (
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	ec2util "github.com/imamik/sparkfleet/internal/platform/ec2"
	"github.com/imamik/sparkfleet/internal/util/tags"
)

// Instance is a snapshot of one EC2 instance as sparkfleet sees it.
type Instance struct {
	ID         string
	State      State
	Role       string
	Name       string
	PublicIP   string
	PrivateIP  string
	PublicDNS  string
	PrivateDNS string
	SubnetID   string
	VPCID      string
	Groups     []string
	LaunchTime time.Time
}

// FromEC2 converts an SDK instance.
func FromEC2(in types.Instance) Instance {
	inst := Instance{
		ID:         aws.ToString(in.InstanceId),
		Role:       ec2util.TagValue(in.Tags, tags.KeyRole),
		Name:       ec2util.TagValue(in.Tags, tags.KeyName),
		PublicIP:   aws.ToString(in.PublicIpAddress),
		PrivateIP:  aws.ToString(in.PrivateIpAddress),
		PublicDNS:  aws.ToString(in.PublicDnsName),
		PrivateDNS: aws.ToString(in.PrivateDnsName),
		SubnetID:   aws.ToString(in.SubnetId),
		VPCID:      aws.ToString(in.VpcId),
		LaunchTime: aws.ToTime(in.LaunchTime),
	}
	if in.State != nil {
		inst.State = State(in.State.Name)
	}
	for _, g := range in.SecurityGroups {
		inst.Groups = append(inst.Groups, aws.ToString(g.GroupName))
	}
	return inst
}

// FromEC2List converts a list of SDK instances.
func FromEC2List(in []types.Instance) []Instance {
	out := make([]Instance, 0, len(in))
	for _, i := range in {
		out = append(out, FromEC2(i))
	}
	return out
}
