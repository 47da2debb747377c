package cluster

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	ec2util "github.com/imamik/sparkfleet/internal/platform/ec2"
	"github.com/imamik/sparkfleet/pkg/cloud"
)

// DefaultVPC returns the id of the region's default VPC.
func DefaultVPC(ctx context.Context, api cloud.NetworkClient, region string) (string, error) {
	out, err := api.DescribeVpcs(ctx, &ec2.DescribeVpcsInput{
		Filters: []types.Filter{ec2util.Filter("isDefault", "true")},
	})
	if err != nil {
		return "", fmt.Errorf("failed to describe VPCs: %w", err)
	}
	if len(out.Vpcs) == 0 {
		return "", &NoDefaultVPCError{Region: region}
	}
	return aws.ToString(out.Vpcs[0].VpcId), nil
}

// CheckNetworkConfig verifies that a VPC gives instances DNS hostnames,
// which sparkfleet relies on to address nodes.
func CheckNetworkConfig(ctx context.Context, api cloud.NetworkClient, vpcID string) error {
	out, err := api.DescribeVpcAttribute(ctx, &ec2.DescribeVpcAttributeInput{
		VpcId:     aws.String(vpcID),
		Attribute: types.VpcAttributeNameEnableDnsHostnames,
	})
	if err != nil {
		return fmt.Errorf("failed to describe VPC %s: %w", vpcID, err)
	}
	if out.EnableDnsHostnames == nil || !aws.ToBool(out.EnableDnsHostnames.Value) {
		return &ConfigurationNotSupportedError{
			Message: fmt.Sprintf("VPC %s does not have DNS hostnames enabled; enable it with: "+
				"aws ec2 modify-vpc-attribute --vpc-id %s --enable-dns-hostnames", vpcID, vpcID),
		}
	}
	return nil
}

// ResolveVPC returns vpcID after checking it, or the default VPC when vpcID
// is empty.
func ResolveVPC(ctx context.Context, api cloud.NetworkClient, region, vpcID string) (string, error) {
	if vpcID == "" {
		return DefaultVPC(ctx, api, region)
	}
	if err := CheckNetworkConfig(ctx, api, vpcID); err != nil {
		return "", err
	}
	return vpcID, nil
}
