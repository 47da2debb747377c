package compute

import (
	"encoding/base64"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/google/uuid"

	"github.com/imamik/sparkfleet/internal/provisioning"
)

// runInstancesInput builds the on-demand request for count instances.
// Min and Max are equal so the batch is all or nothing.
func runInstancesInput(ctx *provisioning.Context, count int32) *ec2.RunInstancesInput {
	cfg := ctx.Config.Provider.EC2
	in := &ec2.RunInstancesInput{
		ClientToken:         aws.String(uuid.NewString()),
		ImageId:             aws.String(cfg.AMI),
		InstanceType:        types.InstanceType(cfg.InstanceType),
		KeyName:             aws.String(cfg.KeyName),
		MinCount:            aws.Int32(count),
		MaxCount:            aws.Int32(count),
		SecurityGroupIds:    []string{ctx.State.BaseGroupID, ctx.State.ClusterGroupID},
		BlockDeviceMappings: ctx.State.BlockDevices,
		EbsOptimized:        aws.Bool(cfg.EBSOptimized),
	}
	if cfg.SubnetID != "" {
		in.SubnetId = aws.String(cfg.SubnetID)
	}
	if cfg.AvailabilityZone != "" || cfg.PlacementGroup != "" || cfg.Tenancy != "" {
		in.Placement = &types.Placement{
			AvailabilityZone: optional(cfg.AvailabilityZone),
			GroupName:        optional(cfg.PlacementGroup),
			Tenancy:          types.Tenancy(cfg.Tenancy),
		}
	}
	if cfg.InstanceProfileName != "" {
		in.IamInstanceProfile = &types.IamInstanceProfileSpecification{Name: aws.String(cfg.InstanceProfileName)}
	}
	if cfg.ShutdownBehavior != "" {
		in.InstanceInitiatedShutdownBehavior = types.ShutdownBehavior(cfg.ShutdownBehavior)
	}
	if cfg.UserData != "" {
		in.UserData = aws.String(base64.StdEncoding.EncodeToString([]byte(cfg.UserData)))
	}
	return in
}

// spotRequestInput builds the one-time spot request for count instances.
func spotRequestInput(ctx *provisioning.Context, count int32) *ec2.RequestSpotInstancesInput {
	cfg := ctx.Config.Provider.EC2
	spec := &types.RequestSpotLaunchSpecification{
		ImageId:             aws.String(cfg.AMI),
		InstanceType:        types.InstanceType(cfg.InstanceType),
		KeyName:             aws.String(cfg.KeyName),
		SecurityGroupIds:    []string{ctx.State.BaseGroupID, ctx.State.ClusterGroupID},
		BlockDeviceMappings: ctx.State.BlockDevices,
		EbsOptimized:        aws.Bool(cfg.EBSOptimized),
	}
	if cfg.SubnetID != "" {
		spec.SubnetId = aws.String(cfg.SubnetID)
	}
	if cfg.AvailabilityZone != "" || cfg.PlacementGroup != "" || cfg.Tenancy != "" {
		spec.Placement = &types.SpotPlacement{
			AvailabilityZone: optional(cfg.AvailabilityZone),
			GroupName:        optional(cfg.PlacementGroup),
			Tenancy:          types.Tenancy(cfg.Tenancy),
		}
	}
	if cfg.InstanceProfileName != "" {
		spec.IamInstanceProfile = &types.IamInstanceProfileSpecification{Name: aws.String(cfg.InstanceProfileName)}
	}
	if cfg.UserData != "" {
		spec.UserData = aws.String(base64.StdEncoding.EncodeToString([]byte(cfg.UserData)))
	}

	return &ec2.RequestSpotInstancesInput{
		ClientToken:         aws.String(uuid.NewString()),
		InstanceCount:       aws.Int32(count),
		SpotPrice:           aws.String(strconv.FormatFloat(cfg.SpotPrice, 'f', -1, 64)),
		Type:                types.SpotInstanceTypeOneTime,
		LaunchSpecification: spec,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return aws.String(s)
}
