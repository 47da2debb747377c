package ec2

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/go-logr/logr"

	"github.com/imamik/sparkfleet/internal/metrics"
	"github.com/imamik/sparkfleet/pkg/cloud"
)

// InstrumentedClient records metrics and debug logs for every EC2 call.
type InstrumentedClient struct {
	api    cloud.EC2API
	logger logr.Logger
}

var _ cloud.EC2API = (*InstrumentedClient)(nil)

// NewInstrumentedClient wraps api.
func NewInstrumentedClient(api cloud.EC2API, logger logr.Logger) *InstrumentedClient {
	return &InstrumentedClient{api: api, logger: logger}
}

func call[I, O any](ctx context.Context, c *InstrumentedClient, op string, in *I, optFns []func(*ec2.Options),
	fn func(context.Context, *I, ...func(*ec2.Options)) (*O, error),
) (*O, error) {
	start := time.Now()
	out, err := fn(ctx, in, optFns...)
	latency := time.Since(start)

	result := "success"
	if err != nil {
		result = "error"
		if code := ErrorCode(err); code != "" {
			result = code
		}
	}
	metrics.RecordProviderCall(op, result, latency.Seconds())
	c.logger.V(2).Info("ec2 call", "operation", op, "result", result, "latency", latency.Round(time.Millisecond))
	return out, err
}

func (c *InstrumentedClient) RunInstances(ctx context.Context, in *ec2.RunInstancesInput, optFns ...func(*ec2.Options)) (*ec2.RunInstancesOutput, error) {
	return call(ctx, c, "RunInstances", in, optFns, c.api.RunInstances)
}

func (c *InstrumentedClient) DescribeInstances(ctx context.Context, in *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
	return call(ctx, c, "DescribeInstances", in, optFns, c.api.DescribeInstances)
}

func (c *InstrumentedClient) CreateTags(ctx context.Context, in *ec2.CreateTagsInput, optFns ...func(*ec2.Options)) (*ec2.CreateTagsOutput, error) {
	return call(ctx, c, "CreateTags", in, optFns, c.api.CreateTags)
}

func (c *InstrumentedClient) TerminateInstances(ctx context.Context, in *ec2.TerminateInstancesInput, optFns ...func(*ec2.Options)) (*ec2.TerminateInstancesOutput, error) {
	return call(ctx, c, "TerminateInstances", in, optFns, c.api.TerminateInstances)
}

func (c *InstrumentedClient) StartInstances(ctx context.Context, in *ec2.StartInstancesInput, optFns ...func(*ec2.Options)) (*ec2.StartInstancesOutput, error) {
	return call(ctx, c, "StartInstances", in, optFns, c.api.StartInstances)
}

func (c *InstrumentedClient) StopInstances(ctx context.Context, in *ec2.StopInstancesInput, optFns ...func(*ec2.Options)) (*ec2.StopInstancesOutput, error) {
	return call(ctx, c, "StopInstances", in, optFns, c.api.StopInstances)
}

func (c *InstrumentedClient) ModifyInstanceAttribute(ctx context.Context, in *ec2.ModifyInstanceAttributeInput, optFns ...func(*ec2.Options)) (*ec2.ModifyInstanceAttributeOutput, error) {
	return call(ctx, c, "ModifyInstanceAttribute", in, optFns, c.api.ModifyInstanceAttribute)
}

func (c *InstrumentedClient) DescribeSecurityGroups(ctx context.Context, in *ec2.DescribeSecurityGroupsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeSecurityGroupsOutput, error) {
	return call(ctx, c, "DescribeSecurityGroups", in, optFns, c.api.DescribeSecurityGroups)
}

func (c *InstrumentedClient) CreateSecurityGroup(ctx context.Context, in *ec2.CreateSecurityGroupInput, optFns ...func(*ec2.Options)) (*ec2.CreateSecurityGroupOutput, error) {
	return call(ctx, c, "CreateSecurityGroup", in, optFns, c.api.CreateSecurityGroup)
}

func (c *InstrumentedClient) AuthorizeSecurityGroupIngress(ctx context.Context, in *ec2.AuthorizeSecurityGroupIngressInput, optFns ...func(*ec2.Options)) (*ec2.AuthorizeSecurityGroupIngressOutput, error) {
	return call(ctx, c, "AuthorizeSecurityGroupIngress", in, optFns, c.api.AuthorizeSecurityGroupIngress)
}

func (c *InstrumentedClient) DeleteSecurityGroup(ctx context.Context, in *ec2.DeleteSecurityGroupInput, optFns ...func(*ec2.Options)) (*ec2.DeleteSecurityGroupOutput, error) {
	return call(ctx, c, "DeleteSecurityGroup", in, optFns, c.api.DeleteSecurityGroup)
}

func (c *InstrumentedClient) RequestSpotInstances(ctx context.Context, in *ec2.RequestSpotInstancesInput, optFns ...func(*ec2.Options)) (*ec2.RequestSpotInstancesOutput, error) {
	return call(ctx, c, "RequestSpotInstances", in, optFns, c.api.RequestSpotInstances)
}

func (c *InstrumentedClient) DescribeSpotInstanceRequests(ctx context.Context, in *ec2.DescribeSpotInstanceRequestsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeSpotInstanceRequestsOutput, error) {
	return call(ctx, c, "DescribeSpotInstanceRequests", in, optFns, c.api.DescribeSpotInstanceRequests)
}

func (c *InstrumentedClient) CancelSpotInstanceRequests(ctx context.Context, in *ec2.CancelSpotInstanceRequestsInput, optFns ...func(*ec2.Options)) (*ec2.CancelSpotInstanceRequestsOutput, error) {
	return call(ctx, c, "CancelSpotInstanceRequests", in, optFns, c.api.CancelSpotInstanceRequests)
}

func (c *InstrumentedClient) DescribeImages(ctx context.Context, in *ec2.DescribeImagesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeImagesOutput, error) {
	return call(ctx, c, "DescribeImages", in, optFns, c.api.DescribeImages)
}

func (c *InstrumentedClient) DescribeVpcs(ctx context.Context, in *ec2.DescribeVpcsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeVpcsOutput, error) {
	return call(ctx, c, "DescribeVpcs", in, optFns, c.api.DescribeVpcs)
}

func (c *InstrumentedClient) DescribeVpcAttribute(ctx context.Context, in *ec2.DescribeVpcAttributeInput, optFns ...func(*ec2.Options)) (*ec2.DescribeVpcAttributeOutput, error) {
	return call(ctx, c, "DescribeVpcAttribute", in, optFns, c.api.DescribeVpcAttribute)
}

func (c *InstrumentedClient) DescribeSubnets(ctx context.Context, in *ec2.DescribeSubnetsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeSubnetsOutput, error) {
	return call(ctx, c, "DescribeSubnets", in, optFns, c.api.DescribeSubnets)
}
