package compute

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/containerd/errdefs"
	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/sparkfleet/internal/cluster"
	"github.com/imamik/sparkfleet/internal/config"
	ec2util "github.com/imamik/sparkfleet/internal/platform/ec2"
	"github.com/imamik/sparkfleet/internal/provisioning"
	"github.com/imamik/sparkfleet/internal/util/tags"
	"github.com/imamik/sparkfleet/pkg/cloud/fakes"
)

func createTestContext(t *testing.T, fake *fakes.EC2, workers int) *provisioning.Context {
	t.Helper()
	fake.AddEBSImage("ami-12345678", 8, false)

	cfg := &config.Config{ClusterName: "spark"}
	cfg.Provider.EC2.AMI = "ami-12345678"
	cfg.Provider.EC2.InstanceType = "m5.large"
	cfg.Provider.EC2.KeyName = "ops"
	cfg.Launch.NumWorkers = workers

	ctx := provisioning.NewContext(context.Background(), cfg, fake, logr.Discard())
	ctx.Timeouts = config.TestTimeouts()
	ctx.State.VPCID = "vpc-default"

	for _, name := range []string{"sparkfleet", "sparkfleet-spark"} {
		out, err := fake.CreateSecurityGroup(context.Background(), &ec2.CreateSecurityGroupInput{
			GroupName:   aws.String(name),
			Description: aws.String(name),
			VpcId:       aws.String("vpc-default"),
		})
		require.NoError(t, err)
		if name == "sparkfleet" {
			ctx.State.BaseGroupID = aws.ToString(out.GroupId)
		} else {
			ctx.State.ClusterGroupID = aws.ToString(out.GroupId)
		}
	}
	return ctx
}

func roleOf(fake *fakes.EC2, id string) string {
	return ec2util.TagValue(fake.Instances[id].Tags, tags.KeyRole)
}

func TestProvisioner_Name(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "compute", NewProvisioner().Name())
}

func TestProvisioner_OnDemand(t *testing.T) {
	t.Parallel()
	fake := fakes.NewEC2()
	ctx := createTestContext(t, fake, 2)
	ctx.Config.Provider.EC2.Tags = map[string]string{"team": "data", tags.KeyName: "ignored"}

	require.NoError(t, NewProvisioner().Provision(ctx))

	ids := ctx.State.InstanceIDs
	require.Len(t, ids, 3)
	assert.Equal(t, 1, fake.CallCount("RunInstances"))
	assert.Equal(t, 2, fake.CallCount("CreateTags"))
	assert.Equal(t, tags.RoleMaster, roleOf(fake, ids[0]))
	assert.Equal(t, tags.RoleWorker, roleOf(fake, ids[1]))
	assert.Equal(t, tags.RoleWorker, roleOf(fake, ids[2]))
	assert.Equal(t, "spark-master", ec2util.TagValue(fake.Instances[ids[0]].Tags, tags.KeyName))
	assert.Equal(t, "data", ec2util.TagValue(fake.Instances[ids[2]].Tags, "team"))
	assert.Equal(t, []string{"terminate instances"}, ctx.Rollback.Names())

	require.NoError(t, ctx.Rollback.Run(context.Background(), ctx.Observer))
	assert.Empty(t, fake.LiveInstanceIDs())
}

func TestProvisioner_OnDemandImageMissing(t *testing.T) {
	t.Parallel()
	fake := fakes.NewEC2()
	ctx := createTestContext(t, fake, 1)
	ctx.Config.Provider.EC2.AMI = "ami-00000000"

	err := NewProvisioner().Provision(ctx)
	require.Error(t, err)
	assert.True(t, ec2util.IsImageNotFound(err))
	assert.Zero(t, ctx.Rollback.Len())
}

func TestProvisioner_Spot(t *testing.T) {
	t.Parallel()
	fake := fakes.NewEC2()
	fake.SpotOpenPolls = 2
	ctx := createTestContext(t, fake, 2)
	ctx.Config.Provider.EC2.SpotPrice = 0.05

	require.NoError(t, NewProvisioner().Provision(ctx))

	assert.Len(t, ctx.State.SpotRequestIDs, 3)
	require.Len(t, ctx.State.InstanceIDs, 3)
	assert.Equal(t, 1, fake.CallCount("RequestSpotInstances"))
	assert.Zero(t, fake.CallCount("RunInstances"))
	assert.Equal(t, 3, fake.CallCount("DescribeSpotInstanceRequests"))
	assert.Equal(t, tags.RoleMaster, roleOf(fake, ctx.State.InstanceIDs[0]))
	assert.Equal(t, []string{"cancel spot requests", "terminate spot instances"}, ctx.Rollback.Names())
	assert.Equal(t, "0.05", aws.ToString(fake.SpotRequests[ctx.State.SpotRequestIDs[0]].SpotPrice))
}

func TestProvisioner_SpotFailure(t *testing.T) {
	t.Parallel()
	fake := fakes.NewEC2()
	fake.SpotFailures[1] = "capacity-not-available"
	fake.SpotFailures[2] = "capacity-not-available"
	ctx := createTestContext(t, fake, 2)
	ctx.Config.Provider.EC2.SpotPrice = 0.05

	err := NewProvisioner().Provision(ctx)
	require.Error(t, err)

	var failed *SpotRequestFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, []string{"capacity-not-available"}, failed.Reasons)
	assert.True(t, errdefs.IsUnavailable(err))

	// The one granted request still produced an instance.
	require.Len(t, fake.LiveInstanceIDs(), 1)
	require.NoError(t, ctx.Rollback.Run(context.Background(), ctx.Observer))
	assert.Empty(t, fake.LiveInstanceIDs())
	assert.Len(t, ctx.State.InstanceIDs, 1)
	assert.Equal(t, 1, fake.CallCount("TerminateInstances"))
}

func TestProvisioner_SpotTimeout(t *testing.T) {
	t.Parallel()
	fake := fakes.NewEC2()
	fake.SpotOpenPolls = 1 << 20
	ctx := createTestContext(t, fake, 1)
	ctx.Config.Provider.EC2.SpotPrice = 0.1
	ctx.Timeouts.SpotGrant = 20 * time.Millisecond

	err := NewProvisioner().Provision(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, cluster.ErrTimeout)

	require.NoError(t, ctx.Rollback.Run(context.Background(), ctx.Observer))
	for _, id := range ctx.State.SpotRequestIDs {
		assert.Equal(t, types.SpotInstanceStateCancelled, fake.SpotRequests[id].State)
	}
	assert.Zero(t, fake.CallCount("TerminateInstances"))
}

func TestRollback_Confirmation(t *testing.T) {
	t.Parallel()

	t.Run("declined keeps instances", func(t *testing.T) {
		t.Parallel()
		fake := fakes.NewEC2()
		ctx := createTestContext(t, fake, 1)
		ctx.Confirm = func(context.Context, string) (bool, error) { return false, nil }

		_, err := AcquireOnDemand(ctx, 2)
		require.NoError(t, err)

		err = ctx.Rollback.Run(context.Background(), ctx.Observer)
		assert.ErrorIs(t, err, provisioning.ErrRollbackDeclined)
		assert.Zero(t, fake.CallCount("TerminateInstances"))
		assert.Len(t, fake.LiveInstanceIDs(), 2)
	})

	t.Run("prompt error aborts termination", func(t *testing.T) {
		t.Parallel()
		fake := fakes.NewEC2()
		ctx := createTestContext(t, fake, 1)
		ctx.Confirm = func(context.Context, string) (bool, error) { return false, errors.New("no tty") }

		_, err := AcquireOnDemand(ctx, 2)
		require.NoError(t, err)

		err = ctx.Rollback.Run(context.Background(), ctx.Observer)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no tty")
		assert.Zero(t, fake.CallCount("TerminateInstances"))
	})

	t.Run("assume yes skips the prompt", func(t *testing.T) {
		t.Parallel()
		fake := fakes.NewEC2()
		ctx := createTestContext(t, fake, 1)
		ctx.Config.Launch.AssumeYes = true
		ctx.Confirm = func(context.Context, string) (bool, error) {
			t.Error("confirm must not be called")
			return false, nil
		}

		_, err := AcquireOnDemand(ctx, 2)
		require.NoError(t, err)

		require.NoError(t, ctx.Rollback.Run(context.Background(), ctx.Observer))
		assert.Equal(t, 1, fake.CallCount("TerminateInstances"))
	})
}

func TestSettle(t *testing.T) {
	t.Parallel()

	t.Run("waits for hidden instances", func(t *testing.T) {
		t.Parallel()
		fake := fakes.NewEC2()
		fake.HiddenDescribes = 2
		ctx := createTestContext(t, fake, 1)

		ids, err := AcquireOnDemand(ctx, 2)
		require.NoError(t, err)
		require.NoError(t, Settle(ctx, ids))
		assert.Equal(t, 3, fake.CallCount("DescribeInstances"))
	})

	t.Run("not found counts as not ready", func(t *testing.T) {
		t.Parallel()
		fake := fakes.NewEC2()
		ctx := createTestContext(t, fake, 1)
		ctx.Timeouts.RetryMaxAttempts = 2
		fake.Errors["DescribeInstances"] = fakes.APIError("InvalidInstanceID.NotFound", "not yet")

		err := Settle(ctx, []string{"i-missing"})
		assert.ErrorIs(t, err, cluster.ErrTimeout)
		assert.Equal(t, 3, fake.CallCount("DescribeInstances"))
	})

	t.Run("other errors abort", func(t *testing.T) {
		t.Parallel()
		fake := fakes.NewEC2()
		ctx := createTestContext(t, fake, 1)
		fake.Errors["DescribeInstances"] = fakes.APIError("UnauthorizedOperation", "denied")

		err := Settle(ctx, []string{"i-any"})
		require.Error(t, err)
		assert.Equal(t, "UnauthorizedOperation", ec2util.ErrorCode(err))
		assert.Equal(t, 1, fake.CallCount("DescribeInstances"))
	})
}

func TestRequestInputs(t *testing.T) {
	t.Parallel()
	fake := fakes.NewEC2()
	ctx := createTestContext(t, fake, 1)

	in := runInstancesInput(ctx, 2)
	assert.Nil(t, in.Placement)
	assert.Nil(t, in.SubnetId)
	assert.Nil(t, in.UserData)
	assert.Equal(t, int32(2), aws.ToInt32(in.MinCount))
	assert.Equal(t, int32(2), aws.ToInt32(in.MaxCount))
	assert.Equal(t, []string{ctx.State.BaseGroupID, ctx.State.ClusterGroupID}, in.SecurityGroupIds)
	assert.NotEqual(t, aws.ToString(in.ClientToken), aws.ToString(runInstancesInput(ctx, 2).ClientToken))

	ctx.Config.Provider.EC2.AvailabilityZone = "us-east-1a"
	ctx.Config.Provider.EC2.UserData = "#!/bin/sh\necho hi\n"
	ctx.Config.Provider.EC2.SpotPrice = 0.125
	in = runInstancesInput(ctx, 2)
	require.NotNil(t, in.Placement)
	assert.Equal(t, "us-east-1a", aws.ToString(in.Placement.AvailabilityZone))
	assert.Nil(t, in.Placement.GroupName)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("#!/bin/sh\necho hi\n")), aws.ToString(in.UserData))

	spot := spotRequestInput(ctx, 2)
	assert.Equal(t, "0.125", aws.ToString(spot.SpotPrice))
	assert.Equal(t, types.SpotInstanceTypeOneTime, spot.Type)
	assert.Equal(t, int32(2), aws.ToInt32(spot.InstanceCount))
	assert.Equal(t, "us-east-1a", aws.ToString(spot.LaunchSpecification.Placement.AvailabilityZone))
}
