package cluster

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/containerd/errdefs"
	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/sparkfleet/internal/util/tags"
	"github.com/imamik/sparkfleet/pkg/cloud/fakes"
)

func TestGetClusters(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("all clusters sorted by name", func(t *testing.T) {
		t.Parallel()
		fake := fakes.NewEC2()
		seedCluster(t, fake, "zeta", 1, types.InstanceStateNameRunning)
		seedCluster(t, fake, "alpha", 2, types.InstanceStateNameStopped)

		clusters, err := NewDiscoverer(fake, "us-east-1", logr.Discard()).GetClusters(ctx, nil, "")
		require.NoError(t, err)
		require.Len(t, clusters, 2)
		assert.Equal(t, "alpha", clusters[0].Name)
		assert.Len(t, clusters[0].Workers, 2)
		assert.Equal(t, StateStopped, clusters[0].State())
		assert.Equal(t, "zeta", clusters[1].Name)
		assert.Equal(t, "vpc-default", clusters[1].VPCID)
		assert.Equal(t, 1, fake.CallCount("DescribeInstances"))
	})

	t.Run("named subset", func(t *testing.T) {
		t.Parallel()
		fake := fakes.NewEC2()
		seedCluster(t, fake, "a", 1, types.InstanceStateNameRunning)
		seedCluster(t, fake, "b", 3, types.InstanceStateNameRunning)

		clusters, err := NewDiscoverer(fake, "us-east-1", logr.Discard()).GetClusters(ctx, []string{"b"}, "vpc-default")
		require.NoError(t, err)
		require.Len(t, clusters, 1)
		assert.Equal(t, "b", clusters[0].Name)
		assert.Equal(t, "i-b-0", clusters[0].Master.ID)
		assert.Len(t, clusters[0].Workers, 3)
		assert.Zero(t, fake.CallCount("DescribeVpcs"))
	})

	t.Run("missing name fails naming it", func(t *testing.T) {
		t.Parallel()
		fake := fakes.NewEC2()
		seedCluster(t, fake, "present", 1, types.InstanceStateNameRunning)

		_, err := NewDiscoverer(fake, "us-east-1", logr.Discard()).GetClusters(ctx, []string{"present", "absent"}, "")
		var nf *NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, "absent", nf.Name)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.True(t, errdefs.IsNotFound(err))
	})

	t.Run("terminated instances are excluded", func(t *testing.T) {
		t.Parallel()
		fake := fakes.NewEC2()
		seedCluster(t, fake, "gone", 1, types.InstanceStateNameTerminated)

		_, err := NewDiscoverer(fake, "us-east-1", logr.Discard()).GetCluster(ctx, "gone", "")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("other vpc is out of scope", func(t *testing.T) {
		t.Parallel()
		fake := fakes.NewEC2()
		fake.AddVPC("vpc-other", false, true)
		seedCluster(t, fake, "spark", 1, types.InstanceStateNameRunning)

		_, err := NewDiscoverer(fake, "us-east-1", logr.Discard()).GetCluster(ctx, "spark", "vpc-other")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("two masters is inconsistent", func(t *testing.T) {
		t.Parallel()
		fake := fakes.NewEC2()
		ids := seedCluster(t, fake, "spark", 2, types.InstanceStateNameRunning)
		fake.Instances[ids[1]].Tags = tags.NewBuilder("spark").WithRole(tags.RoleMaster).EC2()

		_, err := NewDiscoverer(fake, "us-east-1", logr.Discard()).GetCluster(ctx, "spark", "")
		var ice *InconsistentClusterError
		require.ErrorAs(t, err, &ice)
		assert.Equal(t, 2, ice.Masters)
		assert.True(t, errdefs.IsDataLoss(err))
	})

	t.Run("no default vpc", func(t *testing.T) {
		t.Parallel()
		fake := fakes.NewEC2()
		delete(fake.Vpcs, "vpc-default")

		_, err := NewDiscoverer(fake, "eu-west-1", logr.Discard()).GetClusters(ctx, nil, "")
		require.ErrorIs(t, err, ErrNoDefaultVPC)
		assert.Zero(t, fake.CallCount("DescribeInstances"))
	})

	t.Run("provider error propagates", func(t *testing.T) {
		t.Parallel()
		fake := fakes.NewEC2()
		fake.Errors["DescribeInstances"] = fakes.APIError("RequestLimitExceeded", "slow down")

		_, err := NewDiscoverer(fake, "us-east-1", logr.Discard()).GetClusters(ctx, nil, "vpc-default")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "RequestLimitExceeded")
	})
}

func TestGetCluster_DiscoveredClusterResolvesAddresses(t *testing.T) {
	t.Parallel()
	fake := fakes.NewEC2()
	seedCluster(t, fake, "spark", 1, types.InstanceStateNameRunning)

	c, err := NewDiscoverer(fake, "us-east-1", logr.Discard()).GetCluster(context.Background(), "spark", "")
	require.NoError(t, err)

	host, err := c.MasterHost(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ec2-54-0-0-100.compute-1.amazonaws.com", host)
}
