package provisioning

import (
	"context"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/sparkfleet/internal/config"
	"github.com/imamik/sparkfleet/pkg/cloud/fakes"
)

func TestNewState(t *testing.T) {
	t.Parallel()
	state := NewState()

	require.NotNil(t, state)
	assert.Empty(t, state.VPCID)
	assert.Empty(t, state.InstanceIDs)
	assert.Empty(t, state.SpotRequestIDs)
	assert.False(t, state.ClusterCreated)
	assert.Nil(t, state.Cluster)
}

func TestNewContext(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{ClusterName: "test"}
	fake := fakes.NewEC2()

	ctx := NewContext(context.Background(), cfg, fake, logr.Discard())

	require.NotNil(t, ctx)
	assert.Equal(t, cfg, ctx.Config)
	assert.Equal(t, fake, ctx.EC2)
	assert.NotNil(t, ctx.State)
	assert.NotNil(t, ctx.Observer)
	assert.NotNil(t, ctx.Timeouts)
	require.NotNil(t, ctx.Rollback)
	assert.Zero(t, ctx.Rollback.Len())
	assert.NoError(t, ctx.Err())
}

func TestContext_Cancellation(t *testing.T) {
	t.Parallel()
	parent, cancel := context.WithCancel(context.Background())
	ctx := NewContext(parent, &config.Config{}, fakes.NewEC2(), logr.Discard())

	cancel()

	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}
