package ec2

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/sparkfleet/internal/metrics"
	"github.com/imamik/sparkfleet/pkg/cloud/fakes"
)

func TestInstrumentedClient_RecordsResults(t *testing.T) {
	fake := fakes.NewEC2()
	client := NewInstrumentedClient(fake, logr.Discard())
	ctx := context.Background()

	before := testutil.CollectAndCount(metrics.Registry, "sparkfleet_ec2_api_calls_total")

	_, err := client.CreateSecurityGroup(ctx, &ec2.CreateSecurityGroupInput{
		GroupName: aws.String("sparkfleet"), VpcId: aws.String("vpc-default"), Description: aws.String("x"),
	})
	require.NoError(t, err)

	_, err = client.CreateSecurityGroup(ctx, &ec2.CreateSecurityGroupInput{
		GroupName: aws.String("sparkfleet"), VpcId: aws.String("vpc-default"), Description: aws.String("x"),
	})
	require.Error(t, err)
	assert.True(t, IsDuplicateGroup(err))

	assert.Equal(t, 2, fake.CallCount("CreateSecurityGroup"))
	after := testutil.CollectAndCount(metrics.Registry, "sparkfleet_ec2_api_calls_total")
	assert.GreaterOrEqual(t, after, before+1)
}
