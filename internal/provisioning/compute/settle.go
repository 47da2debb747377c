package compute

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"

	"github.com/imamik/sparkfleet/internal/cluster"
	ec2util "github.com/imamik/sparkfleet/internal/platform/ec2"
	"github.com/imamik/sparkfleet/internal/provisioning"
	"github.com/imamik/sparkfleet/internal/util/retry"
)

const settleMaxDelay = 10 * time.Second

// Settle waits until every id is visible to DescribeInstances with a state
// and a private address. Freshly launched instances can be missing from
// describe results for a while after RunInstances returns.
func Settle(ctx *provisioning.Context, ids []string) error {
	sctx, cancel := context.WithTimeout(ctx, ctx.Timeouts.Settle)
	defer cancel()

	ctx.Observer.Printf("[%s] Waiting for %d instance(s) to become visible...", phase, len(ids))
	err := retry.Until(sctx, func(rctx context.Context) (bool, error) {
		return describable(rctx, ctx.EC2, ids)
	},
		retry.WithInitialDelay(ctx.Timeouts.RetryInitialDelay),
		retry.WithMaxDelay(settleMaxDelay),
		retry.WithMaxRetries(ctx.Timeouts.RetryMaxAttempts),
	)

	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, retry.ErrDeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("instances %v not visible after launch: %w", ids, cluster.ErrTimeout)
	default:
		return err
	}
}

func describable(ctx context.Context, api ec2.DescribeInstancesAPIClient, ids []string) (bool, error) {
	instances, err := ec2util.DescribeInstancesAll(ctx, api, &ec2.DescribeInstancesInput{InstanceIds: ids})
	if ec2util.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	seen := make(map[string]bool, len(instances))
	for _, inst := range instances {
		if inst.State != nil && aws.ToString(inst.PrivateIpAddress) != "" {
			seen[aws.ToString(inst.InstanceId)] = true
		}
	}
	for _, id := range ids {
		if !seen[id] {
			return false, nil
		}
	}
	return true, nil
}
