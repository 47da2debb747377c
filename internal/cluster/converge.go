package cluster

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/go-logr/logr"

	ec2util "github.com/imamik/sparkfleet/internal/platform/ec2"
	"github.com/imamik/sparkfleet/internal/util/retry"
	"github.com/imamik/sparkfleet/pkg/cloud"
)

// DefaultConvergeInterval is the pause between two instance state polls.
const DefaultConvergeInterval = 3 * time.Second

// Converger waits for every instance of a cluster to reach one state.
type Converger struct {
	api      cloud.EC2API
	interval time.Duration
	logger   logr.Logger
}

// NewConverger creates a Converger polling every interval. A zero interval
// means DefaultConvergeInterval.
func NewConverger(api cloud.EC2API, interval time.Duration, logger logr.Logger) *Converger {
	if interval <= 0 {
		interval = DefaultConvergeInterval
	}
	return &Converger{api: api, interval: interval, logger: logger}
}

// WaitForState polls until every instance of c reports target and returns
// the refreshed cluster. Each poll is a single DescribeInstances for all
// tracked ids, after which master and workers are re-derived from tags.
// A cluster that has already converged costs exactly one describe.
//
// It returns ctx.Err() when ctx is cancelled and an error wrapping
// ErrTimeout when timeout elapses first. A zero timeout waits forever.
func (cv *Converger) WaitForState(ctx context.Context, c *Cluster, target State, timeout time.Duration) (*Cluster, error) {
	ids := c.InstanceIDs()
	current := c
	start := time.Now()

	err := retry.Poll(ctx, cv.interval, timeout, func(ctx context.Context) (bool, error) {
		instances, err := ec2util.DescribeInstancesAll(ctx, cv.api, &ec2.DescribeInstancesInput{
			InstanceIds: ids,
		})
		if err != nil {
			return false, err
		}

		snapshot := FromEC2List(instances)
		if len(snapshot) < len(ids) {
			cv.logger.V(1).Info("instances not yet visible", "cluster", c.Name, "visible", len(snapshot), "expected", len(ids))
			return false, nil
		}

		refreshed, err := Classify(c.Name, c.Region, c.VPCID, snapshot)
		if err != nil {
			return false, err
		}
		current = refreshed.WithNetwork(cv.api)

		done := true
		for _, inst := range snapshot {
			if inst.State != target {
				done = false
				break
			}
		}
		cv.logger.V(1).Info("polled instance states", "cluster", c.Name, "state", current.State(), "target", target)
		return done, nil
	})

	switch {
	case err == nil:
		return current, nil
	case errors.Is(err, retry.ErrDeadlineExceeded):
		return current, fmt.Errorf("cluster %q did not reach %s within %s (state %s): %w",
			c.Name, target, time.Since(start).Round(time.Second), current.State(), ErrTimeout)
	default:
		return current, err
	}
}
