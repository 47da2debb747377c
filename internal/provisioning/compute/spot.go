package compute

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/containerd/errdefs"

	"github.com/imamik/sparkfleet/internal/cluster"
	"github.com/imamik/sparkfleet/internal/provisioning"
	"github.com/imamik/sparkfleet/internal/util/retry"
)

// SpotRequestFailedError reports spot requests EC2 refused to fulfil.
type SpotRequestFailedError struct {
	// Reasons are the distinct status codes of the failed requests, sorted.
	Reasons []string
}

func (e *SpotRequestFailedError) Error() string {
	return fmt.Sprintf("spot request failed: %s", strings.Join(e.Reasons, ", "))
}

func (e *SpotRequestFailedError) Unwrap() error { return errdefs.ErrUnavailable }

// AcquireSpot submits one spot request for count instances and waits until
// none is open. Cancelling the requests and terminating whatever they were
// granted are registered on the rollback stack right after submission.
func AcquireSpot(ctx *provisioning.Context, count int32) ([]string, error) {
	cfg := ctx.Config.Provider.EC2
	provisioning.LogResourceCreating(ctx.Observer, phase, "spot request", fmt.Sprintf("%d x %s at %g", count, cfg.InstanceType, cfg.SpotPrice))

	out, err := ctx.EC2.RequestSpotInstances(ctx, spotRequestInput(ctx, count))
	if err != nil {
		return nil, fmt.Errorf("failed to request spot instances: %w", err)
	}
	requestIDs := make([]string, 0, len(out.SpotInstanceRequests))
	for _, r := range out.SpotInstanceRequests {
		requestIDs = append(requestIDs, aws.ToString(r.SpotInstanceRequestId))
	}
	ctx.State.SpotRequestIDs = requestIDs

	// LIFO: the requests are cancelled before their instances are looked up.
	ctx.Rollback.Register("terminate spot instances", func(rctx context.Context) error {
		ids, err := grantedInstances(rctx, ctx, requestIDs)
		if err != nil {
			return err
		}
		ctx.State.InstanceIDs = ids
		return terminate(rctx, ctx, ids)
	})
	ctx.Rollback.Register("cancel spot requests", func(rctx context.Context) error {
		_, err := ctx.EC2.CancelSpotInstanceRequests(rctx, &ec2.CancelSpotInstanceRequestsInput{SpotInstanceRequestIds: requestIDs})
		if err != nil {
			return fmt.Errorf("failed to cancel spot requests: %w", err)
		}
		return nil
	})

	ctx.Observer.Printf("[%s] Waiting for %d spot request(s) to be fulfilled...", phase, len(requestIDs))
	ids, err := WaitForSpot(ctx, ctx.EC2, requestIDs, ctx.Timeouts.SpotPoll, ctx.Timeouts.SpotGrant, ctx.Observer)
	if err != nil {
		return nil, err
	}
	ctx.State.InstanceIDs = ids

	provisioning.LogResourceCreated(ctx.Observer, phase, "spot instances", fmt.Sprintf("%d x %s", count, cfg.InstanceType), fmt.Sprint(ids))
	return ids, nil
}

// WaitForSpot polls the requests with one DescribeSpotInstanceRequests call
// per interval until none is open, and returns their instance ids in request
// order. Any request reaching failed aborts the wait.
func WaitForSpot(ctx context.Context, api spotDescriber, requestIDs []string, interval, timeout time.Duration, observer provisioning.Observer) ([]string, error) {
	var ids []string
	err := retry.Poll(ctx, interval, timeout, func(ctx context.Context) (bool, error) {
		requests, err := describeSpot(ctx, api, requestIDs)
		if err != nil {
			return false, err
		}

		var open, granted int
		var reasons []string
		for _, r := range requests {
			switch r.State {
			case types.SpotInstanceStateOpen:
				open++
			case types.SpotInstanceStateFailed:
				reasons = append(reasons, statusCode(r))
			case types.SpotInstanceStateActive:
				granted++
			default:
				if r.InstanceId == nil {
					reasons = append(reasons, statusCode(r))
				} else {
					granted++
				}
			}
		}
		if len(reasons) > 0 {
			slices.Sort(reasons)
			return false, &SpotRequestFailedError{Reasons: slices.Compact(reasons)}
		}
		observer.Progress("spot", granted, len(requestIDs))
		if open > 0 {
			return false, nil
		}

		ids = ids[:0]
		for _, r := range requests {
			ids = append(ids, aws.ToString(r.InstanceId))
		}
		return true, nil
	})
	if errors.Is(err, retry.ErrDeadlineExceeded) {
		return nil, fmt.Errorf("spot requests not fulfilled within %s: %w", timeout, cluster.ErrTimeout)
	}
	if err != nil {
		return nil, err
	}
	return ids, nil
}

type spotDescriber interface {
	DescribeSpotInstanceRequests(ctx context.Context, params *ec2.DescribeSpotInstanceRequestsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeSpotInstanceRequestsOutput, error)
}

// describeSpot returns the requests ordered like requestIDs.
func describeSpot(ctx context.Context, api spotDescriber, requestIDs []string) ([]types.SpotInstanceRequest, error) {
	out, err := api.DescribeSpotInstanceRequests(ctx, &ec2.DescribeSpotInstanceRequestsInput{SpotInstanceRequestIds: requestIDs})
	if err != nil {
		return nil, fmt.Errorf("failed to describe spot requests: %w", err)
	}
	requests := out.SpotInstanceRequests
	slices.SortStableFunc(requests, func(a, b types.SpotInstanceRequest) int {
		return cmp.Compare(
			slices.Index(requestIDs, aws.ToString(a.SpotInstanceRequestId)),
			slices.Index(requestIDs, aws.ToString(b.SpotInstanceRequestId)),
		)
	})
	return requests, nil
}

// grantedInstances re-describes the requests and returns every instance they
// produced, whatever the request state.
func grantedInstances(ctx context.Context, pctx *provisioning.Context, requestIDs []string) ([]string, error) {
	requests, err := describeSpot(ctx, pctx.EC2, requestIDs)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, r := range requests {
		if id := aws.ToString(r.InstanceId); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func statusCode(r types.SpotInstanceRequest) string {
	if r.Status != nil && r.Status.Code != nil {
		return aws.ToString(r.Status.Code)
	}
	return string(r.State)
}
