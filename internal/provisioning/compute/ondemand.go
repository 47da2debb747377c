package compute

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"

	"github.com/imamik/sparkfleet/internal/provisioning"
)

// AcquireOnDemand launches count instances with one RunInstances call and
// registers their termination on the rollback stack.
func AcquireOnDemand(ctx *provisioning.Context, count int32) ([]string, error) {
	provisioning.LogResourceCreating(ctx.Observer, phase, "instances", fmt.Sprintf("%d x %s", count, ctx.Config.Provider.EC2.InstanceType))

	out, err := ctx.EC2.RunInstances(ctx, runInstancesInput(ctx, count))
	if err != nil {
		return nil, fmt.Errorf("failed to launch instances: %w", err)
	}

	ids := make([]string, 0, len(out.Instances))
	for _, inst := range out.Instances {
		ids = append(ids, aws.ToString(inst.InstanceId))
	}
	ctx.State.InstanceIDs = ids
	ctx.Rollback.Register("terminate instances", func(rctx context.Context) error {
		return terminate(rctx, ctx, ids)
	})

	provisioning.LogResourceCreated(ctx.Observer, phase, "instances", fmt.Sprintf("%d x %s", count, ctx.Config.Provider.EC2.InstanceType), fmt.Sprint(ids))
	return ids, nil
}

// terminate asks for confirmation, then terminates ids with one call.
// A refusal leaves the instances running and returns
// provisioning.ErrRollbackDeclined.
func terminate(rctx context.Context, ctx *provisioning.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if !ctx.Config.Launch.AssumeYes && ctx.Confirm != nil {
		ok, err := ctx.Confirm(rctx, fmt.Sprintf("Terminate the %d instance(s) launched for cluster %s?", len(ids), ctx.Config.ClusterName))
		if err != nil {
			return fmt.Errorf("failed to confirm termination: %w", err)
		}
		if !ok {
			ctx.Observer.Printf("[Rollback] Keeping instances %v; terminate them manually", ids)
			return provisioning.ErrRollbackDeclined
		}
	}

	provisioning.LogResourceDeleting(ctx.Observer, "rollback", "instances", fmt.Sprint(ids))
	if _, err := ctx.EC2.TerminateInstances(rctx, &ec2.TerminateInstancesInput{InstanceIds: ids}); err != nil {
		return fmt.Errorf("failed to terminate instances: %w", err)
	}
	provisioning.LogResourceDeleted(ctx.Observer, "rollback", "instances", fmt.Sprint(ids))
	return nil
}
