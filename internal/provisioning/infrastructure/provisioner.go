package infrastructure

import (
	"context"
	"fmt"

	"github.com/imamik/sparkfleet/internal/cluster"
	"github.com/imamik/sparkfleet/internal/provisioning"
	"github.com/imamik/sparkfleet/internal/util/naming"
)

const phase = "infrastructure"

// Provisioner handles network access provisioning for a launch.
type Provisioner struct {
	addresses *AddressResolver
}

// NewProvisioner creates a new infrastructure provisioner. A nil resolver
// uses the default public address lookup.
func NewProvisioner(addresses *AddressResolver) *Provisioner {
	if addresses == nil {
		addresses = NewAddressResolver()
	}
	return &Provisioner{addresses: addresses}
}

// Name implements the provisioning.Phase interface.
func (p *Provisioner) Name() string {
	return phase
}

// Provision implements the provisioning.Phase interface. The cluster group is
// created exclusively; when this launch creates it, its deletion is pushed on
// the rollback stack.
func (p *Provisioner) Provision(ctx *provisioning.Context) error {
	cidrs, err := p.addresses.ClientCIDRs(ctx)
	if err != nil {
		return err
	}
	ctx.Observer.Printf("[%s] Client addresses: %v", phase, cidrs)

	groups, err := EnsureSecurityGroups(ctx, ctx.EC2, ctx.State.VPCID, ctx.Config.ClusterName, cidrs, Options{Exclusive: true}, ctx.Observer)
	if err != nil {
		return err
	}

	ctx.State.BaseGroupID = groups.Base
	ctx.State.ClusterGroupID = groups.Cluster
	ctx.State.ClusterCreated = groups.ClusterCreated

	if groups.ClusterCreated {
		name := naming.ClusterGroup(ctx.Config.ClusterName)
		ctx.Rollback.Register("delete security group "+name, func(rctx context.Context) error {
			provisioning.LogResourceDeleting(ctx.Observer, "rollback", "security group", name)
			// Terminating instances may refuse attribute changes; the
			// delete below retries until they are gone.
			if err := cluster.DetachInstances(rctx, ctx.EC2, ctx.State.InstanceIDs, groups.Base); err != nil {
				ctx.Observer.Printf("[%s] %v", phase, err)
			}
			if err := cluster.DeleteGroup(rctx, ctx.EC2, groups.Cluster, ctx.Timeouts.GroupDelete, ctx.Timeouts.RetryInitialDelay); err != nil {
				return fmt.Errorf("failed to delete security group %s: %w", name, err)
			}
			provisioning.LogResourceDeleted(ctx.Observer, "rollback", "security group", name)
			return nil
		})
	}
	return nil
}
