package launch

import (
	"errors"
	"fmt"

	"github.com/imamik/sparkfleet/internal/cluster"
	"github.com/imamik/sparkfleet/internal/provisioning"
)

// NetworkPhase resolves the VPC and refuses to launch over an existing
// cluster of the same name.
type NetworkPhase struct{}

// NewNetworkPhase creates a new network phase.
func NewNetworkPhase() *NetworkPhase {
	return &NetworkPhase{}
}

// Name implements the provisioning.Phase interface.
func (p *NetworkPhase) Name() string {
	return "network"
}

// Provision implements the provisioning.Phase interface.
func (p *NetworkPhase) Provision(ctx *provisioning.Context) error {
	ec2cfg := ctx.Config.Provider.EC2
	vpcID, err := cluster.ResolveVPC(ctx, ctx.EC2, ec2cfg.Region, ec2cfg.VPCID)
	if err != nil {
		return err
	}
	ctx.State.VPCID = vpcID
	ctx.Observer.Printf("[network] Using VPC %s", vpcID)

	d := cluster.NewDiscoverer(ctx.EC2, ec2cfg.Region, ctx.Logger)
	_, err = d.GetCluster(ctx, ctx.Config.ClusterName, vpcID)
	switch {
	case err == nil:
		return &cluster.AlreadyExistsError{Name: ctx.Config.ClusterName, VPCID: vpcID}
	case errors.Is(err, cluster.ErrNotFound):
		return nil
	case errors.Is(err, cluster.ErrInconsistent):
		// Leftover instances still carry the cluster group.
		return &cluster.AlreadyExistsError{Name: ctx.Config.ClusterName, VPCID: vpcID}
	default:
		return fmt.Errorf("failed to check for an existing cluster: %w", err)
	}
}
