package compute

import (
	"fmt"

	"github.com/imamik/sparkfleet/internal/provisioning"
)

const phase = "compute"

// Provisioner acquires, settles and tags the instances of a cluster.
type Provisioner struct{}

// NewProvisioner creates a new compute provisioner.
func NewProvisioner() *Provisioner {
	return &Provisioner{}
}

// Name implements the provisioning.Phase interface.
func (p *Provisioner) Name() string {
	return phase
}

// Provision implements the provisioning.Phase interface.
func (p *Provisioner) Provision(ctx *provisioning.Context) error {
	count := int32(ctx.Config.Launch.NumWorkers + 1)

	var ids []string
	var err error
	if ctx.Config.Spot() {
		ids, err = AcquireSpot(ctx, count)
	} else {
		ids, err = AcquireOnDemand(ctx, count)
	}
	if err != nil {
		return err
	}
	if len(ids) != int(count) {
		return fmt.Errorf("requested %d instances, got %d", count, len(ids))
	}

	if err := Settle(ctx, ids); err != nil {
		return err
	}
	if err := TagInstances(ctx, ids); err != nil {
		return err
	}

	ctx.State.InstanceIDs = ids
	return nil
}
