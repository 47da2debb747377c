package image

import (
	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/imamik/sparkfleet/internal/provisioning"
)

const phase = "image"

// Provisioner plans the block devices for the configured image.
type Provisioner struct{}

// NewProvisioner creates a new image provisioner.
func NewProvisioner() *Provisioner {
	return &Provisioner{}
}

// Name implements the provisioning.Phase interface.
func (p *Provisioner) Name() string {
	return phase
}

// Provision implements the provisioning.Phase interface.
func (p *Provisioner) Provision(ctx *provisioning.Context) error {
	ec2 := ctx.Config.Provider.EC2
	mappings, err := PlanBlockDevices(ctx, ctx.EC2, ec2.AMI, PlanOptions{KeepRootEncryption: ec2.KeepRootEncryption})
	if err != nil {
		return err
	}
	ctx.State.BlockDevices = mappings

	if len(mappings) > EphemeralSlots {
		root := mappings[0]
		ctx.Observer.Printf("[%s] Root volume %s: %d GiB %s", phase,
			aws.ToString(root.DeviceName), aws.ToInt32(root.Ebs.VolumeSize), root.Ebs.VolumeType)
		return nil
	}
	ctx.Observer.Printf("[%s] Image %s is instance-store backed, root volume left as is", phase, ec2.AMI)
	return nil
}
