package image

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/containerd/errdefs"

	ec2util "github.com/imamik/sparkfleet/internal/platform/ec2"
	"github.com/imamik/sparkfleet/pkg/cloud"
)

const (
	// MinRootSizeGiB is the smallest root volume an instance is launched with.
	MinRootSizeGiB = 30

	// EphemeralSlots is the number of instance store slots appended to every plan.
	EphemeralSlots = 12
)

// ImageNotFoundError is returned when the launch image does not exist or is
// not visible to the caller in the region.
type ImageNotFoundError struct {
	ImageID string
	Err     error
}

func (e *ImageNotFoundError) Error() string {
	return fmt.Sprintf("could not find image %s: it may not exist in this region or you may not have access to it", e.ImageID)
}

func (e *ImageNotFoundError) Unwrap() []error {
	if e.Err == nil {
		return []error{errdefs.ErrNotFound}
	}
	return []error{errdefs.ErrNotFound, e.Err}
}

// PlanOptions tune PlanBlockDevices.
type PlanOptions struct {
	// KeepRootEncryption keeps the Encrypted flag of the image's root volume.
	// By default it is cleared.
	KeepRootEncryption bool
}

// PlanBlockDevices returns the block device mappings for instances launched
// from imageID.
func PlanBlockDevices(ctx context.Context, api cloud.ImageClient, imageID string, opts PlanOptions) ([]types.BlockDeviceMapping, error) {
	out, err := api.DescribeImages(ctx, &ec2.DescribeImagesInput{ImageIds: []string{imageID}})
	if err != nil {
		if ec2util.IsImageNotFound(err) {
			return nil, &ImageNotFoundError{ImageID: imageID, Err: err}
		}
		return nil, fmt.Errorf("failed to describe image %s: %w", imageID, err)
	}
	if len(out.Images) == 0 {
		return nil, &ImageNotFoundError{ImageID: imageID}
	}
	img := out.Images[0]

	mappings := make([]types.BlockDeviceMapping, 0, EphemeralSlots+1)
	if img.RootDeviceType == types.DeviceTypeEbs {
		root, err := planRoot(img, opts)
		if err != nil {
			return nil, err
		}
		mappings = append(mappings, root)
	}
	return append(mappings, EphemeralMappings()...), nil
}

func planRoot(img types.Image, opts PlanOptions) (types.BlockDeviceMapping, error) {
	rootName := aws.ToString(img.RootDeviceName)
	for _, m := range img.BlockDeviceMappings {
		if aws.ToString(m.DeviceName) != rootName || m.Ebs == nil {
			continue
		}
		ebs := *m.Ebs
		if aws.ToInt32(ebs.VolumeSize) < MinRootSizeGiB {
			ebs.VolumeSize = aws.Int32(MinRootSizeGiB)
			ebs.VolumeType = types.VolumeTypeGp2
		}
		if !opts.KeepRootEncryption {
			ebs.Encrypted = nil
		}
		return types.BlockDeviceMapping{DeviceName: aws.String(rootName), Ebs: &ebs}, nil
	}
	return types.BlockDeviceMapping{}, fmt.Errorf("image %s has no EBS mapping for its root device %s", aws.ToString(img.ImageId), rootName)
}

// EphemeralMappings returns the instance store slots ephemeral0..11 mapped to
// /dev/sdb../dev/sdm.
func EphemeralMappings() []types.BlockDeviceMapping {
	out := make([]types.BlockDeviceMapping, 0, EphemeralSlots)
	for i := range EphemeralSlots {
		out = append(out, types.BlockDeviceMapping{
			VirtualName: aws.String(fmt.Sprintf("ephemeral%d", i)),
			DeviceName:  aws.String(fmt.Sprintf("/dev/sd%c", 'b'+i)),
		})
	}
	return out
}
