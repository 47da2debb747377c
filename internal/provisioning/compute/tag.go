package compute

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/ec2"

	"github.com/imamik/sparkfleet/internal/provisioning"
	"github.com/imamik/sparkfleet/internal/util/tags"
)

// TagInstances tags ids[0] as the master and the rest as workers, with one
// CreateTags call per role. User tags never override the reserved keys.
func TagInstances(ctx *provisioning.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := tagRole(ctx, ids[:1], tags.RoleMaster); err != nil {
		return err
	}
	if len(ids) > 1 {
		return tagRole(ctx, ids[1:], tags.RoleWorker)
	}
	return nil
}

func tagRole(ctx *provisioning.Context, ids []string, role string) error {
	t := tags.NewBuilder(ctx.Config.ClusterName).
		Merge(ctx.Config.Provider.EC2.Tags).
		WithRole(role).
		EC2()
	if _, err := ctx.EC2.CreateTags(ctx, &ec2.CreateTagsInput{Resources: ids, Tags: t}); err != nil {
		return fmt.Errorf("failed to tag %s instances: %w", role, err)
	}
	ctx.Observer.Printf("[%s] Tagged %d %s instance(s)", phase, len(ids), role)
	return nil
}
