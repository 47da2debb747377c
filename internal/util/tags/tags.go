package tags

import (
	"maps"
	"slices"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/imamik/sparkfleet/internal/util/naming"
)

// Standard tag keys.
const (
	// KeyRole identifies the role of an instance (master, worker)
	KeyRole = "sparkfleet-role"

	// KeyName is the display name shown in the EC2 console
	KeyName = "Name"
)

// Role values
const (
	RoleMaster = "master"
	RoleWorker = "worker"
)

// Reserved reports whether key is managed by sparkfleet.
func Reserved(key string) bool {
	return key == KeyRole || key == KeyName
}

// Builder provides a fluent interface for building instance tags.
type Builder struct {
	cluster string
	tags    map[string]string
}

// NewBuilder creates a new tag builder for the given cluster.
func NewBuilder(cluster string) *Builder {
	return &Builder{
		cluster: cluster,
		tags:    map[string]string{},
	}
}

// WithRole sets the role tag and the derived Name tag.
func (b *Builder) WithRole(role string) *Builder {
	b.tags[KeyRole] = role
	b.tags[KeyName] = naming.Instance(b.cluster, role)
	return b
}

// Merge adds extra user tags. Reserved keys are never overridden.
func (b *Builder) Merge(extra map[string]string) *Builder {
	for k, v := range extra {
		if Reserved(k) {
			continue
		}
		b.tags[k] = v
	}
	return b
}

// Build returns a copy of the tag map.
func (b *Builder) Build() map[string]string {
	return maps.Clone(b.tags)
}

// EC2 returns the tags as an EC2 tag list sorted by key.
func (b *Builder) EC2() []types.Tag {
	keys := slices.Sorted(maps.Keys(b.tags))
	out := make([]types.Tag, 0, len(keys))
	for _, k := range keys {
		out = append(out, types.Tag{Key: aws.String(k), Value: aws.String(b.tags[k])})
	}
	return out
}
