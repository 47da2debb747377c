package ec2

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// TagValue returns the value of the tag with the given key, or "".
func TagValue(tags []types.Tag, key string) string {
	for _, t := range tags {
		if aws.ToString(t.Key) == key {
			return aws.ToString(t.Value)
		}
	}
	return ""
}

// Tag builds a single tag.
func Tag(key, value string) types.Tag {
	return types.Tag{Key: aws.String(key), Value: aws.String(value)}
}

// Tags converts m into a tag list ordered by keys. Keys missing from m are skipped.
func Tags(m map[string]string, order ...string) []types.Tag {
	tags := make([]types.Tag, 0, len(order))
	for _, k := range order {
		if v, ok := m[k]; ok {
			tags = append(tags, Tag(k, v))
		}
	}
	return tags
}

// Filter builds a describe filter.
func Filter(name string, values ...string) types.Filter {
	return types.Filter{Name: aws.String(name), Values: values}
}

// InstancesFrom flattens the reservations of a DescribeInstances page.
func InstancesFrom(out *ec2.DescribeInstancesOutput) []types.Instance {
	if out == nil {
		return nil
	}
	var instances []types.Instance
	for _, r := range out.Reservations {
		instances = append(instances, r.Instances...)
	}
	return instances
}

// DescribeInstancesAll walks every page of a DescribeInstances query.
func DescribeInstancesAll(ctx context.Context, api ec2.DescribeInstancesAPIClient, in *ec2.DescribeInstancesInput) ([]types.Instance, error) {
	var instances []types.Instance
	p := ec2.NewDescribeInstancesPaginator(api, in)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe instances: %w", err)
		}
		instances = append(instances, InstancesFrom(page)...)
	}
	return instances, nil
}
