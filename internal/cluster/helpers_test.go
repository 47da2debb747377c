package cluster

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/stretchr/testify/require"

	"github.com/imamik/sparkfleet/internal/util/naming"
	"github.com/imamik/sparkfleet/internal/util/tags"
	"github.com/imamik/sparkfleet/pkg/cloud/fakes"
)

// seedCluster creates the security groups and instances of a cluster
// directly in the fake and returns the instance ids, master first.
func seedCluster(t *testing.T, f *fakes.EC2, name string, workers int, state types.InstanceStateName) []string {
	t.Helper()

	baseID := ensureGroup(t, f, naming.BaseGroup())
	clusterID := ensureGroup(t, f, naming.ClusterGroup(name))
	groups := []types.GroupIdentifier{
		{GroupId: aws.String(baseID), GroupName: aws.String(naming.BaseGroup())},
		{GroupId: aws.String(clusterID), GroupName: aws.String(naming.ClusterGroup(name))},
	}

	ids := make([]string, 0, workers+1)
	launched := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i <= workers; i++ {
		role := tags.RoleWorker
		if i == 0 {
			role = tags.RoleMaster
		}
		id := fmt.Sprintf("i-%s-%d", name, i)
		f.AddInstance(types.Instance{
			InstanceId:       aws.String(id),
			SubnetId:         aws.String("subnet-public"),
			VpcId:            aws.String("vpc-default"),
			PrivateIpAddress: aws.String(fmt.Sprintf("10.0.0.%d", 100+i)),
			PrivateDnsName:   aws.String(fmt.Sprintf("ip-10-0-0-%d.ec2.internal", 100+i)),
			SecurityGroups:   groups,
			LaunchTime:       aws.Time(launched.Add(time.Duration(i) * time.Second)),
			Tags:             tags.NewBuilder(name).WithRole(role).EC2(),
		})
		f.SetInstanceState(id, state)
		ids = append(ids, id)
	}
	return ids
}

func ensureGroup(t *testing.T, f *fakes.EC2, name string) string {
	t.Helper()
	if g := f.GroupByName(name); g != nil {
		return aws.ToString(g.GroupId)
	}
	out, err := f.CreateSecurityGroup(context.Background(), &ec2.CreateSecurityGroupInput{
		GroupName:   aws.String(name),
		Description: aws.String(name),
		VpcId:       aws.String("vpc-default"),
	})
	require.NoError(t, err)
	return aws.ToString(out.GroupId)
}

func instance(id string, role string, state State) Instance {
	return Instance{
		ID:         id,
		Role:       role,
		State:      state,
		PublicDNS:  "ec2-" + id + ".compute.amazonaws.com",
		PublicIP:   "54.0.0.1",
		PrivateDNS: "ip-" + id + ".ec2.internal",
		PrivateIP:  "10.0.0.1",
		SubnetID:   "subnet-public",
	}
}

// mockHooks implements ServiceHooks with overridable functions.
type mockHooks struct {
	StartFunc   func(ctx context.Context, c *Cluster) error
	StopFunc    func(ctx context.Context, c *Cluster) error
	DestroyFunc func(ctx context.Context, c *Cluster) error

	calls []string
}

func (m *mockHooks) Start(ctx context.Context, c *Cluster) error {
	m.calls = append(m.calls, "start")
	if m.StartFunc != nil {
		return m.StartFunc(ctx, c)
	}
	return nil
}

func (m *mockHooks) Stop(ctx context.Context, c *Cluster) error {
	m.calls = append(m.calls, "stop")
	if m.StopFunc != nil {
		return m.StopFunc(ctx, c)
	}
	return nil
}

func (m *mockHooks) Destroy(ctx context.Context, c *Cluster) error {
	m.calls = append(m.calls, "destroy")
	if m.DestroyFunc != nil {
		return m.DestroyFunc(ctx, c)
	}
	return nil
}

// mockExecutor implements RemoteExecutor with overridable functions.
type mockExecutor struct {
	RunFunc  func(ctx context.Context, hosts []string, command string) ([]string, error)
	CopyFunc func(ctx context.Context, hosts []string, localPath, remotePath string) error

	hosts []string
}

func (m *mockExecutor) Run(ctx context.Context, hosts []string, command string) ([]string, error) {
	m.hosts = hosts
	if m.RunFunc != nil {
		return m.RunFunc(ctx, hosts, command)
	}
	out := make([]string, len(hosts))
	for i, h := range hosts {
		out[i] = h + ": " + command
	}
	return out, nil
}

func (m *mockExecutor) Copy(ctx context.Context, hosts []string, localPath, remotePath string) error {
	m.hosts = hosts
	if m.CopyFunc != nil {
		return m.CopyFunc(ctx, hosts, localPath, remotePath)
	}
	return nil
}
