package cluster

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/go-logr/logr"

	"github.com/imamik/sparkfleet/internal/metrics"
	ec2util "github.com/imamik/sparkfleet/internal/platform/ec2"
	"github.com/imamik/sparkfleet/internal/util/naming"
	"github.com/imamik/sparkfleet/internal/util/retry"
	"github.com/imamik/sparkfleet/pkg/cloud"
)

// StartCheck gates start: the cluster must be stopped.
func StartCheck(c *Cluster) error {
	return transitionCheck(c, "start", StateStopped, StateRunning)
}

// StopCheck gates stop: the cluster must be running.
func StopCheck(c *Cluster) error {
	return transitionCheck(c, "stop", StateRunning, StateStopped)
}

// RunCommandCheck gates run-command: the cluster must be running.
func RunCommandCheck(c *Cluster) error {
	return requireState(c, "run a command on", StateRunning)
}

// CopyFileCheck gates copy-file: the cluster must be running.
func CopyFileCheck(c *Cluster) error {
	return requireState(c, "copy a file to", StateRunning)
}

func transitionCheck(c *Cluster, command string, from, to State) error {
	state := c.State()
	if state == to {
		return &NothingToDoError{Name: c.Name, Command: command, State: state}
	}
	return requireState(c, command, from)
}

func requireState(c *Cluster, command string, required State) error {
	if state := c.State(); state != required {
		return &InvalidStateError{Name: c.Name, Command: command, State: state, Required: required}
	}
	return nil
}

// ServiceHooks manage the service running on a cluster around lifecycle
// operations. They know nothing about EC2.
type ServiceHooks interface {
	Start(ctx context.Context, c *Cluster) error
	Stop(ctx context.Context, c *Cluster) error
	Destroy(ctx context.Context, c *Cluster) error
}

// RemoteExecutor runs commands and copies files on cluster nodes.
// Outputs are returned in the order of hosts.
type RemoteExecutor interface {
	Run(ctx context.Context, hosts []string, command string) ([]string, error)
	Copy(ctx context.Context, hosts []string, localPath, remotePath string) error
}

// CommandResult is the output of a command on one host.
type CommandResult struct {
	Host   string
	Output string
}

// ManagerTimeouts bounds the waits of a Manager.
type ManagerTimeouts struct {
	InstanceState time.Duration
	GroupDelete   time.Duration
	RetryDelay    time.Duration
}

// Manager carries out lifecycle operations on discovered clusters.
type Manager struct {
	api       cloud.EC2API
	converger *Converger
	hooks     ServiceHooks
	exec      RemoteExecutor
	timeouts  ManagerTimeouts
	logger    logr.Logger
}

// NewManager creates a Manager. hooks and exec may be nil when the caller
// never needs them.
func NewManager(api cloud.EC2API, converger *Converger, hooks ServiceHooks, exec RemoteExecutor, timeouts ManagerTimeouts, logger logr.Logger) *Manager {
	if timeouts.RetryDelay <= 0 {
		timeouts.RetryDelay = time.Second
	}
	return &Manager{
		api:       api,
		converger: converger,
		hooks:     hooks,
		exec:      exec,
		timeouts:  timeouts,
		logger:    logger,
	}
}

// Start starts a stopped cluster and waits for it to run.
func (m *Manager) Start(ctx context.Context, c *Cluster) (*Cluster, error) {
	result, err := m.start(ctx, c)
	recordLifecycle("start", err)
	return result, err
}

func (m *Manager) start(ctx context.Context, c *Cluster) (*Cluster, error) {
	if err := StartCheck(c); err != nil {
		return c, err
	}

	m.logger.Info("starting cluster", "cluster", c.Name, "instances", len(c.Workers)+1)
	if _, err := m.api.StartInstances(ctx, &ec2.StartInstancesInput{InstanceIds: c.InstanceIDs()}); err != nil {
		return c, fmt.Errorf("failed to start instances: %w", err)
	}

	running, err := m.converger.WaitForState(ctx, c, StateRunning, m.timeouts.InstanceState)
	if err != nil {
		return running, err
	}

	if m.hooks != nil {
		if err := m.hooks.Start(ctx, running); err != nil {
			return running, fmt.Errorf("failed to start services: %w", err)
		}
	}
	return running, nil
}

// Stop stops the services of a running cluster, then its instances.
func (m *Manager) Stop(ctx context.Context, c *Cluster) (*Cluster, error) {
	result, err := m.stop(ctx, c)
	recordLifecycle("stop", err)
	return result, err
}

func (m *Manager) stop(ctx context.Context, c *Cluster) (*Cluster, error) {
	if err := StopCheck(c); err != nil {
		return c, err
	}

	if m.hooks != nil {
		if err := m.hooks.Stop(ctx, c); err != nil {
			return c, fmt.Errorf("failed to stop services: %w", err)
		}
	}

	m.logger.Info("stopping cluster", "cluster", c.Name, "instances", len(c.Workers)+1)
	if _, err := m.api.StopInstances(ctx, &ec2.StopInstancesInput{InstanceIds: c.InstanceIDs()}); err != nil {
		return c, fmt.Errorf("failed to stop instances: %w", err)
	}

	return m.converger.WaitForState(ctx, c, StateStopped, m.timeouts.InstanceState)
}

// Destroy tears down the service, detaches every instance from the cluster
// security group, deletes that group and terminates all instances. Any
// aggregate state is accepted.
func (m *Manager) Destroy(ctx context.Context, c *Cluster) error {
	err := m.destroy(ctx, c)
	recordLifecycle("destroy", err)
	return err
}

func (m *Manager) destroy(ctx context.Context, c *Cluster) error {
	if m.hooks != nil {
		if err := m.hooks.Destroy(ctx, c); err != nil {
			return fmt.Errorf("failed to tear down services: %w", err)
		}
	}

	baseID, clusterID, err := m.groupIDs(ctx, c)
	if err != nil {
		return err
	}

	// Instances must leave the cluster group first; EC2 rejects deleting a
	// referenced group and the rejection can outlive the instances by minutes.
	if clusterID != "" {
		if err := DetachInstances(ctx, m.api, c.InstanceIDs(), baseID); err != nil {
			return err
		}
		m.logger.Info("deleting security group", "group", naming.ClusterGroup(c.Name), "id", clusterID)
		if err := DeleteGroup(ctx, m.api, clusterID, m.timeouts.GroupDelete, m.timeouts.RetryDelay); err != nil {
			return err
		}
	}

	m.logger.Info("terminating instances", "cluster", c.Name, "instances", len(c.Workers)+1)
	if _, err := m.api.TerminateInstances(ctx, &ec2.TerminateInstancesInput{InstanceIds: c.InstanceIDs()}); err != nil {
		return fmt.Errorf("failed to terminate instances: %w", err)
	}
	return nil
}

func (m *Manager) groupIDs(ctx context.Context, c *Cluster) (baseID, clusterID string, err error) {
	base, cluster := naming.BaseGroup(), naming.ClusterGroup(c.Name)
	out, err := m.api.DescribeSecurityGroups(ctx, &ec2.DescribeSecurityGroupsInput{
		Filters: []types.Filter{
			ec2util.Filter("group-name", base, cluster),
			ec2util.Filter("vpc-id", c.VPCID),
		},
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to describe security groups: %w", err)
	}
	for _, g := range out.SecurityGroups {
		switch aws.ToString(g.GroupName) {
		case base:
			baseID = aws.ToString(g.GroupId)
		case cluster:
			clusterID = aws.ToString(g.GroupId)
		}
	}
	if baseID == "" && clusterID != "" {
		return "", "", fmt.Errorf("security group %s not found in %s", base, c.VPCID)
	}
	return baseID, clusterID, nil
}

// DetachInstances leaves each instance in the base group only. EC2 has no
// batch form of ModifyInstanceAttribute, so this is one call per instance.
func DetachInstances(ctx context.Context, api cloud.InstanceClient, instanceIDs []string, baseGroupID string) error {
	for _, id := range instanceIDs {
		_, err := api.ModifyInstanceAttribute(ctx, &ec2.ModifyInstanceAttributeInput{
			InstanceId: aws.String(id),
			Groups:     []string{baseGroupID},
		})
		if err != nil {
			return fmt.Errorf("failed to detach instance %s from cluster security group: %w", id, err)
		}
	}
	return nil
}

// DeleteGroup deletes a security group, retrying while EC2 still reports a
// DependencyViolation.
func DeleteGroup(ctx context.Context, api cloud.SecurityGroupClient, groupID string, timeout, interval time.Duration) error {
	var lastErr error
	err := retry.Poll(ctx, interval, timeout, func(ctx context.Context) (bool, error) {
		_, err := api.DeleteSecurityGroup(ctx, &ec2.DeleteSecurityGroupInput{GroupId: aws.String(groupID)})
		switch {
		case err == nil:
			return true, nil
		case ec2util.IsDependencyViolation(err):
			lastErr = err
			return false, nil
		default:
			return false, err
		}
	})
	if err != nil {
		if errors.Is(err, retry.ErrDeadlineExceeded) && lastErr != nil {
			err = lastErr
		}
		return fmt.Errorf("failed to delete security group %s: %w", groupID, err)
	}
	return nil
}

// RunCommand runs command on the master, or on every node unless masterOnly.
func (m *Manager) RunCommand(ctx context.Context, c *Cluster, command string, masterOnly bool) ([]CommandResult, error) {
	results, err := m.runCommand(ctx, c, command, masterOnly)
	recordLifecycle("run-command", err)
	return results, err
}

func (m *Manager) runCommand(ctx context.Context, c *Cluster, command string, masterOnly bool) ([]CommandResult, error) {
	if err := RunCommandCheck(c); err != nil {
		return nil, err
	}
	if m.exec == nil {
		return nil, fmt.Errorf("no remote executor configured")
	}

	hosts, err := targetHosts(ctx, c, masterOnly)
	if err != nil {
		return nil, err
	}

	m.logger.Info("running command", "cluster", c.Name, "hosts", len(hosts))
	outputs, err := m.exec.Run(ctx, hosts, command)
	results := make([]CommandResult, 0, len(hosts))
	for i, host := range hosts {
		r := CommandResult{Host: host}
		if i < len(outputs) {
			r.Output = outputs[i]
		}
		results = append(results, r)
	}
	return results, err
}

// CopyFile copies localPath to remotePath on the master, or on every node
// unless masterOnly.
func (m *Manager) CopyFile(ctx context.Context, c *Cluster, localPath, remotePath string, masterOnly bool) error {
	err := m.copyFile(ctx, c, localPath, remotePath, masterOnly)
	recordLifecycle("copy-file", err)
	return err
}

func (m *Manager) copyFile(ctx context.Context, c *Cluster, localPath, remotePath string, masterOnly bool) error {
	if err := CopyFileCheck(c); err != nil {
		return err
	}
	if m.exec == nil {
		return fmt.Errorf("no remote executor configured")
	}

	hosts, err := targetHosts(ctx, c, masterOnly)
	if err != nil {
		return err
	}

	m.logger.Info("copying file", "cluster", c.Name, "local", localPath, "remote", remotePath, "hosts", len(hosts))
	return m.exec.Copy(ctx, hosts, localPath, remotePath)
}

func targetHosts(ctx context.Context, c *Cluster, masterOnly bool) ([]string, error) {
	eps, err := c.Endpoints(ctx)
	if err != nil {
		return nil, err
	}
	if masterOnly {
		eps = eps[:1]
	}

	hosts := make([]string, 0, len(eps))
	for i, ep := range eps {
		host := ep.Host
		if host == "" {
			host = ep.IP
		}
		if host == "" {
			return nil, fmt.Errorf("instance %s has no address yet", c.Instances()[i].ID)
		}
		hosts = append(hosts, host)
	}
	return hosts, nil
}

func recordLifecycle(op string, err error) {
	switch {
	case err == nil:
		metrics.RecordLifecycle(op, "success")
	case IsNothingToDo(err):
		metrics.RecordLifecycle(op, "nothing-to-do")
	default:
		metrics.RecordLifecycle(op, "error")
	}
}
