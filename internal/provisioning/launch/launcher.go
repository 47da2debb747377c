package launch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/imamik/sparkfleet/internal/cluster"
	"github.com/imamik/sparkfleet/internal/metrics"
	"github.com/imamik/sparkfleet/internal/provisioning"
	"github.com/imamik/sparkfleet/internal/provisioning/compute"
	"github.com/imamik/sparkfleet/internal/provisioning/image"
	"github.com/imamik/sparkfleet/internal/provisioning/infrastructure"
)

// Launcher launches new clusters.
type Launcher struct {
	phases   []provisioning.Phase
	services provisioning.ServiceProvisioner
}

// Option configures a Launcher.
type Option func(*Launcher)

// WithPhases replaces the default phase list.
func WithPhases(phases ...provisioning.Phase) Option {
	return func(l *Launcher) { l.phases = phases }
}

// WithAddressResolver sets how the operator's addresses are found for the
// base security group rules.
func WithAddressResolver(r *infrastructure.AddressResolver) Option {
	return func(l *Launcher) { l.phases = DefaultPhases(r) }
}

// DefaultPhases returns the launch phases in execution order.
func DefaultPhases(addresses *infrastructure.AddressResolver) []provisioning.Phase {
	return []provisioning.Phase{
		provisioning.NewValidationPhase(),
		NewNetworkPhase(),
		infrastructure.NewProvisioner(addresses),
		image.NewProvisioner(),
		compute.NewProvisioner(),
	}
}

// NewLauncher creates a Launcher handing running clusters to services. A nil
// services skips service provisioning.
func NewLauncher(services provisioning.ServiceProvisioner, opts ...Option) *Launcher {
	l := &Launcher{
		phases:   DefaultPhases(nil),
		services: services,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Launch creates the cluster described by ctx.Config and returns it once
// every instance runs and services are provisioned.
//
// On failure, including cancellation of ctx, every registered compensation
// runs on a context that ignores the cancellation. The returned error always
// matches the original failure with errors.Is; rollback failures are joined
// to it.
func (l *Launcher) Launch(ctx *provisioning.Context) (*cluster.Cluster, error) {
	start := time.Now()
	strategy := ctx.Config.Strategy()

	c, err := l.launch(ctx)
	if err != nil {
		if rbErr := l.rollback(ctx); rbErr != nil {
			err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		metrics.RecordLaunch(strategy, "error", time.Since(start).Seconds())
		return nil, err
	}

	ctx.Rollback.Discard()
	metrics.RecordLaunch(strategy, "success", time.Since(start).Seconds())
	return c, nil
}

func (l *Launcher) launch(ctx *provisioning.Context) (*cluster.Cluster, error) {
	if err := provisioning.RunPhases(ctx, l.phases); err != nil {
		return nil, err
	}

	ids := ctx.State.InstanceIDs
	if len(ids) < 2 {
		return nil, fmt.Errorf("launch produced %d instance(s), need a master and at least one worker", len(ids))
	}
	skeleton := &cluster.Cluster{
		Name:   ctx.Config.ClusterName,
		Region: ctx.Config.Provider.EC2.Region,
		VPCID:  ctx.State.VPCID,
		Master: cluster.Instance{ID: ids[0]},
	}
	for _, id := range ids[1:] {
		skeleton.Workers = append(skeleton.Workers, cluster.Instance{ID: id})
	}

	ctx.Observer.Printf("[launch] Waiting for %d instance(s) to run...", len(ids))
	converger := cluster.NewConverger(ctx.EC2, ctx.Timeouts.ConvergePoll, ctx.Logger)
	c, err := converger.WaitForState(ctx, skeleton, cluster.StateRunning, ctx.Timeouts.InstanceState)
	if err != nil {
		return nil, err
	}
	ctx.State.Cluster = c

	if l.services != nil {
		ctx.Observer.Printf("[launch] Provisioning services on cluster %s", c.Name)
		if err := l.services.Provision(ctx, c); err != nil {
			return nil, fmt.Errorf("failed to provision services: %w", err)
		}
	}
	return c, nil
}

func (l *Launcher) rollback(ctx *provisioning.Context) error {
	if ctx.Rollback.Len() == 0 {
		return nil
	}
	ctx.Observer.Printf("[rollback] Launch failed, undoing %d step(s)", ctx.Rollback.Len())

	err := ctx.Rollback.Run(context.WithoutCancel(ctx), ctx.Observer)
	switch {
	case err == nil:
		metrics.RecordRollback("completed")
	case errors.Is(err, provisioning.ErrRollbackDeclined):
		metrics.RecordRollback("declined")
	default:
		metrics.RecordRollback("failed")
	}
	return err
}
