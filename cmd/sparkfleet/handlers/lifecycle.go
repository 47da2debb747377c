package handlers

import (
	"context"
	"fmt"

	"github.com/imamik/sparkfleet/internal/cluster"
)

// loadCluster prepares a session and discovers cluster name.
func loadCluster(ctx context.Context, g GlobalOptions, name string) (*session, *cluster.Cluster, error) {
	cfg, err := prepareConfig(g, name)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	s, err := newSession(ctx, g, cfg)
	if err != nil {
		return nil, nil, err
	}
	c, err := s.findCluster(ctx)
	if err != nil {
		return nil, nil, err
	}
	return s, c, nil
}

// Start starts a stopped cluster, then its services.
func Start(ctx context.Context, g GlobalOptions, name string) (err error) {
	defer func() { err = finish(g, err) }()

	s, c, err := loadCluster(ctx, g, name)
	if err != nil {
		return err
	}
	if err := cluster.StartCheck(c); err != nil {
		return err
	}
	hooks, err := s.hooks(s.cfg.Services.Start)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(stdout, "Starting cluster %s...\n", name)
	running, err := s.manager(hooks, nil).Start(ctx, c)
	if err != nil {
		return err
	}
	return renderStatus(ctx, stdout, running, styledOutput())
}

// Stop stops the services of a running cluster, then its instances.
func Stop(ctx context.Context, g GlobalOptions, name string) (err error) {
	defer func() { err = finish(g, err) }()

	s, c, err := loadCluster(ctx, g, name)
	if err != nil {
		return err
	}
	if err := cluster.StopCheck(c); err != nil {
		return err
	}
	hooks, err := s.hooks(s.cfg.Services.Stop)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(stdout, "Stopping cluster %s...\n", name)
	if _, err := s.manager(hooks, nil).Stop(ctx, c); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(stdout, "Cluster %s stopped.\n", name)
	return nil
}

// Destroy terminates every instance of a cluster and deletes its security
// group, asking first unless assumeYes.
func Destroy(ctx context.Context, g GlobalOptions, name string, assumeYes bool) (err error) {
	defer func() { err = finish(g, err) }()

	s, c, err := loadCluster(ctx, g, name)
	if err != nil {
		return err
	}

	if !assumeYes {
		ok, err := confirm(ctx, fmt.Sprintf("Terminate all %d instances of cluster %s?", len(c.Workers)+1, name))
		if err != nil {
			return fmt.Errorf("failed to confirm destroy: %w", err)
		}
		if !ok {
			_, _ = fmt.Fprintln(stdout, "Destroy cancelled.")
			return nil
		}
	}

	var hooks cluster.ServiceHooks
	if c.State() == cluster.StateRunning {
		if hooks, err = s.hooks(s.cfg.Services.Stop); err != nil {
			return err
		}
	}

	_, _ = fmt.Fprintf(stdout, "Destroying cluster %s...\n", name)
	if err := s.manager(hooks, nil).Destroy(ctx, c); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(stdout, "Cluster %s destroyed.\n", name)
	return nil
}
