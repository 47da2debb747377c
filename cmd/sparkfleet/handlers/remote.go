package handlers

import (
	"context"
	"fmt"

	"github.com/imamik/sparkfleet/internal/cluster"
)

// RunCommand runs command on every node of a running cluster, or on the
// master only, and prints each host's output.
func RunCommand(ctx context.Context, g GlobalOptions, name, command string, masterOnly bool) (err error) {
	defer func() { err = finish(g, err) }()

	s, c, err := loadCluster(ctx, g, name)
	if err != nil {
		return err
	}
	if err := cluster.RunCommandCheck(c); err != nil {
		return err
	}
	runner, err := s.remote()
	if err != nil {
		return err
	}

	results, err := s.manager(nil, runner).RunCommand(ctx, c, command, masterOnly)
	renderCommandResults(stdout, results, styledOutput())
	if err != nil {
		return fmt.Errorf("command failed: %w", err)
	}
	return nil
}

// CopyFile copies a local file to every node of a running cluster, or to
// the master only.
func CopyFile(ctx context.Context, g GlobalOptions, name, localPath, remotePath string, masterOnly bool) (err error) {
	defer func() { err = finish(g, err) }()

	s, c, err := loadCluster(ctx, g, name)
	if err != nil {
		return err
	}
	if err := cluster.CopyFileCheck(c); err != nil {
		return err
	}
	runner, err := s.remote()
	if err != nil {
		return err
	}

	if err := s.manager(nil, runner).CopyFile(ctx, c, localPath, remotePath, masterOnly); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(stdout, "Copied %s to %s on cluster %s.\n", localPath, remotePath, name)
	return nil
}
