package handlers

import (
	"context"
	"fmt"

	"github.com/imamik/sparkfleet/internal/util/naming"
)

// Describe prints the named clusters, or every cluster in the VPC when
// names is empty.
func Describe(ctx context.Context, g GlobalOptions, names []string, output string) (err error) {
	defer func() { err = finish(g, err) }()

	if output != OutputText && output != OutputYAML {
		return fmt.Errorf("unsupported output format %q: must be %s or %s", output, OutputText, OutputYAML)
	}
	for _, name := range names {
		if err := naming.ValidateCluster(name); err != nil {
			return err
		}
	}

	cfg, err := prepareConfig(g, "")
	if err != nil {
		return err
	}
	if cfg.Provider.EC2.Region == "" {
		return fmt.Errorf("region is required")
	}

	s, err := newSession(ctx, g, cfg)
	if err != nil {
		return err
	}
	clusters, err := s.discoverer().GetClusters(ctx, names, cfg.Provider.EC2.VPCID)
	if err != nil {
		return err
	}

	if output == OutputYAML {
		return renderYAML(ctx, stdout, clusters)
	}
	if len(clusters) == 0 {
		_, _ = fmt.Fprintln(stdout, "No clusters found.")
		return nil
	}
	styled := styledOutput()
	for _, c := range clusters {
		if err := renderStatus(ctx, stdout, c, styled); err != nil {
			return err
		}
	}
	return nil
}
