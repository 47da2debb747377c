package provisioning

import (
	"context"

	"github.com/imamik/sparkfleet/internal/cluster"
)

// Phase defines the interface for a provisioning phase.
type Phase interface {
	// Name returns the human-readable name of this phase.
	Name() string

	// Provision executes the provisioning logic for this phase.
	Provision(ctx *Context) error
}

// ServiceProvisioner installs and configures the distributed processing
// service on a freshly launched cluster whose instances are all running.
// Implemented by internal/service.ScriptService.
type ServiceProvisioner interface {
	Provision(ctx context.Context, c *cluster.Cluster) error
}

// Confirmer asks the operator to approve a destructive action.
// It returns false when the operator declines.
type Confirmer func(ctx context.Context, prompt string) (bool, error)
