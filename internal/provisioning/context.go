package provisioning

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/go-logr/logr"

	"github.com/imamik/sparkfleet/internal/cluster"
	"github.com/imamik/sparkfleet/internal/config"
	"github.com/imamik/sparkfleet/pkg/cloud"
)

// State holds the shared results of provisioning phases.
// It is progressively populated as each phase completes and is passed
// to subsequent phases that need earlier results.
type State struct {
	// Network results (populated by the network phase)
	VPCID string

	// Security groups (populated by the infrastructure provisioner)
	BaseGroupID    string
	ClusterGroupID string
	ClusterCreated bool // cluster group was created by this launch

	// Launch specification (populated by the image provisioner)
	BlockDevices []types.BlockDeviceMapping

	// Compute results (populated by the compute provisioner)
	SpotRequestIDs []string
	InstanceIDs    []string // acquisition order, master first once tagged

	// Final cluster (populated once instances are running)
	Cluster *cluster.Cluster
}

// NewState creates an empty provisioning state.
func NewState() *State {
	return &State{}
}

// Context wraps all dependencies and state needed for a provisioning phase.
type Context struct {
	context.Context
	Config   *config.Config
	State    *State
	EC2      cloud.EC2API
	Observer Observer
	Logger   logr.Logger
	Timeouts *config.Timeouts
	Rollback *Rollback

	// Confirm approves terminating instances during rollback. Nil, or
	// Config.Launch.AssumeYes, approves without asking.
	Confirm Confirmer
}

// NewContext creates a new provisioning context. The observer writes
// through logger.
func NewContext(ctx context.Context, cfg *config.Config, api cloud.EC2API, logger logr.Logger) *Context {
	return &Context{
		Context:  ctx,
		Config:   cfg,
		State:    NewState(),
		EC2:      api,
		Observer: NewConsoleObserver(logger),
		Logger:   logger,
		Timeouts: config.LoadTimeouts(),
		Rollback: NewRollback(),
	}
}
