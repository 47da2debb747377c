package cluster

import (
	"errors"
	"fmt"

	"github.com/containerd/errdefs"
)

// kindError is a sentinel that also carries an errdefs category, so callers
// can match either errors.Is(err, ErrNotFound) or errdefs.IsNotFound(err).
type kindError struct {
	msg  string
	kind error
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

var (
	ErrNotFound                  error = &kindError{"cluster not found", errdefs.ErrNotFound}
	ErrAlreadyExists             error = &kindError{"cluster already exists", errdefs.ErrAlreadyExists}
	ErrInvalidState              error = &kindError{"invalid cluster state", errdefs.ErrFailedPrecondition}
	ErrConfigurationNotSupported error = &kindError{"configuration not supported", errdefs.ErrNotImplemented}
	ErrNoDefaultVPC              error = &kindError{"no default VPC", errdefs.ErrNotFound}
	ErrTimeout                   error = &kindError{"timed out", errdefs.ErrUnavailable}
	ErrInconsistent              error = &kindError{"inconsistent cluster", errdefs.ErrDataLoss}

	// ErrNothingToDo signals an idempotent no-op. It is not a failure.
	ErrNothingToDo = errors.New("nothing to do")
)

// NotFoundError reports a named cluster with no live instances.
type NotFoundError struct {
	Name  string
	VPCID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no cluster %q found in %s", e.Name, e.VPCID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// AlreadyExistsError reports a launch for a name that is taken.
type AlreadyExistsError struct {
	Name  string
	VPCID string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("cluster %q already exists in %s", e.Name, e.VPCID)
}

func (e *AlreadyExistsError) Unwrap() error { return ErrAlreadyExists }

// InvalidStateError reports a command issued from an incompatible state.
type InvalidStateError struct {
	Name     string
	Command  string
	State    State
	Required State
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s cluster %q: state is %s, must be %s", e.Command, e.Name, e.State, e.Required)
}

func (e *InvalidStateError) Unwrap() error { return ErrInvalidState }

// NothingToDoError reports that the cluster is already where the command
// would take it.
type NothingToDoError struct {
	Name    string
	Command string
	State   State
}

func (e *NothingToDoError) Error() string {
	return fmt.Sprintf("cluster %q is already %s", e.Name, e.State)
}

func (e *NothingToDoError) Unwrap() error { return ErrNothingToDo }

// IsNothingToDo reports whether err is an idempotent no-op.
func IsNothingToDo(err error) bool {
	return errors.Is(err, ErrNothingToDo)
}

// ConfigurationNotSupportedError reports a VPC that lacks a required attribute.
type ConfigurationNotSupportedError struct {
	Message string
}

func (e *ConfigurationNotSupportedError) Error() string { return e.Message }

func (e *ConfigurationNotSupportedError) Unwrap() error { return ErrConfigurationNotSupported }

// NoDefaultVPCError reports a region without a default VPC when none was given.
type NoDefaultVPCError struct {
	Region string
}

func (e *NoDefaultVPCError) Error() string {
	return fmt.Sprintf("no default VPC in region %s; specify one with --vpc-id", e.Region)
}

func (e *NoDefaultVPCError) Unwrap() error { return ErrNoDefaultVPC }

// InconsistentClusterError reports provider state that violates the
// one-master, at-least-one-worker shape.
type InconsistentClusterError struct {
	Name    string
	Masters int
	Workers int
}

func (e *InconsistentClusterError) Error() string {
	return fmt.Sprintf("cluster %q is inconsistent: found %d master(s) and %d worker(s), expected 1 master and at least 1 worker",
		e.Name, e.Masters, e.Workers)
}

func (e *InconsistentClusterError) Unwrap() error { return ErrInconsistent }
