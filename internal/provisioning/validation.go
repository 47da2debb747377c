package provisioning

import (
	"fmt"
	"strings"

	"github.com/imamik/sparkfleet/internal/util/tags"
)

// ValidationError represents a configuration validation error or warning.
type ValidationError struct {
	Field    string // Configuration field that failed validation
	Message  string // Human-readable error message
	Severity string // "error" or "warning"
}

// Error implements the error interface.
func (ve ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", ve.Severity, ve.Field, ve.Message)
}

// IsError returns true if this is an error (not a warning).
func (ve ValidationError) IsError() bool {
	return ve.Severity == "error"
}

// ValidationPhase implements the Phase interface for pre-flight validation.
type ValidationPhase struct{}

// NewValidationPhase creates a new validation phase.
func NewValidationPhase() *ValidationPhase {
	return &ValidationPhase{}
}

// Name implements the Phase interface.
func (vp *ValidationPhase) Name() string {
	return "validation"
}

// Provision implements the Phase interface.
func (vp *ValidationPhase) Provision(ctx *Context) error {
	ctx.Observer.Printf("[Validation] Running pre-flight validation...")

	if err := ctx.Config.ValidateLaunch(); err != nil {
		return err
	}

	var errs []ValidationError
	for _, ve := range validate(ctx) {
		if ve.IsError() {
			errs = append(errs, ve)
			continue
		}
		LogValidationWarning(ctx.Observer, ve.Field, ve.Message)
	}

	if len(errs) > 0 {
		var errMsgs []string
		for _, e := range errs {
			errMsgs = append(errMsgs, e.Error())
		}
		return fmt.Errorf("configuration validation failed:\n  %s", strings.Join(errMsgs, "\n  "))
	}

	ctx.Observer.Printf("[Validation] Validation passed")
	return nil
}

// validate runs the checks that go beyond config.ValidateLaunch and returns
// any errors or warnings.
func validate(ctx *Context) []ValidationError {
	var errs []ValidationError
	cfg := ctx.Config
	ec2 := cfg.Provider.EC2

	for k := range ec2.Tags {
		if tags.Reserved(k) {
			errs = append(errs, ValidationError{
				Field:    "provider.ec2.tags",
				Message:  fmt.Sprintf("tag %q is managed by sparkfleet and will be ignored", k),
				Severity: "warning",
			})
		}
	}

	if ec2.IdentityFile == "" {
		errs = append(errs, ValidationError{
			Field:    "provider.ec2.identity_file",
			Message:  "no identity file configured, the service cannot be provisioned over SSH",
			Severity: "warning",
		})
	}

	if ec2.PlacementGroup != "" && ec2.Tenancy == "host" {
		errs = append(errs, ValidationError{
			Field:    "provider.ec2.placement_group",
			Message:  "placement groups cannot be combined with host tenancy",
			Severity: "error",
		})
	}

	if cfg.Spot() && ec2.ShutdownBehavior == "stop" {
		errs = append(errs, ValidationError{
			Field:    "provider.ec2.instance_initiated_shutdown_behavior",
			Message:  "one-time spot instances cannot be stopped, use terminate",
			Severity: "error",
		})
	}

	if ec2.UserData != "" && len(ec2.UserData) > 16*1024 {
		errs = append(errs, ValidationError{
			Field:    "provider.ec2.user_data",
			Message:  fmt.Sprintf("user data is %d bytes, EC2 accepts at most 16384", len(ec2.UserData)),
			Severity: "error",
		})
	}

	return errs
}
