package provisioning

import (
	"fmt"
	"time"
)

// RunPhases runs phases in order against ctx. The first failing phase stops
// the run; compensations registered so far stay on ctx.Rollback for the
// caller to unwind.
func RunPhases(ctx *Context, phases []Phase) error {
	began := time.Now()
	ctx.Observer.Printf("Starting provisioning with %d phases...", len(phases))

	for i, phase := range phases {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s phase not started: %w", phase.Name(), err)
		}
		if err := runPhase(ctx, phase, fmt.Sprintf("%s (%d/%d)", phase.Name(), i+1, len(phases))); err != nil {
			return err
		}
	}

	ctx.Observer.Printf("Provisioning completed in %v", time.Since(began).Round(time.Millisecond))
	return nil
}

func runPhase(ctx *Context, phase Phase, label string) error {
	LogPhaseStart(ctx.Observer, label)
	began := time.Now()
	if err := phase.Provision(ctx); err != nil {
		LogPhaseFailed(ctx.Observer, label, err)
		return fmt.Errorf("%s phase failed: %w", phase.Name(), err)
	}
	LogPhaseComplete(ctx.Observer, label, time.Since(began))
	return nil
}
