package provisioning

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrRollbackDeclined is returned by a compensation when the operator refused
// it. Unwinding stops there; earlier compensations are skipped because they
// depend on the refused one having run.
var ErrRollbackDeclined = errors.New("rollback declined")

// Compensation undoes one acquired resource.
type Compensation struct {
	Name string
	Undo func(ctx context.Context) error
}

// Rollback is a LIFO stack of compensations. Every step that acquires a
// resource registers its undo action right after the acquisition succeeds.
type Rollback struct {
	mu    sync.Mutex
	steps []Compensation
}

// NewRollback returns an empty stack.
func NewRollback() *Rollback {
	return &Rollback{}
}

// Register pushes a compensation.
func (r *Rollback) Register(name string, undo func(ctx context.Context) error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, Compensation{Name: name, Undo: undo})
}

// Len returns the number of pending compensations.
func (r *Rollback) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.steps)
}

// Names returns the pending compensations in the order Run would execute them.
func (r *Rollback) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.steps))
	for i := len(r.steps) - 1; i >= 0; i-- {
		names = append(names, r.steps[i].Name)
	}
	return names
}

// Discard drops every pending compensation. Call it once the work they guard
// has succeeded.
func (r *Rollback) Discard() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = nil
}

// Run executes the compensations in reverse registration order and empties
// the stack. A failing compensation does not stop the ones registered before
// it; all failures are joined. A compensation returning ErrRollbackDeclined
// stops the unwinding and Run returns ErrRollbackDeclined.
func (r *Rollback) Run(ctx context.Context, observer Observer) error {
	r.mu.Lock()
	steps := r.steps
	r.steps = nil
	r.mu.Unlock()

	var errs []error
	for i := len(steps) - 1; i >= 0; i-- {
		step := steps[i]
		observer.Printf("[Rollback] %s", step.Name)
		err := step.Undo(ctx)
		switch {
		case err == nil:
		case errors.Is(err, ErrRollbackDeclined):
			observer.Printf("[Rollback] %s declined, %d remaining step(s) skipped", step.Name, i)
			return errors.Join(append(errs, ErrRollbackDeclined)...)
		default:
			observer.Printf("[Rollback] %s failed: %v", step.Name, err)
			errs = append(errs, fmt.Errorf("%s: %w", step.Name, err))
		}
	}
	return errors.Join(errs...)
}
