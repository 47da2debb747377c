package async

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Task is one unit of work in a fan-out, labelled for error reporting.
type Task struct {
	Name string
	Func func(context.Context) error
}

// RunParallel runs every task concurrently and waits for all of them.
// Failures are prefixed with the task name and joined in task order, so the
// combined message is stable across runs. With cancelOnError the shared
// context is cancelled on the first failure; tasks already running still
// finish and report.
//
//	err := RunParallel(ctx, []Task{
//	    {Name: "10.0.0.5", Func: runOnMaster},
//	    {Name: "10.0.0.6", Func: runOnWorker},
//	}, false)
func RunParallel(ctx context.Context, tasks []Task, cancelOnError bool) error {
	if len(tasks) == 0 {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errs := make([]error, len(tasks))
	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Go(func() {
			if err := task.Func(ctx); err != nil {
				errs[i] = fmt.Errorf("%s: %w", task.Name, err)
				if cancelOnError {
					cancel()
				}
			}
		})
	}
	wg.Wait()

	return errors.Join(errs...)
}
