package slipway

import "context"

// Func is the callable body of a job. The context comes from the owning
// scheduler and is canceled when the scheduler closes; bodies that block
// should honor it. Args are the arguments bound at submission time.
type Func func(ctx context.Context, args ...any) (any, error)

// Task is the descriptor form of a submission: a body plus an optional
// human-readable name and bound arguments. A plain callable submitted via
// Scheduler.Submit is normalized into this shape at job construction, so the
// rest of the scheduler deals with exactly one representation.
type Task struct {
	// Name labels the job. Empty means the scheduler assigns
	// "<scheduler-name>-<id>".
	Name string

	// Args are passed to Run on execution.
	Args []any

	// Run is the work itself.
	Run Func
}
