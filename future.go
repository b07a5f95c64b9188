package slipway

import (
	"context"
	"sync"
)

// Result is a one-shot future holding a job's eventual outcome. It settles
// exactly once, either with a value or with a failure reason, in lock-step
// with the job's terminal transition.
type Result struct {
	once  sync.Once
	done  chan struct{}
	value any
	err   error
}

func newResult() *Result {
	return &Result{done: make(chan struct{})}
}

// settle records the outcome. Returns false if the result was already
// settled; the first settlement always wins.
func (r *Result) settle(value any, err error) bool {
	settled := false
	r.once.Do(func() {
		r.value = value
		r.err = err
		close(r.done)
		settled = true
	})
	return settled
}

// Done returns a channel closed when the result settles. Useful in select
// loops alongside other channels.
func (r *Result) Done() <-chan struct{} {
	return r.done
}

// Settled reports whether the result has settled.
func (r *Result) Settled() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the result settles or ctx is canceled. A ctx error only
// abandons the wait; the job itself keeps running.
func (r *Result) Wait(ctx context.Context) (any, error) {
	select {
	case <-r.done:
		return r.value, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Value returns the success value. Only meaningful after Done.
func (r *Result) Value() any {
	return r.value
}

// Err returns the failure reason. Only meaningful after Done.
func (r *Result) Err() error {
	return r.err
}
