package slipway

import (
	"context"

	"github.com/teranos/slipway/errors"
)

// Mapper produces the body of one mapped job. It receives the element, its
// position, and the whole input slice, so siblings can consult each other's
// inputs.
type Mapper[T any] func(ctx context.Context, value T, index int, all []T) (any, error)

// MapSubmit submits one job per element of items, in iteration order, and
// returns the jobs in the same order.
func MapSubmit[T any](s *Scheduler, items []T, mapper Mapper[T]) []*Job {
	jobs := make([]*Job, len(items))
	for i, v := range items {
		jobs[i] = s.SubmitTask(Task{
			Run: func(ctx context.Context, _ ...any) (any, error) {
				return mapper(ctx, v, i, items)
			},
		})
	}
	return jobs
}

type settled struct {
	index int
	value any
	err   error
}

// awaitEach settles every job onto a buffered channel so aggregation can
// observe completions in the order they happen, not input order.
func awaitEach(ctx context.Context, jobs []*Job) <-chan settled {
	ch := make(chan settled, len(jobs))
	for i, j := range jobs {
		go func(i int, j *Job) {
			v, err := j.Result().Wait(ctx)
			ch <- settled{index: i, value: v, err: err}
		}(i, j)
	}
	return ch
}

// MapAll submits via MapSubmit and aggregates with all-semantics: it
// succeeds with the ordered results once every job resolves, or fails with
// the reason of the first job to reject or be canceled. Sibling jobs are not
// canceled on failure; they run to their own terminal states and remain
// observable through their individual handles.
func MapAll[T any](ctx context.Context, s *Scheduler, items []T, mapper Mapper[T]) ([]any, error) {
	jobs := MapSubmit(s, items, mapper)
	if len(jobs) == 0 {
		return []any{}, nil
	}

	ch := awaitEach(ctx, jobs)
	results := make([]any, len(jobs))
	for range jobs {
		st := <-ch
		if st.err != nil {
			return nil, st.err
		}
		results[st.index] = st.value
	}
	return results, nil
}

// MapRace submits via MapSubmit and settles with the first job to resolve or
// reject, whichever happens first. Remaining jobs keep running untouched.
// Racing an empty input is an error: it could never settle.
func MapRace[T any](ctx context.Context, s *Scheduler, items []T, mapper Mapper[T]) (any, error) {
	jobs := MapSubmit(s, items, mapper)
	if len(jobs) == 0 {
		return nil, errors.Wrap(errors.ErrInvalidOptions, "race over empty input never settles")
	}

	st := <-awaitEach(ctx, jobs)
	return st.value, st.err
}
