package slipway

import (
	"sync"
	"time"

	"github.com/teranos/slipway/errors"
)

// Status represents the current state of a job.
type Status string

const (
	StatusPending  Status = "pending"
	StatusRunning  Status = "running"
	StatusResolved Status = "resolved"
	StatusRejected Status = "rejected"
	StatusCanceled Status = "canceled"
)

// Terminal reports whether the status is final. Terminal jobs never change
// again and their result handle is settled.
func (s Status) Terminal() bool {
	switch s {
	case StatusResolved, StatusRejected, StatusCanceled:
		return true
	default:
		return false
	}
}

// IsValidStatus returns true if the status string is a valid Status.
func IsValidStatus(s string) bool {
	switch Status(s) {
	case StatusPending, StatusRunning, StatusResolved, StatusRejected, StatusCanceled:
		return true
	default:
		return false
	}
}

// Watcher observes job status transitions. A per-job watcher fires once per
// transition of that job; a scheduler-wide watcher fires once per transition
// of every job, after the job's own watchers for the same transition.
type Watcher func(j *Job)

// Job is a single schedulable unit of work. The owning scheduler assigns its
// id and admits it; the job mutates its own status through the state machine
// guards and nothing else does.
type Job struct {
	id     int64
	name   string
	task   Task
	owner  *Scheduler
	result *Result

	// announced is closed once the scheduler has delivered the new-pending
	// notification; execution waits for it so watchers can never observe
	// running before pending.
	announced chan struct{}

	mu       sync.Mutex
	status   Status
	launched bool // set once the scheduler admits the job; blocks cancellation
	watchers []Watcher

	createdAt   time.Time
	startedAt   time.Time
	completedAt time.Time
}

// ID returns the job's scheduler-assigned id. Ids are unique per scheduler
// and strictly increasing from 0 in submission order.
func (j *Job) ID() int64 { return j.id }

// Name returns the job's label.
func (j *Job) Name() string { return j.name }

// Result returns the job's one-shot result handle.
func (j *Job) Result() *Result { return j.result }

// Status returns the job's current status.
func (j *Job) Status() Status {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// CreatedAt returns when the job was submitted.
func (j *Job) CreatedAt() time.Time { return j.createdAt }

// StartedAt returns when the job transitioned to running. Zero until then.
func (j *Job) StartedAt() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.startedAt
}

// CompletedAt returns when the job reached a terminal status. Zero until then.
func (j *Job) CompletedAt() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.completedAt
}

// Watch registers an observer invoked once per status transition of this
// job, in registration order, before the scheduler-wide watchers fire for
// the same transition. Returns the job for chaining.
func (j *Job) Watch(w Watcher) *Job {
	j.mu.Lock()
	j.watchers = append(j.watchers, w)
	j.mu.Unlock()
	return j
}

// Cancel settles the job as failed with the given reason and transitions it
// to canceled. Effective only while the job is still pending and unadmitted;
// returns false without any state change otherwise. Running work is never
// preempted. A nil reason yields errors.ErrCanceled; any other reason is
// marked so it still matches that sentinel under errors.Is.
func (j *Job) Cancel(reason error) bool {
	j.mu.Lock()
	if j.status != StatusPending || j.launched {
		j.mu.Unlock()
		return false
	}
	j.status = StatusCanceled
	j.completedAt = time.Now()
	watchers := j.snapshotWatchersLocked()
	j.mu.Unlock()

	j.result.settle(nil, errors.CancelReason(reason))
	notify(watchers, j)
	j.owner.jobTransitioned(j, StatusCanceled)
	return true
}

// execute admits the job: the running transition and body invocation happen
// on a fresh goroutine, never inline in the caller's frame, so observers
// always see a running notification before any terminal one and the result
// never settles synchronously inside Submit. Returns false if the job is no
// longer pending (already admitted, or canceled in the meantime).
func (j *Job) execute() bool {
	j.mu.Lock()
	if j.status != StatusPending || j.launched {
		j.mu.Unlock()
		return false
	}
	j.launched = true
	j.mu.Unlock()

	go j.run()
	return true
}

// run drives the job from running to its terminal status on the execution
// goroutine.
func (j *Job) run() {
	defer j.owner.wg.Done()

	<-j.announced

	j.mu.Lock()
	j.status = StatusRunning
	j.startedAt = time.Now()
	watchers := j.snapshotWatchersLocked()
	j.mu.Unlock()

	notify(watchers, j)
	j.owner.jobTransitioned(j, StatusRunning)

	value, err := j.invoke()
	if err != nil {
		j.finish(StatusRejected, nil, err)
		return
	}
	j.finish(StatusResolved, value, nil)
}

// invoke runs the task body with its bound arguments, converting panics into
// failure reasons so they never escape to the scheduler.
func (j *Job) invoke() (value any, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = errors.Newf("job body panicked: %v", p)
		}
	}()
	if j.task.Run == nil {
		return nil, errors.Wrap(errors.ErrInvalidOptions, "task has no body")
	}
	return j.task.Run(j.owner.ctx, j.task.Args...)
}

// finish applies a terminal transition, settles the result in lock-step, and
// notifies watchers.
func (j *Job) finish(status Status, value any, err error) {
	j.mu.Lock()
	j.status = status
	j.completedAt = time.Now()
	watchers := j.snapshotWatchersLocked()
	j.mu.Unlock()

	if status == StatusResolved {
		j.result.settle(value, nil)
	} else {
		j.result.settle(nil, err)
	}

	notify(watchers, j)
	j.owner.jobTransitioned(j, status)
}

func (j *Job) snapshotWatchersLocked() []Watcher {
	if len(j.watchers) == 0 {
		return nil
	}
	watchers := make([]Watcher, len(j.watchers))
	copy(watchers, j.watchers)
	return watchers
}

func notify(watchers []Watcher, j *Job) {
	for _, w := range watchers {
		w(j)
	}
}
