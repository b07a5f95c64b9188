package slipway

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/teranos/slipway/errors"
	"github.com/teranos/slipway/logger"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// DefaultName is the name assigned to schedulers constructed without one.
	DefaultName = "???"

	// DefaultMaxJobs is the concurrency bound used by the process-wide
	// default scheduler when configuration supplies none.
	DefaultMaxJobs = 8

	// closeTimeout bounds how long Close waits for running jobs to finish.
	closeTimeout = 30 * time.Second
)

// Options configures a Scheduler.
type Options struct {
	// Name labels the scheduler and prefixes default job names.
	// Empty defaults to DefaultName.
	Name string

	// MaxJobs bounds how many jobs may be in flight at once. Must be
	// positive; zero is rejected rather than silently replaced, so a
	// misconfigured "no concurrency" can never masquerade as "use default".
	MaxJobs int

	// Rate optionally throttles admissions from the pending queue.
	// Zero means unlimited.
	Rate rate.Limit

	// Burst is the admission burst size when Rate is set. Values below 1
	// are raised to 1.
	Burst int
}

type schedWatcher struct {
	id string
	fn Watcher
}

// Scheduler owns admission control, the FIFO pending queue, and the bounded
// running set for a pool of jobs.
type Scheduler struct {
	name    string
	maxJobs int
	limiter *rate.Limiter
	log     *zap.SugaredLogger

	// ctx is handed to job bodies; canceled on Close so blocking work can
	// observe shutdown. Running jobs are still never preempted by the
	// scheduler itself.
	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	seq        int64
	pending    []*Job
	running    map[int64]*Job
	watchers   []schedWatcher
	closed     bool
	retryArmed bool

	wg sync.WaitGroup
}

// New constructs a Scheduler. Returns errors.ErrInvalidOptions when MaxJobs
// is not positive.
func New(opts Options) (*Scheduler, error) {
	if opts.MaxJobs <= 0 {
		return nil, errors.Wrapf(errors.ErrInvalidOptions, "maxJobs must be positive, got %d", opts.MaxJobs)
	}
	if opts.Name == "" {
		opts.Name = DefaultName
	}

	var limiter *rate.Limiter
	if opts.Rate > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(opts.Rate, burst)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		name:    opts.Name,
		maxJobs: opts.MaxJobs,
		limiter: limiter,
		log:     logger.Named("slipway").With("scheduler", opts.Name),
		ctx:     ctx,
		cancel:  cancel,
		running: make(map[int64]*Job),
	}

	if warning := checkMemoryPressure(s.maxJobs); warning != "" {
		s.log.Warnw("Memory pressure warning", "warning", warning, "max_jobs", s.maxJobs)
	}

	return s, nil
}

// Name returns the scheduler's label.
func (s *Scheduler) Name() string { return s.name }

// MaxJobs returns the configured concurrency bound.
func (s *Scheduler) MaxJobs() int { return s.maxJobs }

// Submit schedules a plain callable. The job handle is returned immediately;
// the caller never blocks on admission or execution.
func (s *Scheduler) Submit(fn Func) *Job {
	return s.SubmitTask(Task{Run: fn})
}

// SubmitTask schedules a task descriptor: the next sequence id is allocated,
// a pending job is appended to the tail of the queue, scheduler watchers are
// notified of the new pending job, and a dispatch step runs. After Close the
// returned job is immediately canceled with errors.ErrSchedulerClosed.
func (s *Scheduler) SubmitTask(task Task) *Job {
	s.mu.Lock()
	id := s.seq
	s.seq++
	name := task.Name
	if name == "" {
		name = fmt.Sprintf("%s-%d", s.name, id)
	}
	job := &Job{
		id:        id,
		name:      name,
		task:      task,
		owner:     s,
		result:    newResult(),
		status:    StatusPending,
		announced: make(chan struct{}),
		createdAt: time.Now(),
	}
	if s.closed {
		s.mu.Unlock()
		close(job.announced)
		job.Cancel(errors.ErrSchedulerClosed)
		return job
	}
	s.pending = append(s.pending, job)
	queued := len(s.pending)
	s.mu.Unlock()

	s.log.Debugw("Job submitted", "job_id", id, "job", name, "queued", queued)
	s.fanout(job)
	close(job.announced)
	s.dispatch()
	return job
}

// SubmitWait schedules a task and awaits its result handle.
func (s *Scheduler) SubmitWait(ctx context.Context, task Task) (any, error) {
	return s.SubmitTask(task).Result().Wait(ctx)
}

// Watch registers a scheduler-wide observer invoked on every transition of
// every job submitted to this scheduler, in registration order, after the
// job's own watchers have fired for the same transition. The returned id
// unregisters the observer via Unwatch.
func (s *Scheduler) Watch(w Watcher) string {
	id := uuid.NewString()
	s.mu.Lock()
	s.watchers = append(s.watchers, schedWatcher{id: id, fn: w})
	s.mu.Unlock()
	return id
}

// Unwatch removes a scheduler-wide observer by its registration id.
func (s *Scheduler) Unwatch(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, w := range s.watchers {
		if w.id == id {
			s.watchers = append(s.watchers[:i], s.watchers[i+1:]...)
			return
		}
	}
}

// Pending returns the number of jobs awaiting admission.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Running returns the number of jobs currently in flight.
func (s *Scheduler) Running() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.running)
}

// Stats is a point-in-time snapshot of scheduler occupancy.
type Stats struct {
	Pending int `json:"pending"`
	Running int `json:"running"`
	MaxJobs int `json:"max_jobs"`
}

// GetStats returns scheduler occupancy counts.
func (s *Scheduler) GetStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Pending: len(s.pending),
		Running: len(s.running),
		MaxJobs: s.maxJobs,
	}
}

// Close stops admission, cancels all still-pending jobs with
// errors.ErrSchedulerClosed, cancels the context handed to job bodies, and
// waits up to closeTimeout for running jobs to finish. Running jobs are not
// preempted; a timeout leaves them finishing in the background.
func (s *Scheduler) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	s.log.Infow("Scheduler closing", "pending", len(pending), "running", s.Running())
	for _, j := range pending {
		j.Cancel(errors.ErrSchedulerClosed)
	}
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.log.Infow("Scheduler closed")
		return nil
	case <-time.After(closeTimeout):
		s.log.Warnw("Scheduler close timed out waiting for running jobs", "timeout", closeTimeout)
		return errors.Newf("scheduler %s: close timed out after %s", s.name, closeTimeout)
	}
}

// dispatch moves head-of-queue jobs into the running set while capacity
// remains. Triggered on submit and on every terminal transition; the latter
// is the sole mechanism that backfills freed capacity.
func (s *Scheduler) dispatch() {
	for {
		s.mu.Lock()
		if s.closed || len(s.pending) == 0 || len(s.running) >= s.maxJobs {
			s.mu.Unlock()
			return
		}

		if s.limiter != nil {
			reservation := s.limiter.Reserve()
			if delay := reservation.Delay(); delay > 0 {
				reservation.Cancel()
				if !s.retryArmed {
					s.retryArmed = true
					time.AfterFunc(delay, func() {
						s.mu.Lock()
						s.retryArmed = false
						s.mu.Unlock()
						s.dispatch()
					})
				}
				s.mu.Unlock()
				s.log.Debugw("Admission rate limited", "retry_in", delay)
				return
			}
		}

		job := s.pending[0]
		s.pending = s.pending[1:]
		s.running[job.id] = job
		s.wg.Add(1)
		free := s.maxJobs - len(s.running)
		s.mu.Unlock()

		if !job.execute() {
			// Lost the race with a concurrent Cancel between queue pop and
			// launch; the slot stays free.
			s.mu.Lock()
			delete(s.running, job.id)
			s.mu.Unlock()
			s.wg.Done()
			continue
		}
		s.log.Debugw("Job admitted", "job_id", job.id, "job", job.name, "free_slots", free)
	}
}

// jobTransitioned is the scheduler side of every job transition: terminal
// jobs leave the queue and the running set, scheduler-wide watchers fire
// after the job's own, and terminal transitions re-run dispatch.
func (s *Scheduler) jobTransitioned(j *Job, status Status) {
	if status.Terminal() {
		s.mu.Lock()
		delete(s.running, j.id)
		s.detachPendingLocked(j)
		s.mu.Unlock()
	}

	s.fanout(j)

	if status.Terminal() {
		s.log.Debugw("Job finished", "job_id", j.id, "job", j.name, "status", status)
		s.dispatch()
	}
}

// detachPendingLocked removes a job from the pending queue, if present.
// Requires s.mu.
func (s *Scheduler) detachPendingLocked(j *Job) {
	for i, p := range s.pending {
		if p == j {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return
		}
	}
}

// fanout invokes scheduler-wide watchers in registration order.
func (s *Scheduler) fanout(j *Job) {
	s.mu.Lock()
	if len(s.watchers) == 0 {
		s.mu.Unlock()
		return
	}
	watchers := make([]schedWatcher, len(s.watchers))
	copy(watchers, s.watchers)
	s.mu.Unlock()

	for _, w := range watchers {
		w.fn(j)
	}
}
