// Package slipway is an in-process bounded-concurrency task scheduler.
//
// Callers submit units of asynchronous work as jobs. The scheduler admits at
// most MaxJobs of them into flight at any time, queues the rest in arrival
// order, and exposes per-job and scheduler-wide lifecycle observation.
//
//	s, err := slipway.New(slipway.Options{Name: "ingest", MaxJobs: 4})
//	if err != nil {
//		return err
//	}
//	job := s.Submit(func(ctx context.Context, args ...any) (any, error) {
//		return fetch(ctx, url)
//	})
//	v, err := job.Result().Wait(ctx)
//
// A job moves through a fixed state machine:
//
//	pending -> running -> resolved | rejected
//	pending -> canceled
//
// Running jobs are never preempted; cancellation is only effective before
// admission. Completion of a running job is the sole mechanism that backfills
// freed capacity from the pending queue.
package slipway
