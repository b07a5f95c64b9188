package slipway

import (
	"sync"

	"github.com/teranos/slipway/config"
	"github.com/teranos/slipway/errors"
	"golang.org/x/time/rate"
)

var (
	defaultMu        sync.Mutex
	defaultScheduler *Scheduler
)

// Default returns the process-wide default scheduler, creating it lazily on
// first use. It is named "global" and takes MaxJobs and admission rate from
// configuration, falling back to DefaultMaxJobs. Once created it is never
// reconfigured; SetDefault must run before the first Default call.
func Default() *Scheduler {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultScheduler != nil {
		return defaultScheduler
	}

	opts := Options{Name: "global", MaxJobs: DefaultMaxJobs}
	if cfg, err := config.Load(); err == nil {
		if cfg.Scheduler.MaxJobs > 0 {
			opts.MaxJobs = cfg.Scheduler.MaxJobs
		}
		if cfg.Rate.PerSecond > 0 {
			opts.Rate = rate.Limit(cfg.Rate.PerSecond)
			opts.Burst = cfg.Rate.Burst
		}
	}

	s, err := New(opts)
	if err != nil {
		// Config supplied unusable options; the default instance still has
		// to exist, so fall back to the built-in bound.
		s, _ = New(Options{Name: "global", MaxJobs: DefaultMaxJobs})
	}
	defaultScheduler = s
	return defaultScheduler
}

// SetDefault injects the default scheduler, for tests and embedders that
// construct their own. Fails once the default has already been created or
// set; the default is never swapped out from under running callers.
func SetDefault(s *Scheduler) error {
	if s == nil {
		return errors.Wrap(errors.ErrInvalidOptions, "default scheduler cannot be nil")
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultScheduler != nil {
		return errors.New("default scheduler already initialized")
	}
	defaultScheduler = s
	return nil
}

// ResetDefault clears the default scheduler so the next Default call
// recreates it. Only for tests.
func ResetDefault() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultScheduler = nil
}
