package slipway_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	slipway "github.com/teranos/slipway"
	"github.com/teranos/slipway/errors"
)

func TestResultSettlesExactlyOnce(t *testing.T) {
	s := newScheduler(t, 1)
	_, release := blockSlot(t, s)
	defer release()

	job := s.Submit(func(ctx context.Context, _ ...any) (any, error) { return nil, nil })
	require.False(t, job.Result().Settled())

	first := errors.New("first reason")
	require.True(t, job.Cancel(first))
	require.True(t, job.Result().Settled())

	// A second cancellation cannot re-settle the handle.
	job.Cancel(errors.New("second reason"))
	_, err := job.Result().Wait(context.Background())
	assert.True(t, errors.Is(err, first))
}

func TestResultDoneChannel(t *testing.T) {
	s := newScheduler(t, 1)
	job := s.Submit(func(ctx context.Context, _ ...any) (any, error) { return "v", nil })

	select {
	case <-job.Result().Done():
	case <-time.After(5 * time.Second):
		t.Fatal("result never settled")
	}
	assert.Equal(t, "v", job.Result().Value())
	assert.NoError(t, job.Result().Err())
}

func TestResultWaitAbandonsOnContextCancel(t *testing.T) {
	s := newScheduler(t, 1)
	job, release := blockSlot(t, s)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := job.Result().Wait(ctx)
	assert.True(t, errors.Is(err, context.Canceled))

	// Abandoning the wait does not disturb the job.
	assert.Equal(t, slipway.StatusRunning, job.Status())
	release()
	waitStatus(t, job, slipway.StatusResolved)
}
