package errors_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teranos/slipway/errors"
)

func TestCancelReason_NilReason(t *testing.T) {
	err := errors.CancelReason(nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCanceled))
	assert.Equal(t, "job canceled", err.Error())
}

func TestCancelReason_CallerReasonStillMatchesSentinel(t *testing.T) {
	reason := errors.New("deadline moved up")
	err := errors.CancelReason(reason)

	assert.True(t, errors.Is(err, errors.ErrCanceled), "marked reason should match sentinel")
	assert.True(t, errors.Is(err, reason), "original reason should still match")
	assert.Contains(t, err.Error(), "deadline moved up")
}

func TestIsCanceled(t *testing.T) {
	assert.False(t, errors.IsCanceled(nil))
	assert.False(t, errors.IsCanceled(errors.New("unrelated")))
	assert.True(t, errors.IsCanceled(errors.ErrCanceled))
	assert.True(t, errors.IsCanceled(errors.Wrap(errors.ErrCanceled, "while draining queue")))
}

func TestSentinelsAreDistinct(t *testing.T) {
	assert.False(t, errors.Is(errors.ErrInvalidOptions, errors.ErrSchedulerClosed))
	assert.False(t, errors.Is(errors.ErrSchedulerClosed, errors.ErrCanceled))
}
