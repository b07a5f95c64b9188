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

func TestMapSubmitPreservesInputOrder(t *testing.T) {
	s := newScheduler(t, 2)
	items := []string{"a", "b", "c", "d"}

	jobs := slipway.MapSubmit(s, items, func(ctx context.Context, v string, i int, all []string) (any, error) {
		return v, nil
	})

	require.Len(t, jobs, len(items))
	for i := 1; i < len(jobs); i++ {
		assert.Greater(t, jobs[i].ID(), jobs[i-1].ID(), "jobs returned in submission order")
	}
}

func TestMapperReceivesSiblingContext(t *testing.T) {
	s := newScheduler(t, 3)
	items := []int{10, 20, 30}

	results, err := slipway.MapAll(context.Background(), s, items,
		func(ctx context.Context, v int, i int, all []int) (any, error) {
			// Each job can see the whole input and its own position.
			return v + i + len(all), nil
		})
	require.NoError(t, err)
	assert.Equal(t, []any{13, 24, 36}, results)
}

func TestMapAllOrderedResults(t *testing.T) {
	s := newScheduler(t, 3)

	results, err := slipway.MapAll(context.Background(), s, []int{1, 2, 3},
		func(ctx context.Context, v int, i int, all []int) (any, error) {
			// Stagger completion inversely to position: later inputs finish
			// first, results must still come back in input order.
			time.Sleep(time.Duration(len(all)-i) * 20 * time.Millisecond)
			return v * 2, nil
		})
	require.NoError(t, err)
	assert.Equal(t, []any{2, 4, 6}, results)
}

func TestMapAllFailsWithFirstFailureButSiblingsFinish(t *testing.T) {
	s := newScheduler(t, 3)
	boom := errors.New("second item is cursed")

	js := slipway.MapSubmit(s, []int{1, 2, 3}, func(ctx context.Context, v int, i int, all []int) (any, error) {
		if i == 1 {
			return nil, boom
		}
		time.Sleep(50 * time.Millisecond)
		return v * 2, nil
	})

	// Siblings are not canceled; they run to their own terminal states.
	waitStatus(t, js[0], slipway.StatusResolved)
	waitStatus(t, js[1], slipway.StatusRejected)
	waitStatus(t, js[2], slipway.StatusResolved)
}

func TestMapAllReturnsFirstFailure(t *testing.T) {
	s := newScheduler(t, 3)
	boom := errors.New("middle failure")

	_, err := slipway.MapAll(context.Background(), s, []int{1, 2, 3},
		func(ctx context.Context, v int, i int, all []int) (any, error) {
			if i == 1 {
				return nil, boom
			}
			time.Sleep(30 * time.Millisecond)
			return v, nil
		})
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom), "aggregate fails with the failing job's reason")
}

func TestMapAllEmptyInput(t *testing.T) {
	s := newScheduler(t, 1)
	results, err := slipway.MapAll(context.Background(), s, []int{},
		func(ctx context.Context, v int, i int, all []int) (any, error) { return v, nil })
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestMapRaceFirstSettlementWins(t *testing.T) {
	s := newScheduler(t, 2)
	slowGate := make(chan struct{})
	defer close(slowGate)

	v, err := slipway.MapRace(context.Background(), s, []string{"slow", "fast"},
		func(ctx context.Context, name string, i int, all []string) (any, error) {
			if name == "slow" {
				<-slowGate
			}
			return name, nil
		})
	require.NoError(t, err)
	assert.Equal(t, "fast", v, "the first job to settle wins regardless of submission order")
}

func TestMapRacePropagatesFirstFailure(t *testing.T) {
	s := newScheduler(t, 2)
	boom := errors.New("fast failure")
	slowGate := make(chan struct{})
	defer close(slowGate)

	_, err := slipway.MapRace(context.Background(), s, []int{0, 1},
		func(ctx context.Context, v int, i int, all []int) (any, error) {
			if v == 0 {
				<-slowGate
				return "slow", nil
			}
			return nil, boom
		})
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
}

func TestMapRaceEmptyInput(t *testing.T) {
	s := newScheduler(t, 1)
	_, err := slipway.MapRace(context.Background(), s, []int{},
		func(ctx context.Context, v int, i int, all []int) (any, error) { return v, nil })
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidOptions))
}

func TestMapAllRespectsWaitContext(t *testing.T) {
	s := newScheduler(t, 1)
	gate := make(chan struct{})
	defer close(gate)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := slipway.MapAll(ctx, s, []int{1},
		func(ctx context.Context, v int, i int, all []int) (any, error) {
			<-gate
			return v, nil
		})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
