package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedClassifier marks every error as transient or not.
type scriptedClassifier struct {
	transient bool
}

func (c scriptedClassifier) IsTransient(err error) bool { return c.transient }

func fastBackoff(maxAttempts int) *ExponentialBackoff {
	return NewExponentialBackoff(maxAttempts,
		WithInitialDelay(time.Millisecond),
		WithMaxDelay(2*time.Millisecond),
		WithJitter(0),
	)
}

func TestExecuteSucceedsFirstTry(t *testing.T) {
	e := NewExecutor(scriptedClassifier{transient: true}, fastBackoff(3))

	calls := 0
	err := e.Execute(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestExecuteRetriesTransientErrors(t *testing.T) {
	e := NewExecutor(scriptedClassifier{transient: true}, fastBackoff(5))

	calls := 0
	err := e.Execute(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestExecuteStopsOnPermanentError(t *testing.T) {
	e := NewExecutor(scriptedClassifier{transient: false}, fastBackoff(5))

	calls := 0
	permanent := errors.New("permanent")
	err := e.Execute(context.Background(), func(ctx context.Context) error {
		calls++
		return permanent
	})

	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestExecuteExhaustsAttempts(t *testing.T) {
	e := NewExecutor(scriptedClassifier{transient: true}, fastBackoff(2))

	calls := 0
	transient := errors.New("still failing")
	err := e.Execute(context.Background(), func(ctx context.Context) error {
		calls++
		return transient
	})

	assert.ErrorIs(t, err, transient)
	// Initial attempt plus two retries.
	assert.Equal(t, 3, calls)
}

func TestExecuteHonorsCancellation(t *testing.T) {
	e := NewExecutor(scriptedClassifier{transient: true},
		NewExponentialBackoff(10, WithInitialDelay(time.Hour), WithJitter(0)))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := e.Execute(ctx, func(ctx context.Context) error {
		return errors.New("transient")
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestWithOnRetryDoesNotMutateReceiver(t *testing.T) {
	base := NewExecutor(scriptedClassifier{transient: true}, fastBackoff(2))

	retries := 0
	withCallback := base.WithOnRetry(func(attempt int, err error, delay time.Duration) {
		retries++
	})

	_ = withCallback.Execute(context.Background(), func(ctx context.Context) error {
		return errors.New("transient")
	})
	assert.Equal(t, 2, retries)

	retries = 0
	_ = base.Execute(context.Background(), func(ctx context.Context) error {
		return errors.New("transient")
	})
	assert.Zero(t, retries, "base executor must not gain the callback")
}

func TestNewExecutorPanicsOnNil(t *testing.T) {
	assert.Panics(t, func() { NewExecutor(nil, fastBackoff(1)) })
	assert.Panics(t, func() { NewExecutor(scriptedClassifier{}, nil) })
}
