package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_Success(t *testing.T) {
	attempts := 0
	operation := func() error {
		attempts++
		return nil
	}

	err := Do(context.Background(), operation, 3, 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 1, attempts, "should succeed on first try")
}

func TestDo_EventualSuccess(t *testing.T) {
	attempts := 0
	operation := func() error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	}

	err := Do(context.Background(), operation, 5, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 3, attempts, "should succeed on third attempt")
}

func TestDo_AllAttemptsFail(t *testing.T) {
	attempts := 0
	expectedErr := errors.New("persistent error")
	operation := func() error {
		attempts++
		return expectedErr
	}

	err := Do(context.Background(), operation, 3, time.Millisecond)
	require.Error(t, err)
	assert.Equal(t, expectedErr, err, "should return the original error")
	assert.Equal(t, 3, attempts, "should attempt exactly maxAttempts times")
}

func TestDo_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	operation := func() error {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return errors.New("error")
	}

	err := Do(ctx, operation, 10, 10*time.Millisecond)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.LessOrEqual(t, attempts, 2, "should stop when context is canceled")
}

func TestDo_InvalidMaxAttempts(t *testing.T) {
	for _, maxAttempts := range []int{0, -1} {
		attempts := 0
		err := Do(context.Background(), func() error {
			attempts++
			return nil
		}, maxAttempts, time.Millisecond)
		assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
		assert.Zero(t, attempts)
	}
}

func TestBackoff(t *testing.T) {
	base := 10 * time.Millisecond
	assert.Equal(t, 10*time.Millisecond, Backoff(base, 1))
	assert.Equal(t, 20*time.Millisecond, Backoff(base, 2))
	assert.Equal(t, 40*time.Millisecond, Backoff(base, 3))
	assert.Zero(t, Backoff(0, 5))
}

func TestWait(t *testing.T) {
	require.NoError(t, Wait(context.Background(), 0))
	require.NoError(t, Wait(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Wait(ctx, time.Hour), context.Canceled)
}
