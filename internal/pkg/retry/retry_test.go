package retry

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("transient")

func fastConfig() *Config {
	return &Config{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond, BackoffMultiplier: 2}
}

func TestDo_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), fastConfig(), "read", func(ctx context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errTransient
		}
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 3, calls)
}

func TestDo_GivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastConfig(), "read", func(ctx context.Context) (string, error) {
		calls++
		return "", errTransient
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errTransient))
	assert.Equal(t, 3, calls)
}

func TestDo_DoesNotRetryPermanentErrors(t *testing.T) {
	permanent := errors.New("not found")
	cfg := fastConfig()
	cfg.ShouldRetry = func(err error) bool { return errors.Is(err, errTransient) }

	calls := 0
	_, err := Do(context.Background(), cfg, "read", func(ctx context.Context) (int, error) {
		calls++
		return 0, permanent
	})
	assert.Equal(t, permanent, err)
	assert.Equal(t, 1, calls)
}

func TestDo_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	_, err := Do(ctx, fastConfig(), "read", func(ctx context.Context) (int, error) {
		calls++
		return 0, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, calls)
}

func TestCalculateBackoff_Capped(t *testing.T) {
	cfg := &Config{InitialBackoff: 100 * time.Millisecond, MaxBackoff: 300 * time.Millisecond, BackoffMultiplier: 2}
	assert.Equal(t, 100*time.Millisecond, calculateBackoff(0, cfg))
	assert.Equal(t, 200*time.Millisecond, calculateBackoff(1, cfg))
	assert.Equal(t, 300*time.Millisecond, calculateBackoff(2, cfg))
}
