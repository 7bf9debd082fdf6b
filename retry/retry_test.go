package retry

import (
	"context"
	"errors"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		hint    time.Duration
		err     error
		outcome Outcome
	}{
		{"ok", 200, 0, nil, Success},
		{"not found is permanent", 404, 0, nil, Permanent},
		{"server error is transient", 503, 0, nil, Transient},
		{"429 is rate limited", 429, 0, nil, RateLimited},
		{"explicit hint forces rate limited", 200, 5 * time.Second, nil, RateLimited},
		{"zero status with no error is transient", 0, 0, nil, Transient},
		{"deadline exceeded is transient", 0, 0, context.DeadlineExceeded, Transient},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.outcome, Classify(c.status, c.hint, c.err))
		})
	}
}

func TestRetryHintSeconds(t *testing.T) {
	h := http.Header{}
	h.Set("Retry-After", "7")
	assert.Equal(t, 7*time.Second, RetryHint(h))
}

func TestRetryHintAbsent(t *testing.T) {
	assert.Equal(t, time.Duration(0), RetryHint(http.Header{}))
}

func TestNextDelayRespectsMax(t *testing.T) {
	// The exponential component is capped at MaxDelay; the additive jitter
	// in [0, BaseDelay) rides on top of the cap.
	p := Policy{MaxAttempts: 5, BaseDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond}
	for attempt := 0; attempt < 10; attempt++ {
		d := NextDelay(p, attempt, 0)
		assert.Less(t, d, p.MaxDelay+p.BaseDelay)
	}
}

func TestNextDelayExponentialWithAdditiveJitter(t *testing.T) {
	p := Policy{MaxAttempts: 5, BaseDelay: 100 * time.Millisecond, MaxDelay: time.Hour}
	for attempt := 0; attempt < 4; attempt++ {
		exp := p.BaseDelay * (1 << attempt)
		d := NextDelay(p, attempt, 0)
		assert.GreaterOrEqual(t, d, exp)
		assert.Less(t, d, exp+p.BaseDelay)
	}
}

func TestNextDelayHonorsServerHint(t *testing.T) {
	p := Policy{MaxAttempts: 3, BaseDelay: 10 * time.Millisecond, MaxDelay: 50 * time.Millisecond}
	d := NextDelay(p, 0, 2*time.Second)
	assert.Equal(t, 2*time.Second, d)
}

func TestNewPolicyFromEnvDefaults(t *testing.T) {
	os.Unsetenv("RETRY_MAX")
	os.Unsetenv("RETRY_BASE_MS")
	os.Unsetenv("RETRY_MAX_MS")

	p := NewPolicyFromEnv()
	assert.Equal(t, defaultMaxAttempts, p.MaxAttempts)
	assert.Equal(t, defaultBaseDelay, p.BaseDelay)
	assert.Equal(t, defaultMaxDelay, p.MaxDelay)
}

func TestNewPolicyFromEnvOverride(t *testing.T) {
	t.Setenv("RETRY_MAX", "5")
	t.Setenv("RETRY_BASE_MS", "1000")
	t.Setenv("RETRY_MAX_MS", "8000")

	p := NewPolicyFromEnv()
	assert.Equal(t, 5, p.MaxAttempts)
	assert.Equal(t, 1000*time.Millisecond, p.BaseDelay)
	assert.Equal(t, 8000*time.Millisecond, p.MaxDelay)
}

func TestNewPolicyFromEnvMalformedFallsBack(t *testing.T) {
	t.Setenv("RETRY_MAX", "not-a-number")
	p := NewPolicyFromEnv()
	assert.Equal(t, defaultMaxAttempts, p.MaxAttempts)
}

func TestDoSucceedsFirstTry(t *testing.T) {
	p := Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond}
	calls := 0
	history, err := Do(context.Background(), p, func(attempt int) (int, time.Duration, error) {
		calls++
		return 200, 0, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	require.Len(t, history, 1)
	assert.Equal(t, Success, history[0].Outcome)
}

func TestDoStopsOnPermanent(t *testing.T) {
	p := Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond}
	calls := 0
	_, err := Do(context.Background(), p, func(attempt int) (int, time.Duration, error) {
		calls++
		return 404, 0, nil
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesTransientThenSucceeds(t *testing.T) {
	p := Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
	calls := 0
	_, err := Do(context.Background(), p, func(attempt int) (int, time.Duration, error) {
		calls++
		if calls < 2 {
			return 503, 0, nil
		}
		return 200, 0, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestDoGivesUpAfterMaxAttempts(t *testing.T) {
	p := Policy{MaxAttempts: 2, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
	calls := 0
	_, err := Do(context.Background(), p, func(attempt int) (int, time.Duration, error) {
		calls++
		return 503, 0, nil
	})
	assert.ErrorIs(t, err, ErrGaveUp)
	assert.Equal(t, 2, calls)
}

func TestDoRespectsContextCancellation(t *testing.T) {
	p := Policy{MaxAttempts: 5, BaseDelay: 50 * time.Millisecond, MaxDelay: 100 * time.Millisecond}
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()
	_, err := Do(ctx, p, func(attempt int) (int, time.Duration, error) {
		calls++
		return 503, 0, nil
	})
	assert.True(t, errors.Is(err, context.Canceled) || errors.Is(err, ErrGaveUp))
}
