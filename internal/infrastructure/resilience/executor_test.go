package resilience

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/cooperwalter/recipe-and-me/internal/infrastructure/config"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(breaker bool) Policy {
	return Policy{
		MaxAttempts:         3,
		InitialBackoff:      time.Millisecond,
		MaxBackoff:          2 * time.Millisecond,
		Multiplier:          2,
		BreakerEnabled:      breaker,
		BreakerMinRequests:  2,
		BreakerFailureRatio: 0.5,
		BreakerOpenTimeout:  time.Minute,
		BreakerProbeCalls:   1,
	}
}

func TestDoRetriesServerErrors(t *testing.T) {
	exec := NewExecutor(fastPolicy(false))

	attempts := 0
	err := exec.Do(context.Background(), "fetch", func(context.Context) error {
		attempts++
		if attempts < 3 {
			return &StatusError{Operation: "fetch", StatusCode: http.StatusBadGateway}
		}
		return nil
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDoDoesNotRetryClientErrors(t *testing.T) {
	exec := NewExecutor(fastPolicy(false))

	attempts := 0
	err := exec.Do(context.Background(), "fetch", func(context.Context) error {
		attempts++
		return &StatusError{Operation: "fetch", StatusCode: http.StatusNotFound}
	}, nil)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Equal(t, 1, attempts)
}

func TestDoStopsOnCancelledContext(t *testing.T) {
	exec := NewExecutor(fastPolicy(false))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := exec.Do(ctx, "fetch", func(context.Context) error {
		called = true
		return nil
	}, nil)

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestDoOpensCircuit(t *testing.T) {
	var transitions []gobreaker.State
	exec := NewExecutor(fastPolicy(true)).OnStateChange(func(_ string, _, to gobreaker.State) {
		transitions = append(transitions, to)
	})

	boom := errors.New("connection refused")
	noRetry := func(error) Outcome { return Outcome{Retry: false, Record: true} }
	for i := 0; i < 2; i++ {
		err := exec.Do(context.Background(), "llm", func(context.Context) error { return boom }, noRetry)
		require.ErrorIs(t, err, boom)
	}

	err := exec.Do(context.Background(), "llm", func(context.Context) error {
		t.Fatal("operation must not run while the circuit is open")
		return nil
	}, noRetry)
	assert.True(t, IsCircuitOpen(err))
	assert.Equal(t, []gobreaker.State{gobreaker.StateOpen}, transitions)

	// 其他操作不受影響
	assert.NoError(t, exec.Do(context.Background(), "fetch", func(context.Context) error { return nil }, noRetry))
}

func TestDoBeyondBreakerLimitStillRuns(t *testing.T) {
	exec := NewExecutor(fastPolicy(true))
	ok := func(context.Context) error { return nil }
	for i := 0; i < MaxBreakers; i++ {
		require.NoError(t, exec.Do(context.Background(), fmt.Sprintf("fetch:host-%d", i), ok, nil))
	}

	attempts := 0
	err := exec.Do(context.Background(), "fetch:one-more", func(context.Context) error {
		attempts++
		if attempts < 2 {
			return &StatusError{Operation: "fetch", StatusCode: http.StatusBadGateway}
		}
		return nil
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.Len(t, exec.breakers, MaxBreakers)
}

func TestClassifyHTTP(t *testing.T) {
	assert.Equal(t, Outcome{}, ClassifyHTTP(nil))
	assert.Equal(t, Outcome{Retry: false, Record: false}, ClassifyHTTP(context.Canceled))
	assert.Equal(t, Outcome{Retry: false, Record: true}, ClassifyHTTP(context.DeadlineExceeded))
	assert.Equal(t, Outcome{Retry: true, Record: false}, ClassifyHTTP(&StatusError{StatusCode: 429}))
	assert.Equal(t, Outcome{Retry: true, Record: true}, ClassifyHTTP(&StatusError{StatusCode: 503}))
	assert.Equal(t, Outcome{Retry: false, Record: false}, ClassifyHTTP(&StatusError{StatusCode: 403}))
	assert.Equal(t, Outcome{Retry: true, Record: true}, ClassifyHTTP(errors.New("dial tcp: i/o timeout")))
}

func TestPolicyFromConfig(t *testing.T) {
	p := PolicyFromConfig(config.ResilienceConfig{RetryMaxAttempts: 5, BreakerEnabled: true})
	assert.Equal(t, 5, p.MaxAttempts)
	assert.True(t, p.BreakerEnabled)
	assert.Equal(t, DefaultPolicy().InitialBackoff, p.InitialBackoff)
	assert.Equal(t, DefaultPolicy().BreakerOpenTimeout, p.BreakerOpenTimeout)

	assert.Equal(t, p.InitialBackoff, p.backoff(1))
	assert.Equal(t, 2*p.InitialBackoff, p.backoff(2))
	assert.Equal(t, p.MaxBackoff, p.backoff(20))
}

func TestStatusErrorMessage(t *testing.T) {
	err := &StatusError{Operation: "fetch page", StatusCode: 500, Body: " oops "}
	assert.Equal(t, "fetch page: upstream status 500: oops", err.Error())
}
