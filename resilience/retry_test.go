package resilience

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

func fastConfig(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		BackoffFactor:  2.0,
		RetryIf:        func(error) bool { return true },
	}
}

func TestRetry_SucceedsOnFirstAttempt(t *testing.T) {
	calls := 0
	result, err := Retry(context.Background(), DefaultRetryConfig(), func(ctx context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	if err != nil || result != "ok" {
		t.Errorf("got %q, %v", result, err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetry_SucceedsAfterRetry(t *testing.T) {
	calls := 0
	result, err := Retry(context.Background(), fastConfig(3), func(ctx context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("temporary")
		}
		return 42, nil
	})
	if err != nil || result != 42 {
		t.Errorf("got %d, %v", result, err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetry_ReturnsLastErrorUnchanged(t *testing.T) {
	persistent := errors.New("persistent")
	calls := 0
	_, err := Retry(context.Background(), fastConfig(3), func(ctx context.Context) (int, error) {
		calls++
		return 0, persistent
	})
	if err != persistent {
		t.Errorf("expected the last error unchanged, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetry_StopsOnPermanentError(t *testing.T) {
	cfg := fastConfig(5)
	cfg.RetryIf = IsTransient
	calls := 0
	_, err := Retry(context.Background(), cfg, func(ctx context.Context) (int, error) {
		calls++
		return 0, errors.New("unrecognized pipeline stage")
	})
	if err == nil || calls != 1 {
		t.Errorf("expected a single attempt, got %d (err %v)", calls, err)
	}
}

func TestRetry_ZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	_, _ = Retry(context.Background(), RetryConfig{RetryIf: func(error) bool { return true }}, func(ctx context.Context) (int, error) {
		calls++
		return 0, errors.New("fail")
	})
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetry_RespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := Retry(ctx, fastConfig(3), func(ctx context.Context) (int, error) {
		calls++
		return 0, nil
	})
	if !errors.Is(err, context.Canceled) || calls != 0 {
		t.Errorf("expected cancellation before any call, got %d calls, %v", calls, err)
	}
}

func TestRetry_CancelDuringBackoff(t *testing.T) {
	cfg := fastConfig(3)
	cfg.InitialBackoff = time.Hour
	cfg.MaxBackoff = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	failure := errors.New("network")
	_, err := Retry(ctx, cfg, func(ctx context.Context) (int, error) {
		cancel()
		return 0, failure
	})
	if err != failure {
		t.Errorf("expected the attempt's error, got %v", err)
	}
}

func TestRetry_OnRetryCallback(t *testing.T) {
	cfg := fastConfig(3)
	var attempts []int
	cfg.OnRetry = func(attempt int, err error, backoff time.Duration) {
		attempts = append(attempts, attempt)
	}
	_, _ = Retry(context.Background(), cfg, func(ctx context.Context) (int, error) {
		return 0, errors.New("fail")
	})
	if len(attempts) != 2 || attempts[0] != 1 || attempts[1] != 2 {
		t.Errorf("unexpected retry callbacks %v", attempts)
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("bad stage"), false},
		{"canceled", context.Canceled, false},
		{"deadline", fmt.Errorf("wrapped: %w", context.DeadlineExceeded), false},
		{"labeled command error", mongo.CommandError{Code: 91, Labels: []string{LabelRetryableRead}}, true},
		{"transient transaction", mongo.CommandError{Code: 112, Labels: []string{LabelTransientTransaction}}, true},
		{"unlabeled command error", mongo.CommandError{Code: 40324, Message: "Unrecognized pipeline stage name"}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsTransient(tc.err); got != tc.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestCalculateBackoff(t *testing.T) {
	cfg := RetryConfig{
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     time.Second,
		BackoffFactor:  2.0,
	}
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{5, time.Second},
	}
	for _, tc := range tests {
		if got := calculateBackoff(tc.attempt, cfg); got != tc.want {
			t.Errorf("attempt %d: got %v, want %v", tc.attempt, got, tc.want)
		}
	}
}
